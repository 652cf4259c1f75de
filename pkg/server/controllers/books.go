/* Copyright 2025 Biblios Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package controllers

import (
	"net/http"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/presenters"
)

// NewBooks creates a new Books controller
func NewBooks(app *app.App) *Books {
	return &Books{
		app: app,
	}
}

// Books is a books controller
type Books struct {
	app *app.App
}

type createBookPayload struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Category      string `json:"category"`
	Publisher     string `json:"publisher"`
	PublishedYear int    `json:"published_year"`
	Description   string `json:"description"`
}

// Create handles POST /v1/books
func (b *Books) Create(w http.ResponseWriter, r *http.Request) {
	var payload createBookPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	book, err := b.app.CreateBook(app.CreateBookParams{
		Title:         payload.Title,
		Author:        payload.Author,
		ISBN:          payload.ISBN,
		Category:      payload.Category,
		Publisher:     payload.Publisher,
		PublishedYear: payload.PublishedYear,
		Description:   payload.Description,
	})
	if err != nil {
		handleJSONError(w, err, "creating book")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentBook(book))
}

// Index handles GET /v1/books
func (b *Books) Index(w http.ResponseWriter, r *http.Request) {
	var q app.BookQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	books, err := b.app.ListBooks(q)
	if err != nil {
		handleJSONError(w, err, "listing books")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBooks(books))
}

// Show handles GET /v1/books/{bookID}
func (b *Books) Show(w http.ResponseWriter, r *http.Request) {
	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	book, err := b.app.GetBook(bookID)
	if err != nil {
		handleJSONError(w, err, "getting book")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBook(book))
}

type updateBookPayload struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Category    *string `json:"category"`
	Publisher   *string `json:"publisher"`
	Description *string `json:"description"`
}

// Update handles PATCH /v1/books/{bookID}
func (b *Books) Update(w http.ResponseWriter, r *http.Request) {
	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload updateBookPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	book, err := b.app.UpdateBook(bookID, app.UpdateBookParams{
		Title:       payload.Title,
		Author:      payload.Author,
		Category:    payload.Category,
		Publisher:   payload.Publisher,
		Description: payload.Description,
	})
	if err != nil {
		handleJSONError(w, err, "updating book")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBook(book))
}

// Delete handles DELETE /v1/books/{bookID}
func (b *Books) Delete(w http.ResponseWriter, r *http.Request) {
	bookID, err := getIntParam(r, "bookID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := b.app.DeleteBook(bookID); err != nil {
		handleJSONError(w, err, "deleting book")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
