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
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/presenters"
)

// NewCopies creates a new Copies controller
func NewCopies(app *app.App) *Copies {
	return &Copies{
		app: app,
	}
}

// Copies is a book copies controller
type Copies struct {
	app *app.App
}

type createCopyPayload struct {
	BookID       int    `json:"book_id"`
	ShelfID      *int   `json:"shelf_id"`
	Barcode      string `json:"barcode"`
	Condition    string `json:"condition"`
	LocationCode string `json:"location_code"`
}

// Create handles POST /v1/copies
func (c *Copies) Create(w http.ResponseWriter, r *http.Request) {
	var payload createCopyPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	copy, err := c.app.CreateCopy(app.CreateCopyParams{
		BookID:       payload.BookID,
		ShelfID:      payload.ShelfID,
		Barcode:      payload.Barcode,
		Condition:    payload.Condition,
		LocationCode: payload.LocationCode,
	})
	if err != nil {
		handleJSONError(w, err, "creating copy")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentCopy(copy))
}

// Index handles GET /v1/copies
func (c *Copies) Index(w http.ResponseWriter, r *http.Request) {
	var q app.CopyQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	copies, err := c.app.ListCopies(q)
	if err != nil {
		handleJSONError(w, err, "listing copies")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentCopies(copies))
}

// Show handles GET /v1/copies/{copyID}
func (c *Copies) Show(w http.ResponseWriter, r *http.Request) {
	copyID, err := getIntParam(r, "copyID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	copy, err := c.app.GetCopy(copyID)
	if err != nil {
		handleJSONError(w, err, "getting copy")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentCopy(copy))
}

type setCopyStatusPayload struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /v1/copies/{copyID}/status
func (c *Copies) SetStatus(w http.ResponseWriter, r *http.Request) {
	copyID, err := getIntParam(r, "copyID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload setCopyStatusPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	status, err := database.ParseCopyStatus(payload.Status)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	copy, err := c.app.SetCopyStatus(copyID, status)
	if err != nil {
		handleJSONError(w, err, "setting copy status")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentCopy(copy))
}

type moveCopyPayload struct {
	ShelfID *int `json:"shelf_id"`
}

// Move handles PATCH /v1/copies/{copyID}/shelf
func (c *Copies) Move(w http.ResponseWriter, r *http.Request) {
	copyID, err := getIntParam(r, "copyID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload moveCopyPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	copy, err := c.app.MoveCopy(copyID, payload.ShelfID)
	if err != nil {
		handleJSONError(w, err, "moving copy")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentCopy(copy))
}

// Delete handles DELETE /v1/copies/{copyID}
func (c *Copies) Delete(w http.ResponseWriter, r *http.Request) {
	copyID, err := getIntParam(r, "copyID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := c.app.DeleteCopy(copyID); err != nil {
		handleJSONError(w, err, "deleting copy")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
