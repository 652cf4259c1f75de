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

// NewShelves creates a new Shelves controller
func NewShelves(app *app.App) *Shelves {
	return &Shelves{
		app: app,
	}
}

// Shelves is a shelves controller
type Shelves struct {
	app *app.App
}

type createShelfPayload struct {
	Name     string `json:"name"`
	Section  string `json:"section"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// Create handles POST /v1/shelves
func (s *Shelves) Create(w http.ResponseWriter, r *http.Request) {
	var payload createShelfPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	shelf, err := s.app.CreateShelf(app.CreateShelfParams{
		Name:     payload.Name,
		Section:  payload.Section,
		Location: payload.Location,
		Capacity: payload.Capacity,
	})
	if err != nil {
		handleJSONError(w, err, "creating shelf")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentShelf(shelf))
}

// Index handles GET /v1/shelves
func (s *Shelves) Index(w http.ResponseWriter, r *http.Request) {
	shelves, err := s.app.ListShelves()
	if err != nil {
		handleJSONError(w, err, "listing shelves")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentShelves(shelves))
}

type shelfOccupancyResponse struct {
	Shelf     presenters.Shelf `json:"shelf"`
	CopyCount int64            `json:"copy_count"`
}

// Show handles GET /v1/shelves/{shelfID}
func (s *Shelves) Show(w http.ResponseWriter, r *http.Request) {
	shelfID, err := getIntParam(r, "shelfID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	occupancy, err := s.app.GetShelfOccupancy(shelfID)
	if err != nil {
		handleJSONError(w, err, "getting shelf")
		return
	}

	respondJSON(w, http.StatusOK, shelfOccupancyResponse{
		Shelf:     presenters.PresentShelf(occupancy.Shelf),
		CopyCount: occupancy.CopyCount,
	})
}

// Delete handles DELETE /v1/shelves/{shelfID}
func (s *Shelves) Delete(w http.ResponseWriter, r *http.Request) {
	shelfID, err := getIntParam(r, "shelfID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.app.DeleteShelf(shelfID); err != nil {
		handleJSONError(w, err, "deleting shelf")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
