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

// NewMembers creates a new Members controller
func NewMembers(app *app.App) *Members {
	return &Members{
		app: app,
	}
}

// Members is a members controller
type Members struct {
	app *app.App
}

type createMemberPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

// Create handles POST /v1/members
func (m *Members) Create(w http.ResponseWriter, r *http.Request) {
	var payload createMemberPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	member, err := m.app.CreateMember(app.CreateMemberParams{
		Name:  payload.Name,
		Email: payload.Email,
		PIN:   payload.PIN,
	})
	if err != nil {
		handleJSONError(w, err, "creating member")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentMember(member))
}

// Index handles GET /v1/members
func (m *Members) Index(w http.ResponseWriter, r *http.Request) {
	members, err := m.app.ListMembers()
	if err != nil {
		handleJSONError(w, err, "listing members")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentMembers(members))
}

// Show handles GET /v1/members/{memberID}
func (m *Members) Show(w http.ResponseWriter, r *http.Request) {
	memberID, err := getIntParam(r, "memberID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	member, err := m.app.GetMember(memberID)
	if err != nil {
		handleJSONError(w, err, "getting member")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentMember(member))
}

type setMemberStatusPayload struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /v1/members/{memberID}/status
func (m *Members) SetStatus(w http.ResponseWriter, r *http.Request) {
	memberID, err := getIntParam(r, "memberID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload setMemberStatusPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	status, err := database.ParseMemberStatus(payload.Status)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	member, err := m.app.SetMemberStatus(memberID, status)
	if err != nil {
		handleJSONError(w, err, "setting member status")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentMember(member))
}

// RotateQR handles POST /v1/members/{memberID}/rotate-qr
func (m *Members) RotateQR(w http.ResponseWriter, r *http.Request) {
	memberID, err := getIntParam(r, "memberID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	member, err := m.app.RotateMemberQR(memberID)
	if err != nil {
		handleJSONError(w, err, "rotating member QR code")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentMember(member))
}

// Loans handles GET /v1/members/{memberID}/loans: the member's loans grouped
// by borrow transaction, newest first
func (m *Members) Loans(w http.ResponseWriter, r *http.Request) {
	memberID, err := getIntParam(r, "memberID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if _, err := m.app.GetMember(memberID); err != nil {
		handleJSONError(w, err, "getting member")
		return
	}

	groups, err := m.app.ListMemberTransactionGroups(memberID)
	if err != nil {
		handleJSONError(w, err, "listing member transactions")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentTransactionGroups(groups))
}

// Delete handles DELETE /v1/members/{memberID}
func (m *Members) Delete(w http.ResponseWriter, r *http.Request) {
	memberID, err := getIntParam(r, "memberID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := m.app.DeleteMember(memberID); err != nil {
		handleJSONError(w, err, "deleting member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
