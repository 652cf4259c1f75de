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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	pkgErrors "github.com/pkg/errors"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// parseRequestData decodes a JSON request body into dst
func parseRequestData(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return pkgErrors.Wrap(err, "decoding payload")
	}

	return nil
}

// parseQuery decodes URL query parameters into dst
func parseQuery(r *http.Request, dst interface{}) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return pkgErrors.Wrap(err, "decoding query")
	}

	return nil
}

// getIntParam reads an integer path variable
func getIntParam(r *http.Request, name string) (int, error) {
	vars := mux.Vars(r)

	id, err := strconv.Atoi(vars[name])
	if err != nil {
		return 0, pkgErrors.Errorf("invalid %s", name)
	}

	return id, nil
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusForError maps a failure from the engine to an HTTP status code.
// Anything unmapped is a server fault.
func statusForError(err error) int {
	switch {
	case errors.Is(err, app.ErrBookNotFound),
		errors.Is(err, app.ErrCopyNotFound),
		errors.Is(err, app.ErrShelfNotFound),
		errors.Is(err, app.ErrMemberNotFound),
		errors.Is(err, app.ErrLoanNotFound),
		errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrLoginInvalid),
		errors.Is(err, app.ErrInvalidResetToken):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrMemberNotEligible),
		errors.Is(err, app.ErrQRMemberMismatch):
		return http.StatusForbidden
	case errors.Is(err, app.ErrLoanLimitExceeded),
		errors.Is(err, app.ErrAlreadyReturned),
		errors.Is(err, app.ErrAlreadyOverdue),
		errors.Is(err, app.ErrRenewalLimitExceeded),
		errors.Is(err, app.ErrAlreadyPaid),
		errors.Is(err, app.ErrHasActiveLoan),
		errors.Is(err, app.ErrShelfNotEmpty),
		errors.Is(err, app.ErrDuplicateEmail),
		errors.Is(err, app.ErrDuplicateUsername),
		errors.Is(err, app.ErrDuplicateISBN),
		errors.Is(err, app.ErrDuplicateBarcode):
		return http.StatusConflict
	case errors.Is(err, app.ErrNoFineDue),
		errors.Is(err, app.ErrInsufficientPayment),
		errors.Is(err, app.ErrEmailRequired),
		errors.Is(err, app.ErrPasswordTooShort):
		return http.StatusUnprocessableEntity
	}

	var copyUnavailable app.CopyUnavailableError
	if errors.As(err, &copyUnavailable) {
		return http.StatusConflict
	}

	var invalidIDs app.InvalidLoanIDsError
	if errors.As(err, &invalidIDs) {
		return http.StatusBadRequest
	}

	var noMatch app.NoMatchingLoansError
	if errors.As(err, &noMatch) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

// handleJSONError logs the error and responds with its mapped status
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	statusCode := statusForError(err)

	if statusCode >= 500 {
		log.ErrorWrap(err, msg)
	} else {
		log.WithFields(log.Fields{
			"statusCode": statusCode,
		}).Info(err.Error())
	}

	respondJSON(w, statusCode, errorResponse{Error: err.Error()})
}

func setSessionCookie(w http.ResponseWriter, key string, expires time.Time) {
	cookie := http.Cookie{
		Name:     "id",
		Value:    key,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
	}
	http.SetCookie(w, &cookie)
}

func unsetSessionCookie(w http.ResponseWriter) {
	expire := time.Now().Add(time.Hour * -24 * 30)
	cookie := http.Cookie{
		Name:     "id",
		Value:    "",
		Expires:  expire,
		Path:     "/",
		HttpOnly: true,
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.SetCookie(w, &cookie)
}
