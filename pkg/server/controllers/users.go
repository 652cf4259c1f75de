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
	"net/url"

	"github.com/biblios/biblios/pkg/server/app"
	appcontext "github.com/biblios/biblios/pkg/server/context"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/helpers"
	"github.com/biblios/biblios/pkg/server/log"
	"github.com/biblios/biblios/pkg/server/middleware"
	"github.com/biblios/biblios/pkg/server/presenters"
	pkgErrors "github.com/pkg/errors"
)

// NewUsers creates a new Users controller
func NewUsers(app *app.App) *Users {
	return &Users{
		app: app,
	}
}

// Users is a staff users controller
type Users struct {
	app *app.App
}

type signinPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Key       string          `json:"key"`
	ExpiresAt int64           `json:"expires_at"`
	User      presenters.User `json:"user"`
}

// Signin handles POST /v1/signin
func (u *Users) Signin(w http.ResponseWriter, r *http.Request) {
	var payload signinPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	if payload.Username == "" || payload.Password == "" {
		handleJSONError(w, app.ErrLoginInvalid, "signing in")
		return
	}

	user, err := u.app.Authenticate(payload.Username, payload.Password)
	if err != nil {
		handleJSONError(w, err, "signing in")
		return
	}

	session, err := u.app.CreateSession(user.ID)
	if err != nil {
		handleJSONError(w, err, "creating session")
		return
	}

	setSessionCookie(w, session.Key, session.ExpiresAt)
	respondJSON(w, http.StatusOK, sessionResponse{
		Key:       session.Key,
		ExpiresAt: session.ExpiresAt.Unix(),
		User:      presenters.PresentUser(user),
	})
}

// Signout handles POST /v1/signout
func (u *Users) Signout(w http.ResponseWriter, r *http.Request) {
	key, err := middleware.GetCredential(r)
	if err != nil {
		handleJSONError(w, pkgErrors.Wrap(err, "getting credential"), "signing out")
		return
	}

	if key != "" {
		if err := u.app.DeleteSession(key); err != nil {
			handleJSONError(w, err, "deleting session")
			return
		}
	}

	unsetSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type createResetTokenPayload struct {
	Email string `json:"email"`
}

// CreateResetToken handles POST /v1/reset-token. The response is identical
// whether or not the email exists.
func (u *Users) CreateResetToken(w http.ResponseWriter, r *http.Request) {
	var payload createResetTokenPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	if payload.Email == "" {
		handleJSONError(w, app.ErrEmailRequired, "creating reset token")
		return
	}

	t, issued, err := u.app.CreateResetToken(payload.Email)
	if err != nil {
		handleJSONError(w, err, "creating reset token")
		return
	}

	if issued {
		// Local-first deployments usually have no SMTP. The reset link is
		// logged so an operator can hand it to the user.
		query := url.Values{}
		query.Set("token", t.Value)
		log.WithFields(log.Fields{
			"url": u.app.WebURL + helpers.GetPath("/password-reset", &query),
		}).Info("password reset token issued")
	}

	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordPayload struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword handles PATCH /v1/password-reset
func (u *Users) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	if err := u.app.ResetPassword(payload.Token, payload.Password); err != nil {
		handleJSONError(w, err, "resetting password")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /v1/me
func (u *Users) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		middleware.RespondUnauthorized(w)
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentUser(*user))
}

func currentUser(r *http.Request) *database.User {
	return appcontext.User(r.Context())
}
