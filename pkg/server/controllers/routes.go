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
	mw "github.com/biblios/biblios/pkg/server/middleware"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
}

// NewAPIRoutes returns the API routes. Deletion is restricted to admins;
// everything else behind auth is open to any staff role. Fixed paths are
// registered before parameterized ones so "overdue" is never read as a
// loan id.
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	adminOnly := &mw.AuthParams{Roles: []database.UserRole{database.RoleAdmin}}

	return []Route{
		{"POST", "/v1/signin", c.Users.Signin, true},
		{"POST", "/v1/signout", c.Users.Signout, true},
		{"POST", "/v1/reset-token", c.Users.CreateResetToken, true},
		{"PATCH", "/v1/password-reset", c.Users.ResetPassword, true},
		{"GET", "/v1/me", mw.Auth(a.DB, c.Users.Me, nil), true},

		{"POST", "/v1/loans/checkout", mw.Auth(a.DB, c.Loans.Checkout, nil), false},
		{"POST", "/v1/loans/borrow", mw.Auth(a.DB, c.Loans.Checkout, nil), false},
		{"POST", "/v1/loans/return", mw.Auth(a.DB, c.Loans.ReturnBatch, nil), false},
		{"POST", "/v1/loans/return-qr", mw.Auth(a.DB, c.Loans.ReturnQR, nil), false},
		{"GET", "/v1/loans/overdue", mw.Auth(a.DB, c.Loans.Overdue, nil), true},
		{"GET", "/v1/loans/due-soon", mw.Auth(a.DB, c.Loans.DueSoon, nil), true},
		{"GET", "/v1/loans/statistics", mw.Auth(a.DB, c.Loans.Statistics, nil), true},
		{"GET", "/v1/loans", mw.Auth(a.DB, c.Loans.Index, nil), true},
		{"GET", "/v1/loans/{loanID}", mw.Auth(a.DB, c.Loans.Show, nil), true},
		{"POST", "/v1/loans/{loanID}/return", mw.Auth(a.DB, c.Loans.Return, nil), false},
		{"POST", "/v1/loans/{loanID}/renew", mw.Auth(a.DB, c.Loans.Renew, nil), false},
		{"POST", "/v1/loans/{loanID}/pay-fine", mw.Auth(a.DB, c.Loans.PayFine, nil), false},
		{"POST", "/v1/loans/{loanID}/notify-overdue", mw.Auth(a.DB, c.Loans.NotifyOverdue, nil), true},
		{"GET", "/v1/transactions/{transactionID}", mw.Auth(a.DB, c.Loans.ShowTransaction, nil), true},

		{"POST", "/v1/books", mw.Auth(a.DB, c.Books.Create, nil), true},
		{"GET", "/v1/books", mw.Auth(a.DB, c.Books.Index, nil), true},
		{"GET", "/v1/books/{bookID}", mw.Auth(a.DB, c.Books.Show, nil), true},
		{"PATCH", "/v1/books/{bookID}", mw.Auth(a.DB, c.Books.Update, nil), true},
		{"DELETE", "/v1/books/{bookID}", mw.Auth(a.DB, c.Books.Delete, adminOnly), true},

		{"POST", "/v1/copies", mw.Auth(a.DB, c.Copies.Create, nil), true},
		{"GET", "/v1/copies", mw.Auth(a.DB, c.Copies.Index, nil), true},
		{"GET", "/v1/copies/{copyID}", mw.Auth(a.DB, c.Copies.Show, nil), true},
		{"PATCH", "/v1/copies/{copyID}/status", mw.Auth(a.DB, c.Copies.SetStatus, nil), true},
		{"PATCH", "/v1/copies/{copyID}/shelf", mw.Auth(a.DB, c.Copies.Move, nil), true},
		{"DELETE", "/v1/copies/{copyID}", mw.Auth(a.DB, c.Copies.Delete, adminOnly), true},

		{"POST", "/v1/shelves", mw.Auth(a.DB, c.Shelves.Create, nil), true},
		{"GET", "/v1/shelves", mw.Auth(a.DB, c.Shelves.Index, nil), true},
		{"GET", "/v1/shelves/{shelfID}", mw.Auth(a.DB, c.Shelves.Show, nil), true},
		{"DELETE", "/v1/shelves/{shelfID}", mw.Auth(a.DB, c.Shelves.Delete, adminOnly), true},

		{"POST", "/v1/members", mw.Auth(a.DB, c.Members.Create, nil), true},
		{"GET", "/v1/members", mw.Auth(a.DB, c.Members.Index, nil), true},
		{"GET", "/v1/members/{memberID}", mw.Auth(a.DB, c.Members.Show, nil), true},
		{"GET", "/v1/members/{memberID}/loans", mw.Auth(a.DB, c.Members.Loans, nil), true},
		{"PATCH", "/v1/members/{memberID}/status", mw.Auth(a.DB, c.Members.SetStatus, nil), true},
		{"POST", "/v1/members/{memberID}/rotate-qr", mw.Auth(a.DB, c.Members.RotateQR, nil), true},
		{"DELETE", "/v1/members/{memberID}", mw.Auth(a.DB, c.Members.Delete, adminOnly), true},
	}
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, app *app.App, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, app, route.RateLimit)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, mw.APIMw, app, rc.APIRoutes)

	router.PathPrefix("/api/v0").Handler(mw.ApplyLimit(mw.NotSupported, true))

	router.HandleFunc("/health", rc.Controllers.Health.Index).Methods("GET")

	return mw.Global(router), nil
}
