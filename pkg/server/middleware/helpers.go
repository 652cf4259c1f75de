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

// Package middleware provides middleware for requests
package middleware

import (
	"net/http"
	"strings"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/log"
)

// Middleware wraps a handler with the stack appropriate for a route group
type Middleware func(h http.HandlerFunc, app *app.App, rateLimit bool) http.Handler

// APIMw is the middleware for API routes
func APIMw(h http.HandlerFunc, a *app.App, rateLimit bool) http.Handler {
	ret := h

	return ApplyLimit(ret, rateLimit)
}

// Global wraps the router with the middleware applied to all routes
func Global(h http.Handler) http.Handler {
	ret := h
	ret = logging(ret)
	ret = secureHeaders(ret)

	return ret
}

func logging(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"method": r.Method,
			"uri":    r.RequestURI,
			"remote": lookupIP(r),
		}).Info("incoming request")
	})
}

func secureHeaders(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		inner.ServeHTTP(w, r)
	})
}

// GetCredential extracts the session key from the Authorization header or,
// failing that, the session cookie
func GetCredential(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer "), nil
		}

		return "", nil
	}

	cookie, err := r.Cookie("id")
	if err == http.ErrNoCookie {
		return "", nil
	} else if err != nil {
		return "", err
	}

	return cookie.Value, nil
}

// DoError logs the error and responds with the given status code
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	log.WithFields(log.Fields{
		"statusCode": statusCode,
	}).ErrorWrap(err, msg)

	http.Error(w, http.StatusText(statusCode), statusCode)
}

// RespondUnauthorized responds with a 401
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="biblios"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

// RespondForbidden responds with a 403
func RespondForbidden(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// NotSupported is a handler for unsupported API versions
func NotSupported(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "API version is not supported", http.StatusGone)
}
