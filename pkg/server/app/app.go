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

// Package app implements the circulation engine and its sibling operations.
// Every mutation that touches more than one row runs inside one database
// transaction; row-level serialization is delegated to SQLite.
package app

import (
	"github.com/biblios/biblios/pkg/clock"
	"github.com/biblios/biblios/pkg/server/config"
	"github.com/biblios/biblios/pkg/server/mailer"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrEmptyDB is an error for missing database connection in the app configuration
	ErrEmptyDB = errors.New("No database connection was provided")
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")
	// ErrEmptyEmailBackend is an error for missing EmailBackend in the app configuration
	ErrEmptyEmailBackend = errors.New("No EmailBackend was provided")
)

// App is an application context. It owns the database handle with an
// explicit lifecycle: constructed once, passed by reference, closed by
// the caller that opened it.
type App struct {
	DB             *gorm.DB
	Clock          clock.Clock
	EmailTemplates mailer.Templates
	EmailBackend   mailer.Backend
	Rules          config.Rules
	AppEnv         string
	WebURL         string
	Port           string
	DBPath         string
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.DB == nil {
		return ErrEmptyDB
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.EmailBackend == nil {
		return ErrEmptyEmailBackend
	}

	return a.Rules.Validate()
}
