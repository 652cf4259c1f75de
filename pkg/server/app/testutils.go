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

package app

import (
	"testing"

	"github.com/biblios/biblios/pkg/clock"
	"github.com/biblios/biblios/pkg/server/config"
	"github.com/biblios/biblios/pkg/server/mailer"
	"github.com/biblios/biblios/pkg/server/testutils"
)

// SentEmail is a record of an email sent through TestEmailBackend
type SentEmail struct {
	TemplateType string
	From         string
	To           []string
	Data         interface{}
}

// TestEmailBackend records emails instead of sending them
type TestEmailBackend struct {
	Emails []SentEmail
}

// SendEmail records the email
func (b *TestEmailBackend) SendEmail(templateType, from string, to []string, data interface{}) error {
	b.Emails = append(b.Emails, SentEmail{
		TemplateType: templateType,
		From:         from,
		To:           to,
		Data:         data,
	})

	return nil
}

// NewTest returns an App with a fresh in-memory database, a mock clock, and
// an email backend that records instead of sending
func NewTest(t *testing.T) *App {
	t.Helper()

	return &App{
		DB:             testutils.InitMemoryDB(t),
		Clock:          clock.NewMock(),
		EmailTemplates: mailer.NewTemplates(),
		EmailBackend:   &TestEmailBackend{},
		Rules:          config.DefaultRules(),
		AppEnv:         "TEST",
	}
}
