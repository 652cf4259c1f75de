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
	"errors"
	"time"

	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/token"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

var sessionLifetime = 10 * 24 // hours

// CreateSession creates a session for the user and returns it
func (a *App) CreateSession(userID int) (database.Session, error) {
	key, err := token.Random(32)
	if err != nil {
		return database.Session{}, pkgErrors.Wrap(err, "generating session key")
	}

	now := a.Clock.Now()
	session := database.Session{
		UserID:     userID,
		Key:        key,
		LastUsedAt: now,
		ExpiresAt:  now.Add(time.Duration(sessionLifetime) * time.Hour),
	}
	if err := a.DB.Create(&session).Error; err != nil {
		return database.Session{}, pkgErrors.Wrap(err, "inserting session")
	}

	return session, nil
}

// GetSession retrieves an unexpired session by its key. TouchLastUsedAt
// refreshes the activity timestamp.
func (a *App) GetSession(key string) (database.Session, bool, error) {
	var session database.Session
	conn := a.DB.Where("key = ? AND expires_at > ?", key, a.Clock.Now()).First(&session)
	if conn.Error != nil {
		if errors.Is(conn.Error, gorm.ErrRecordNotFound) {
			return database.Session{}, false, nil
		}

		return database.Session{}, false, pkgErrors.Wrap(conn.Error, "finding session")
	}

	return session, true, nil
}

// TouchLastUsedAt records activity on a session
func (a *App) TouchLastUsedAt(session database.Session) error {
	if err := a.DB.Model(&session).Update("last_used_at", a.Clock.Now()).Error; err != nil {
		return pkgErrors.Wrap(err, "updating session")
	}

	return nil
}

// DeleteSession removes the session with the given key
func (a *App) DeleteSession(key string) error {
	if err := a.DB.Where("key = ?", key).Delete(&database.Session{}).Error; err != nil {
		return pkgErrors.Wrap(err, "deleting session")
	}

	return nil
}
