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

// Package token generates opaque random tokens
package token

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/biblios/biblios/pkg/server/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Random generates a URL-safe random token of the given byte length
func Random(bytes int) (string, error) {
	b := make([]byte, bytes)

	_, err := rand.Read(b)
	if err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// Create generates a new token of the given kind in the database
func Create(db *gorm.DB, userID int, kind string) (database.Token, error) {
	val, err := Random(16)
	if err != nil {
		return database.Token{}, errors.Wrap(err, "generating random bytes")
	}

	token := database.Token{
		UserID: userID,
		Value:  val,
		Type:   kind,
	}
	if err := db.Save(&token).Error; err != nil {
		return database.Token{}, errors.Wrap(err, "saving token")
	}

	return token, nil
}
