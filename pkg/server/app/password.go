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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidResetToken is an error for an unknown or spent reset token
var ErrInvalidResetToken = errors.New("invalid reset token")

const resetTokenLifetime = 30 * time.Minute

// CreateResetToken creates a password reset token for the user with the
// given email. To avoid leaking which emails exist, an unknown email is not
// an error; the boolean reports whether a token was issued.
func (a *App) CreateResetToken(email string) (database.Token, bool, error) {
	var user database.User
	err := a.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Token{}, false, nil
	} else if err != nil {
		return database.Token{}, false, pkgErrors.Wrap(err, "finding user")
	}

	t, err := token.Create(a.DB, user.ID, database.TokenTypeResetPassword)
	if err != nil {
		return database.Token{}, false, pkgErrors.Wrap(err, "creating token")
	}

	return t, true, nil
}

// ResetPassword sets a new password for the user that owns the given reset
// token. The token is single-use and expires.
func (a *App) ResetPassword(tokenValue, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	tx := a.DB.Begin()

	var t database.Token
	err := tx.Where("value = ? AND type = ?", tokenValue, database.TokenTypeResetPassword).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return ErrInvalidResetToken
	} else if err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "finding token")
	}

	if t.UsedAt != nil {
		tx.Rollback()
		return ErrInvalidResetToken
	}
	if a.Clock.Now().Sub(t.CreatedAt) > resetTokenLifetime {
		tx.Rollback()
		return ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "hashing password")
	}

	if err := tx.Model(&database.User{}).Where("id = ?", t.UserID).Update("password", string(hashed)).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "updating password")
	}

	now := a.Clock.Now()
	if err := tx.Model(&t).Update("used_at", &now).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "marking token used")
	}

	// Any live session predates the reset and is revoked.
	if err := tx.Where("user_id = ?", t.UserID).Delete(&database.Session{}).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "revoking sessions")
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing password reset")
	}

	return nil
}
