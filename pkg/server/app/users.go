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

	"github.com/biblios/biblios/pkg/server/database"
	pkgErrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUserParams are the parameters for creating a staff user
type CreateUserParams struct {
	Username string
	Email    string
	Password string
	Role     database.UserRole
}

// CreateUser creates a staff user with a hashed password
func (a *App) CreateUser(p CreateUserParams) (database.User, error) {
	if p.Email == "" {
		return database.User{}, ErrEmailRequired
	}
	if len(p.Password) < 8 {
		return database.User{}, ErrPasswordTooShort
	}

	tx := a.DB.Begin()

	var count int64
	if err := tx.Model(&database.User{}).Where("email = ?", p.Email).Count(&count).Error; err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "counting users by email")
	}
	if count > 0 {
		tx.Rollback()
		return database.User{}, ErrDuplicateEmail
	}

	if err := tx.Model(&database.User{}).Where("username = ?", p.Username).Count(&count).Error; err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "counting users by username")
	}
	if count > 0 {
		tx.Rollback()
		return database.User{}, ErrDuplicateUsername
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "hashing password")
	}

	user := database.User{
		Username: p.Username,
		Email:    p.Email,
		Password: string(hashed),
		Role:     p.Role,
		Active:   true,
	}
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return database.User{}, pkgErrors.Wrap(err, "inserting user")
	}

	if err := tx.Commit().Error; err != nil {
		return database.User{}, pkgErrors.Wrap(err, "committing user")
	}

	return user, nil
}

// GetUser retrieves a user by id
func (a *App) GetUser(userID int) (database.User, error) {
	var user database.User
	err := a.DB.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.User{}, ErrUserNotFound
	} else if err != nil {
		return database.User{}, pkgErrors.Wrap(err, "finding user")
	}

	return user, nil
}

// GetUserByUsername retrieves a user by username
func (a *App) GetUserByUsername(username string) (database.User, error) {
	var user database.User
	err := a.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.User{}, ErrUserNotFound
	} else if err != nil {
		return database.User{}, pkgErrors.Wrap(err, "finding user")
	}

	return user, nil
}

// ListUsers lists all staff users
func (a *App) ListUsers() ([]database.User, error) {
	var users []database.User
	if err := a.DB.Order("username ASC").Find(&users).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "listing users")
	}

	return users, nil
}

// Authenticate verifies a username and password and returns the user.
// Inactive users cannot sign in.
func (a *App) Authenticate(username, password string) (database.User, error) {
	var user database.User
	err := a.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.User{}, ErrLoginInvalid
	} else if err != nil {
		return database.User{}, pkgErrors.Wrap(err, "finding user")
	}

	if !user.Active {
		return database.User{}, ErrLoginInvalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return database.User{}, ErrLoginInvalid
	}

	return user, nil
}

// DeactivateUser disables sign-in for a user without deleting the row
func (a *App) DeactivateUser(userID int) error {
	user, err := a.GetUser(userID)
	if err != nil {
		return err
	}

	if err := a.DB.Model(&user).Update("active", false).Error; err != nil {
		return pkgErrors.Wrap(err, "updating user")
	}

	return nil
}

// DeleteUser removes a staff user and their sessions
func (a *App) DeleteUser(userID int) error {
	tx := a.DB.Begin()

	var user database.User
	err := tx.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return ErrUserNotFound
	} else if err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "finding user")
	}

	if err := tx.Where("user_id = ?", userID).Delete(&database.Session{}).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting sessions")
	}
	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting user")
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing delete")
	}

	return nil
}
