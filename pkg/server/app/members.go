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
	"github.com/biblios/biblios/pkg/server/token"
	pkgErrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateMemberParams are the parameters for registering a member
type CreateMemberParams struct {
	Name  string
	Email string
	PIN   string
}

// CreateMember registers a member. The PIN is stored hashed and a QR token
// is provisioned for the member's card.
func (a *App) CreateMember(p CreateMemberParams) (database.Member, error) {
	if p.Name == "" {
		return database.Member{}, pkgErrors.New("member name is required")
	}
	if p.Email == "" {
		return database.Member{}, ErrEmailRequired
	}

	tx := a.DB.Begin()

	var count int64
	if err := tx.Model(&database.Member{}).Where("email = ?", p.Email).Count(&count).Error; err != nil {
		tx.Rollback()
		return database.Member{}, pkgErrors.Wrap(err, "counting members by email")
	}
	if count > 0 {
		tx.Rollback()
		return database.Member{}, ErrDuplicateEmail
	}

	member := database.Member{
		Name:   p.Name,
		Email:  p.Email,
		Status: database.MemberStatusActive,
	}

	if p.PIN != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(p.PIN), bcrypt.DefaultCost)
		if err != nil {
			tx.Rollback()
			return database.Member{}, pkgErrors.Wrap(err, "hashing pin")
		}
		member.PIN = string(hashed)
	}

	qr, err := token.Random(16)
	if err != nil {
		tx.Rollback()
		return database.Member{}, pkgErrors.Wrap(err, "generating qr token")
	}
	member.QRCode = qr

	if err := tx.Create(&member).Error; err != nil {
		tx.Rollback()
		return database.Member{}, pkgErrors.Wrap(err, "inserting member")
	}

	if err := tx.Commit().Error; err != nil {
		return database.Member{}, pkgErrors.Wrap(err, "committing member")
	}

	return member, nil
}

// GetMember retrieves a member by id
func (a *App) GetMember(memberID int) (database.Member, error) {
	var member database.Member
	err := a.DB.Where("id = ?", memberID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Member{}, ErrMemberNotFound
	} else if err != nil {
		return database.Member{}, pkgErrors.Wrap(err, "finding member")
	}

	return member, nil
}

// GetMemberByQR retrieves a member by the QR token on their card
func (a *App) GetMemberByQR(qrCode string) (database.Member, error) {
	var member database.Member
	err := a.DB.Where("qr_code = ?", qrCode).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Member{}, ErrMemberNotFound
	} else if err != nil {
		return database.Member{}, pkgErrors.Wrap(err, "finding member")
	}

	return member, nil
}

// VerifyMemberPIN checks a member's PIN
func (a *App) VerifyMemberPIN(memberID int, pin string) error {
	member, err := a.GetMember(memberID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PIN), []byte(pin)); err != nil {
		return ErrLoginInvalid
	}

	return nil
}

// ListMembers lists all members
func (a *App) ListMembers() ([]database.Member, error) {
	var members []database.Member
	if err := a.DB.Order("name ASC").Find(&members).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "listing members")
	}

	return members, nil
}

// SetMemberStatus activates or suspends a member. Suspension does not touch
// open loans; it only blocks new checkouts.
func (a *App) SetMemberStatus(memberID int, status database.MemberStatus) (database.Member, error) {
	member, err := a.GetMember(memberID)
	if err != nil {
		return database.Member{}, err
	}

	member.Status = status
	if err := a.DB.Save(&member).Error; err != nil {
		return database.Member{}, pkgErrors.Wrap(err, "updating member")
	}

	return member, nil
}

// RotateMemberQR provisions a fresh QR token, invalidating the old card
func (a *App) RotateMemberQR(memberID int) (database.Member, error) {
	member, err := a.GetMember(memberID)
	if err != nil {
		return database.Member{}, err
	}

	qr, err := token.Random(16)
	if err != nil {
		return database.Member{}, pkgErrors.Wrap(err, "generating qr token")
	}

	member.QRCode = qr
	if err := a.DB.Save(&member).Error; err != nil {
		return database.Member{}, pkgErrors.Wrap(err, "updating member")
	}

	return member, nil
}

// DeleteMember removes a member. It fails with ErrHasActiveLoan while the
// member holds open loans. Closed loans survive as historical records.
func (a *App) DeleteMember(memberID int) error {
	tx := a.DB.Begin()

	var member database.Member
	err := tx.Where("id = ?", memberID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return ErrMemberNotFound
	} else if err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "finding member")
	}

	var openLoans int64
	if err := tx.Model(&database.Loan{}).
		Where("member_id = ? AND return_date IS NULL", memberID).
		Count(&openLoans).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "counting open loans")
	}
	if openLoans > 0 {
		tx.Rollback()
		return ErrHasActiveLoan
	}

	if err := tx.Delete(&member).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting member")
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing delete")
	}

	return nil
}
