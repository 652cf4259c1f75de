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
	"fmt"

	"github.com/biblios/biblios/pkg/server/database"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// newTransactionID generates the grouping key shared by all loans created
// in one checkout call
func (a *App) newTransactionID(memberID int) string {
	return fmt.Sprintf("txn-%d-%d", a.Clock.Now().UnixNano(), memberID)
}

// CheckoutFailure pairs a copy ID with the reason it could not be checked out
type CheckoutFailure struct {
	CopyID int   `json:"copy_id"`
	Err    error `json:"-"`
}

// Reason returns the failure reason as a string
func (f CheckoutFailure) Reason() string {
	return f.Err.Error()
}

// CheckoutBooks checks out the given copies to a member. All loans created
// by one call share one transaction id. Each copy is attempted independently
// and failures are collected, so a batch can partially succeed; the
// per-copy primitive itself is atomic.
//
// A non-positive durationDays falls back to the configured loan duration.
func (a *App) CheckoutBooks(memberID int, copyIDs []int, durationDays int) ([]database.Loan, []CheckoutFailure, error) {
	if durationDays <= 0 {
		durationDays = a.Rules.LoanDays
	}

	var member database.Member
	err := a.DB.Where("id = ?", memberID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrMemberNotFound
	} else if err != nil {
		return nil, nil, pkgErrors.Wrap(err, "finding member")
	}

	if member.Status != database.MemberStatusActive {
		return nil, nil, ErrMemberNotEligible
	}

	transactionID := a.newTransactionID(member.ID)

	var loans []database.Loan
	var failures []CheckoutFailure
	for _, copyID := range copyIDs {
		loan, err := a.checkoutCopy(member, copyID, transactionID, durationDays)
		if err != nil {
			failures = append(failures, CheckoutFailure{CopyID: copyID, Err: err})
			continue
		}

		loans = append(loans, loan)
	}

	return loans, failures, nil
}

// checkoutCopy is the atomic checkout primitive: the loan insert and the
// copy status flip commit together or not at all. The copy status and the
// member's open-loan count are re-read inside the transaction so two
// concurrent checkouts of the same copy cannot both succeed.
func (a *App) checkoutCopy(member database.Member, copyID int, transactionID string, durationDays int) (database.Loan, error) {
	now := a.Clock.Now()

	tx := a.DB.Begin()

	var openCount int64
	if err := tx.Model(&database.Loan{}).
		Where("member_id = ? AND status = ? AND return_date IS NULL", member.ID, database.LoanStatusBorrowed).
		Count(&openCount).Error; err != nil {
		tx.Rollback()
		return database.Loan{}, pkgErrors.Wrap(err, "counting open loans")
	}
	if openCount >= int64(a.Rules.MaxOpenLoans) {
		tx.Rollback()
		return database.Loan{}, ErrLoanLimitExceeded
	}

	var copy database.BookCopy
	err := tx.Where("id = ?", copyID).First(&copy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return database.Loan{}, ErrCopyNotFound
	} else if err != nil {
		tx.Rollback()
		return database.Loan{}, pkgErrors.Wrap(err, "finding copy")
	}

	if copy.Status != database.CopyStatusAvailable {
		unavailable := a.copyUnavailable(tx, copy)
		tx.Rollback()
		return database.Loan{}, unavailable
	}

	loan := database.Loan{
		BookCopyID:    copy.ID,
		MemberID:      member.ID,
		TransactionID: &transactionID,
		CheckoutDate:  now,
		DueDate:       now.AddDate(0, 0, durationDays),
		Status:        database.LoanStatusBorrowed,
	}
	if err := tx.Create(&loan).Error; err != nil {
		tx.Rollback()
		return database.Loan{}, pkgErrors.Wrap(err, "inserting loan")
	}

	// Guarded update: a writer that lost the race observes zero affected
	// rows and fails instead of silently double-lending the copy.
	res := tx.Model(&database.BookCopy{}).
		Where("id = ? AND status = ?", copy.ID, database.CopyStatusAvailable).
		Update("status", database.CopyStatusCheckedOut)
	if res.Error != nil {
		tx.Rollback()
		return database.Loan{}, pkgErrors.Wrap(res.Error, "updating copy status")
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return database.Loan{}, CopyUnavailableError{CopyID: copy.ID, Status: database.CopyStatusCheckedOut}
	}

	if err := tx.Commit().Error; err != nil {
		return database.Loan{}, pkgErrors.Wrap(err, "committing checkout")
	}

	return loan, nil
}

// copyUnavailable builds a CopyUnavailableError, joining the open loan and
// its member for holder context when the copy is out
func (a *App) copyUnavailable(tx *gorm.DB, copy database.BookCopy) error {
	ret := CopyUnavailableError{CopyID: copy.ID, Status: copy.Status}

	if copy.Status != database.CopyStatusCheckedOut {
		return ret
	}

	var open database.Loan
	err := tx.Where("book_copy_id = ? AND return_date IS NULL", copy.ID).First(&open).Error
	if err != nil {
		return ret
	}

	var holder database.Member
	if err := tx.Where("id = ?", open.MemberID).First(&holder).Error; err != nil {
		return ret
	}

	due := open.DueDate
	ret.HolderName = holder.Name
	ret.DueDate = &due

	return ret
}

// GetLoan retrieves a loan by id
func (a *App) GetLoan(loanID int) (database.Loan, error) {
	var loan database.Loan
	err := a.DB.Where("id = ?", loanID).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Loan{}, ErrLoanNotFound
	} else if err != nil {
		return database.Loan{}, pkgErrors.Wrap(err, "finding loan")
	}

	return loan, nil
}

// LoanQuery filters a loan listing
type LoanQuery struct {
	MemberID int    `schema:"memberId"`
	CopyID   int    `schema:"copyId"`
	Status   string `schema:"status"`
	OpenOnly bool   `schema:"openOnly"`
}

// ListLoans lists loans matching the given query, newest first
func (a *App) ListLoans(q LoanQuery) ([]database.Loan, error) {
	conn := a.DB.Order("id DESC")

	if q.MemberID != 0 {
		conn = conn.Where("member_id = ?", q.MemberID)
	}
	if q.CopyID != 0 {
		conn = conn.Where("book_copy_id = ?", q.CopyID)
	}
	if q.Status != "" {
		status, err := database.ParseLoanStatus(q.Status)
		if err != nil {
			return nil, err
		}
		conn = conn.Where("status = ?", status)
	}
	if q.OpenOnly {
		conn = conn.Where("return_date IS NULL")
	}

	var loans []database.Loan
	if err := conn.Find(&loans).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "listing loans")
	}

	return loans, nil
}
