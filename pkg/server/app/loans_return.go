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
	"math"
	"time"

	"github.com/biblios/biblios/pkg/server/database"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// ReturnParams describes one loan return
type ReturnParams struct {
	LoanID    int
	Condition database.ReturnCondition
	Note      string
}

// ReturnFailure pairs a loan ID with the reason it could not be returned
type ReturnFailure struct {
	LoanID int   `json:"loan_id"`
	Err    error `json:"-"`
}

// Reason returns the failure reason as a string
func (f ReturnFailure) Reason() string {
	return f.Err.Error()
}

// ReturnLoan returns the loan with the given id. If the loan belongs to a
// transaction group, all still-open loans of that group are returned in the
// same operation: books borrowed together come back together, even when the
// desk scans only one of them. The returned slice holds every loan closed
// by the call, the named one first.
func (a *App) ReturnLoan(loanID int, condition database.ReturnCondition, note string) ([]database.Loan, error) {
	tx := a.DB.Begin()

	loans, err := a.returnWithGroup(tx, loanID, condition, note)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, pkgErrors.Wrap(err, "committing return")
	}

	return loans, nil
}

func (a *App) returnWithGroup(tx *gorm.DB, loanID int, condition database.ReturnCondition, note string) ([]database.Loan, error) {
	var loan database.Loan
	err := tx.Where("id = ?", loanID).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLoanNotFound
	} else if err != nil {
		return nil, pkgErrors.Wrap(err, "finding loan")
	}

	if loan.ReturnDate != nil {
		return nil, ErrAlreadyReturned
	}

	group := []database.Loan{loan}
	if loan.TransactionID != nil {
		var companions []database.Loan
		if err := tx.
			Where("transaction_id = ? AND id <> ? AND return_date IS NULL", *loan.TransactionID, loan.ID).
			Order("id ASC").
			Find(&companions).Error; err != nil {
			return nil, pkgErrors.Wrap(err, "finding transaction companions")
		}
		group = append(group, companions...)
	}

	ret := make([]database.Loan, 0, len(group))
	for i, l := range group {
		// The note belongs to the loan the caller named, not to the
		// companions pulled in by group expansion.
		loanNote := ""
		if i == 0 {
			loanNote = note
		}

		closed, err := a.applyReturn(tx, l, condition, loanNote)
		if err != nil {
			return nil, err
		}
		ret = append(ret, closed)
	}

	return ret, nil
}

// applyReturn closes one loan and flips its copy status to match the
// reported condition. Must run inside a transaction.
func (a *App) applyReturn(tx *gorm.DB, loan database.Loan, condition database.ReturnCondition, note string) (database.Loan, error) {
	now := a.Clock.Now()

	loan.ReturnDate = &now
	loan.ReturnCondition = string(condition)
	loan.FineAmount = a.computeFine(loan.DueDate, now, condition)
	loan.FinePaid = false

	if condition == database.ConditionLost {
		loan.Status = database.LoanStatusLost
	} else {
		loan.Status = database.LoanStatusReturned
	}

	if note != "" {
		if loan.Notes != "" {
			loan.Notes = loan.Notes + "\n" + note
		} else {
			loan.Notes = note
		}
	}

	if err := tx.Save(&loan).Error; err != nil {
		return loan, pkgErrors.Wrap(err, "updating loan")
	}

	if err := tx.Model(&database.BookCopy{}).
		Where("id = ?", loan.BookCopyID).
		Update("status", copyStatusForCondition(condition)).Error; err != nil {
		return loan, pkgErrors.Wrap(err, "updating copy status")
	}

	return loan, nil
}

func copyStatusForCondition(condition database.ReturnCondition) database.CopyStatus {
	switch condition {
	case database.ConditionDamaged:
		return database.CopyStatusDamaged
	case database.ConditionLost:
		return database.CopyStatusLost
	default:
		return database.CopyStatusAvailable
	}
}

// computeFine computes the fine for a loan due at the given time and
// returned now, in the given condition. Overdue days are rounded up, so
// even one overdue hour costs a full day.
func (a *App) computeFine(due, now time.Time, condition database.ReturnCondition) int {
	fine := 0

	if now.After(due) {
		daysOverdue := int(math.Ceil(now.Sub(due).Hours() / 24))
		fine = daysOverdue * a.Rules.FinePerDay
	}

	switch condition {
	case database.ConditionDamaged:
		fine += a.Rules.DamagedFine
	case database.ConditionLost:
		fine += a.Rules.LostFine
	}

	return fine
}

// ReturnLoans returns a batch of loans. Every named loan ID must resolve to
// an existing loan before anything is mutated; after that, per-loan failures
// are collected while successes commit, so the batch can partially succeed.
// A loan already closed earlier in the same batch by group expansion is
// skipped silently.
func (a *App) ReturnLoans(params []ReturnParams) ([]database.Loan, []ReturnFailure, error) {
	ids := make([]int, 0, len(params))
	for _, p := range params {
		ids = append(ids, p.LoanID)
	}

	var existing []database.Loan
	if err := a.DB.Where("id IN ?", ids).Find(&existing).Error; err != nil {
		return nil, nil, pkgErrors.Wrap(err, "resolving loan ids")
	}

	found := make(map[int]bool, len(existing))
	for _, l := range existing {
		found[l.ID] = true
	}

	var missing []int
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, nil, InvalidLoanIDsError{Missing: missing}
	}

	closed := make(map[int]bool)
	var results []database.Loan
	var failures []ReturnFailure
	for _, p := range params {
		if closed[p.LoanID] {
			continue
		}

		loans, err := a.ReturnLoan(p.LoanID, p.Condition, p.Note)
		if err != nil {
			failures = append(failures, ReturnFailure{LoanID: p.LoanID, Err: err})
			continue
		}

		for _, l := range loans {
			closed[l.ID] = true
		}
		results = append(results, loans...)
	}

	return results, failures, nil
}
