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
	"gorm.io/gorm"
)

// RenewLoan extends the due date of an open loan. A loan cannot be renewed
// once overdue, and the renewal count is capped. The copy status does not
// change.
//
// A non-positive extensionDays falls back to the configured extension.
func (a *App) RenewLoan(loanID int, extensionDays int) (database.Loan, error) {
	if extensionDays <= 0 {
		extensionDays = a.Rules.RenewDays
	}

	tx := a.DB.Begin()

	var loan database.Loan
	err := tx.Where("id = ?", loanID).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return database.Loan{}, ErrLoanNotFound
	} else if err != nil {
		tx.Rollback()
		return database.Loan{}, pkgErrors.Wrap(err, "finding loan")
	}

	if loan.ReturnDate != nil {
		tx.Rollback()
		return database.Loan{}, ErrAlreadyReturned
	}
	if a.Clock.Now().After(loan.DueDate) {
		tx.Rollback()
		return database.Loan{}, ErrAlreadyOverdue
	}
	if loan.RenewalCount >= a.Rules.MaxRenewals {
		tx.Rollback()
		return database.Loan{}, ErrRenewalLimitExceeded
	}

	loan.DueDate = loan.DueDate.AddDate(0, 0, extensionDays)
	loan.RenewalCount++

	if err := tx.Save(&loan).Error; err != nil {
		tx.Rollback()
		return database.Loan{}, pkgErrors.Wrap(err, "updating loan")
	}

	if err := tx.Commit().Error; err != nil {
		return database.Loan{}, pkgErrors.Wrap(err, "committing renewal")
	}

	return loan, nil
}
