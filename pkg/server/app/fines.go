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

// PayFine settles the fine on a loan. The payment must cover the full
// amount; there are no partial payments.
func (a *App) PayFine(loanID int, amount int) (database.Loan, error) {
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

	if loan.FineAmount <= 0 {
		tx.Rollback()
		return database.Loan{}, ErrNoFineDue
	}
	if loan.FinePaid {
		tx.Rollback()
		return database.Loan{}, ErrAlreadyPaid
	}
	if amount < loan.FineAmount {
		tx.Rollback()
		return database.Loan{}, ErrInsufficientPayment
	}

	now := a.Clock.Now()
	loan.FinePaid = true
	loan.FinePaidAt = &now

	if err := tx.Save(&loan).Error; err != nil {
		tx.Rollback()
		return database.Loan{}, pkgErrors.Wrap(err, "updating loan")
	}

	if err := tx.Commit().Error; err != nil {
		return database.Loan{}, pkgErrors.Wrap(err, "committing fine payment")
	}

	return loan, nil
}
