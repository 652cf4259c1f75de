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
	"fmt"

	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/log"
	pkgErrors "github.com/pkg/errors"
)

// QRReturnRequest is the canonical request for a QR-coded return. The
// payload scanned at a kiosk names explicit loan IDs; group expansion does
// not apply because the scan already enumerates the stack.
type QRReturnRequest struct {
	LoanIDs         []int
	MemberID        *int
	SkipMemberCheck bool
	Condition       database.ReturnCondition
}

// QRReturnResult is the outcome of a QR return
type QRReturnResult struct {
	Returned        []database.Loan
	SkippedLoanIDs  []int
	Warnings        []string
	AlreadyReturned bool
}

// ReturnViaQR processes a QR-coded return. Already-returned loans are
// skipped, never re-processed, so scanning the same code twice cannot
// double-charge a fine. When every named loan is already returned the call
// succeeds idempotently with AlreadyReturned set.
//
// Ownership handling is deliberately lenient: loans not belonging to the
// supplied member are dropped with a warning, and when none match the
// return still proceeds (logged) unless Rules.QRStrictOwnership is set.
func (a *App) ReturnViaQR(req QRReturnRequest) (QRReturnResult, error) {
	var ret QRReturnResult

	condition := req.Condition
	if condition == "" {
		condition = database.ConditionGood
	}

	var loans []database.Loan
	if err := a.DB.Where("id IN ?", req.LoanIDs).Find(&loans).Error; err != nil {
		return ret, pkgErrors.Wrap(err, "resolving loan ids")
	}

	if len(loans) == 0 {
		return ret, a.noMatchingLoans(req)
	}

	if req.MemberID != nil && !req.SkipMemberCheck {
		loans = a.filterByOwner(loans, *req.MemberID, &ret)
		if loans == nil {
			return ret, ErrQRMemberMismatch
		}
	}

	var open []database.Loan
	for _, l := range loans {
		if l.Open() {
			open = append(open, l)
		} else {
			ret.SkippedLoanIDs = append(ret.SkippedLoanIDs, l.ID)
		}
	}

	if len(open) == 0 {
		ret.AlreadyReturned = true
		return ret, nil
	}

	tx := a.DB.Begin()
	for _, l := range open {
		closed, err := a.applyReturn(tx, l, condition, "")
		if err != nil {
			tx.Rollback()
			return QRReturnResult{}, err
		}
		ret.Returned = append(ret.Returned, closed)
	}
	if err := tx.Commit().Error; err != nil {
		return QRReturnResult{}, pkgErrors.Wrap(err, "committing QR return")
	}

	return ret, nil
}

// noMatchingLoans builds the diagnostic error for a QR return that resolved
// zero loans: the total active-loan count, plus the member's actual open
// loan IDs when a member was named, so the caller can self-correct.
func (a *App) noMatchingLoans(req QRReturnRequest) error {
	diag := NoMatchingLoansError{RequestedIDs: req.LoanIDs}

	if err := a.DB.Model(&database.Loan{}).
		Where("status = ? AND return_date IS NULL", database.LoanStatusBorrowed).
		Count(&diag.ActiveLoanCount).Error; err != nil {
		return pkgErrors.Wrap(err, "counting active loans")
	}

	if req.MemberID != nil {
		memberIDs := []int{}
		if err := a.DB.Model(&database.Loan{}).
			Where("member_id = ? AND return_date IS NULL", *req.MemberID).
			Order("id ASC").
			Pluck("id", &memberIDs).Error; err != nil {
			return pkgErrors.Wrap(err, "listing member open loans")
		}
		diag.MemberLoanIDs = memberIDs
	}

	return diag
}

// filterByOwner drops loans not belonging to the member, recording a
// warning per dropped loan. A nil return means strict mode rejected the
// request; in lenient mode a zero-match set falls back to all resolved
// loans with a logged warning.
func (a *App) filterByOwner(loans []database.Loan, memberID int, ret *QRReturnResult) []database.Loan {
	var owned []database.Loan
	for _, l := range loans {
		if l.MemberID == memberID {
			owned = append(owned, l)
			continue
		}

		warning := fmt.Sprintf("loan %d belongs to member %d, not member %d; dropped", l.ID, l.MemberID, memberID)
		ret.Warnings = append(ret.Warnings, warning)
		log.WithFields(log.Fields{
			"loan_id":   l.ID,
			"member_id": memberID,
		}).Warn("QR return: dropping loan owned by another member")
	}

	if len(owned) > 0 {
		return owned
	}

	if a.Rules.QRStrictOwnership {
		return nil
	}

	ret.Warnings = append(ret.Warnings, fmt.Sprintf("no scanned loan belongs to member %d; processing anyway", memberID))
	log.WithFields(log.Fields{
		"member_id": memberID,
	}).Warn("QR return: no loan matches the member; processing anyway")

	return loans
}
