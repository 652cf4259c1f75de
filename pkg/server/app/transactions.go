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
	"strings"
	"time"

	"github.com/biblios/biblios/pkg/server/database"
	pkgErrors "github.com/pkg/errors"
)

// TransactionGroup is the set of loans sharing one transaction id: one
// real-world multi-book borrow event. It is a query-time view, not a table.
type TransactionGroup struct {
	TransactionID string
	MemberID      int
	CheckoutDate  time.Time
	Loans         []database.Loan
	OpenCount     int
}

func newTransactionGroup(transactionID string, loans []database.Loan) TransactionGroup {
	group := TransactionGroup{
		TransactionID: transactionID,
		Loans:         loans,
	}

	for _, l := range loans {
		if l.Open() {
			group.OpenCount++
		}
	}

	if len(loans) > 0 {
		group.MemberID = loans[0].MemberID
		group.CheckoutDate = loans[0].CheckoutDate
	}

	return group
}

// GetTransactionGroup retrieves the loans sharing the given transaction id
func (a *App) GetTransactionGroup(transactionID string) (TransactionGroup, error) {
	var loans []database.Loan
	if err := a.DB.
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&loans).Error; err != nil {
		return TransactionGroup{}, pkgErrors.Wrap(err, "finding transaction loans")
	}

	if len(loans) == 0 {
		return TransactionGroup{}, ErrTransactionNotFound
	}

	return newTransactionGroup(transactionID, loans), nil
}

// ListMemberTransactionGroups groups a member's loans by transaction id,
// newest group first. Loans without a transaction id each form a
// single-loan group keyed by an empty id.
func (a *App) ListMemberTransactionGroups(memberID int) ([]TransactionGroup, error) {
	var loans []database.Loan
	if err := a.DB.
		Where("member_id = ?", memberID).
		Order("id DESC").
		Find(&loans).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "listing member loans")
	}

	byTxn := make(map[string][]database.Loan)
	var order []string
	for _, l := range loans {
		// ungrouped loans each form their own group under a synthetic key
		key := groupKeyForLoan(l)
		if l.TransactionID != nil {
			key = *l.TransactionID
		}

		if _, seen := byTxn[key]; !seen {
			order = append(order, key)
		}
		byTxn[key] = append(byTxn[key], l)
	}

	groups := make([]TransactionGroup, 0, len(order))
	for _, key := range order {
		transactionID := key
		if isSyntheticKey(key) {
			transactionID = ""
		}
		groups = append(groups, newTransactionGroup(transactionID, byTxn[key]))
	}

	return groups, nil
}

// groupKeyForLoan builds a synthetic grouping key for a loan that carries
// no transaction id
func groupKeyForLoan(l database.Loan) string {
	return fmt.Sprintf("loan:%d", l.ID)
}

func isSyntheticKey(key string) bool {
	return strings.HasPrefix(key, "loan:")
}
