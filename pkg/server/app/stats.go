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
	"math"
	"time"

	"github.com/biblios/biblios/pkg/server/database"
	pkgErrors "github.com/pkg/errors"
)

// OverdueLoan is an open loan past its due date, joined with the member
// and book for display.
type OverdueLoan struct {
	Loan        database.Loan
	Member      database.Member
	Book        database.Book
	DaysOverdue int
	AccruedFine int
}

// Overdue lists open loans that are at least minDays past due, most
// overdue first. minDays of zero means any amount past due.
func (a *App) Overdue(minDays int) ([]OverdueLoan, error) {
	now := a.Clock.Now()
	cutoff := now
	if minDays > 0 {
		cutoff = now.AddDate(0, 0, -minDays)
	}

	var loans []database.Loan
	if err := a.DB.
		Where("return_date IS NULL AND due_date < ?", cutoff).
		Order("due_date ASC").
		Find(&loans).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "finding overdue loans")
	}

	ret := []OverdueLoan{}
	for _, loan := range loans {
		member, err := a.GetMember(loan.MemberID)
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "resolving member for loan %d", loan.ID)
		}

		copy, err := a.GetCopy(loan.BookCopyID)
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "resolving copy for loan %d", loan.ID)
		}
		book, err := a.GetBook(copy.BookID)
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "resolving book for loan %d", loan.ID)
		}

		days := daysLate(loan.DueDate, now)
		ret = append(ret, OverdueLoan{
			Loan:        loan,
			Member:      member,
			Book:        book,
			DaysOverdue: days,
			AccruedFine: days * a.Rules.FinePerDay,
		})
	}

	return ret, nil
}

// daysLate returns ceil((now - due) / 24h), never below zero
func daysLate(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}

	return int(math.Ceil(now.Sub(due).Hours() / 24))
}

// DueSoonLoan is an open loan due within a window
type DueSoonLoan struct {
	Loan         database.Loan
	Member       database.Member
	Book         database.Book
	DaysUntilDue int
}

// DueSoon lists open loans due within the next days days, soonest first.
// Loans already past due are excluded; Overdue covers those.
func (a *App) DueSoon(days int) ([]DueSoonLoan, error) {
	now := a.Clock.Now()
	horizon := now.AddDate(0, 0, days)

	var loans []database.Loan
	if err := a.DB.
		Where("return_date IS NULL AND due_date >= ? AND due_date <= ?", now, horizon).
		Order("due_date ASC").
		Find(&loans).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "finding due loans")
	}

	ret := []DueSoonLoan{}
	for _, loan := range loans {
		member, err := a.GetMember(loan.MemberID)
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "resolving member for loan %d", loan.ID)
		}

		copy, err := a.GetCopy(loan.BookCopyID)
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "resolving copy for loan %d", loan.ID)
		}
		book, err := a.GetBook(copy.BookID)
		if err != nil {
			return nil, pkgErrors.Wrapf(err, "resolving book for loan %d", loan.ID)
		}

		until := int(horizonDays(now, loan.DueDate))
		ret = append(ret, DueSoonLoan{
			Loan:         loan,
			Member:       member,
			Book:         book,
			DaysUntilDue: until,
		})
	}

	return ret, nil
}

func horizonDays(now, due time.Time) float64 {
	return due.Sub(now).Hours() / 24
}

// LoanStatistics is an aggregate snapshot of the collection and the
// loan ledger.
type LoanStatistics struct {
	TotalBooks       int64
	TotalCopies      int64
	AvailableCopies  int64
	CheckedOutCopies int64
	TotalMembers     int64
	ActiveMembers    int64
	OpenLoans        int64
	OverdueLoans     int64
	UnpaidFines      int64
	UnpaidFineTotal  int
}

// GetLoanStatistics computes the aggregate counts in a single snapshot
func (a *App) GetLoanStatistics() (LoanStatistics, error) {
	var stats LoanStatistics
	now := a.Clock.Now()

	counts := []struct {
		dest  *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&stats.TotalBooks, &database.Book{}, "", nil},
		{&stats.TotalCopies, &database.BookCopy{}, "", nil},
		{&stats.AvailableCopies, &database.BookCopy{}, "status = ?", []interface{}{database.CopyStatusAvailable}},
		{&stats.CheckedOutCopies, &database.BookCopy{}, "status = ?", []interface{}{database.CopyStatusCheckedOut}},
		{&stats.TotalMembers, &database.Member{}, "", nil},
		{&stats.ActiveMembers, &database.Member{}, "status = ?", []interface{}{database.MemberStatusActive}},
		{&stats.OpenLoans, &database.Loan{}, "return_date IS NULL", nil},
		{&stats.OverdueLoans, &database.Loan{}, "return_date IS NULL AND due_date < ?", []interface{}{now}},
		{&stats.UnpaidFines, &database.Loan{}, "fine_amount > 0 AND fine_paid = ?", []interface{}{false}},
	}

	for _, c := range counts {
		q := a.DB.Model(c.model)
		if c.query != "" {
			q = q.Where(c.query, c.args...)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return LoanStatistics{}, pkgErrors.Wrap(err, "counting")
		}
	}

	var fineTotal struct {
		Total int
	}
	if err := a.DB.Model(&database.Loan{}).
		Select("COALESCE(SUM(fine_amount), 0) AS total").
		Where("fine_amount > 0 AND fine_paid = ?", false).
		Scan(&fineTotal).Error; err != nil {
		return LoanStatistics{}, pkgErrors.Wrap(err, "summing fines")
	}
	stats.UnpaidFineTotal = fineTotal.Total

	return stats, nil
}
