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
	"testing"
	"time"

	"github.com/biblios/biblios/pkg/assert"
	"github.com/biblios/biblios/pkg/clock"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/testutils"
	"github.com/pkg/errors"
)

// checkoutOne checks out a single copy and returns the created loan
func checkoutOne(t *testing.T, a *App, memberID, copyID int) database.Loan {
	t.Helper()

	loans, failures, err := a.CheckoutBooks(memberID, []int{copyID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking out"))
	}
	if len(failures) > 0 {
		t.Fatalf("checkout failed: %s", failures[0].Reason())
	}

	return loans[0]
}

func TestReturnLoanOnTime(t *testing.T) {
	serverTime := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	mockClock := clock.NewMock()
	mockClock.SetNow(serverTime)

	a := NewTest(t)
	a.Clock = mockClock

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	mockClock.Advance(24 * time.Hour)

	returned, err := a.ReturnLoan(loan.ID, database.ConditionGood, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, len(returned), 1, "returned count mismatch")
	assert.Equal(t, returned[0].Status, database.LoanStatusReturned, "loan Status mismatch")
	assert.Equal(t, returned[0].FineAmount, 0, "loan FineAmount mismatch")
	assert.NotEqual(t, returned[0].ReturnDate, nil, "loan ReturnDate should be set")

	var copyRecord database.BookCopy
	testutils.MustExec(t, a.DB.Where("id = ?", copy.ID).First(&copyRecord), "finding copy")
	assert.Equal(t, copyRecord.Status, database.CopyStatusAvailable, "copy status mismatch")
}

func TestReturnLoanOverdueFine(t *testing.T) {
	serverTime := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	mockClock := clock.NewMock()
	mockClock.SetNow(serverTime)

	a := NewTest(t)
	a.Clock = mockClock

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	// 2 days and 1 hour past due rounds up to 3 overdue days.
	due := loan.DueDate
	mockClock.SetNow(due.Add(49 * time.Hour))

	returned, err := a.ReturnLoan(loan.ID, database.ConditionGood, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, returned[0].FineAmount, 3*a.Rules.FinePerDay, "loan FineAmount mismatch")
	assert.Equal(t, returned[0].FinePaid, false, "loan FinePaid mismatch")
}

func TestReturnLoanPartialDayRoundsUp(t *testing.T) {
	serverTime := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	mockClock := clock.NewMock()
	mockClock.SetNow(serverTime)

	a := NewTest(t)
	a.Clock = mockClock

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	mockClock.SetNow(loan.DueDate.Add(time.Hour))

	returned, err := a.ReturnLoan(loan.ID, database.ConditionGood, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, returned[0].FineAmount, a.Rules.FinePerDay, "one overdue hour should cost a full day")
}

func TestReturnLoanDamaged(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	returned, err := a.ReturnLoan(loan.ID, database.ConditionDamaged, "water damage")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, returned[0].Status, database.LoanStatusReturned, "loan Status mismatch")
	assert.Equal(t, returned[0].FineAmount, a.Rules.DamagedFine, "loan FineAmount mismatch")
	assert.Equal(t, returned[0].Notes, "water damage", "loan Notes mismatch")

	var copyRecord database.BookCopy
	testutils.MustExec(t, a.DB.Where("id = ?", copy.ID).First(&copyRecord), "finding copy")
	assert.Equal(t, copyRecord.Status, database.CopyStatusDamaged, "copy status mismatch")
}

func TestReturnLoanLost(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	returned, err := a.ReturnLoan(loan.ID, database.ConditionLost, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, returned[0].Status, database.LoanStatusLost, "loan Status mismatch")
	assert.Equal(t, returned[0].FineAmount, a.Rules.LostFine, "loan FineAmount mismatch")

	var copyRecord database.BookCopy
	testutils.MustExec(t, a.DB.Where("id = ?", copy.ID).First(&copyRecord), "finding copy")
	assert.Equal(t, copyRecord.Status, database.CopyStatusLost, "copy status mismatch")
}

func TestReturnLoanOverdueAndDamaged(t *testing.T) {
	serverTime := time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)
	mockClock := clock.NewMock()
	mockClock.SetNow(serverTime)

	a := NewTest(t)
	a.Clock = mockClock

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	mockClock.SetNow(loan.DueDate.Add(25 * time.Hour))

	returned, err := a.ReturnLoan(loan.ID, database.ConditionDamaged, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, returned[0].FineAmount, 2*a.Rules.FinePerDay+a.Rules.DamagedFine, "loan FineAmount mismatch")
}

func TestReturnLoanGroupExpansion(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	c1 := testutils.SetupCopyData(t, a.DB, book)
	c2 := testutils.SetupCopyData(t, a.DB, book)

	loans, failures, err := a.CheckoutBooks(member.ID, []int{c1.ID, c2.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking out"))
	}
	assert.Equal(t, len(failures), 0, "checkout failure count mismatch")

	returned, err := a.ReturnLoan(loans[0].ID, database.ConditionGood, "desk note")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, len(returned), 2, "books borrowed together should come back together")
	assert.Equal(t, returned[0].ID, loans[0].ID, "named loan should come first")
	assert.Equal(t, returned[0].Notes, "desk note", "named loan should carry the note")
	assert.Equal(t, returned[1].Notes, "", "companion loan should not carry the note")

	var openCount int64
	testutils.MustExec(t, a.DB.Model(&database.Loan{}).
		Where("member_id = ? AND return_date IS NULL", member.ID).
		Count(&openCount), "counting open loans")
	assert.Equal(t, openCount, int64(0), "open loan count mismatch")
}

func TestReturnLoanNoteAppended(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	testutils.MustExec(t, a.DB.Model(&database.Loan{}).Where("id = ?", loan.ID).Update("notes", "existing"), "preparing notes")

	returned, err := a.ReturnLoan(loan.ID, database.ConditionGood, "new note")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	assert.Equal(t, returned[0].Notes, "existing\nnew note", "notes should be newline-joined")
}

func TestReturnLoanAlreadyReturned(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	if _, err := a.ReturnLoan(loan.ID, database.ConditionGood, ""); err != nil {
		t.Fatal(errors.Wrap(err, "returning"))
	}

	_, err := a.ReturnLoan(loan.ID, database.ConditionGood, "")
	assert.Equal(t, err, ErrAlreadyReturned, "error mismatch")
}

func TestReturnLoanNotFound(t *testing.T) {
	a := NewTest(t)

	_, err := a.ReturnLoan(999, database.ConditionGood, "")
	assert.Equal(t, err, ErrLoanNotFound, "error mismatch")
}

func TestReturnLoansMissingID(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	_, _, err := a.ReturnLoans([]ReturnParams{
		{LoanID: loan.ID, Condition: database.ConditionGood},
		{LoanID: 999, Condition: database.ConditionGood},
	})

	var invalid InvalidLoanIDsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidLoanIDsError, got %v", err)
	}
	assert.DeepEqual(t, invalid.Missing, []int{999}, "missing ids mismatch")

	// Nothing was mutated.
	var loanRecord database.Loan
	testutils.MustExec(t, a.DB.Where("id = ?", loan.ID).First(&loanRecord), "finding loan")
	assert.Equal(t, loanRecord.ReturnDate, (*time.Time)(nil), "loan should remain open")
}

func TestReturnLoansPartialFailure(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	c1 := testutils.SetupCopyData(t, a.DB, book)
	c2 := testutils.SetupCopyData(t, a.DB, book)

	l1 := checkoutOne(t, a, member.ID, c1.ID)
	l2 := checkoutOne(t, a, member.ID, c2.ID)

	if _, err := a.ReturnLoan(l2.ID, database.ConditionGood, ""); err != nil {
		t.Fatal(errors.Wrap(err, "preparing closed loan"))
	}

	loans, failures, err := a.ReturnLoans([]ReturnParams{
		{LoanID: l1.ID, Condition: database.ConditionGood},
		{LoanID: l2.ID, Condition: database.ConditionGood},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning batch"))
	}

	assert.Equal(t, len(loans), 1, "returned count mismatch")
	assert.Equal(t, loans[0].ID, l1.ID, "returned loan id mismatch")
	assert.Equal(t, len(failures), 1, "failure count mismatch")
	assert.Equal(t, failures[0].LoanID, l2.ID, "failure loan id mismatch")
	assert.Equal(t, failures[0].Err, ErrAlreadyReturned, "failure error mismatch")
}

func TestReturnLoansGroupDedupe(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	c1 := testutils.SetupCopyData(t, a.DB, book)
	c2 := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{c1.ID, c2.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking out"))
	}

	// Both loans are named, but group expansion closes the second while
	// processing the first. The second entry is skipped, not failed.
	results, failures, err := a.ReturnLoans([]ReturnParams{
		{LoanID: loans[0].ID, Condition: database.ConditionGood},
		{LoanID: loans[1].ID, Condition: database.ConditionGood},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning batch"))
	}

	assert.Equal(t, len(results), 2, "returned count mismatch")
	assert.Equal(t, len(failures), 0, "failure count mismatch")
}
