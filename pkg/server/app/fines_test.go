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

// setupFinedLoan returns a closed loan carrying an unpaid fine
func setupFinedLoan(t *testing.T, a *App, mockClock *clock.Mock) database.Loan {
	t.Helper()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	mockClock.SetNow(loan.DueDate.Add(25 * time.Hour))

	returned, err := a.ReturnLoan(loan.ID, database.ConditionGood, "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "returning overdue loan"))
	}

	return returned[0]
}

func TestPayFine(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.SetNow(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))

	a := NewTest(t)
	a.Clock = mockClock

	loan := setupFinedLoan(t, a, mockClock)
	assert.Equal(t, loan.FineAmount, 2*a.Rules.FinePerDay, "fine amount mismatch")

	paid, err := a.PayFine(loan.ID, loan.FineAmount)
	if err != nil {
		t.Fatal(errors.Wrap(err, "paying fine"))
	}

	assert.Equal(t, paid.FinePaid, true, "FinePaid mismatch")
	assert.NotEqual(t, paid.FinePaidAt, nil, "FinePaidAt should be set")
}

func TestPayFineOverpayment(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.SetNow(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))

	a := NewTest(t)
	a.Clock = mockClock

	loan := setupFinedLoan(t, a, mockClock)

	paid, err := a.PayFine(loan.ID, loan.FineAmount+100)
	if err != nil {
		t.Fatal(errors.Wrap(err, "paying fine"))
	}

	assert.Equal(t, paid.FinePaid, true, "FinePaid mismatch")
}

func TestPayFineNotFound(t *testing.T) {
	a := NewTest(t)

	_, err := a.PayFine(999, 100)
	assert.Equal(t, err, ErrLoanNotFound, "error mismatch")
}

func TestPayFineNoFineDue(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	loan := checkoutOne(t, a, member.ID, copy.ID)

	_, err := a.PayFine(loan.ID, 100)
	assert.Equal(t, err, ErrNoFineDue, "error mismatch")
}

func TestPayFineAlreadyPaid(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.SetNow(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))

	a := NewTest(t)
	a.Clock = mockClock

	loan := setupFinedLoan(t, a, mockClock)

	if _, err := a.PayFine(loan.ID, loan.FineAmount); err != nil {
		t.Fatal(errors.Wrap(err, "paying fine"))
	}

	_, err := a.PayFine(loan.ID, loan.FineAmount)
	assert.Equal(t, err, ErrAlreadyPaid, "error mismatch")
}

func TestPayFineInsufficient(t *testing.T) {
	mockClock := clock.NewMock()
	mockClock.SetNow(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))

	a := NewTest(t)
	a.Clock = mockClock

	loan := setupFinedLoan(t, a, mockClock)

	_, err := a.PayFine(loan.ID, loan.FineAmount-1)
	assert.Equal(t, err, ErrInsufficientPayment, "error mismatch")

	var loanRecord database.Loan
	testutils.MustExec(t, a.DB.Where("id = ?", loan.ID).First(&loanRecord), "finding loan")
	assert.Equal(t, loanRecord.FinePaid, false, "fine should remain unpaid")
}
