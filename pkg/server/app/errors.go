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
	"github.com/pkg/errors"
)

// Business-rule violations are detected before mutation and surface as
// typed failures. Callers translate them to 4xx responses; anything else
// rolls back and propagates as a 5xx.
var (
	// ErrBookNotFound is an error for a missing book
	ErrBookNotFound = errors.New("book not found")
	// ErrCopyNotFound is an error for a missing book copy
	ErrCopyNotFound = errors.New("book copy not found")
	// ErrShelfNotFound is an error for a missing shelf
	ErrShelfNotFound = errors.New("shelf not found")
	// ErrMemberNotFound is an error for a missing member
	ErrMemberNotFound = errors.New("member not found")
	// ErrLoanNotFound is an error for a missing loan
	ErrLoanNotFound = errors.New("loan not found")
	// ErrUserNotFound is an error for a missing staff user
	ErrUserNotFound = errors.New("user not found")
	// ErrTransactionNotFound is an error for an unknown transaction id
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrMemberNotEligible is an error for a checkout by an inactive member
	ErrMemberNotEligible = errors.New("member is not eligible to check out books")
	// ErrLoanLimitExceeded is an error for a checkout beyond the open-loan cap
	ErrLoanLimitExceeded = errors.New("loan limit exceeded")
	// ErrAlreadyReturned is an error for returning a closed loan
	ErrAlreadyReturned = errors.New("loan is already returned")
	// ErrAlreadyOverdue is an error for renewing an overdue loan
	ErrAlreadyOverdue = errors.New("loan is overdue and can no longer be renewed")
	// ErrRenewalLimitExceeded is an error for renewing beyond the renewal cap
	ErrRenewalLimitExceeded = errors.New("renewal limit exceeded")
	// ErrNoFineDue is an error for paying a loan without a fine
	ErrNoFineDue = errors.New("no fine is due on this loan")
	// ErrAlreadyPaid is an error for paying a fine twice
	ErrAlreadyPaid = errors.New("fine is already paid")
	// ErrInsufficientPayment is an error for a payment below the fine amount
	ErrInsufficientPayment = errors.New("payment does not cover the fine")
	// ErrHasActiveLoan is an error for deleting a record with open loans
	ErrHasActiveLoan = errors.New("record has an active loan")
	// ErrShelfNotEmpty is an error for deleting a shelf that still holds copies
	ErrShelfNotEmpty = errors.New("shelf still holds book copies")
	// ErrQRMemberMismatch is an error for a strict-mode QR return where no
	// scanned loan belongs to the supplied member
	ErrQRMemberMismatch = errors.New("none of the scanned loans belong to the member")

	// ErrEmailRequired is an error for a user creation without an email
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordTooShort is an error for a too short password
	ErrPasswordTooShort = errors.New("password is too short")
	// ErrDuplicateEmail is an error for an already registered email
	ErrDuplicateEmail = errors.New("email is already registered")
	// ErrDuplicateUsername is an error for an already registered username
	ErrDuplicateUsername = errors.New("username is already taken")
	// ErrDuplicateISBN is an error for an already cataloged ISBN
	ErrDuplicateISBN = errors.New("isbn is already cataloged")
	// ErrDuplicateBarcode is an error for an already registered barcode
	ErrDuplicateBarcode = errors.New("barcode is already registered")
	// ErrLoginInvalid is an error for invalid credentials
	ErrLoginInvalid = errors.New("wrong username or password")
)

// CopyUnavailableError is returned when a checkout targets a copy that is
// not available. When the copy is out on an open loan, the error carries
// the holder and due date so the desk can tell the patron.
type CopyUnavailableError struct {
	CopyID     int
	Status     database.CopyStatus
	HolderName string
	DueDate    *time.Time
}

func (e CopyUnavailableError) Error() string {
	if e.HolderName != "" && e.DueDate != nil {
		return fmt.Sprintf("copy %d is checked out by %s until %s", e.CopyID, e.HolderName, e.DueDate.Format("2006-01-02"))
	}

	return fmt.Sprintf("copy %d is not available (status: %s)", e.CopyID, e.Status)
}

// InvalidLoanIDsError is returned when a batch return names loan IDs that
// do not exist. Nothing is mutated.
type InvalidLoanIDsError struct {
	Missing []int
}

func (e InvalidLoanIDsError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, id := range e.Missing {
		parts = append(parts, fmt.Sprintf("%d", id))
	}

	return fmt.Sprintf("invalid loan ids: %s", strings.Join(parts, ", "))
}

// NoMatchingLoansError is returned when a QR return resolves zero loans.
// It carries diagnostics so the caller can self-correct.
type NoMatchingLoansError struct {
	RequestedIDs    []int
	ActiveLoanCount int64
	MemberLoanIDs   []int
}

func (e NoMatchingLoansError) Error() string {
	msg := fmt.Sprintf("no matching loans for ids %v; %d active loans in the system", e.RequestedIDs, e.ActiveLoanCount)
	if e.MemberLoanIDs != nil {
		msg = fmt.Sprintf("%s; the member's open loans are %v", msg, e.MemberLoanIDs)
	}

	return msg
}
