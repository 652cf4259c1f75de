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

// Package presenters formats domain rows into API views
package presenters

import (
	"time"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/database"
)

// FormatTS formats a time into a timestamp in the view layer
func FormatTS(t time.Time) int64 {
	return t.UnixNano()
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}

	s := t.Format(time.RFC3339)
	return &s
}

// Book is a book view
type Book struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Category      string `json:"category"`
	Publisher     string `json:"publisher"`
	PublishedYear int    `json:"published_year"`
	Description   string `json:"description"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

// PresentBook presents a book
func PresentBook(book database.Book) Book {
	return Book{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		ISBN:          book.ISBN,
		Category:      book.Category,
		Publisher:     book.Publisher,
		PublishedYear: book.PublishedYear,
		Description:   book.Description,
		CreatedAt:     FormatTS(book.CreatedAt),
		UpdatedAt:     FormatTS(book.UpdatedAt),
	}
}

// PresentBooks presents a slice of books
func PresentBooks(books []database.Book) []Book {
	ret := make([]Book, 0, len(books))
	for _, b := range books {
		ret = append(ret, PresentBook(b))
	}

	return ret
}

// BookCopy is a book copy view
type BookCopy struct {
	ID           int    `json:"id"`
	BookID       int    `json:"book_id"`
	ShelfID      *int   `json:"shelf_id"`
	Barcode      string `json:"barcode"`
	Status       string `json:"status"`
	Condition    string `json:"condition"`
	LocationCode string `json:"location_code"`
}

// PresentCopy presents a book copy
func PresentCopy(copy database.BookCopy) BookCopy {
	return BookCopy{
		ID:           copy.ID,
		BookID:       copy.BookID,
		ShelfID:      copy.ShelfID,
		Barcode:      copy.Barcode,
		Status:       string(copy.Status),
		Condition:    copy.Condition,
		LocationCode: copy.LocationCode,
	}
}

// PresentCopies presents a slice of book copies
func PresentCopies(copies []database.BookCopy) []BookCopy {
	ret := make([]BookCopy, 0, len(copies))
	for _, c := range copies {
		ret = append(ret, PresentCopy(c))
	}

	return ret
}

// Shelf is a shelf view
type Shelf struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Section  string `json:"section"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// PresentShelf presents a shelf
func PresentShelf(shelf database.Shelf) Shelf {
	return Shelf{
		ID:       shelf.ID,
		Name:     shelf.Name,
		Section:  shelf.Section,
		Location: shelf.Location,
		Capacity: shelf.Capacity,
	}
}

// PresentShelves presents a slice of shelves
func PresentShelves(shelves []database.Shelf) []Shelf {
	ret := make([]Shelf, 0, len(shelves))
	for _, s := range shelves {
		ret = append(ret, PresentShelf(s))
	}

	return ret
}

// Member is a member view. The PIN hash never leaves the server.
type Member struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	QRCode    string `json:"qr_code"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// PresentMember presents a member
func PresentMember(member database.Member) Member {
	return Member{
		ID:        member.ID,
		Name:      member.Name,
		Email:     member.Email,
		QRCode:    member.QRCode,
		Status:    string(member.Status),
		CreatedAt: FormatTS(member.CreatedAt),
	}
}

// PresentMembers presents a slice of members
func PresentMembers(members []database.Member) []Member {
	ret := make([]Member, 0, len(members))
	for _, m := range members {
		ret = append(ret, PresentMember(m))
	}

	return ret
}

// Loan is a loan view
type Loan struct {
	ID              int     `json:"id"`
	BookCopyID      int     `json:"book_copy_id"`
	MemberID        int     `json:"member_id"`
	TransactionID   *string `json:"transaction_id"`
	CheckoutDate    string  `json:"checkout_date"`
	DueDate         string  `json:"due_date"`
	ReturnDate      *string `json:"return_date"`
	Status          string  `json:"status"`
	ReturnCondition string  `json:"return_condition,omitempty"`
	FineAmount      int     `json:"fine_amount"`
	FinePaid        bool    `json:"fine_paid"`
	FinePaidAt      *string `json:"fine_paid_at,omitempty"`
	RenewalCount    int     `json:"renewal_count"`
	Notes           string  `json:"notes,omitempty"`
}

// PresentLoan presents a loan
func PresentLoan(loan database.Loan) Loan {
	return Loan{
		ID:              loan.ID,
		BookCopyID:      loan.BookCopyID,
		MemberID:        loan.MemberID,
		TransactionID:   loan.TransactionID,
		CheckoutDate:    loan.CheckoutDate.Format(time.RFC3339),
		DueDate:         loan.DueDate.Format(time.RFC3339),
		ReturnDate:      formatOptionalTime(loan.ReturnDate),
		Status:          string(loan.Status),
		ReturnCondition: loan.ReturnCondition,
		FineAmount:      loan.FineAmount,
		FinePaid:        loan.FinePaid,
		FinePaidAt:      formatOptionalTime(loan.FinePaidAt),
		RenewalCount:    loan.RenewalCount,
		Notes:           loan.Notes,
	}
}

// PresentLoans presents a slice of loans
func PresentLoans(loans []database.Loan) []Loan {
	ret := make([]Loan, 0, len(loans))
	for _, l := range loans {
		ret = append(ret, PresentLoan(l))
	}

	return ret
}

// TransactionGroup is a view of loans sharing one checkout call
type TransactionGroup struct {
	TransactionID string `json:"transaction_id"`
	MemberID      int    `json:"member_id"`
	CheckoutDate  string `json:"checkout_date"`
	Loans         []Loan `json:"loans"`
	OpenCount     int    `json:"open_count"`
}

// PresentTransactionGroup presents a transaction group
func PresentTransactionGroup(group app.TransactionGroup) TransactionGroup {
	return TransactionGroup{
		TransactionID: group.TransactionID,
		MemberID:      group.MemberID,
		CheckoutDate:  group.CheckoutDate.Format(time.RFC3339),
		Loans:         PresentLoans(group.Loans),
		OpenCount:     group.OpenCount,
	}
}

// PresentTransactionGroups presents a slice of transaction groups
func PresentTransactionGroups(groups []app.TransactionGroup) []TransactionGroup {
	ret := make([]TransactionGroup, 0, len(groups))
	for _, g := range groups {
		ret = append(ret, PresentTransactionGroup(g))
	}

	return ret
}

// OverdueLoan is an overdue loan view with member and book context
type OverdueLoan struct {
	Loan        Loan   `json:"loan"`
	MemberName  string `json:"member_name"`
	MemberEmail string `json:"member_email"`
	BookTitle   string `json:"book_title"`
	DaysOverdue int    `json:"days_overdue"`
	AccruedFine int    `json:"accrued_fine"`
}

// PresentOverdueLoans presents overdue loans
func PresentOverdueLoans(overdue []app.OverdueLoan) []OverdueLoan {
	ret := make([]OverdueLoan, 0, len(overdue))
	for _, ov := range overdue {
		ret = append(ret, OverdueLoan{
			Loan:        PresentLoan(ov.Loan),
			MemberName:  ov.Member.Name,
			MemberEmail: ov.Member.Email,
			BookTitle:   ov.Book.Title,
			DaysOverdue: ov.DaysOverdue,
			AccruedFine: ov.AccruedFine,
		})
	}

	return ret
}

// DueSoonLoan is a view of a loan approaching its due date
type DueSoonLoan struct {
	Loan         Loan   `json:"loan"`
	MemberName   string `json:"member_name"`
	BookTitle    string `json:"book_title"`
	DaysUntilDue int    `json:"days_until_due"`
}

// PresentDueSoonLoans presents loans approaching their due dates
func PresentDueSoonLoans(due []app.DueSoonLoan) []DueSoonLoan {
	ret := make([]DueSoonLoan, 0, len(due))
	for _, d := range due {
		ret = append(ret, DueSoonLoan{
			Loan:         PresentLoan(d.Loan),
			MemberName:   d.Member.Name,
			BookTitle:    d.Book.Title,
			DaysUntilDue: d.DaysUntilDue,
		})
	}

	return ret
}

// LoanStatistics is a view of aggregate circulation counts
type LoanStatistics struct {
	TotalBooks       int64 `json:"total_books"`
	TotalCopies      int64 `json:"total_copies"`
	AvailableCopies  int64 `json:"available_copies"`
	CheckedOutCopies int64 `json:"checked_out_copies"`
	TotalMembers     int64 `json:"total_members"`
	ActiveMembers    int64 `json:"active_members"`
	OpenLoans        int64 `json:"open_loans"`
	OverdueLoans     int64 `json:"overdue_loans"`
	UnpaidFines      int64 `json:"unpaid_fines"`
	UnpaidFineTotal  int   `json:"unpaid_fine_total"`
}

// PresentLoanStatistics presents loan statistics
func PresentLoanStatistics(stats app.LoanStatistics) LoanStatistics {
	return LoanStatistics{
		TotalBooks:       stats.TotalBooks,
		TotalCopies:      stats.TotalCopies,
		AvailableCopies:  stats.AvailableCopies,
		CheckedOutCopies: stats.CheckedOutCopies,
		TotalMembers:     stats.TotalMembers,
		ActiveMembers:    stats.ActiveMembers,
		OpenLoans:        stats.OpenLoans,
		OverdueLoans:     stats.OverdueLoans,
		UnpaidFines:      stats.UnpaidFines,
		UnpaidFineTotal:  stats.UnpaidFineTotal,
	}
}

// User is a staff user view
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// PresentUser presents a staff user
func PresentUser(user database.User) User {
	return User{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		Active:   user.Active,
	}
}
