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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Book is a catalog entry. Physical instances are tracked as BookCopy rows.
type Book struct {
	Model
	Title         string     `json:"title" gorm:"index"`
	Author        string     `json:"author" gorm:"index"`
	ISBN          string     `json:"isbn" gorm:"uniqueIndex;type:text"`
	Category      string     `json:"category" gorm:"index"`
	Publisher     string     `json:"publisher"`
	PublishedYear int        `json:"published_year"`
	Description   string     `json:"description"`
	Copies        []BookCopy `json:"copies,omitempty" gorm:"foreignKey:BookID"`
}

// BookCopy is one physical, individually loanable instance of a Book.
// Status is the single source of truth for loanability: a copy is loanable
// iff its status is CopyStatusAvailable, and exactly one open loan may
// reference a copy whose status is CopyStatusCheckedOut.
type BookCopy struct {
	Model
	BookID       int        `json:"book_id" gorm:"index"`
	Book         Book       `json:"-" gorm:"foreignKey:BookID"`
	ShelfID      *int       `json:"shelf_id" gorm:"index"`
	Barcode      string     `json:"barcode" gorm:"uniqueIndex;type:text"`
	Status       CopyStatus `json:"status" gorm:"index;default:'available'"`
	Condition    string     `json:"condition"`
	LocationCode string     `json:"location_code"`
}

// Shelf is a physical location holding book copies. Capacity is advisory
// and used for reporting only.
type Shelf struct {
	Model
	Name     string `json:"name" gorm:"uniqueIndex;type:text"`
	Section  string `json:"section"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// Member is a library patron. Only active members may check out books.
// PIN is stored as a bcrypt hash; QRCode is an opaque token printed on
// the member's card.
type Member struct {
	Model
	Name   string       `json:"name" gorm:"index"`
	Email  string       `json:"email" gorm:"uniqueIndex;type:text"`
	PIN    string       `json:"-"`
	QRCode string       `json:"qr_code" gorm:"index"`
	Status MemberStatus `json:"status" gorm:"index;default:'active'"`
}

// Loan is a durable record of one copy lent to one member. It is never
// physically deleted by normal flow. ReturnDate is set iff the status is
// not LoanStatusBorrowed.
type Loan struct {
	Model
	BookCopyID      int        `json:"book_copy_id" gorm:"index"`
	BookCopy        BookCopy   `json:"-" gorm:"foreignKey:BookCopyID"`
	MemberID        int        `json:"member_id" gorm:"index"`
	Member          Member     `json:"-" gorm:"foreignKey:MemberID"`
	TransactionID   *string    `json:"transaction_id" gorm:"index;type:text"`
	CheckoutDate    time.Time  `json:"checkout_date"`
	DueDate         time.Time  `json:"due_date" gorm:"index"`
	ReturnDate      *time.Time `json:"return_date"`
	Status          LoanStatus `json:"status" gorm:"index;default:'borrowed'"`
	ReturnCondition string     `json:"return_condition"`
	FineAmount      int        `json:"fine_amount" gorm:"default:0"`
	FinePaid        bool       `json:"fine_paid" gorm:"default:false"`
	FinePaidAt      *time.Time `json:"fine_paid_at"`
	RenewalCount    int        `json:"renewal_count" gorm:"default:0"`
	Notes           string     `json:"notes"`
}

// Open reports whether the loan has not been returned
func (l Loan) Open() bool {
	return l.ReturnDate == nil
}

// User is a staff account used to operate the system
type User struct {
	Model
	Username    string     `json:"username" gorm:"uniqueIndex;type:text"`
	Email       string     `json:"email" gorm:"uniqueIndex;type:text"`
	Password    string     `json:"-"`
	Role        UserRole   `json:"role" gorm:"default:'staff'"`
	Active      bool       `json:"active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"-"`
}

// Token is a single-use token, e.g. for password reset
type Token struct {
	Model
	UserID int    `gorm:"index"`
	Value  string `gorm:"index"`
	Type   string
	UsedAt *time.Time
}

// Session represents a staff user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"index"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}
