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

// CreateBookParams are the parameters for cataloging a book
type CreateBookParams struct {
	Title         string
	Author        string
	ISBN          string
	Category      string
	Publisher     string
	PublishedYear int
	Description   string
}

// CreateBook catalogs a new book
func (a *App) CreateBook(p CreateBookParams) (database.Book, error) {
	if p.Title == "" {
		return database.Book{}, pkgErrors.New("title is required")
	}

	tx := a.DB.Begin()

	if p.ISBN != "" {
		var count int64
		if err := tx.Model(&database.Book{}).Where("isbn = ?", p.ISBN).Count(&count).Error; err != nil {
			tx.Rollback()
			return database.Book{}, pkgErrors.Wrap(err, "counting books by isbn")
		}
		if count > 0 {
			tx.Rollback()
			return database.Book{}, ErrDuplicateISBN
		}
	}

	book := database.Book{
		Title:         p.Title,
		Author:        p.Author,
		ISBN:          p.ISBN,
		Category:      p.Category,
		Publisher:     p.Publisher,
		PublishedYear: p.PublishedYear,
		Description:   p.Description,
	}
	if err := tx.Create(&book).Error; err != nil {
		tx.Rollback()
		return database.Book{}, pkgErrors.Wrap(err, "inserting book")
	}

	if err := tx.Commit().Error; err != nil {
		return database.Book{}, pkgErrors.Wrap(err, "committing book")
	}

	return book, nil
}

// GetBook retrieves a book by id
func (a *App) GetBook(bookID int) (database.Book, error) {
	var book database.Book
	err := a.DB.Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Book{}, ErrBookNotFound
	} else if err != nil {
		return database.Book{}, pkgErrors.Wrap(err, "finding book")
	}

	return book, nil
}

// BookQuery filters a book listing
type BookQuery struct {
	Title    string `schema:"title"`
	Author   string `schema:"author"`
	Category string `schema:"category"`
}

// ListBooks lists books matching the given query
func (a *App) ListBooks(q BookQuery) ([]database.Book, error) {
	conn := a.DB.Order("title ASC")

	if q.Title != "" {
		conn = conn.Where("title LIKE ?", "%"+q.Title+"%")
	}
	if q.Author != "" {
		conn = conn.Where("author LIKE ?", "%"+q.Author+"%")
	}
	if q.Category != "" {
		conn = conn.Where("category = ?", q.Category)
	}

	var books []database.Book
	if err := conn.Find(&books).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "listing books")
	}

	return books, nil
}

// UpdateBookParams are the descriptive fields that may change after a book
// is cataloged
type UpdateBookParams struct {
	Title       *string
	Author      *string
	Category    *string
	Publisher   *string
	Description *string
}

// UpdateBook updates a book's descriptive fields
func (a *App) UpdateBook(bookID int, p UpdateBookParams) (database.Book, error) {
	book, err := a.GetBook(bookID)
	if err != nil {
		return database.Book{}, err
	}

	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.Category != nil {
		book.Category = *p.Category
	}
	if p.Publisher != nil {
		book.Publisher = *p.Publisher
	}
	if p.Description != nil {
		book.Description = *p.Description
	}

	if err := a.DB.Save(&book).Error; err != nil {
		return database.Book{}, pkgErrors.Wrap(err, "updating book")
	}

	return book, nil
}

// DeleteBook removes a book and its copies. It fails with ErrHasActiveLoan
// while any copy of the book is out on an open loan.
func (a *App) DeleteBook(bookID int) error {
	tx := a.DB.Begin()

	var book database.Book
	err := tx.Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return ErrBookNotFound
	} else if err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "finding book")
	}

	var openLoans int64
	if err := tx.Model(&database.Loan{}).
		Joins("JOIN book_copies ON book_copies.id = loans.book_copy_id").
		Where("book_copies.book_id = ? AND loans.return_date IS NULL", bookID).
		Count(&openLoans).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "counting open loans")
	}
	if openLoans > 0 {
		tx.Rollback()
		return ErrHasActiveLoan
	}

	if err := tx.Where("book_id = ?", bookID).Delete(&database.BookCopy{}).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting copies")
	}
	if err := tx.Delete(&book).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting book")
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing delete")
	}

	return nil
}
