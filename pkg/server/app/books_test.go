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

	"github.com/biblios/biblios/pkg/assert"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestCreateBook(t *testing.T) {
	a := NewTest(t)

	book, err := a.CreateBook(CreateBookParams{
		Title:         "The Go Programming Language",
		Author:        "Donovan and Kernighan",
		ISBN:          "978-0134190440",
		Category:      "programming",
		PublishedYear: 2015,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating book"))
	}

	assert.Equal(t, book.Title, "The Go Programming Language", "Title mismatch")
	assert.Equal(t, book.ISBN, "978-0134190440", "ISBN mismatch")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Book{}).Count(&count), "counting books")
	assert.Equal(t, count, int64(1), "book count mismatch")
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	a := NewTest(t)

	if _, err := a.CreateBook(CreateBookParams{Title: "first", ISBN: "978-1"}); err != nil {
		t.Fatal(errors.Wrap(err, "creating first book"))
	}

	_, err := a.CreateBook(CreateBookParams{Title: "second", ISBN: "978-1"})
	assert.Equal(t, err, ErrDuplicateISBN, "error mismatch")
}

func TestListBooks(t *testing.T) {
	a := NewTest(t)

	if _, err := a.CreateBook(CreateBookParams{Title: "The Go Programming Language", Author: "Donovan", ISBN: "978-1", Category: "programming"}); err != nil {
		t.Fatal(errors.Wrap(err, "creating book"))
	}
	if _, err := a.CreateBook(CreateBookParams{Title: "Dune", Author: "Herbert", ISBN: "978-2", Category: "fiction"}); err != nil {
		t.Fatal(errors.Wrap(err, "creating book"))
	}

	all, err := a.ListBooks(BookQuery{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing all"))
	}
	assert.Equal(t, len(all), 2, "total count mismatch")

	byTitle, err := a.ListBooks(BookQuery{Title: "Go"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing by title"))
	}
	assert.Equal(t, len(byTitle), 1, "title match count mismatch")
	assert.Equal(t, byTitle[0].Title, "The Go Programming Language", "title mismatch")

	byCategory, err := a.ListBooks(BookQuery{Category: "fiction"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing by category"))
	}
	assert.Equal(t, len(byCategory), 1, "category match count mismatch")
}

func TestUpdateBook(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")

	newTitle := "Structure and Interpretation of Computer Programs"
	newCategory := "computer science"
	updated, err := a.UpdateBook(book.ID, UpdateBookParams{
		Title:    &newTitle,
		Category: &newCategory,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating book"))
	}

	assert.Equal(t, updated.Title, newTitle, "Title mismatch")
	assert.Equal(t, updated.Category, newCategory, "Category mismatch")
	assert.Equal(t, updated.Author, book.Author, "untouched field should survive")
}

func TestDeleteBook(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")
	testutils.SetupCopyData(t, a.DB, book)

	if err := a.DeleteBook(book.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting book"))
	}

	var bookCount, copyCount int64
	testutils.MustExec(t, a.DB.Model(&database.Book{}).Count(&bookCount), "counting books")
	testutils.MustExec(t, a.DB.Model(&database.BookCopy{}).Count(&copyCount), "counting copies")
	assert.Equal(t, bookCount, int64(0), "book count mismatch")
	assert.Equal(t, copyCount, int64(0), "copies go with the book")
}

func TestDeleteBookWithOpenLoan(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	checkoutOne(t, a, member.ID, copy.ID)

	err := a.DeleteBook(book.ID)
	assert.Equal(t, err, ErrHasActiveLoan, "error mismatch")

	if _, err := a.GetBook(book.ID); err != nil {
		t.Errorf("book should still exist, got %v", err)
	}
}
