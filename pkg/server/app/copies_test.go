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

func TestCreateCopy(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")

	copy, err := a.CreateCopy(CreateCopyParams{
		BookID:  book.ID,
		Barcode: "C-0001",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating copy"))
	}

	assert.Equal(t, copy.BookID, book.ID, "BookID mismatch")
	assert.Equal(t, copy.Status, database.CopyStatusAvailable, "new copies start available")
}

func TestCreateCopyGeneratedBarcode(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")

	c1, err := a.CreateCopy(CreateCopyParams{BookID: book.ID})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating copy"))
	}
	c2, err := a.CreateCopy(CreateCopyParams{BookID: book.ID})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating copy"))
	}

	assert.NotEqual(t, c1.Barcode, "", "barcode should be generated")
	assert.NotEqual(t, c1.Barcode, c2.Barcode, "generated barcodes should be unique")
}

func TestCreateCopyUnknownBook(t *testing.T) {
	a := NewTest(t)

	_, err := a.CreateCopy(CreateCopyParams{BookID: 999, Barcode: "C-0001"})
	assert.Equal(t, err, ErrBookNotFound, "error mismatch")
}

func TestCreateCopyDuplicateBarcode(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")

	if _, err := a.CreateCopy(CreateCopyParams{BookID: book.ID, Barcode: "C-0001"}); err != nil {
		t.Fatal(errors.Wrap(err, "creating first copy"))
	}

	_, err := a.CreateCopy(CreateCopyParams{BookID: book.ID, Barcode: "C-0001"})
	assert.Equal(t, err, ErrDuplicateBarcode, "error mismatch")
}

func TestSetCopyStatus(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)

	updated, err := a.SetCopyStatus(copy.ID, database.CopyStatusMaintenance)
	if err != nil {
		t.Fatal(errors.Wrap(err, "setting status"))
	}
	assert.Equal(t, updated.Status, database.CopyStatusMaintenance, "Status mismatch")

	// A copy in maintenance cannot be checked out.
	member := testutils.SetupMemberData(t, a.DB, "alice")
	loans, failures, err := a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking out"))
	}
	assert.Equal(t, len(loans), 0, "loan count mismatch")
	assert.Equal(t, len(failures), 1, "failure count mismatch")
}

func TestSetCopyStatusCheckedOutRejected(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	checkoutOne(t, a, member.ID, copy.ID)

	// Flipping a checked-out copy is the return flow's job.
	if _, err := a.SetCopyStatus(copy.ID, database.CopyStatusAvailable); err == nil {
		t.Error("expected an error for a checked-out copy")
	}

	fresh := testutils.SetupCopyData(t, a.DB, book)
	if _, err := a.SetCopyStatus(fresh.ID, database.CopyStatusCheckedOut); err == nil {
		t.Error("expected an error for setting checked_out without a loan")
	}
}

func TestMoveCopy(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)

	shelf, err := a.CreateShelf(CreateShelfParams{Name: "A1", Capacity: 10})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating shelf"))
	}

	moved, err := a.MoveCopy(copy.ID, &shelf.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "moving copy"))
	}
	assert.Equal(t, *moved.ShelfID, shelf.ID, "ShelfID mismatch")

	// Moving off any shelf.
	unshelved, err := a.MoveCopy(copy.ID, nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "unshelving copy"))
	}
	assert.Equal(t, unshelved.ShelfID, (*int)(nil), "ShelfID should be cleared")
}

func TestMoveCopyUnknownShelf(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)

	bogus := 999
	_, err := a.MoveCopy(copy.ID, &bogus)
	assert.Equal(t, err, ErrShelfNotFound, "error mismatch")
}

func TestListCopies(t *testing.T) {
	a := NewTest(t)

	b1 := testutils.SetupBookData(t, a.DB, "SICP")
	b2 := testutils.SetupBookData(t, a.DB, "Dune")
	testutils.SetupCopyData(t, a.DB, b1)
	testutils.SetupCopyData(t, a.DB, b1)
	testutils.SetupCopyData(t, a.DB, b2)

	byBook, err := a.ListCopies(CopyQuery{BookID: b1.ID})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing by book"))
	}
	assert.Equal(t, len(byBook), 2, "book copy count mismatch")

	available, err := a.ListCopies(CopyQuery{Status: "available"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing by status"))
	}
	assert.Equal(t, len(available), 3, "available copy count mismatch")
}

func TestDeleteCopyWithOpenLoan(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	checkoutOne(t, a, member.ID, copy.ID)

	err := a.DeleteCopy(copy.ID)
	assert.Equal(t, err, ErrHasActiveLoan, "error mismatch")
}

func TestDeleteCopy(t *testing.T) {
	a := NewTest(t)

	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)

	if err := a.DeleteCopy(copy.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting copy"))
	}

	_, err := a.GetCopy(copy.ID)
	assert.Equal(t, err, ErrCopyNotFound, "copy should be gone")
}
