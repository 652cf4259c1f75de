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
	"github.com/biblios/biblios/pkg/server/helpers"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// CreateCopyParams are the parameters for registering a physical copy
type CreateCopyParams struct {
	BookID       int
	ShelfID      *int
	Barcode      string
	Condition    string
	LocationCode string
}

// CreateCopy registers a new physical copy of a cataloged book. New copies
// start out available. An omitted barcode gets a generated one.
func (a *App) CreateCopy(p CreateCopyParams) (database.BookCopy, error) {
	tx := a.DB.Begin()

	var book database.Book
	err := tx.Where("id = ?", p.BookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return database.BookCopy{}, ErrBookNotFound
	} else if err != nil {
		tx.Rollback()
		return database.BookCopy{}, pkgErrors.Wrap(err, "finding book")
	}

	if p.ShelfID != nil {
		var shelf database.Shelf
		err := tx.Where("id = ?", *p.ShelfID).First(&shelf).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return database.BookCopy{}, ErrShelfNotFound
		} else if err != nil {
			tx.Rollback()
			return database.BookCopy{}, pkgErrors.Wrap(err, "finding shelf")
		}
	}

	barcode := p.Barcode
	if barcode == "" {
		barcode, err = helpers.GenUUID()
		if err != nil {
			tx.Rollback()
			return database.BookCopy{}, pkgErrors.Wrap(err, "generating barcode")
		}
	}

	var count int64
	if err := tx.Model(&database.BookCopy{}).Where("barcode = ?", barcode).Count(&count).Error; err != nil {
		tx.Rollback()
		return database.BookCopy{}, pkgErrors.Wrap(err, "counting copies by barcode")
	}
	if count > 0 {
		tx.Rollback()
		return database.BookCopy{}, ErrDuplicateBarcode
	}

	copy := database.BookCopy{
		BookID:       p.BookID,
		ShelfID:      p.ShelfID,
		Barcode:      barcode,
		Status:       database.CopyStatusAvailable,
		Condition:    p.Condition,
		LocationCode: p.LocationCode,
	}
	if err := tx.Create(&copy).Error; err != nil {
		tx.Rollback()
		return database.BookCopy{}, pkgErrors.Wrap(err, "inserting copy")
	}

	if err := tx.Commit().Error; err != nil {
		return database.BookCopy{}, pkgErrors.Wrap(err, "committing copy")
	}

	return copy, nil
}

// GetCopy retrieves a copy by id
func (a *App) GetCopy(copyID int) (database.BookCopy, error) {
	var copy database.BookCopy
	err := a.DB.Where("id = ?", copyID).First(&copy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.BookCopy{}, ErrCopyNotFound
	} else if err != nil {
		return database.BookCopy{}, pkgErrors.Wrap(err, "finding copy")
	}

	return copy, nil
}

// CopyQuery filters a copy listing
type CopyQuery struct {
	BookID  int    `schema:"bookId"`
	ShelfID int    `schema:"shelfId"`
	Status  string `schema:"status"`
}

// ListCopies lists copies matching the given query
func (a *App) ListCopies(q CopyQuery) ([]database.BookCopy, error) {
	conn := a.DB.Order("id ASC")

	if q.BookID != 0 {
		conn = conn.Where("book_id = ?", q.BookID)
	}
	if q.ShelfID != 0 {
		conn = conn.Where("shelf_id = ?", q.ShelfID)
	}
	if q.Status != "" {
		status, err := database.ParseCopyStatus(q.Status)
		if err != nil {
			return nil, err
		}
		conn = conn.Where("status = ?", status)
	}

	var copies []database.BookCopy
	if err := conn.Find(&copies).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "listing copies")
	}

	return copies, nil
}

// SetCopyStatus moves a copy between non-loan states, e.g. into or out of
// maintenance. Flipping a copy out of checked_out is the return flow's job
// and is rejected here, as is flipping it into checked_out without a loan.
func (a *App) SetCopyStatus(copyID int, status database.CopyStatus) (database.BookCopy, error) {
	copy, err := a.GetCopy(copyID)
	if err != nil {
		return database.BookCopy{}, err
	}

	if copy.Status == database.CopyStatusCheckedOut || status == database.CopyStatusCheckedOut {
		return database.BookCopy{}, CopyUnavailableError{CopyID: copy.ID, Status: copy.Status}
	}

	copy.Status = status
	if err := a.DB.Save(&copy).Error; err != nil {
		return database.BookCopy{}, pkgErrors.Wrap(err, "updating copy")
	}

	return copy, nil
}

// MoveCopy reassigns a copy to a shelf, or off any shelf when shelfID is nil
func (a *App) MoveCopy(copyID int, shelfID *int) (database.BookCopy, error) {
	copy, err := a.GetCopy(copyID)
	if err != nil {
		return database.BookCopy{}, err
	}

	if shelfID != nil {
		var shelf database.Shelf
		err := a.DB.Where("id = ?", *shelfID).First(&shelf).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.BookCopy{}, ErrShelfNotFound
		} else if err != nil {
			return database.BookCopy{}, pkgErrors.Wrap(err, "finding shelf")
		}
	}

	copy.ShelfID = shelfID
	if err := a.DB.Save(&copy).Error; err != nil {
		return database.BookCopy{}, pkgErrors.Wrap(err, "updating copy")
	}

	return copy, nil
}

// DeleteCopy removes a physical copy. It fails with ErrHasActiveLoan while
// the copy is out on an open loan.
func (a *App) DeleteCopy(copyID int) error {
	tx := a.DB.Begin()

	var copy database.BookCopy
	err := tx.Where("id = ?", copyID).First(&copy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return ErrCopyNotFound
	} else if err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "finding copy")
	}

	var openLoans int64
	if err := tx.Model(&database.Loan{}).
		Where("book_copy_id = ? AND return_date IS NULL", copyID).
		Count(&openLoans).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "counting open loans")
	}
	if openLoans > 0 {
		tx.Rollback()
		return ErrHasActiveLoan
	}

	if err := tx.Delete(&copy).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting copy")
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing delete")
	}

	return nil
}
