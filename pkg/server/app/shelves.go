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

// CreateShelfParams are the parameters for adding a shelf
type CreateShelfParams struct {
	Name     string
	Section  string
	Location string
	Capacity int
}

// CreateShelf adds a shelf. Capacity is advisory and not enforced when
// copies are placed.
func (a *App) CreateShelf(p CreateShelfParams) (database.Shelf, error) {
	if p.Name == "" {
		return database.Shelf{}, pkgErrors.New("shelf name is required")
	}

	shelf := database.Shelf{
		Name:     p.Name,
		Section:  p.Section,
		Location: p.Location,
		Capacity: p.Capacity,
	}
	if err := a.DB.Create(&shelf).Error; err != nil {
		return database.Shelf{}, pkgErrors.Wrap(err, "inserting shelf")
	}

	return shelf, nil
}

// GetShelf retrieves a shelf by id
func (a *App) GetShelf(shelfID int) (database.Shelf, error) {
	var shelf database.Shelf
	err := a.DB.Where("id = ?", shelfID).First(&shelf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Shelf{}, ErrShelfNotFound
	} else if err != nil {
		return database.Shelf{}, pkgErrors.Wrap(err, "finding shelf")
	}

	return shelf, nil
}

// ListShelves lists all shelves
func (a *App) ListShelves() ([]database.Shelf, error) {
	var shelves []database.Shelf
	if err := a.DB.Order("name ASC").Find(&shelves).Error; err != nil {
		return nil, pkgErrors.Wrap(err, "listing shelves")
	}

	return shelves, nil
}

// ShelfOccupancy reports the number of copies on a shelf against its
// advisory capacity
type ShelfOccupancy struct {
	Shelf     database.Shelf
	CopyCount int64
}

// GetShelfOccupancy reports how full a shelf is
func (a *App) GetShelfOccupancy(shelfID int) (ShelfOccupancy, error) {
	shelf, err := a.GetShelf(shelfID)
	if err != nil {
		return ShelfOccupancy{}, err
	}

	var count int64
	if err := a.DB.Model(&database.BookCopy{}).Where("shelf_id = ?", shelfID).Count(&count).Error; err != nil {
		return ShelfOccupancy{}, pkgErrors.Wrap(err, "counting copies")
	}

	return ShelfOccupancy{Shelf: shelf, CopyCount: count}, nil
}

// DeleteShelf removes a shelf. It fails with ErrShelfNotEmpty while copies
// still reference it; relocation must run first.
func (a *App) DeleteShelf(shelfID int) error {
	tx := a.DB.Begin()

	var shelf database.Shelf
	err := tx.Where("id = ?", shelfID).First(&shelf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return ErrShelfNotFound
	} else if err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "finding shelf")
	}

	var copyCount int64
	if err := tx.Model(&database.BookCopy{}).Where("shelf_id = ?", shelfID).Count(&copyCount).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "counting copies")
	}
	if copyCount > 0 {
		tx.Rollback()
		return ErrShelfNotEmpty
	}

	if err := tx.Delete(&shelf).Error; err != nil {
		tx.Rollback()
		return pkgErrors.Wrap(err, "deleting shelf")
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing delete")
	}

	return nil
}
