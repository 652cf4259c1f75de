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
	"testing"
	"testing/fstest"

	"github.com/biblios/biblios/pkg/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestValidateMigrationFilename(t *testing.T) {
	testCases := []struct {
		name  string
		valid bool
	}{
		{"001-initial.sql", true},
		{"042-add-loan-notes.sql", true},
		{"001-initial.txt", false},
		{"001.sql", false},
		{"1-initial.sql", false},
		{"01a-initial.sql", false},
		{"001-.sql", false},
	}

	for _, tc := range testCases {
		err := validateMigrationFilename(tc.name)
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestGetMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002-second.sql": {Data: []byte("SELECT 1;")},
		"001-first.sql":  {Data: []byte("SELECT 1;")},
		"010-tenth.sql":  {Data: []byte("SELECT 1;")},
	}

	files, err := getMigrationFiles(fsys)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(files), 3, "file count mismatch")
	assert.Equal(t, files[0].filename, "001-first.sql", "order mismatch")
	assert.Equal(t, files[1].filename, "002-second.sql", "order mismatch")
	assert.Equal(t, files[2].filename, "010-tenth.sql", "order mismatch")
}

func TestGetMigrationFilesDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001-first.sql":  {Data: []byte("SELECT 1;")},
		"001-second.sql": {Data: []byte("SELECT 1;")},
	}

	if _, err := getMigrationFiles(fsys); err == nil {
		t.Error("expected an error")
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}

	return db
}

func TestMigrateAppliesOnce(t *testing.T) {
	db := openTestDB(t)

	fsys := fstest.MapFS{
		"001-books.sql": {Data: []byte("CREATE TABLE migrate_probe (id INTEGER PRIMARY KEY);")},
	}

	if err := migrate(db, fsys); err != nil {
		t.Fatal(err)
	}

	// A second run skips the already applied migration; re-running the
	// CREATE TABLE would fail.
	if err := migrate(db, fsys); err != nil {
		t.Fatal(err)
	}

	var version int
	if err := db.Raw("SELECT MAX(version) FROM schema_migrations").Scan(&version).Error; err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, version, 1, "version mismatch")
}

func TestMigrateEmptyFile(t *testing.T) {
	db := openTestDB(t)

	fsys := fstest.MapFS{
		"001-empty.sql": {Data: []byte("  \n")},
	}

	if err := migrate(db, fsys); err == nil {
		t.Error("expected an error")
	}
}
