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

// Package testutils provides utilities used in tests
package testutils

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/token"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitMemoryDB opens a fresh in-memory SQLite database with the schema
// applied. Each call gets its own database; shared cache keeps it alive
// across the connections gorm pools.
func InitMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}

	database.InitSchema(db)

	return db
}

// ClearData deletes all records from the database
func ClearData(t *testing.T, db *gorm.DB) {
	t.Helper()

	for _, model := range []interface{}{
		&database.Loan{},
		&database.BookCopy{},
		&database.Book{},
		&database.Shelf{},
		&database.Member{},
		&database.Session{},
		&database.Token{},
		&database.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			t.Fatal(errors.Wrap(err, "clearing data"))
		}
	}
}

// MustExec fails the test if the given database operation returns an error
func MustExec(t *testing.T, conn *gorm.DB, message string) {
	t.Helper()

	if err := conn.Error; err != nil {
		t.Fatalf("%s: %v", message, err)
	}
}

// SetupUserData creates a staff user for testing
func SetupUserData(t *testing.T, db *gorm.DB) database.User {
	t.Helper()

	password, err := bcrypt.GenerateFromPassword([]byte("pass1234"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatal(errors.Wrap(err, "hashing password"))
	}

	user := database.User{
		Username: fmt.Sprintf("staff-%s", uuid.NewString()[:8]),
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Password: string(password),
		Role:     database.RoleStaff,
		Active:   true,
	}
	MustExec(t, db.Create(&user), "preparing user")

	return user
}

// SetupSession creates a session for the user and returns its key
func SetupSession(t *testing.T, db *gorm.DB, user database.User) string {
	t.Helper()

	key, err := token.Random(32)
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating session key"))
	}

	session := database.Session{
		UserID:     user.ID,
		Key:        key,
		LastUsedAt: time.Now(),
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}
	MustExec(t, db.Create(&session), "preparing session")

	return key
}

// SetupMemberData creates an active member for testing
func SetupMemberData(t *testing.T, db *gorm.DB, name string) database.Member {
	t.Helper()

	qr, err := token.Random(16)
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating qr token"))
	}

	member := database.Member{
		Name:   name,
		Email:  fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		QRCode: qr,
		Status: database.MemberStatusActive,
	}
	MustExec(t, db.Create(&member), "preparing member")

	return member
}

// SetupBookData creates a book for testing
func SetupBookData(t *testing.T, db *gorm.DB, title string) database.Book {
	t.Helper()

	book := database.Book{
		Title:  title,
		Author: "Test Author",
		ISBN:   uuid.NewString(),
	}
	MustExec(t, db.Create(&book), "preparing book")

	return book
}

// SetupCopyData creates an available copy of the book for testing
func SetupCopyData(t *testing.T, db *gorm.DB, book database.Book) database.BookCopy {
	t.Helper()

	copy := database.BookCopy{
		BookID:  book.ID,
		Barcode: uuid.NewString(),
		Status:  database.CopyStatusAvailable,
	}
	MustExec(t, db.Create(&copy), "preparing copy")

	return copy
}

// MakeReq makes an HTTP request to the given server
func MakeReq(server *httptest.Server, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", server.URL, path)

	req, err := http.NewRequest(method, u, bytes.NewBufferString(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	hc := http.Client{
		// Do not follow redirects so that tests can assert redirect responses
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// SetReqAuthHeader sets the session key on the request
func SetReqAuthHeader(t *testing.T, req *http.Request, sessionKey string) {
	t.Helper()

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sessionKey))
}

// HTTPAuthDo makes an HTTP request with the session key of an
// ad hoc staff user
func HTTPAuthDo(t *testing.T, db *gorm.DB, req *http.Request) *http.Response {
	t.Helper()

	user := SetupUserData(t, db)
	key := SetupSession(t, db, user)
	SetReqAuthHeader(t, req, key)

	return HTTPDo(t, req)
}

// ReadBody reads and returns the response body as a string
func ReadBody(t *testing.T, res *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading body"))
	}

	return string(b)
}
