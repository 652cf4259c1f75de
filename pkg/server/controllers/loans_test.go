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

package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/biblios/biblios/pkg/assert"
	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/presenters"
	"github.com/biblios/biblios/pkg/server/testutils"
	"github.com/pkg/errors"
)

func mustUnmarshalBody(t *testing.T, res *http.Response, dst interface{}) {
	t.Helper()

	body := testutils.ReadBody(t, res)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatal(errors.Wrapf(err, "decoding response %s", body))
	}
}

func TestCheckout(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	c1 := testutils.SetupCopyData(t, a.DB, book)
	c2 := testutils.SetupCopyData(t, a.DB, book)

	payload := fmt.Sprintf(`{"memberId": %d, "bookCopyIds": [%d, %d]}`, member.ID, c1.ID, c2.ID)
	req := testutils.MakeReq(server, "POST", "/api/v1/loans/checkout", payload)
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusCreated, "status code mismatch")

	var resp checkoutResponse
	mustUnmarshalBody(t, res, &resp)

	assert.Equal(t, len(resp.Loans), 2, "loan count mismatch")
	assert.Equal(t, len(resp.Failures), 0, "failure count mismatch")
	assert.Equal(t, resp.Loans[0].MemberID, member.ID, "MemberID mismatch")
	assert.NotEqual(t, resp.Loans[0].TransactionID, nil, "TransactionID should be set")

	var copyRecord database.BookCopy
	testutils.MustExec(t, a.DB.First(&copyRecord, c1.ID), "finding copy")
	assert.Equal(t, copyRecord.Status, database.CopyStatusCheckedOut, "copy status mismatch")
}

func TestCheckoutPartialSuccess(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	alice := testutils.SetupMemberData(t, a.DB, "alice")
	bob := testutils.SetupMemberData(t, a.DB, "bob")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	c1 := testutils.SetupCopyData(t, a.DB, book)
	c2 := testutils.SetupCopyData(t, a.DB, book)

	if _, _, err := a.CheckoutBooks(bob.ID, []int{c1.ID}, 0); err != nil {
		t.Fatal(errors.Wrap(err, "preparing held copy"))
	}

	payload := fmt.Sprintf(`{"memberId": %d, "bookCopyIds": [%d, %d]}`, alice.ID, c1.ID, c2.ID)
	req := testutils.MakeReq(server, "POST", "/api/v1/loans/checkout", payload)
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusMultiStatus, "status code mismatch")

	var resp checkoutResponse
	mustUnmarshalBody(t, res, &resp)

	assert.Equal(t, len(resp.Loans), 1, "loan count mismatch")
	assert.Equal(t, len(resp.Failures), 1, "failure count mismatch")
	assert.Equal(t, resp.Failures[0].CopyID, c1.ID, "failed copy mismatch")
	assert.ContainsSubstring(t, resp.Failures[0].Reason, "checked out by bob", "failure reason mismatch")
}

func TestCheckoutLegacyPayload(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	copy := testutils.SetupCopyData(t, a.DB, book)

	payload := fmt.Sprintf(`{"member_id": %d, "book_copies": [%d], "checkout_date": "2025-06-02", "due_date": "2025-06-16"}`, member.ID, copy.ID)
	req := testutils.MakeReq(server, "POST", "/api/v1/loans/borrow", payload)
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusCreated, "status code mismatch")
}

func TestCheckoutUnauthorized(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	req := testutils.MakeReq(server, "POST", "/api/v1/loans/checkout", `{"memberId": 1, "bookCopyIds": [1]}`)
	res := testutils.HTTPDo(t, req)

	assert.StatusCodeEquals(t, res, http.StatusUnauthorized, "status code mismatch")
}

func TestReturn(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	copy := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing loan"))
	}

	path := fmt.Sprintf("/api/v1/loans/%d/return", loans[0].ID)
	req := testutils.MakeReq(server, "POST", path, `{"condition": "damaged", "note": "water damage"}`)
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	var returned []presenters.Loan
	mustUnmarshalBody(t, res, &returned)

	assert.Equal(t, len(returned), 1, "returned count mismatch")
	assert.Equal(t, returned[0].Status, string(database.LoanStatusReturned), "loan status mismatch")
	assert.Equal(t, returned[0].FineAmount, a.Rules.DamagedFine, "fine mismatch")
	assert.ContainsSubstring(t, returned[0].Notes, "water damage", "note mismatch")
}

func TestReturnEmptyBody(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	copy := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing loan"))
	}

	// No body means a good-condition return.
	path := fmt.Sprintf("/api/v1/loans/%d/return", loans[0].ID)
	req := testutils.MakeReq(server, "POST", path, "")
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	var returned []presenters.Loan
	mustUnmarshalBody(t, res, &returned)
	assert.Equal(t, returned[0].FineAmount, 0, "fine mismatch")
}

func TestReturnAlreadyReturned(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	copy := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing loan"))
	}
	if _, err := a.ReturnLoan(loans[0].ID, database.ConditionGood, ""); err != nil {
		t.Fatal(errors.Wrap(err, "preparing returned loan"))
	}

	path := fmt.Sprintf("/api/v1/loans/%d/return", loans[0].ID)
	req := testutils.MakeReq(server, "POST", path, "")
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusConflict, "status code mismatch")
}

func TestReturnQR(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	copy := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing loan"))
	}

	payload := fmt.Sprintf(`{"loan_ids": [%d], "member_id": %d}`, loans[0].ID, member.ID)
	req := testutils.MakeReq(server, "POST", "/api/v1/loans/return-qr", payload)
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	var resp qrReturnResponse
	mustUnmarshalBody(t, res, &resp)

	assert.Equal(t, len(resp.Returned), 1, "returned count mismatch")
	assert.Equal(t, resp.AlreadyReturned, false, "AlreadyReturned mismatch")
	assert.Equal(t, len(resp.Warnings), 0, "warning count mismatch")

	// A second scan of the same code is a no-op.
	req = testutils.MakeReq(server, "POST", "/api/v1/loans/return-qr", payload)
	res = testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	mustUnmarshalBody(t, res, &resp)
	assert.Equal(t, len(resp.Returned), 0, "returned count mismatch")
	assert.Equal(t, resp.AlreadyReturned, true, "AlreadyReturned mismatch")
	assert.DeepEqual(t, resp.SkippedLoanIDs, []int{loans[0].ID}, "SkippedLoanIDs mismatch")
}

func TestReturnQRNoMatch(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	req := testutils.MakeReq(server, "POST", "/api/v1/loans/return-qr", `{"loan_ids": [999]}`)
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusNotFound, "status code mismatch")
}

func TestRenew(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	copy := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing loan"))
	}

	path := fmt.Sprintf("/api/v1/loans/%d/renew", loans[0].ID)
	req := testutils.MakeReq(server, "POST", path, "")
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	var loan presenters.Loan
	mustUnmarshalBody(t, res, &loan)
	assert.Equal(t, loan.RenewalCount, 1, "RenewalCount mismatch")
}

func TestPayFine(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	copy := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing loan"))
	}
	if _, err := a.ReturnLoan(loans[0].ID, database.ConditionDamaged, ""); err != nil {
		t.Fatal(errors.Wrap(err, "preparing fined loan"))
	}

	path := fmt.Sprintf("/api/v1/loans/%d/pay-fine", loans[0].ID)
	payload := fmt.Sprintf(`{"amount": %d}`, a.Rules.DamagedFine)
	req := testutils.MakeReq(server, "POST", path, payload)
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	var loan presenters.Loan
	mustUnmarshalBody(t, res, &loan)
	assert.Equal(t, loan.FinePaid, true, "FinePaid mismatch")
}

func TestShowLoanNotFound(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	req := testutils.MakeReq(server, "GET", "/api/v1/loans/999", "")
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusNotFound, "status code mismatch")
}

func TestLoanIndexFilters(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	alice := testutils.SetupMemberData(t, a.DB, "alice")
	bob := testutils.SetupMemberData(t, a.DB, "bob")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	c1 := testutils.SetupCopyData(t, a.DB, book)
	c2 := testutils.SetupCopyData(t, a.DB, book)

	if _, _, err := a.CheckoutBooks(alice.ID, []int{c1.ID}, 0); err != nil {
		t.Fatal(errors.Wrap(err, "preparing loans"))
	}
	if _, _, err := a.CheckoutBooks(bob.ID, []int{c2.ID}, 0); err != nil {
		t.Fatal(errors.Wrap(err, "preparing loans"))
	}

	path := fmt.Sprintf("/api/v1/loans?memberId=%d", alice.ID)
	req := testutils.MakeReq(server, "GET", path, "")
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	var loans []presenters.Loan
	mustUnmarshalBody(t, res, &loans)
	assert.Equal(t, len(loans), 1, "loan count mismatch")
	assert.Equal(t, loans[0].MemberID, alice.ID, "MemberID mismatch")
}

func TestShowTransaction(t *testing.T) {
	a := app.NewTest(t)
	server := MustNewServer(t, a)
	defer server.Close()

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "The Trial")
	c1 := testutils.SetupCopyData(t, a.DB, book)
	c2 := testutils.SetupCopyData(t, a.DB, book)

	loans, _, err := a.CheckoutBooks(member.ID, []int{c1.ID, c2.ID}, 0)
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing loans"))
	}

	path := fmt.Sprintf("/api/v1/transactions/%s", *loans[0].TransactionID)
	req := testutils.MakeReq(server, "GET", path, "")
	res := testutils.HTTPAuthDo(t, a.DB, req)

	assert.StatusCodeEquals(t, res, http.StatusOK, "status code mismatch")

	var group presenters.TransactionGroup
	mustUnmarshalBody(t, res, &group)
	assert.Equal(t, len(group.Loans), 2, "loan count mismatch")
	assert.Equal(t, group.OpenCount, 2, "OpenCount mismatch")
}
