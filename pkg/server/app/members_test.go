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

func TestCreateMember(t *testing.T) {
	a := NewTest(t)

	member, err := a.CreateMember(CreateMemberParams{
		Name:  "alice",
		Email: "alice@example.com",
		PIN:   "4321",
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating member"))
	}

	assert.Equal(t, member.Name, "alice", "Name mismatch")
	assert.Equal(t, member.Email, "alice@example.com", "Email mismatch")
	assert.Equal(t, member.Status, database.MemberStatusActive, "Status mismatch")
	assert.NotEqual(t, member.QRCode, "", "QRCode should be provisioned")
	assert.NotEqual(t, member.PIN, "4321", "PIN must not be stored in the clear")

	if err := a.VerifyMemberPIN(member.ID, "4321"); err != nil {
		t.Errorf("correct PIN should verify, got %v", err)
	}
	assert.Equal(t, a.VerifyMemberPIN(member.ID, "0000"), ErrLoginInvalid, "wrong PIN error mismatch")
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	a := NewTest(t)

	if _, err := a.CreateMember(CreateMemberParams{Name: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatal(errors.Wrap(err, "creating first member"))
	}

	_, err := a.CreateMember(CreateMemberParams{Name: "alice again", Email: "alice@example.com"})
	assert.Equal(t, err, ErrDuplicateEmail, "error mismatch")
}

func TestCreateMemberMissingEmail(t *testing.T) {
	a := NewTest(t)

	_, err := a.CreateMember(CreateMemberParams{Name: "alice"})
	assert.Equal(t, err, ErrEmailRequired, "error mismatch")
}

func TestGetMemberByQR(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")

	found, err := a.GetMemberByQR(member.QRCode)
	if err != nil {
		t.Fatal(errors.Wrap(err, "looking up by QR"))
	}
	assert.Equal(t, found.ID, member.ID, "member id mismatch")

	_, err = a.GetMemberByQR("bogus")
	assert.Equal(t, err, ErrMemberNotFound, "error mismatch")
}

func TestRotateMemberQR(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")

	rotated, err := a.RotateMemberQR(member.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "rotating QR"))
	}

	assert.NotEqual(t, rotated.QRCode, member.QRCode, "QR code should change")

	// The old code no longer resolves.
	_, err = a.GetMemberByQR(member.QRCode)
	assert.Equal(t, err, ErrMemberNotFound, "old QR code should be revoked")
}

func TestSetMemberStatus(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")

	updated, err := a.SetMemberStatus(member.ID, database.MemberStatusInactive)
	if err != nil {
		t.Fatal(errors.Wrap(err, "suspending member"))
	}
	assert.Equal(t, updated.Status, database.MemberStatusInactive, "Status mismatch")

	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	_, _, err = a.CheckoutBooks(member.ID, []int{copy.ID}, 0)
	assert.Equal(t, err, ErrMemberNotEligible, "suspended member must not check out")
}

func TestDeleteMember(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")

	if err := a.DeleteMember(member.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting member"))
	}

	_, err := a.GetMember(member.ID)
	assert.Equal(t, err, ErrMemberNotFound, "member should be gone")
}

func TestDeleteMemberWithOpenLoan(t *testing.T) {
	a := NewTest(t)

	member := testutils.SetupMemberData(t, a.DB, "alice")
	book := testutils.SetupBookData(t, a.DB, "SICP")
	copy := testutils.SetupCopyData(t, a.DB, book)
	checkoutOne(t, a, member.ID, copy.ID)

	err := a.DeleteMember(member.ID)
	assert.Equal(t, err, ErrHasActiveLoan, "error mismatch")

	if _, err := a.GetMember(member.ID); err != nil {
		t.Errorf("member should still exist, got %v", err)
	}
}
