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

package params

import (
	"encoding/json"
	"testing"

	"github.com/biblios/biblios/pkg/assert"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/pkg/errors"
)

func decodeCheckout(t *testing.T, raw string) CheckoutPayload {
	t.Helper()

	var p CheckoutPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(errors.Wrap(err, "decoding payload"))
	}

	return p
}

func TestNormalizeCheckoutModernShape(t *testing.T) {
	p := decodeCheckout(t, `{"memberId": 7, "bookCopyIds": [1, 2], "durationDays": 10}`)

	req, err := NormalizeCheckout(p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "normalizing"))
	}

	assert.Equal(t, req.MemberID, 7, "MemberID mismatch")
	assert.DeepEqual(t, req.CopyIDs, []int{1, 2}, "CopyIDs mismatch")
	assert.Equal(t, req.DurationDays, 10, "DurationDays mismatch")
}

func TestNormalizeCheckoutSingleCopy(t *testing.T) {
	p := decodeCheckout(t, `{"memberId": 7, "bookCopyId": 3}`)

	req, err := NormalizeCheckout(p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "normalizing"))
	}

	assert.DeepEqual(t, req.CopyIDs, []int{3}, "CopyIDs mismatch")
	assert.Equal(t, req.DurationDays, 0, "omitted duration means the engine default")
}

func TestNormalizeCheckoutLegacyShape(t *testing.T) {
	p := decodeCheckout(t, `{"member_id": 7, "book_copies": [4], "checkout_date": "2025-06-02", "due_date": "2025-06-16"}`)

	req, err := NormalizeCheckout(p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "normalizing"))
	}

	assert.Equal(t, req.MemberID, 7, "MemberID mismatch")
	assert.DeepEqual(t, req.CopyIDs, []int{4}, "CopyIDs mismatch")
	assert.Equal(t, req.DurationDays, 14, "duration should be derived from the dates")
}

func TestNormalizeCheckoutLegacyShapeRFC3339(t *testing.T) {
	p := decodeCheckout(t, `{"member_id": 7, "book_copies": [4], "checkout_date": "2025-06-02T10:00:00Z", "due_date": "2025-06-09T10:00:00Z"}`)

	req, err := NormalizeCheckout(p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "normalizing"))
	}

	assert.Equal(t, req.DurationDays, 7, "duration mismatch")
}

func TestNormalizeCheckoutInvalid(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"missing member", `{"bookCopyIds": [1]}`},
		{"missing copies", `{"memberId": 7}`},
		{"non-positive duration", `{"memberId": 7, "bookCopyIds": [1], "durationDays": 0}`},
		{"due before checkout", `{"member_id": 7, "book_copies": [1], "checkout_date": "2025-06-16", "due_date": "2025-06-02"}`},
		{"bad date", `{"member_id": 7, "book_copies": [1], "checkout_date": "junk", "due_date": "2025-06-02"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeCheckout(decodeCheckout(t, tc.raw)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func decodeQRReturn(t *testing.T, raw string) QRReturnPayload {
	t.Helper()

	var p QRReturnPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(errors.Wrap(err, "decoding payload"))
	}

	return p
}

func TestNormalizeQRReturnAliases(t *testing.T) {
	testCases := []string{
		`{"loanIds": [1, 2], "memberId": 7}`,
		`{"loan_ids": [1, 2], "member_id": 7}`,
		`{"loans": [1, 2], "member_id": 7}`,
	}

	for _, raw := range testCases {
		req, err := NormalizeQRReturn(decodeQRReturn(t, raw))
		if err != nil {
			t.Fatal(errors.Wrapf(err, "normalizing %s", raw))
		}

		assert.DeepEqual(t, req.LoanIDs, []int{1, 2}, "LoanIDs mismatch")
		assert.Equal(t, *req.MemberID, 7, "MemberID mismatch")
	}
}

func TestNormalizeQRReturnSkipMemberCheck(t *testing.T) {
	for _, raw := range []string{
		`{"loanIds": [1], "skipMemberCheck": true}`,
		`{"loanIds": [1], "skip_member_check": true}`,
	} {
		req, err := NormalizeQRReturn(decodeQRReturn(t, raw))
		if err != nil {
			t.Fatal(errors.Wrapf(err, "normalizing %s", raw))
		}

		assert.Equal(t, req.SkipMemberCheck, true, "SkipMemberCheck mismatch")
	}
}

func TestNormalizeQRReturnCondition(t *testing.T) {
	req, err := NormalizeQRReturn(decodeQRReturn(t, `{"loanIds": [1], "condition": "damaged"}`))
	if err != nil {
		t.Fatal(errors.Wrap(err, "normalizing"))
	}
	assert.Equal(t, req.Condition, database.ConditionDamaged, "Condition mismatch")

	// Empty condition defaults to good.
	req, err = NormalizeQRReturn(decodeQRReturn(t, `{"loanIds": [1]}`))
	if err != nil {
		t.Fatal(errors.Wrap(err, "normalizing"))
	}
	assert.Equal(t, req.Condition, database.ConditionGood, "default condition mismatch")

	if _, err := NormalizeQRReturn(decodeQRReturn(t, `{"loanIds": [1], "condition": "bogus"}`)); err == nil {
		t.Error("expected an error for an invalid condition")
	}
}

func TestNormalizeQRReturnMissingLoanIDs(t *testing.T) {
	if _, err := NormalizeQRReturn(decodeQRReturn(t, `{"memberId": 7}`)); err == nil {
		t.Error("expected an error for missing loan ids")
	}
}
