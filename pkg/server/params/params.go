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

// Package params normalizes historical client payload shapes onto canonical
// engine requests. Desktop clients have shipped two generations of the
// checkout payload and several spellings of the QR return fields; every
// transport accepts all of them through the adapters here, so the engine
// only ever sees one shape.
package params

import (
	"time"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/pkg/errors"
)

// CheckoutPayload is the union of both checkout payload generations
type CheckoutPayload struct {
	MemberIDCamel *int `json:"memberId"`
	MemberIDSnake *int `json:"member_id"`

	BookCopyID  *int  `json:"bookCopyId"`
	BookCopyIDs []int `json:"bookCopyIds"`
	BookCopies  []int `json:"book_copies"`

	DurationDays *int   `json:"durationDays"`
	CheckoutDate string `json:"checkout_date"`
	DueDate      string `json:"due_date"`
}

// CheckoutRequest is the canonical checkout request
type CheckoutRequest struct {
	MemberID     int
	CopyIDs      []int
	DurationDays int
}

// NormalizeCheckout maps either checkout payload generation onto the
// canonical request. DurationDays of zero means the engine default.
func NormalizeCheckout(p CheckoutPayload) (CheckoutRequest, error) {
	var ret CheckoutRequest

	switch {
	case p.MemberIDCamel != nil:
		ret.MemberID = *p.MemberIDCamel
	case p.MemberIDSnake != nil:
		ret.MemberID = *p.MemberIDSnake
	default:
		return ret, errors.New("member id is required")
	}

	switch {
	case len(p.BookCopyIDs) > 0:
		ret.CopyIDs = p.BookCopyIDs
	case len(p.BookCopies) > 0:
		ret.CopyIDs = p.BookCopies
	case p.BookCopyID != nil:
		ret.CopyIDs = []int{*p.BookCopyID}
	default:
		return ret, errors.New("at least one book copy is required")
	}

	if p.DurationDays != nil {
		if *p.DurationDays <= 0 {
			return ret, errors.New("duration must be positive")
		}
		ret.DurationDays = *p.DurationDays
		return ret, nil
	}

	// The older payload shape carries explicit dates instead of a duration.
	if p.CheckoutDate != "" && p.DueDate != "" {
		days, err := daysBetween(p.CheckoutDate, p.DueDate)
		if err != nil {
			return ret, err
		}
		if days <= 0 {
			return ret, errors.New("due date must be after the checkout date")
		}
		ret.DurationDays = days
	}

	return ret, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}

	t, err = time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date '%s'", s)
	}

	return t, nil
}

func daysBetween(from, to string) (int, error) {
	start, err := parseDate(from)
	if err != nil {
		return 0, err
	}

	end, err := parseDate(to)
	if err != nil {
		return 0, err
	}

	return int(end.Sub(start).Hours() / 24), nil
}

// QRReturnPayload is the union of the QR return field spellings
type QRReturnPayload struct {
	LoanIDsCamel []int `json:"loanIds"`
	LoanIDsSnake []int `json:"loan_ids"`
	Loans        []int `json:"loans"`

	MemberIDCamel *int `json:"memberId"`
	MemberIDSnake *int `json:"member_id"`

	SkipMemberCheckCamel bool `json:"skipMemberCheck"`
	SkipMemberCheckSnake bool `json:"skip_member_check"`

	Condition string `json:"condition"`
}

// NormalizeQRReturn maps the QR payload spellings onto the canonical request
func NormalizeQRReturn(p QRReturnPayload) (app.QRReturnRequest, error) {
	var ret app.QRReturnRequest

	switch {
	case len(p.LoanIDsCamel) > 0:
		ret.LoanIDs = p.LoanIDsCamel
	case len(p.LoanIDsSnake) > 0:
		ret.LoanIDs = p.LoanIDsSnake
	case len(p.Loans) > 0:
		ret.LoanIDs = p.Loans
	default:
		return ret, errors.New("at least one loan id is required")
	}

	if p.MemberIDCamel != nil {
		ret.MemberID = p.MemberIDCamel
	} else if p.MemberIDSnake != nil {
		ret.MemberID = p.MemberIDSnake
	}

	ret.SkipMemberCheck = p.SkipMemberCheckCamel || p.SkipMemberCheckSnake

	condition, err := database.ParseReturnCondition(p.Condition)
	if err != nil {
		return ret, err
	}
	ret.Condition = condition

	return ret, nil
}
