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

package ipc

import (
	"encoding/json"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/params"
	"github.com/biblios/biblios/pkg/server/presenters"
	pkgErrors "github.com/pkg/errors"
)

func decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return pkgErrors.Wrap(err, "decoding params")
	}

	return nil
}

type checkoutFailureView struct {
	CopyID int    `json:"copy_id"`
	Reason string `json:"reason"`
}

type checkoutResult struct {
	Loans    []presenters.Loan     `json:"loans"`
	Failures []checkoutFailureView `json:"failures"`
}

type returnFailureView struct {
	LoanID int    `json:"loan_id"`
	Reason string `json:"reason"`
}

type batchReturnResult struct {
	Loans    []presenters.Loan   `json:"loans"`
	Failures []returnFailureView `json:"failures"`
}

type qrReturnResult struct {
	Returned        []presenters.Loan `json:"returned"`
	SkippedLoanIDs  []int             `json:"skipped_loan_ids"`
	Warnings        []string          `json:"warnings"`
	AlreadyReturned bool              `json:"already_returned"`
}

func (s *Server) registerHandlers() {
	s.handlers["loans:borrowBooks"] = s.borrowBooks
	s.handlers["loans:returnBook"] = s.returnBook
	s.handlers["loans:returnBooks"] = s.returnBooks
	s.handlers["loans:returnBooksViaQRCode"] = s.returnBooksViaQRCode
	s.handlers["loans:renewLoan"] = s.renewLoan
	s.handlers["loans:payFine"] = s.payFine
	s.handlers["loans:getLoan"] = s.getLoan
	s.handlers["loans:listLoans"] = s.listLoans
	s.handlers["loans:getOverdue"] = s.getOverdue
	s.handlers["loans:getDueSoon"] = s.getDueSoon
	s.handlers["loans:getStatistics"] = s.getStatistics
	s.handlers["transactions:get"] = s.getTransaction
	s.handlers["members:listLoans"] = s.listMemberLoans
}

func (s *Server) borrowBooks(raw json.RawMessage) (interface{}, error) {
	var payload params.CheckoutPayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}

	req, err := params.NormalizeCheckout(payload)
	if err != nil {
		return nil, err
	}

	loans, failures, err := s.app.CheckoutBooks(req.MemberID, req.CopyIDs, req.DurationDays)
	if err != nil {
		return nil, err
	}

	ret := checkoutResult{
		Loans:    presenters.PresentLoans(loans),
		Failures: make([]checkoutFailureView, 0, len(failures)),
	}
	for _, f := range failures {
		ret.Failures = append(ret.Failures, checkoutFailureView{CopyID: f.CopyID, Reason: f.Reason()})
	}

	return ret, nil
}

type returnBookParams struct {
	LoanID    int    `json:"loan_id"`
	Condition string `json:"condition"`
	Note      string `json:"note"`
}

func (s *Server) returnBook(raw json.RawMessage) (interface{}, error) {
	var p returnBookParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	condition, err := database.ParseReturnCondition(p.Condition)
	if err != nil {
		return nil, err
	}

	loans, err := s.app.ReturnLoan(p.LoanID, condition, p.Note)
	if err != nil {
		return nil, err
	}

	return presenters.PresentLoans(loans), nil
}

type returnBooksParams struct {
	Returns []returnBookParams `json:"returns"`
}

func (s *Server) returnBooks(raw json.RawMessage) (interface{}, error) {
	var p returnBooksParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	if len(p.Returns) == 0 {
		return nil, pkgErrors.New("at least one return is required")
	}

	items := make([]app.ReturnParams, 0, len(p.Returns))
	for _, item := range p.Returns {
		condition, err := database.ParseReturnCondition(item.Condition)
		if err != nil {
			return nil, err
		}
		items = append(items, app.ReturnParams{
			LoanID:    item.LoanID,
			Condition: condition,
			Note:      item.Note,
		})
	}

	loans, failures, err := s.app.ReturnLoans(items)
	if err != nil {
		return nil, err
	}

	ret := batchReturnResult{
		Loans:    presenters.PresentLoans(loans),
		Failures: make([]returnFailureView, 0, len(failures)),
	}
	for _, f := range failures {
		ret.Failures = append(ret.Failures, returnFailureView{LoanID: f.LoanID, Reason: f.Reason()})
	}

	return ret, nil
}

func (s *Server) returnBooksViaQRCode(raw json.RawMessage) (interface{}, error) {
	var payload params.QRReturnPayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}

	req, err := params.NormalizeQRReturn(payload)
	if err != nil {
		return nil, err
	}

	result, err := s.app.ReturnViaQR(req)
	if err != nil {
		return nil, err
	}

	ret := qrReturnResult{
		Returned:        presenters.PresentLoans(result.Returned),
		SkippedLoanIDs:  result.SkippedLoanIDs,
		Warnings:        result.Warnings,
		AlreadyReturned: result.AlreadyReturned,
	}
	if ret.SkippedLoanIDs == nil {
		ret.SkippedLoanIDs = []int{}
	}
	if ret.Warnings == nil {
		ret.Warnings = []string{}
	}

	return ret, nil
}

type renewLoanParams struct {
	LoanID        int `json:"loan_id"`
	ExtensionDays int `json:"extension_days"`
}

func (s *Server) renewLoan(raw json.RawMessage) (interface{}, error) {
	var p renewLoanParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	loan, err := s.app.RenewLoan(p.LoanID, p.ExtensionDays)
	if err != nil {
		return nil, err
	}

	return presenters.PresentLoan(loan), nil
}

type payFineParams struct {
	LoanID int `json:"loan_id"`
	Amount int `json:"amount"`
}

func (s *Server) payFine(raw json.RawMessage) (interface{}, error) {
	var p payFineParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	loan, err := s.app.PayFine(p.LoanID, p.Amount)
	if err != nil {
		return nil, err
	}

	return presenters.PresentLoan(loan), nil
}

type getLoanParams struct {
	LoanID int `json:"loan_id"`
}

func (s *Server) getLoan(raw json.RawMessage) (interface{}, error) {
	var p getLoanParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	loan, err := s.app.GetLoan(p.LoanID)
	if err != nil {
		return nil, err
	}

	return presenters.PresentLoan(loan), nil
}

type listLoansParams struct {
	MemberID int    `json:"member_id"`
	CopyID   int    `json:"copy_id"`
	Status   string `json:"status"`
	OpenOnly bool   `json:"open_only"`
}

func (s *Server) listLoans(raw json.RawMessage) (interface{}, error) {
	var p listLoansParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	loans, err := s.app.ListLoans(app.LoanQuery{
		MemberID: p.MemberID,
		CopyID:   p.CopyID,
		Status:   p.Status,
		OpenOnly: p.OpenOnly,
	})
	if err != nil {
		return nil, err
	}

	return presenters.PresentLoans(loans), nil
}

type getOverdueParams struct {
	DaysOverdue int `json:"days_overdue"`
}

func (s *Server) getOverdue(raw json.RawMessage) (interface{}, error) {
	var p getOverdueParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	overdue, err := s.app.Overdue(p.DaysOverdue)
	if err != nil {
		return nil, err
	}

	return presenters.PresentOverdueLoans(overdue), nil
}

type getDueSoonParams struct {
	Days int `json:"days"`
}

func (s *Server) getDueSoon(raw json.RawMessage) (interface{}, error) {
	p := getDueSoonParams{Days: 3}
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	due, err := s.app.DueSoon(p.Days)
	if err != nil {
		return nil, err
	}

	return presenters.PresentDueSoonLoans(due), nil
}

func (s *Server) getStatistics(raw json.RawMessage) (interface{}, error) {
	stats, err := s.app.GetLoanStatistics()
	if err != nil {
		return nil, err
	}

	return presenters.PresentLoanStatistics(stats), nil
}

type getTransactionParams struct {
	TransactionID string `json:"transaction_id"`
}

func (s *Server) getTransaction(raw json.RawMessage) (interface{}, error) {
	var p getTransactionParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	group, err := s.app.GetTransactionGroup(p.TransactionID)
	if err != nil {
		return nil, err
	}

	return presenters.PresentTransactionGroup(group), nil
}

type listMemberLoansParams struct {
	MemberID int `json:"member_id"`
}

func (s *Server) listMemberLoans(raw json.RawMessage) (interface{}, error) {
	var p listMemberLoansParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	if _, err := s.app.GetMember(p.MemberID); err != nil {
		return nil, err
	}

	groups, err := s.app.ListMemberTransactionGroups(p.MemberID)
	if err != nil {
		return nil, err
	}

	return presenters.PresentTransactionGroups(groups), nil
}
