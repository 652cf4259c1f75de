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
	"errors"
	"io"
	"net/http"

	"github.com/biblios/biblios/pkg/server/app"
	"github.com/biblios/biblios/pkg/server/database"
	"github.com/biblios/biblios/pkg/server/params"
	"github.com/biblios/biblios/pkg/server/presenters"
	"github.com/gorilla/mux"
)

// NewLoans creates a new Loans controller
func NewLoans(app *app.App) *Loans {
	return &Loans{
		app: app,
	}
}

// Loans is a loans controller
type Loans struct {
	app *app.App
}

type checkoutFailureView struct {
	CopyID int    `json:"copy_id"`
	Reason string `json:"reason"`
}

type checkoutResponse struct {
	Loans    []presenters.Loan     `json:"loans"`
	Failures []checkoutFailureView `json:"failures"`
}

// Checkout handles POST /v1/loans/checkout and /v1/loans/borrow. Both
// historical payload shapes are accepted. The batch partially succeeds:
// per-copy failures come back alongside the created loans.
func (l *Loans) Checkout(w http.ResponseWriter, r *http.Request) {
	var payload params.CheckoutPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	req, err := params.NormalizeCheckout(payload)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	loans, failures, err := l.app.CheckoutBooks(req.MemberID, req.CopyIDs, req.DurationDays)
	if err != nil {
		handleJSONError(w, err, "checking out books")
		return
	}

	resp := checkoutResponse{
		Loans:    presenters.PresentLoans(loans),
		Failures: make([]checkoutFailureView, 0, len(failures)),
	}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, checkoutFailureView{CopyID: f.CopyID, Reason: f.Reason()})
	}

	statusCode := http.StatusCreated
	if len(failures) > 0 {
		if len(loans) == 0 {
			statusCode = statusForError(failures[0].Err)
		} else {
			statusCode = http.StatusMultiStatus
		}
	}

	respondJSON(w, statusCode, resp)
}

// Index handles GET /v1/loans
func (l *Loans) Index(w http.ResponseWriter, r *http.Request) {
	var q app.LoanQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	loans, err := l.app.ListLoans(q)
	if err != nil {
		handleJSONError(w, err, "listing loans")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoans(loans))
}

// Show handles GET /v1/loans/{loanID}
func (l *Loans) Show(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIntParam(r, "loanID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	loan, err := l.app.GetLoan(loanID)
	if err != nil {
		handleJSONError(w, err, "getting loan")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoan(loan))
}

type returnPayload struct {
	Condition string `json:"condition"`
	Note      string `json:"note"`
}

// Return handles POST /v1/loans/{loanID}/return. Returning one loan of a
// transaction group returns the group's other open loans too; the response
// carries every loan the call closed.
func (l *Loans) Return(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIntParam(r, "loanID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// The body is optional; an absent body means a good-condition return.
	var payload returnPayload
	if err := parseRequestData(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		handleJSONError(w, err, "parsing payload")
		return
	}

	condition, err := database.ParseReturnCondition(payload.Condition)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	loans, err := l.app.ReturnLoan(loanID, condition, payload.Note)
	if err != nil {
		handleJSONError(w, err, "returning loan")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoans(loans))
}

type batchReturnItem struct {
	LoanID    int    `json:"loan_id"`
	Condition string `json:"condition"`
	Note      string `json:"note"`
}

type batchReturnPayload struct {
	Returns []batchReturnItem `json:"returns"`
}

type returnFailureView struct {
	LoanID int    `json:"loan_id"`
	Reason string `json:"reason"`
}

type batchReturnResponse struct {
	Loans    []presenters.Loan   `json:"loans"`
	Failures []returnFailureView `json:"failures"`
}

// ReturnBatch handles POST /v1/loans/return. Every named loan ID must exist
// or the whole batch is rejected before any mutation; after that the batch
// partially succeeds per loan.
func (l *Loans) ReturnBatch(w http.ResponseWriter, r *http.Request) {
	var payload batchReturnPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	if len(payload.Returns) == 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "at least one return is required"})
		return
	}

	params := make([]app.ReturnParams, 0, len(payload.Returns))
	for _, item := range payload.Returns {
		condition, err := database.ParseReturnCondition(item.Condition)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		params = append(params, app.ReturnParams{
			LoanID:    item.LoanID,
			Condition: condition,
			Note:      item.Note,
		})
	}

	loans, failures, err := l.app.ReturnLoans(params)
	if err != nil {
		handleJSONError(w, err, "returning loans")
		return
	}

	resp := batchReturnResponse{
		Loans:    presenters.PresentLoans(loans),
		Failures: make([]returnFailureView, 0, len(failures)),
	}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, returnFailureView{LoanID: f.LoanID, Reason: f.Reason()})
	}

	statusCode := http.StatusOK
	if len(failures) > 0 {
		statusCode = http.StatusMultiStatus
	}

	respondJSON(w, statusCode, resp)
}

type qrReturnResponse struct {
	Returned        []presenters.Loan `json:"returned"`
	SkippedLoanIDs  []int             `json:"skipped_loan_ids"`
	Warnings        []string          `json:"warnings"`
	AlreadyReturned bool              `json:"already_returned"`
}

// ReturnQR handles POST /v1/loans/return-qr
func (l *Loans) ReturnQR(w http.ResponseWriter, r *http.Request) {
	var payload params.QRReturnPayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	req, err := params.NormalizeQRReturn(payload)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := l.app.ReturnViaQR(req)
	if err != nil {
		handleJSONError(w, err, "processing QR return")
		return
	}

	resp := qrReturnResponse{
		Returned:        presenters.PresentLoans(result.Returned),
		SkippedLoanIDs:  result.SkippedLoanIDs,
		Warnings:        result.Warnings,
		AlreadyReturned: result.AlreadyReturned,
	}
	if resp.SkippedLoanIDs == nil {
		resp.SkippedLoanIDs = []int{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	respondJSON(w, http.StatusOK, resp)
}

type renewPayload struct {
	ExtensionDays int `json:"extension_days"`
}

// Renew handles POST /v1/loans/{loanID}/renew
func (l *Loans) Renew(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIntParam(r, "loanID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// The body is optional; an absent body means the default extension.
	var payload renewPayload
	if err := parseRequestData(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		handleJSONError(w, err, "parsing payload")
		return
	}

	loan, err := l.app.RenewLoan(loanID, payload.ExtensionDays)
	if err != nil {
		handleJSONError(w, err, "renewing loan")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoan(loan))
}

type payFinePayload struct {
	Amount int `json:"amount"`
}

// PayFine handles POST /v1/loans/{loanID}/pay-fine
func (l *Loans) PayFine(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIntParam(r, "loanID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var payload payFinePayload
	if err := parseRequestData(r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	loan, err := l.app.PayFine(loanID, payload.Amount)
	if err != nil {
		handleJSONError(w, err, "paying fine")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoan(loan))
}

type overdueQuery struct {
	DaysOverdue int `schema:"daysOverdue"`
}

// Overdue handles GET /v1/loans/overdue
func (l *Loans) Overdue(w http.ResponseWriter, r *http.Request) {
	var q overdueQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	overdue, err := l.app.Overdue(q.DaysOverdue)
	if err != nil {
		handleJSONError(w, err, "listing overdue loans")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentOverdueLoans(overdue))
}

type dueSoonQuery struct {
	Days int `schema:"days"`
}

// DueSoon handles GET /v1/loans/due-soon
func (l *Loans) DueSoon(w http.ResponseWriter, r *http.Request) {
	q := dueSoonQuery{Days: 3}
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	due, err := l.app.DueSoon(q.Days)
	if err != nil {
		handleJSONError(w, err, "listing due loans")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentDueSoonLoans(due))
}

// Statistics handles GET /v1/loans/statistics
func (l *Loans) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := l.app.GetLoanStatistics()
	if err != nil {
		handleJSONError(w, err, "computing statistics")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoanStatistics(stats))
}

// ShowTransaction handles GET /v1/transactions/{transactionID}
func (l *Loans) ShowTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	transactionID := vars["transactionID"]

	group, err := l.app.GetTransactionGroup(transactionID)
	if err != nil {
		handleJSONError(w, err, "getting transaction")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentTransactionGroup(group))
}

// NotifyOverdue handles POST /v1/loans/{loanID}/notify-overdue
func (l *Loans) NotifyOverdue(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIntParam(r, "loanID")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	loan, err := l.app.GetLoan(loanID)
	if err != nil {
		handleJSONError(w, err, "getting loan")
		return
	}

	overdue, err := l.app.Overdue(0)
	if err != nil {
		handleJSONError(w, err, "listing overdue loans")
		return
	}

	for _, ov := range overdue {
		if ov.Loan.ID != loan.ID {
			continue
		}

		if err := l.app.SendOverdueNotice(ov); err != nil {
			handleJSONError(w, err, "sending overdue notice")
			return
		}

		w.WriteHeader(http.StatusNoContent)
		return
	}

	respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "loan is not overdue"})
}
