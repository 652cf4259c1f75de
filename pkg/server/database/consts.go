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
	"github.com/pkg/errors"
)

const (
	// TokenTypeResetPassword is a type of a token for resetting a password
	TokenTypeResetPassword = "reset_password"
)

// CopyStatus is the availability state of a book copy
type CopyStatus string

const (
	// CopyStatusAvailable means the copy is on the shelf and loanable
	CopyStatusAvailable CopyStatus = "available"
	// CopyStatusCheckedOut means the copy is out on an open loan
	CopyStatusCheckedOut CopyStatus = "checked_out"
	// CopyStatusDamaged means the copy was returned damaged
	CopyStatusDamaged CopyStatus = "damaged"
	// CopyStatusLost means the copy was reported lost
	CopyStatusLost CopyStatus = "lost"
	// CopyStatusMaintenance means the copy is undergoing repair or processing
	CopyStatusMaintenance CopyStatus = "maintenance"
)

// ParseCopyStatus validates a raw status value and returns the closed type.
// Unknown values are rejected at the boundary.
func ParseCopyStatus(s string) (CopyStatus, error) {
	switch CopyStatus(s) {
	case CopyStatusAvailable, CopyStatusCheckedOut, CopyStatusDamaged, CopyStatusLost, CopyStatusMaintenance:
		return CopyStatus(s), nil
	}

	return "", errors.Errorf("invalid copy status '%s'", s)
}

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	// LoanStatusBorrowed means the loan is open
	LoanStatusBorrowed LoanStatus = "borrowed"
	// LoanStatusReturned means the copy came back
	LoanStatusReturned LoanStatus = "returned"
	// LoanStatusLost means the copy was declared lost while on loan
	LoanStatusLost LoanStatus = "lost"
)

// ParseLoanStatus validates a raw loan status value
func ParseLoanStatus(s string) (LoanStatus, error) {
	switch LoanStatus(s) {
	case LoanStatusBorrowed, LoanStatusReturned, LoanStatusLost:
		return LoanStatus(s), nil
	}

	return "", errors.Errorf("invalid loan status '%s'", s)
}

// MemberStatus is the standing of a member
type MemberStatus string

const (
	// MemberStatusActive means the member may check out books
	MemberStatusActive MemberStatus = "active"
	// MemberStatusInactive means the member is suspended
	MemberStatusInactive MemberStatus = "inactive"
)

// ParseMemberStatus validates a raw member status value
func ParseMemberStatus(s string) (MemberStatus, error) {
	switch MemberStatus(s) {
	case MemberStatusActive, MemberStatusInactive:
		return MemberStatus(s), nil
	}

	return "", errors.Errorf("invalid member status '%s'", s)
}

// ReturnCondition is the reported condition of a copy at return time
type ReturnCondition string

const (
	// ConditionGood means the copy came back intact
	ConditionGood ReturnCondition = "good"
	// ConditionDamaged means the copy came back damaged
	ConditionDamaged ReturnCondition = "damaged"
	// ConditionLost means the copy did not come back
	ConditionLost ReturnCondition = "lost"
)

// ParseReturnCondition validates a raw condition value. An empty value
// defaults to ConditionGood.
func ParseReturnCondition(s string) (ReturnCondition, error) {
	if s == "" {
		return ConditionGood, nil
	}

	switch ReturnCondition(s) {
	case ConditionGood, ConditionDamaged, ConditionLost:
		return ReturnCondition(s), nil
	}

	return "", errors.Errorf("invalid return condition '%s'", s)
}

// UserRole is the authorization role of a staff user
type UserRole string

const (
	// RoleAdmin may manage staff users and delete records
	RoleAdmin UserRole = "admin"
	// RoleStaff may operate the circulation desk
	RoleStaff UserRole = "staff"
	// RoleMemberProxy is a restricted role acting on behalf of a member,
	// e.g. a self-service kiosk
	RoleMemberProxy UserRole = "member-proxy"
)

// ParseUserRole validates a raw role value
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleAdmin, RoleStaff, RoleMemberProxy:
		return UserRole(s), nil
	}

	return "", errors.Errorf("invalid user role '%s'", s)
}
