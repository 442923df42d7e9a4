package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// CaseStatus represents the lifecycle status of a consultation case
type CaseStatus string

const (
	CaseStatusNew        CaseStatus = "new"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusCompleted  CaseStatus = "completed"
)

// AllCaseStatuses returns all valid case statuses
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusNew,
		CaseStatusInProgress,
		CaseStatusCompleted,
	}
}

// IsValid checks if the case status is valid
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusNew,
		CaseStatusInProgress,
		CaseStatusCompleted:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as CaseStatusNew.
func (s CaseStatus) Normalize() CaseStatus {
	if s == "" {
		return CaseStatusNew
	}
	return s
}

// Label returns the display label used in the UI and in spreadsheets
func (s CaseStatus) Label() string {
	switch s {
	case CaseStatusNew:
		return "新規"
	case CaseStatusInProgress:
		return "対応中"
	case CaseStatusCompleted:
		return "完了"
	default:
		return string(s)
	}
}

// String returns the string representation of the case status
func (s CaseStatus) String() string {
	return string(s)
}

// ParseCaseStatus parses a status code
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid case status", goerr.V("status", s))
	}
	return status, nil
}

// CaseStatusFromLabel accepts either a status code or its display label.
// Anything unrecognized becomes CaseStatusNew.
func CaseStatusFromLabel(s string) CaseStatus {
	for _, st := range AllCaseStatuses() {
		if s == string(st) || s == st.Label() {
			return st
		}
	}
	return CaseStatusNew
}
