//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DefaultCandidateWindowDays is how long a submitted candidate stays open
// for review before expiring.
const DefaultCandidateWindowDays = 20

// CandidateStatus is the review state of a membership candidate.
type CandidateStatus string

const (
	CandidateStatusPending  CandidateStatus = "pending"
	CandidateStatusApproved CandidateStatus = "approved"
	CandidateStatusRejected CandidateStatus = "rejected"
	CandidateStatusExpired  CandidateStatus = "expired"
)

// Valid reports whether the candidate status is supported.
func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidateStatusPending, CandidateStatusApproved, CandidateStatusRejected, CandidateStatusExpired:
		return true
	default:
		return false
	}
}

// Candidate is a person proposed for membership in a lodge, visible for a
// fixed review window after submission.
type Candidate struct {
	ID             string          `json:"id"    db:"id"`
	Name           string          `json:"name"  db:"name"`
	Email          string          `json:"email" db:"email"`
	PrimaryLodgeID *string         `json:"lodge_id,omitempty" db:"lodge_id"`
	Status         CandidateStatus `json:"status" db:"status"`
	SubmittedAt    time.Time       `json:"submitted_at" db:"submitted_at"`
	EndDate        time.Time       `json:"end_date"     db:"end_date"`
	// DaysLeft is derived from EndDate at read time, never stored.
	DaysLeft int `json:"days_left" db:"days_left"`
	// LegacyDoc is the raw imported document for pre-migration records.
	LegacyDoc json.RawMessage `json:"-" db:"legacy_doc"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ComputeDaysLeft derives the remaining review days from the end date,
// floored at zero.
func ComputeDaysLeft(endDate, now time.Time) int {
	if !endDate.After(now) {
		return 0
	}
	return int(endDate.Sub(now).Hours() / 24)
}

// CreateCandidateRequest represents parameters to submit a Candidate.
// Any authenticated member may submit one.
type CreateCandidateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	LodgeID string `json:"lodge_id"`
	// WindowDays overrides the default review window; 0 means default.
	WindowDays int `json:"window_days,omitempty"`
}

// UpdateCandidateRequest represents parameters to update a Candidate.
type UpdateCandidateRequest struct {
	Name   *string          `json:"name,omitempty"`
	Email  *string          `json:"email,omitempty"`
	Status *CandidateStatus `json:"status,omitempty"`
}

// CandidatesListOptions controls paging and filtering for listing candidates.
type CandidatesListOptions struct {
	Limit   int
	Offset  int
	LodgeID *string
	Status  *CandidateStatus
}

// Validate validates CreateCandidateRequest.
func (r *CreateCandidateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required and cannot be empty")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if strings.TrimSpace(r.LodgeID) == "" {
		return errors.New("lodge_id is required")
	}
	if r.WindowDays < 0 {
		return errors.New("window_days cannot be negative")
	}
	return nil
}

// Validate validates UpdateCandidateRequest.
func (r *UpdateCandidateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("status must be one of: pending, approved, rejected, expired")
	}
	return nil
}
