//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxLodgeNameLen = 255

// Lodge represents one lodge in the district directory.
type Lodge struct {
	ID       string `json:"id"        db:"id"`
	Name     string `json:"name"      db:"name"`
	District string `json:"district"  db:"district"`
	IsActive bool   `json:"is_active" db:"is_active"`
	// MemberCount is derived from the members table at read time.
	MemberCount int       `json:"member_count" db:"member_count"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"   db:"updated_at"`
}

// CreateLodgeRequest represents parameters to create a Lodge.
type CreateLodgeRequest struct {
	Name     string `json:"name"`
	District string `json:"district"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// UpdateLodgeRequest represents parameters to update a Lodge.
type UpdateLodgeRequest struct {
	Name     *string `json:"name,omitempty"`
	District *string `json:"district,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// LodgesListOptions controls paging and filtering for listing lodges.
type LodgesListOptions struct {
	Limit    int
	Offset   int
	Q        *string // substring match on name (ILIKE)
	District *string // exact match
	IsActive *bool   // exact match
}

// Validate validates CreateLodgeRequest.
func (r *CreateLodgeRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxLodgeNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if strings.TrimSpace(r.District) == "" {
		return errors.New("district is required")
	}
	return nil
}

// Validate validates UpdateLodgeRequest.
func (r *UpdateLodgeRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return errors.New("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxLodgeNameLen {
			return errors.New("name cannot exceed 255 characters")
		}
	}
	if r.District != nil && strings.TrimSpace(*r.District) == "" {
		return errors.New("district cannot be empty")
	}
	return nil
}
