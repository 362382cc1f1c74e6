//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/lodgeworks/lodge-api/internal/domain/auth"
)

// MemberStatus is the lifecycle state of a member record. Members are never
// deleted from history, only deactivated.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Valid reports whether the member status is supported.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive:
		return true
	default:
		return false
	}
}

// LodgeMembership ties a member to one lodge with an ordered position
// (officer chair, committee seat, plain membership).
type LodgeMembership struct {
	LodgeID  string `json:"lodge_id"`
	Position string `json:"position,omitempty"`
}

// Member represents a person on the rolls of one or more lodges.
//
// PrimaryLodgeID, LodgeMemberships and LegacyDoc together cover the three
// historical storage shapes for the lodge reference; authorization resolves
// them through authz.Resolver rather than reading them directly.
type Member struct {
	ID                   string            `json:"id"    db:"id"`
	Name                 string            `json:"name"  db:"name"`
	Email                string            `json:"email" db:"email"`
	Role                 auth.Role         `json:"role"  db:"role"`
	PrimaryLodgeID       *string           `json:"primary_lodge_id,omitempty" db:"primary_lodge_id"`
	LodgeMemberships     []LodgeMembership `json:"lodge_memberships,omitempty" db:"-"`
	LodgeRoles           map[string]auth.Role `json:"lodge_roles,omitempty" db:"-"`
	AdministeredLodgeIDs []string          `json:"administered_lodge_ids,omitempty" db:"-"`
	Status               MemberStatus      `json:"status" db:"status"`
	// LegacyDoc is the raw imported document for pre-migration records.
	LegacyDoc json.RawMessage `json:"-" db:"legacy_doc"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Principal converts a member row into the authorization principal shape.
func (m *Member) Principal() auth.Principal {
	p := auth.Principal{
		ID:                   m.ID,
		GlobalRole:           auth.Normalize(string(m.Role)),
		AdministeredLodgeIDs: m.AdministeredLodgeIDs,
		LodgeRoles:           make(map[string]auth.Role, len(m.LodgeRoles)),
	}
	if m.PrimaryLodgeID != nil {
		p.PrimaryLodgeID = *m.PrimaryLodgeID
	}
	for lodgeID, r := range m.LodgeRoles {
		p.LodgeRoles[lodgeID] = auth.Normalize(string(r))
	}
	return p
}

// CreateMemberRequest represents parameters to create a Member.
type CreateMemberRequest struct {
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Role             string            `json:"role,omitempty"`
	PrimaryLodgeID   *string           `json:"primary_lodge_id,omitempty"`
	LodgeMemberships []LodgeMembership `json:"lodge_memberships,omitempty"`
}

// UpdateMemberRequest represents parameters to update a Member. Role edits
// go through the service so the global-role promotion invariant holds.
type UpdateMemberRequest struct {
	Name             *string              `json:"name,omitempty"`
	Email            *string              `json:"email,omitempty"`
	Role             *string              `json:"role,omitempty"`
	PrimaryLodgeID   *string              `json:"primary_lodge_id,omitempty"`
	LodgeMemberships *[]LodgeMembership   `json:"lodge_memberships,omitempty"`
	LodgeRoles       map[string]auth.Role `json:"lodge_roles,omitempty"`
	Status           *MemberStatus        `json:"status,omitempty"`
}

// MembersListOptions controls paging and filtering for listing members.
type MembersListOptions struct {
	Limit   int
	Offset  int
	Q       *string // substring match on name or email (ILIKE)
	LodgeID *string // match on primary lodge
	Status  *MemberStatus
}

// Validate validates CreateMemberRequest.
func (r *CreateMemberRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required and cannot be empty")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return nil
}

// Validate validates UpdateMemberRequest.
func (r *UpdateMemberRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("status must be one of: active, inactive")
	}
	return nil
}

func validateEmail(s string) error {
	addr := strings.TrimSpace(s)
	if addr == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return errors.New("email is not a valid address")
	}
	return nil
}
