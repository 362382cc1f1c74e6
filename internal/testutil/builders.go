// Package testutil provides testing utilities and helpers for the lodge API.
package testutil

import (
	"fmt"
	"time"

	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

// LodgeRequestBuilder provides a fluent interface for building CreateLodgeRequest objects for testing.
type LodgeRequestBuilder struct {
	req *model.CreateLodgeRequest
}

// NewLodgeRequest creates a new LodgeRequestBuilder with sensible defaults.
// Names are timestamped to dodge the unique constraint across tests sharing
// one database.
func NewLodgeRequest() *LodgeRequestBuilder {
	return &LodgeRequestBuilder{
		req: &model.CreateLodgeRequest{
			Name:     fmt.Sprintf("lodge-%d", time.Now().UnixNano()),
			District: "district-9",
		},
	}
}

// WithName sets the lodge name.
func (b *LodgeRequestBuilder) WithName(name string) *LodgeRequestBuilder {
	b.req.Name = name
	return b
}

// WithDistrict sets the district.
func (b *LodgeRequestBuilder) WithDistrict(district string) *LodgeRequestBuilder {
	b.req.District = district
	return b
}

// WithActive sets the active flag.
func (b *LodgeRequestBuilder) WithActive(active bool) *LodgeRequestBuilder {
	b.req.IsActive = &active
	return b
}

// Build returns the constructed CreateLodgeRequest.
func (b *LodgeRequestBuilder) Build() *model.CreateLodgeRequest {
	return b.req
}

// MemberRequestBuilder provides a fluent interface for building CreateMemberRequest objects for testing.
type MemberRequestBuilder struct {
	req *model.CreateMemberRequest
}

// NewMemberRequest creates a new MemberRequestBuilder with sensible defaults.
func NewMemberRequest() *MemberRequestBuilder {
	n := time.Now().UnixNano()
	return &MemberRequestBuilder{
		req: &model.CreateMemberRequest{
			Name:  fmt.Sprintf("member-%d", n),
			Email: fmt.Sprintf("member-%d@example.com", n),
		},
	}
}

// WithName sets the member name.
func (b *MemberRequestBuilder) WithName(name string) *MemberRequestBuilder {
	b.req.Name = name
	return b
}

// WithEmail sets the member email.
func (b *MemberRequestBuilder) WithEmail(email string) *MemberRequestBuilder {
	b.req.Email = email
	return b
}

// WithRole sets the global role.
func (b *MemberRequestBuilder) WithRole(role string) *MemberRequestBuilder {
	b.req.Role = role
	return b
}

// WithPrimaryLodge sets the primary lodge id.
func (b *MemberRequestBuilder) WithPrimaryLodge(lodgeID string) *MemberRequestBuilder {
	b.req.PrimaryLodgeID = &lodgeID
	return b
}

// WithMembership appends a lodge membership.
func (b *MemberRequestBuilder) WithMembership(lodgeID, position string) *MemberRequestBuilder {
	b.req.LodgeMemberships = append(b.req.LodgeMemberships, model.LodgeMembership{
		LodgeID:  lodgeID,
		Position: position,
	})
	return b
}

// Build returns the constructed CreateMemberRequest.
func (b *MemberRequestBuilder) Build() *model.CreateMemberRequest {
	return b.req
}

// CandidateRequestBuilder provides a fluent interface for building CreateCandidateRequest objects for testing.
type CandidateRequestBuilder struct {
	req *model.CreateCandidateRequest
}

// NewCandidateRequest creates a new CandidateRequestBuilder with sensible defaults.
func NewCandidateRequest(lodgeID string) *CandidateRequestBuilder {
	n := time.Now().UnixNano()
	return &CandidateRequestBuilder{
		req: &model.CreateCandidateRequest{
			Name:    fmt.Sprintf("candidate-%d", n),
			Email:   fmt.Sprintf("candidate-%d@example.com", n),
			LodgeID: lodgeID,
		},
	}
}

// WithName sets the candidate name.
func (b *CandidateRequestBuilder) WithName(name string) *CandidateRequestBuilder {
	b.req.Name = name
	return b
}

// WithEmail sets the candidate email.
func (b *CandidateRequestBuilder) WithEmail(email string) *CandidateRequestBuilder {
	b.req.Email = email
	return b
}

// WithWindowDays overrides the review window.
func (b *CandidateRequestBuilder) WithWindowDays(days int) *CandidateRequestBuilder {
	b.req.WindowDays = days
	return b
}

// Build returns the constructed CreateCandidateRequest.
func (b *CandidateRequestBuilder) Build() *model.CreateCandidateRequest {
	return b.req
}

// PrincipalBuilder provides a fluent interface for building auth.Principal
// values in authorization tests.
type PrincipalBuilder struct {
	p auth.Principal
}

// NewPrincipal creates a PrincipalBuilder for a plain lodge member.
func NewPrincipal(id string) *PrincipalBuilder {
	return &PrincipalBuilder{
		p: auth.Principal{
			ID:         id,
			GlobalRole: auth.RoleLodgeMember,
		},
	}
}

// WithGlobalRole sets the global role.
func (b *PrincipalBuilder) WithGlobalRole(role auth.Role) *PrincipalBuilder {
	b.p.GlobalRole = role
	return b
}

// WithPrimaryLodge sets the primary lodge.
func (b *PrincipalBuilder) WithPrimaryLodge(lodgeID string) *PrincipalBuilder {
	b.p.PrimaryLodgeID = lodgeID
	return b
}

// WithAdministeredLodges sets the administered lodge set.
func (b *PrincipalBuilder) WithAdministeredLodges(lodgeIDs ...string) *PrincipalBuilder {
	b.p.AdministeredLodgeIDs = lodgeIDs
	return b
}

// WithLodgeRole sets a per-lodge role override.
func (b *PrincipalBuilder) WithLodgeRole(lodgeID string, role auth.Role) *PrincipalBuilder {
	if b.p.LodgeRoles == nil {
		b.p.LodgeRoles = map[string]auth.Role{}
	}
	b.p.LodgeRoles[lodgeID] = role
	return b
}

// Build returns the constructed Principal.
func (b *PrincipalBuilder) Build() *auth.Principal {
	p := b.p
	return &p
}
