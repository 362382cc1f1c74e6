package auth

// Package auth contains domain-level types for authentication, sessions,
// and the role hierarchy. It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Canonical form is uppercase; use Normalize at boundaries.
type Role string

const (
	RoleSuperAdmin    Role = "SUPER_ADMIN"
	RoleDistrictAdmin Role = "DISTRICT_ADMIN"
	RoleLodgeAdmin    Role = "LODGE_ADMIN"
	RoleLodgeMember   Role = "LODGE_MEMBER"
)

// roleRanks orders roles by authority. Anything not listed ranks as a
// plain lodge member; legacy callers depend on that fallback, so an
// unknown role must not rank as zero.
var roleRanks = map[Role]int{
	RoleSuperAdmin:    4,
	RoleDistrictAdmin: 3,
	RoleLodgeAdmin:    2,
	RoleLodgeMember:   1,
}

// Normalize uppercases a role string received from a boundary (legacy
// clients send mixed case) into its canonical form.
func Normalize(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Rank returns the authority rank of a role. Unknown or empty roles rank
// identically to LODGE_MEMBER.
func Rank(r Role) int {
	if rank, ok := roleRanks[Normalize(string(r))]; ok {
		return rank
	}
	return roleRanks[RoleLodgeMember]
}

// IsAdminRole reports whether the role carries administrative authority at
// any level. Used by member-delete protection.
func IsAdminRole(r Role) bool {
	return Rank(r) >= roleRanks[RoleLodgeAdmin]
}

// Principal is the authenticated caller, freshly derived per request from
// the server-side session. Role claims supplied by the client are never
// trusted; only this value is.
type Principal struct {
	ID string

	// GlobalRole is the account-wide role. The promotion invariant keeps it
	// equal to the highest-ranked role across GlobalRole and LodgeRoles.
	GlobalRole Role

	// PrimaryLodgeID is the principal's home lodge, if any.
	PrimaryLodgeID string

	// AdministeredLodgeIDs lists lodges the principal explicitly administers.
	AdministeredLodgeIDs []string

	// LodgeRoles overrides GlobalRole within specific lodges.
	LodgeRoles map[string]Role
}

// EffectiveRole returns the principal's role in the context of one lodge:
// the per-lodge override when present, else the global role. The result is
// always canonical uppercase.
func (p Principal) EffectiveRole(lodgeID string) Role {
	if lodgeID != "" {
		if r, ok := p.LodgeRoles[lodgeID]; ok {
			return Normalize(string(r))
		}
	}
	return Normalize(string(p.GlobalRole))
}

// HighestRole returns the maximum-ranked role across the global role and
// all per-lodge overrides. Member-edit flows call this after bulk role
// changes to decide whether to promote the global role.
func (p Principal) HighestRole() Role {
	best := Normalize(string(p.GlobalRole))
	bestRank := Rank(best)
	for _, r := range p.LodgeRoles {
		if candidate := Normalize(string(r)); Rank(candidate) > bestRank {
			best = candidate
			bestRank = Rank(candidate)
		}
	}
	if _, known := roleRanks[best]; !known {
		// An unrecognized global role with no overrides still reports as a
		// member so promotion logic has a stable floor.
		return RoleLodgeMember
	}
	return best
}

// Administers reports whether lodgeID appears in the principal's explicit
// administered-lodge set.
func (p Principal) Administers(lodgeID string) bool {
	for _, id := range p.AdministeredLodgeIDs {
		if id == lodgeID {
			return true
		}
	}
	return false
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (e.g., samAccountName or sub)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	Email                string          `json:"email"`
	Role                 Role            `json:"role"`
	PrimaryLodgeID       string          `json:"primary_lodge_id,omitempty"`
	AdministeredLodgeIDs []string        `json:"administered_lodge_ids,omitempty"`
	LodgeRoles           map[string]Role `json:"lodge_roles,omitempty"`
	ExpiresAt            time.Time       `json:"expires_at"`
}

// Principal derives the request principal from a session. This is the only
// supported path from a credential to authority.
func (s Session) Principal() Principal {
	roles := make(map[string]Role, len(s.LodgeRoles))
	for lodgeID, r := range s.LodgeRoles {
		roles[lodgeID] = Normalize(string(r))
	}
	return Principal{
		ID:                   s.UserID,
		GlobalRole:           Normalize(string(s.Role)),
		PrimaryLodgeID:       s.PrimaryLodgeID,
		AdministeredLodgeIDs: s.AdministeredLodgeIDs,
		LodgeRoles:           roles,
	}
}
