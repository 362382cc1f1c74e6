package authz

import (
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
)

// Action is a guarded operation on a resource kind.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Kind identifies the resource class a policy rule applies to.
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindLodge     Kind = "lodge"
	KindMember    Kind = "member"
	KindEvent     Kind = "event"
	KindPost      Kind = "post"
)

// rule is one row of the policy table: the minimum role an action requires
// and whether a lodge-level admin is confined to their own lodge.
type rule struct {
	minRole     auth.Role
	lodgeScoped bool
}

// policy reproduces the per-route role checks of the legacy API, including
// its asymmetries. Lodge update admits a lodge's own LODGE_ADMIN while
// member update/delete stays DISTRICT_ADMIN-only; that mismatch is in the
// original handlers and is deliberately not unified here.
var policy = map[Kind]map[Action]rule{
	KindCandidate: {
		ActionCreate: {minRole: auth.RoleLodgeMember},
		ActionRead:   {minRole: auth.RoleLodgeMember, lodgeScoped: true},
		ActionUpdate: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
		ActionDelete: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
	},
	KindLodge: {
		ActionCreate: {minRole: auth.RoleDistrictAdmin},
		ActionRead:   {minRole: auth.RoleLodgeMember},
		ActionUpdate: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
		ActionDelete: {minRole: auth.RoleDistrictAdmin},
	},
	KindMember: {
		ActionRead:   {minRole: auth.RoleLodgeMember},
		ActionUpdate: {minRole: auth.RoleDistrictAdmin},
		ActionDelete: {minRole: auth.RoleDistrictAdmin},
	},
	KindEvent: {
		ActionCreate: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
		ActionRead:   {minRole: auth.RoleLodgeMember},
		ActionUpdate: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
		ActionDelete: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
	},
	KindPost: {
		ActionCreate: {minRole: auth.RoleLodgeMember},
		ActionRead:   {minRole: auth.RoleLodgeMember},
		ActionUpdate: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
		ActionDelete: {minRole: auth.RoleLodgeAdmin, lodgeScoped: true},
	},
}

// lookupRule returns the policy rule for a kind/action pair. Unlisted pairs
// deny by default.
func lookupRule(kind Kind, action Action) (rule, bool) {
	actions, ok := policy[kind]
	if !ok {
		return rule{}, false
	}
	r, ok := actions[action]
	return r, ok
}
