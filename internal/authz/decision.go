// Package authz is the authorization core for the lodge directory: a single
// policy table plus the lodge-membership checks that the HTTP handlers used
// to duplicate per route. It is pure and performs no I/O; callers resolve
// the target's owning lodge first (see Resolver) and pass it in.
package authz

import "net/http"

// Reason identifies why a request was denied. Values are part of the API
// error envelope and must stay stable.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNoToken            Reason = "NO_TOKEN"
	ReasonInsufficientRole   Reason = "INSUFFICIENT_ROLE"
	ReasonWrongLodge         Reason = "WRONG_LODGE"
	ReasonResourceNotFound   Reason = "RESOURCE_NOT_FOUND"
	ReasonNoLodgeAssociation Reason = "NO_LODGE_ASSOCIATION"
	ReasonLodgeNotEmpty      Reason = "LODGE_NOT_EMPTY"
	ReasonCannotDeleteAdmin  Reason = "CANNOT_DELETE_ADMIN"
)

// reasonStatus maps each denial reason to the HTTP status the legacy API
// returned. INSUFFICIENT_ROLE and WRONG_LODGE are 401 rather than 403;
// dashboard clients key off that, so it is kept as-is.
var reasonStatus = map[Reason]int{
	ReasonNoToken:            http.StatusUnauthorized,
	ReasonInsufficientRole:   http.StatusUnauthorized,
	ReasonWrongLodge:         http.StatusUnauthorized,
	ReasonResourceNotFound:   http.StatusNotFound,
	ReasonNoLodgeAssociation: http.StatusBadRequest,
	ReasonLodgeNotEmpty:      http.StatusBadRequest,
	ReasonCannotDeleteAdmin:  http.StatusForbidden,
}

// Decision is the result of a Guard check. Produced fresh per call and
// never persisted.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	Reason     Reason `json:"reason,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true, HTTPStatus: http.StatusOK}
}

// Deny returns a denying decision with the canonical status for the reason.
func Deny(reason Reason) Decision {
	status, ok := reasonStatus[reason]
	if !ok {
		status = http.StatusForbidden
	}
	return Decision{Allowed: false, Reason: reason, HTTPStatus: status}
}
