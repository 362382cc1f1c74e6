package httpx

import (
	"errors"
	"net/http"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/data"
)

// WriteDecision renders a deny decision as the JSON error envelope. The
// reason code and status come straight off the decision; clients key off
// the code, so it is written verbatim.
func WriteDecision(w http.ResponseWriter, d authz.Decision) {
	WriteJSON(w, d.HTTPStatus, map[string]string{"error": string(d.Reason)})
}

// WriteServiceError maps a service-layer error onto the wire. Guard denials
// carry their own status and reason; repository sentinels map to the
// matching envelope; validation failures are the caller's fault; anything
// else is a 500 with the message withheld.
func WriteServiceError(w http.ResponseWriter, err error) {
	if denied, ok := authz.AsDenied(err); ok {
		WriteDecision(w, denied.Decision)
		return
	}

	switch {
	case isNotFound(err):
		WriteDecision(w, authz.Deny(authz.ReasonResourceNotFound))
	case errors.Is(err, data.ErrLodgeNameExists),
		errors.Is(err, data.ErrMemberEmailExists):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "conflict", Err: err})
	case errors.Is(err, data.ErrLodgeHasMembers):
		WriteDecision(w, authz.Deny(authz.ReasonLodgeNotEmpty))
	case isValidationError(err):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err})
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("internal server error"),
		})
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, data.ErrLodgeNotFound) ||
		errors.Is(err, data.ErrMemberNotFound) ||
		errors.Is(err, data.ErrCandidateNotFound) ||
		errors.Is(err, data.ErrEventNotFound) ||
		errors.Is(err, data.ErrPostNotFound)
}
