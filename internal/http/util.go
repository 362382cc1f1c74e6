package httpx

import (
	"net/http"
	"strconv"
	"strings"
)

// Substrings that mark an error as a request validation failure rather
// than a server fault. Kept at package scope so isValidationError does
// not rebuild the slice per call.
var validationErrorPatterns = []string{ //nolint:gochecknoglobals // read-only pattern table
	"is required",
	"cannot be empty",
	"cannot exceed",
	"at least one field must be updated",
	"is not a valid address",
	"must be one of:",
	"cannot be negative",
	"cannot precede",
}

// isValidationError decides 400 vs 5xx from the error text. A stopgap
// until the services return typed validation errors.
func isValidationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, p := range validationErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// ParseLimitOffset reads the limit and offset query params, applying
// defLimit when limit is absent and clamping into [1, maxLimit].
// Offset clamps to zero. Unparseable values fall back to the defaults.
func ParseLimitOffset(r *http.Request, defLimit, maxLimit int) (int, int) {
	maxLimit = max(maxLimit, 1)

	lim := min(max(parseIntQuery(r, "limit", defLimit), 1), maxLimit)
	off := max(parseIntQuery(r, "offset", 0), 0)
	return lim, off
}

func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// parseBoolQuery returns nil when the param is absent or unparseable,
// so handlers can distinguish "not filtered" from "filtered false".
func parseBoolQuery(r *http.Request, key string) *bool {
	if v := r.URL.Query().Get(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return &b
		}
	}
	return nil
}

// trimmedQuery returns the trimmed param value, or nil when blank.
func trimmedQuery(r *http.Request, key string) *string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return &v
	}
	return nil
}
