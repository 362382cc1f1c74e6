package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodgeworks/lodge-api/internal/authz"
)

// requireDenied asserts that err carries a deny decision with the given
// reason code.
func requireDenied(t *testing.T, err error, reason authz.Reason) {
	t.Helper()
	require.Error(t, err)
	de, ok := authz.AsDenied(err)
	require.True(t, ok, "expected a denial, got %v", err)
	require.False(t, de.Decision.Allowed)
	require.Equal(t, reason, de.Decision.Reason)
	require.Equal(t, de.Decision.HTTPStatus, authz.Deny(reason).HTTPStatus)
}

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
