package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcerRoutePolicies(t *testing.T) {
	enforcer, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		name    string
		role    string
		path    string
		method  string
		allowed bool
	}{
		{
			name:    "authenticated role reaches the protected route",
			role:    RoleAuthenticated,
			path:    "/test/auth",
			method:  http.MethodGet,
			allowed: true,
		},
		{
			name:    "authenticated role reaches the public route",
			role:    RoleAuthenticated,
			path:    "/test/public",
			method:  http.MethodGet,
			allowed: true,
		},
		{
			name:    "guest role reaches the public route",
			role:    RoleUnauthenticated,
			path:    "/test/public",
			method:  http.MethodGet,
			allowed: true,
		},
		{
			name:    "guest role is denied the protected route",
			role:    RoleUnauthenticated,
			path:    "/test/auth",
			method:  http.MethodGet,
			allowed: false,
		},
		{
			name:    "unknown role is denied everywhere",
			role:    "admin",
			path:    "/test/public",
			method:  http.MethodGet,
			allowed: false,
		},
		{
			name:    "unlisted method is denied",
			role:    RoleAuthenticated,
			path:    "/test/auth",
			method:  http.MethodPost,
			allowed: false,
		},
		{
			name:    "unlisted path is denied",
			role:    RoleAuthenticated,
			path:    "/test/secret",
			method:  http.MethodGet,
			allowed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := enforcer.Enforce(tt.role, tt.path, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}
