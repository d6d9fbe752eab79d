package gateway

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var policyModel string

// NewEnforcer builds the route policy mirroring the deployed IAM
// statements: the authenticated role reaches both gated routes, the
// unauthenticated role only the public one.
func NewEnforcer() (casbin.IEnforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("parse policy model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create policy enforcer: %w", err)
	}

	if _, err := enforcer.AddPolicies([][]string{
		{RoleAuthenticated, "/test/auth", http.MethodGet},
		{RoleAuthenticated, "/test/public", http.MethodGet},
		{RoleUnauthenticated, "/test/public", http.MethodGet},
	}); err != nil {
		return nil, fmt.Errorf("load route policies: %w", err)
	}

	return enforcer, nil
}
