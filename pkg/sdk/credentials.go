package sdk

import (
	"time"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/token"
)

// Credentials is a temporary AWS credential bundle from the identity pool.
// It lives in memory only; nothing in the demo persists it.
type Credentials struct {
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token,omitempty"`
	Expiration      time.Time `json:"expiration"`
	// IdentityID is the identity pool identity the bundle was minted for.
	IdentityID string `json:"identity_id,omitempty"`
}

// IsExpired reports whether the bundle's expiration time has passed.
func (c *Credentials) IsExpired() bool {
	return !c.Expiration.After(time.Now())
}

// ExpiresWithin reports whether the bundle expires within d, or already has.
func (c *Credentials) ExpiresWithin(d time.Duration) bool {
	return !time.Now().Add(d).Before(c.Expiration)
}

// Auth flows a Tokens bundle can come from.
const (
	FlowPassword = "password"
	FlowSRP      = "srp"
	FlowHosted   = "hosted"
	FlowRefresh  = "refresh"
)

// Tokens is a user pool session: the ID token the demo displays claims
// from, the access token, and the refresh token used for silent renewal.
type Tokens struct {
	IDToken      string    `json:"id_token"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	// Username is the signed-in user, resolved from the flow input or the
	// decoded ID token.
	Username string `json:"username,omitempty"`
	// AuthFlow records which flow produced the bundle.
	AuthFlow string `json:"auth_flow,omitempty"`
}

// IsExpired reports whether the ID/access tokens have expired. The refresh
// token usually outlives them.
func (t *Tokens) IsExpired() bool {
	return !t.ExpiresAt.After(time.Now())
}

// Claims decodes the ID token's payload. Display-only, like everything
// else built on the unverified decoder.
func (t *Tokens) Claims() token.Claims {
	return token.Decode(t.IDToken)
}
