// Package identity projects decoded token claims into the authorization
// view the API returns: who the caller is, which groups they carry and
// whether the well-known Admin/Viewer flags apply.
//
// Nothing here makes an access decision. The platform gate authenticated
// the request long before these claims are read; this package only
// describes the caller.
package identity

import (
	"slices"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/token"
)

// Unknown is the sentinel for identity fields the token did not provide.
// Explicit and grep-able, unlike an empty string or a null.
const Unknown = "unknown"

// Group names with wired-up response flags.
const (
	AdminGroup  = "Admin"
	ViewerGroup = "Viewer"
)

// groupClaimKeys is the probe order for group-bearing claims. Cognito uses
// cognito:groups; the rest cover federated IdPs that map their own claim
// names through. The first key present wins, even when its value is empty.
var groupClaimKeys = []string{"cognito:groups", "groups", "custom:groups", "memberOf", "roles"}

// UserInfo is the identity portion of the API response. Username, Email and
// Sub are always set, defaulting to Unknown. The remaining fields are
// passed through when the token carries them.
type UserInfo struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Sub           string `json:"sub"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Audience      string `json:"aud,omitempty"`
	Issuer        string `json:"iss,omitempty"`
	TokenUse      string `json:"token_use,omitempty"`
}

// Result is the classifier output. IsAdmin and IsViewer are independent
// exact-match membership tests; a caller can be both, either or neither.
type Result struct {
	UserInfo UserInfo `json:"user_info"`
	Groups   []string `json:"user_groups"`
	IsAdmin  bool     `json:"is_admin"`
	IsViewer bool     `json:"is_viewer"`
}

// CallerIdentity is what the platform gate resolved about the caller,
// independent of any token claims. Reported alongside the claims
// projection, never merged into it.
type CallerIdentity struct {
	CognitoIdentityID string `json:"cognito_identity_id,omitempty"`
	AuthProvider      string `json:"auth_provider,omitempty"`
	SourceIP          string `json:"source_ip,omitempty"`
	UserAgent         string `json:"user_agent,omitempty"`
}

// Classify builds the authorization view for a set of claims. Empty claims
// produce the explicit unauthenticated Result: Unknown identity fields, an
// empty (not nil) group list and both flags false.
func Classify(claims token.Claims) Result {
	groups := Groups(claims)
	return Result{
		UserInfo: UserInfo{
			Username:      claims.StringOr("cognito:username", Unknown),
			Email:         claims.StringOr("email", Unknown),
			Sub:           claims.StringOr("sub", Unknown),
			EmailVerified: claims.Bool("email_verified"),
			Audience:      claims.String("aud"),
			Issuer:        claims.String("iss"),
			TokenUse:      claims.String("token_use"),
		},
		Groups:   groups,
		IsAdmin:  slices.Contains(groups, AdminGroup),
		IsViewer: slices.Contains(groups, ViewerGroup),
	}
}

// Groups extracts the caller's group list from the first group-bearing
// claim present. The result is never nil so it marshals as [].
func Groups(claims token.Claims) []string {
	for _, key := range groupClaimKeys {
		if _, ok := claims[key]; !ok {
			continue
		}
		if list := claims.StringList(key); list != nil {
			return list
		}
		// Present but empty or unusable: the probe stops here, matching
		// the first-claim-wins rule.
		return []string{}
	}
	return []string{}
}
