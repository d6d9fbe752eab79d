package sdk

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/client/rp/cli"
	httphelper "github.com/zitadel/oidc/v3/pkg/http"
	"github.com/zitadel/oidc/v3/pkg/oidc"
	"golang.org/x/oauth2"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/token"
)

// HostedSignInOptions configures the browser-based sign-in against the
// pool's hosted UI.
type HostedSignInOptions struct {
	// IssuerURL is the pool's OIDC issuer,
	// https://cognito-idp.<region>.amazonaws.com/<pool id>. Discovery finds
	// the hosted domain's authorize/token endpoints from there.
	IssuerURL string
	// ClientID is the public app client (no secret).
	ClientID string
	// RedirectURL must be registered on the app client and point at
	// localhost with an explicit port and a non-root path, e.g.
	// http://localhost:3000/callback. The flow listens there for the code.
	RedirectURL string
	// Scopes defaults to openid, email and profile.
	Scopes []string
}

// HostedSignIn runs the OIDC authorization code flow with PKCE: it starts a
// local callback listener, opens the browser at the hosted sign-in page,
// and blocks until the user finishes (or ctx ends the process).
//
// Cognito does not offer the device authorization grant, so the code flow
// with a loopback redirect is the CLI's browser path.
func HostedSignIn(ctx context.Context, opts HostedSignInOptions) (*Tokens, error) {
	if opts.IssuerURL == "" || opts.ClientID == "" {
		return nil, errors.New("hosted sign-in needs an issuer URL and client id")
	}
	callbackPath, port, err := splitRedirect(opts.RedirectURL)
	if err != nil {
		return nil, err
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, oidc.ScopeEmail, oidc.ScopeProfile}
	}

	// The cookie handler only guards the short-lived local callback
	// server, so a per-run random key is all it needs.
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate state key: %w", err)
	}
	cookieHandler := httphelper.NewCookieHandler(key, key, httphelper.WithUnsecure())

	relyingParty, err := rp.NewRelyingPartyOIDC(
		ctx,
		opts.IssuerURL,
		opts.ClientID,
		"", // public client, no secret
		opts.RedirectURL,
		scopes,
		rp.WithPKCE(cookieHandler),
		rp.WithHTTPClient(defaultHTTPClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("discover OIDC provider at %s: %w", opts.IssuerURL, err)
	}

	state := func() string { return uuid.NewString() }
	tokens := cli.CodeFlow[*oidc.IDTokenClaims](ctx, relyingParty, callbackPath, port, state)
	if tokens == nil || tokens.Token == nil {
		return nil, errors.New("hosted sign-in returned no tokens")
	}
	return fromOAuth2(tokens.Token, tokens.IDToken), nil
}

// fromOAuth2 converts an oauth2 token pair into the demo's bundle.
func fromOAuth2(t *oauth2.Token, idToken string) *Tokens {
	return &Tokens{
		IDToken:      idToken,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry,
		Username:     token.Decode(idToken).String("cognito:username"),
		AuthFlow:     FlowHosted,
	}
}

func splitRedirect(redirectURL string) (path, port string, err error) {
	if redirectURL == "" {
		return "", "", errors.New("hosted sign-in needs a redirect URL")
	}
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("parse redirect URL: %w", err)
	}
	if u.Port() == "" {
		return "", "", fmt.Errorf("redirect URL %s must carry an explicit port for the local listener", redirectURL)
	}
	if u.Path == "" || u.Path == "/" {
		return "", "", fmt.Errorf("redirect URL %s must carry a non-root path, e.g. /callback", redirectURL)
	}
	return u.Path, u.Port(), nil
}
