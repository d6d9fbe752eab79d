package token

import (
	"context"
	"fmt"

	"github.com/xenitab/go-oidc-middleware/oidctoken"
	"github.com/xenitab/go-oidc-middleware/options"
)

// Verifier turns a raw token into Claims. Implementations decide how much
// to trust the token; the wiring site decides which implementation runs.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Claims, error)
}

// InsecureVerifier decodes the payload without checking the signature. The
// name is deliberate: anyone reading the wiring site should see that the
// claims are display-only.
type InsecureVerifier struct{}

func (InsecureVerifier) Verify(_ context.Context, raw string) (Claims, error) {
	return Parse(raw)
}

// JWKSOptions configures signature verification against a Cognito user
// pool's published JWKS.
type JWKSOptions struct {
	// Region and UserPoolID form the issuer,
	// https://cognito-idp.<region>.amazonaws.com/<pool id>.
	Region     string
	UserPoolID string
	// ClientID is the expected audience. Optional; when empty the audience
	// is not checked (Cognito access tokens carry no aud claim).
	ClientID string
	// LazyLoadJWKS defers the first JWKS fetch to the first Verify call so
	// construction works without network access.
	LazyLoadJWKS bool
}

// Issuer returns the user pool's OIDC issuer URL.
func (o JWKSOptions) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", o.Region, o.UserPoolID)
}

// JWKSVerifier checks signature, issuer, expiry and (optionally) audience
// before exposing the claims.
type JWKSVerifier struct {
	handler *oidctoken.TokenHandler[Claims]
}

// NewJWKSVerifier builds a verifying Verifier for the pool described by
// opts.
func NewJWKSVerifier(opts JWKSOptions) (*JWKSVerifier, error) {
	if opts.Region == "" || opts.UserPoolID == "" {
		return nil, fmt.Errorf("jwks verifier requires a region and user pool id")
	}

	oidcOpts := []options.Option{
		options.WithIssuer(opts.Issuer()),
	}
	if opts.ClientID != "" {
		oidcOpts = append(oidcOpts, options.WithRequiredAudience(opts.ClientID))
	}
	if opts.LazyLoadJWKS {
		oidcOpts = append(oidcOpts, options.WithLazyLoadJwks(true))
	}

	handler, err := oidctoken.New[Claims](nil, oidcOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialize oidc token handler: %w", err)
	}
	return &JWKSVerifier{handler: handler}, nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (Claims, error) {
	claims, err := v.handler.ParseToken(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return claims, nil
}
