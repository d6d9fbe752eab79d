// Package session wires the CLI's clients together: configuration, the
// on-disk token store, the user pool and identity pool clients, credential
// caches for both roles, and API clients for every call mode. Everything
// is constructed lazily and at most once per invocation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/igor-raits/serverless-api-react-auth-demo/cmd/authctl/internal/store"
	"github.com/igor-raits/serverless-api-react-auth-demo/internal/config"
	"github.com/igor-raits/serverless-api-react-auth-demo/pkg/sdk"
)

// ErrNotSignedIn is returned for session-backed operations when no usable
// session exists.
var ErrNotSignedIn = errors.New("not signed in; run `authctl auth login`")

// Options carries the root command's flag overrides. Empty fields defer to
// the environment and terraform outputs.
type Options struct {
	Endpoint string
	Region   string
	Profile  string
	TFDir    string
}

// Provider yields the CLI's shared clients, each built on first use.
type Provider struct {
	opts Options

	cfgOnce sync.Once
	cfg     *config.Config
	cfgErr  error

	storeOnce sync.Once
	store     *store.FileStore
	storeErr  error

	userPoolOnce sync.Once
	userPool     *sdk.UserPoolClient
	userPoolErr  error

	identityOnce sync.Once
	identity     *sdk.IdentityPoolClient
	identityErr  error

	tokensMu     sync.Mutex
	tokensLoaded bool
	tokens       *sdk.Tokens
	tokensErr    error

	sessionCredsOnce sync.Once
	sessionCreds     *sdk.CredentialCache

	guestCredsOnce sync.Once
	guestCreds     *sdk.CredentialCache

	profileOnce sync.Once
	profileCfg  aws.Config
	profileErr  error
}

// NewProvider constructs a Provider bound to the given overrides.
func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts}
}

// Config resolves the deployment configuration: environment first, then
// terraform outputs when a directory is known, then flag overrides on top.
func (p *Provider) Config(ctx context.Context) (*config.Config, error) {
	p.cfgOnce.Do(func() {
		cfg, err := config.Load(ctx, p.opts.TFDir)
		if err != nil {
			p.cfgErr = err
			return
		}
		if p.opts.Endpoint != "" {
			cfg.APIEndpoint = p.opts.Endpoint
		}
		if p.opts.Region != "" {
			cfg.Region = p.opts.Region
		}
		if p.opts.Profile != "" {
			cfg.Profile = p.opts.Profile
		}
		p.cfg = cfg
	})
	return p.cfg, p.cfgErr
}

// Store returns the on-disk session store.
func (p *Provider) Store() (*store.FileStore, error) {
	p.storeOnce.Do(func() {
		p.store, p.storeErr = store.NewFileStore()
	})
	return p.store, p.storeErr
}

// UserPool returns the sign-in client. The pool's app client is public, so
// the underlying calls run with anonymous AWS credentials.
func (p *Provider) UserPool(ctx context.Context) (*sdk.UserPoolClient, error) {
	p.userPoolOnce.Do(func() {
		cfg, err := p.Config(ctx)
		if err != nil {
			p.userPoolErr = err
			return
		}
		if err := cfg.RequireUserPool(); err != nil {
			p.userPoolErr = err
			return
		}
		p.userPool = sdk.NewUserPoolClient(sdk.AnonymousConfig(cfg.Region), cfg.UserPoolID, cfg.ClientID)
	})
	return p.userPool, p.userPoolErr
}

// AdminUserPool returns a user pool client backed by the caller's AWS
// profile, for group catalog calls the anonymous client cannot make.
func (p *Provider) AdminUserPool(ctx context.Context) (*sdk.UserPoolClient, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireUserPool(); err != nil {
		return nil, err
	}
	awsCfg, err := p.profileConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sdk.NewUserPoolClient(awsCfg, cfg.UserPoolID, cfg.ClientID), nil
}

// IdentityPool returns the credential exchange client.
func (p *Provider) IdentityPool(ctx context.Context) (*sdk.IdentityPoolClient, error) {
	p.identityOnce.Do(func() {
		cfg, err := p.Config(ctx)
		if err != nil {
			p.identityErr = err
			return
		}
		if err := cfg.RequireIdentityPool(); err != nil {
			p.identityErr = err
			return
		}
		p.identity = sdk.NewIdentityPoolClient(sdk.AnonymousConfig(cfg.Region), cfg.IdentityPoolID, cfg.UserPoolID)
	})
	return p.identity, p.identityErr
}

// Tokens returns the stored session, refreshing it silently when the ID
// token has expired and a refresh token is available. A refreshed session
// is written back to the store.
func (p *Provider) Tokens(ctx context.Context) (*sdk.Tokens, error) {
	p.tokensMu.Lock()
	defer p.tokensMu.Unlock()
	if !p.tokensLoaded {
		p.tokens, p.tokensErr = p.loadTokens(ctx)
		p.tokensLoaded = true
	}
	return p.tokens, p.tokensErr
}

func (p *Provider) loadTokens(ctx context.Context) (*sdk.Tokens, error) {
	s, err := p.Store()
	if err != nil {
		return nil, err
	}
	tokens, err := s.Load()
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			return nil, ErrNotSignedIn
		}
		return nil, err
	}
	if !tokens.IsExpired() {
		return tokens, nil
	}
	if tokens.RefreshToken == "" {
		return nil, fmt.Errorf("session expired: %w", ErrNotSignedIn)
	}

	pool, err := p.UserPool(ctx)
	if err != nil {
		return nil, err
	}
	refreshed, err := pool.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if refreshed.Username == "" {
		refreshed.Username = tokens.Username
	}
	if err := s.Save(refreshed); err != nil {
		return nil, fmt.Errorf("save refreshed session: %w", err)
	}
	return refreshed, nil
}

// SaveTokens persists a fresh sign-in and makes it the current session.
func (p *Provider) SaveTokens(tokens *sdk.Tokens) error {
	s, err := p.Store()
	if err != nil {
		return err
	}
	if err := s.Save(tokens); err != nil {
		return err
	}
	p.tokensMu.Lock()
	p.tokens, p.tokensErr, p.tokensLoaded = tokens, nil, true
	p.tokensMu.Unlock()
	return nil
}

// SignOut deletes the stored session and drops any cached credentials.
func (p *Provider) SignOut() error {
	s, err := p.Store()
	if err != nil {
		return err
	}
	if err := s.Delete(); err != nil {
		return err
	}
	if p.sessionCreds != nil {
		p.sessionCreds.Invalidate()
	}
	p.tokensMu.Lock()
	p.tokens, p.tokensErr, p.tokensLoaded = nil, ErrNotSignedIn, true
	p.tokensMu.Unlock()
	return nil
}

// SessionCredentials returns the cached credential source for the
// signed-in user's authenticated role.
func (p *Provider) SessionCredentials() *sdk.CredentialCache {
	p.sessionCredsOnce.Do(func() {
		source := func(ctx context.Context) (*sdk.Credentials, error) {
			pool, err := p.IdentityPool(ctx)
			if err != nil {
				return nil, err
			}
			return pool.Source(func(ctx context.Context) (string, error) {
				tokens, err := p.Tokens(ctx)
				if err != nil {
					return "", err
				}
				return tokens.IDToken, nil
			})(ctx)
		}
		p.sessionCreds = sdk.NewCredentialCache(source)
	})
	return p.sessionCreds
}

// GuestCredentials returns the cached credential source for the
// unauthenticated role.
func (p *Provider) GuestCredentials() *sdk.CredentialCache {
	p.guestCredsOnce.Do(func() {
		source := func(ctx context.Context) (*sdk.Credentials, error) {
			pool, err := p.IdentityPool(ctx)
			if err != nil {
				return nil, err
			}
			return pool.GuestSource()(ctx)
		}
		p.guestCreds = sdk.NewCredentialCache(source)
	})
	return p.guestCreds
}

// PlainClient returns an API client that signs nothing.
func (p *Provider) PlainClient(ctx context.Context) (*sdk.APIClient, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	return sdk.NewAPIClient(cfg.APIEndpoint, cfg.Region), nil
}

// GuestClient returns an API client signing with guest role credentials.
func (p *Provider) GuestClient(ctx context.Context) (*sdk.APIClient, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	return sdk.NewAPIClient(cfg.APIEndpoint, cfg.Region,
		sdk.WithCredentials(p.GuestCredentials()),
	), nil
}

// SessionClient returns an API client signing with the signed-in user's
// credentials and attaching the ID token header.
func (p *Provider) SessionClient(ctx context.Context) (*sdk.APIClient, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	tokens, err := p.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	return sdk.NewAPIClient(cfg.APIEndpoint, cfg.Region,
		sdk.WithCredentials(p.SessionCredentials()),
		sdk.WithIDToken(func() string { return tokens.IDToken }),
	), nil
}

// ProfileClient returns an API client signing with IAM credentials from
// the shared AWS config (the --profile / AWS_PROFILE path).
func (p *Provider) ProfileClient(ctx context.Context) (*sdk.APIClient, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}
	awsCfg, err := p.profileConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sdk.NewAPIClient(cfg.APIEndpoint, cfg.Region,
		sdk.WithCredentials(awsCfg.Credentials),
	), nil
}

// profileConfig loads the shared AWS config once, honoring the configured
// profile and region.
func (p *Provider) profileConfig(ctx context.Context) (aws.Config, error) {
	p.profileOnce.Do(func() {
		cfg, err := p.Config(ctx)
		if err != nil {
			p.profileErr = err
			return
		}
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.Profile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			p.profileErr = fmt.Errorf("load aws profile %q: %w", cfg.Profile, err)
			return
		}
		p.profileCfg = awsCfg
	})
	return p.profileCfg, p.profileErr
}
