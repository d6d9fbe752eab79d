package sdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// DefaultRefreshWindow is how far ahead of expiry the cache refreshes a
// credential bundle, so signed calls never ride a bundle about to lapse.
const DefaultRefreshWindow = 5 * time.Minute

// CredentialSource produces a fresh credential bundle. Sources must be safe
// to call repeatedly; the cache decides when.
type CredentialSource func(ctx context.Context) (*Credentials, error)

// CredentialCache holds at most one credential bundle and refreshes it
// lazily when it is absent, expired, or inside the refresh window. Concurrent
// callers coalesce on a single fetch. Sign-out clears the entry via
// Invalidate; nothing is ever written to disk.
type CredentialCache struct {
	mu      sync.Mutex
	source  CredentialSource
	current *Credentials
	window  time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewCredentialCache builds a cache over source with the default refresh
// window.
func NewCredentialCache(source CredentialSource) *CredentialCache {
	return &CredentialCache{
		source: source,
		window: DefaultRefreshWindow,
		now:    time.Now,
	}
}

// Get returns the cached bundle, refreshing it first when it is missing or
// expires within the refresh window. A failed refresh leaves the previous
// entry untouched so a later call can retry.
func (c *CredentialCache) Get(ctx context.Context) (*Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.now().Add(c.window).Before(c.current.Expiration) {
		return c.current, nil
	}

	creds, err := c.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh credentials: %w", err)
	}
	if creds == nil {
		return nil, ErrNoCredentials
	}
	c.current = creds
	return c.current, nil
}

// Invalidate drops the cached bundle. The next Get fetches a fresh one.
func (c *CredentialCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Retrieve adapts the cache to aws.CredentialsProvider so the SigV4 signer
// consumes it directly.
func (c *CredentialCache) Retrieve(ctx context.Context) (aws.Credentials, error) {
	creds, err := c.Get(ctx)
	if err != nil {
		return aws.Credentials{}, err
	}
	return aws.Credentials{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
		Source:          "CognitoIdentityPool",
		CanExpire:       !creds.Expiration.IsZero(),
		Expires:         creds.Expiration,
	}, nil
}
