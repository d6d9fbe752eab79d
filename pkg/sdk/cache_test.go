package sdk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource hands out a canned bundle and counts how often the cache
// asks for it.
type countingSource struct {
	mu    sync.Mutex
	calls int
	creds *Credentials
	err   error
	delay time.Duration
}

func (s *countingSource) fetch(_ context.Context) (*Credentials, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.creds, nil
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCredentialCacheRefreshWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresIn time.Duration
		wantCalls int
	}{
		{
			name:      "bundle outside the window is reused",
			expiresIn: 6 * time.Minute,
			wantCalls: 1,
		},
		{
			name:      "bundle inside the window is refetched",
			expiresIn: 4 * time.Minute,
			wantCalls: 2,
		},
		{
			name:      "bundle expiring exactly at the window edge is refetched",
			expiresIn: 5 * time.Minute,
			wantCalls: 2,
		},
		{
			name:      "expired bundle is refetched",
			expiresIn: -time.Minute,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{creds: &Credentials{
				AccessKeyID:     "AKIDEXAMPLE",
				SecretAccessKey: "secret",
				Expiration:      base.Add(tt.expiresIn),
			}}
			cache := NewCredentialCache(src.fetch)
			cache.now = func() time.Time { return base }

			for i := 0; i < 2; i++ {
				creds, err := cache.Get(context.Background())
				require.NoError(t, err)
				assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
			}
			assert.Equal(t, tt.wantCalls, src.count())
		})
	}
}

func TestCredentialCacheInvalidate(t *testing.T) {
	src := &countingSource{creds: &Credentials{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Expiration:      time.Now().Add(time.Hour),
	}}
	cache := NewCredentialCache(src.fetch)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.count(), "second call should hit the cache")

	cache.Invalidate()

	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.count(), "invalidate should force a refetch")
}

func TestCredentialCacheSourceFailureIsRetryable(t *testing.T) {
	boom := errors.New("identity pool unavailable")
	fail := true
	cache := NewCredentialCache(func(_ context.Context) (*Credentials, error) {
		if fail {
			return nil, boom
		}
		return &Credentials{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			Expiration:      time.Now().Add(time.Hour),
		}, nil
	})

	_, err := cache.Get(context.Background())
	require.ErrorIs(t, err, boom)

	fail = false
	creds, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
}

func TestCredentialCacheNilBundle(t *testing.T) {
	cache := NewCredentialCache(func(_ context.Context) (*Credentials, error) {
		return nil, nil
	})

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestCredentialCacheCoalescesConcurrentCallers(t *testing.T) {
	src := &countingSource{
		creds: &Credentials{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			Expiration:      time.Now().Add(time.Hour),
		},
		delay: 20 * time.Millisecond,
	}
	cache := NewCredentialCache(src.fetch)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			creds, err := cache.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.count(), "concurrent callers should share one fetch")
}

func TestCredentialCacheRetrieve(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	cache := NewCredentialCache(func(_ context.Context) (*Credentials, error) {
		return &Credentials{
			AccessKeyID:     "AKIDEXAMPLE",
			SecretAccessKey: "secret",
			SessionToken:    "session",
			Expiration:      exp,
		}, nil
	})

	got, err := cache.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", got.AccessKeyID)
	assert.Equal(t, "secret", got.SecretAccessKey)
	assert.Equal(t, "session", got.SessionToken)
	assert.Equal(t, "CognitoIdentityPool", got.Source)
	assert.True(t, got.CanExpire)
	assert.True(t, got.Expires.Equal(exp))
}

func TestCredentialCacheRetrieveError(t *testing.T) {
	boom := errors.New("no session")
	cache := NewCredentialCache(func(_ context.Context) (*Credentials, error) {
		return nil, boom
	})

	got, err := cache.Retrieve(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, got.AccessKeyID)
}
