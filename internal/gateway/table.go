package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Roles the identity pool hands out, mirrored by the local table.
const (
	RoleAuthenticated   = "authenticated"
	RoleUnauthenticated = "unauthenticated"
)

// Entry is one credential bundle the gateway accepts, standing in for a
// bundle the identity pool would mint.
type Entry struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token,omitempty"`
	Role            string `json:"role"`
	IdentityID      string `json:"identity_id,omitempty"`
	// Provider mimics the Cognito authentication provider string carried
	// by authenticated identities.
	Provider string `json:"provider,omitempty"`
}

// CredentialTable holds the credential bundles the gateway trusts, keyed
// by access key id.
type CredentialTable struct {
	entries map[string]Entry
}

// NewCredentialTable builds a table from entries, validating each one.
func NewCredentialTable(entries ...Entry) (*CredentialTable, error) {
	table := &CredentialTable{entries: make(map[string]Entry, len(entries))}
	for i, e := range entries {
		if e.AccessKeyID == "" || e.SecretAccessKey == "" {
			return nil, fmt.Errorf("entry %d: access key id and secret are required", i)
		}
		if e.Role != RoleAuthenticated && e.Role != RoleUnauthenticated {
			return nil, fmt.Errorf("entry %d: unknown role %q", i, e.Role)
		}
		if _, dup := table.entries[e.AccessKeyID]; dup {
			return nil, fmt.Errorf("entry %d: duplicate access key id %s", i, e.AccessKeyID)
		}
		table.entries[e.AccessKeyID] = e
	}
	return table, nil
}

// LoadCredentialTable reads a JSON array of entries from path.
func LoadCredentialTable(path string) (*CredentialTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}
	table, err := NewCredentialTable(entries...)
	if err != nil {
		return nil, fmt.Errorf("credentials file %s: %w", path, err)
	}
	return table, nil
}

// RandomTable builds a throwaway table with one entry per role, for dev
// runs without a credentials file.
func RandomTable() (*CredentialTable, error) {
	var entries []Entry
	for _, role := range []string{RoleAuthenticated, RoleUnauthenticated} {
		key, err := randomHex(8)
		if err != nil {
			return nil, err
		}
		secret, err := randomHex(20)
		if err != nil {
			return nil, err
		}
		token, err := randomHex(32)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			AccessKeyID:     "ASIA" + strings.ToUpper(key),
			SecretAccessKey: secret,
			SessionToken:    token,
			Role:            role,
			IdentityID:      "local:" + uuid.NewString(),
		})
	}
	return NewCredentialTable(entries...)
}

// Lookup returns the entry for an access key id.
func (t *CredentialTable) Lookup(accessKeyID string) (Entry, bool) {
	e, ok := t.entries[accessKeyID]
	return e, ok
}

// Entries returns the table sorted by role then access key id.
func (t *CredentialTable) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].AccessKeyID < out[j].AccessKeyID
	})
	return out
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random credentials: %w", err)
	}
	return hex.EncodeToString(b), nil
}
