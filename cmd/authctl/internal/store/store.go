// Package store persists the CLI session between invocations.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/igor-raits/serverless-api-react-auth-demo/pkg/sdk"
)

const sessionFile = "session.json"

// ErrNoSession is returned by Load when nothing has been saved yet.
var ErrNoSession = errors.New("no saved session")

// FileStore keeps the user pool tokens in a JSON file under the user's
// home directory. Only tokens are stored; AWS credentials are minted fresh
// from the identity pool per run and never touch disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at ~/.authdemo.
func NewFileStore() (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".authdemo")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &FileStore{path: filepath.Join(dir, sessionFile)}, nil
}

// Save writes the token bundle, readable by the owner only.
func (s *FileStore) Save(tokens *sdk.Tokens) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// Load reads the saved token bundle.
func (s *FileStore) Load() (*sdk.Tokens, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var tokens sdk.Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return &tokens, nil
}

// Delete removes the saved session. A missing session is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
