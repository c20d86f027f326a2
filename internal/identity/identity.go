// Package identity persists the user's email, the only identifier the
// help-desk backend knows a client by. It is not a credential.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoIdentity is returned when no email has been stored yet.
var ErrNoIdentity = errors.New("no identity stored")

// Provider supplies the user identity to the session controller.
type Provider interface {
	Email() (string, error)
	SetEmail(email string) error
	Clear() error
}

// FileStore keeps the email in a single file under the state directory,
// read at session start and removed on logout.
type FileStore struct {
	path string
}

func NewFileStore(stateDir string) (*FileStore, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	return &FileStore{path: filepath.Join(stateDir, "identity")}, nil
}

func (s *FileStore) Email() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoIdentity
		}
		return "", fmt.Errorf("failed to read identity: %w", err)
	}
	email := strings.TrimSpace(string(data))
	if email == "" {
		return "", ErrNoIdentity
	}
	return email, nil
}

func (s *FileStore) SetEmail(email string) error {
	if err := os.WriteFile(s.path, []byte(email+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}
