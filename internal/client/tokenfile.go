package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenFile persists the session cookie between CLI invocations. The file is
// readable by its owner only.
type TokenFile struct {
	Path string
}

// Load returns the saved token, or "" when none is saved.
func (f TokenFile) Load() (string, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Save writes token, replacing any previous one. An empty token removes the file.
func (f TokenFile) Save(token string) error {
	if token == "" {
		return f.Remove()
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return os.Chmod(f.Path, 0o600)
}

// Remove deletes the saved token. A missing file is not an error.
func (f TokenFile) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
