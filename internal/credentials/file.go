package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileState is the persisted layout: the token pair and the serialized user
// profile are written as one document so login and logout update them as a
// group, never leaving a half-written mix of old and new session.
type fileState struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user,omitempty"`
	IssuedAt     int64           `json:"issued_at,omitempty"`
}

// FileStore persists the credential as a JSON file, the staff-app equivalent
// of the device key-value storage. Writes go through a temp file and rename
// in the same directory.
type FileStore struct {
	Path string

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// DefaultPath returns the credential file location under XDG_CONFIG_HOME,
// falling back to ~/.config.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "staffdesk", "auth.json")
}

func (f *FileStore) Get() (*Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var st fileState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if st.AccessToken == "" {
		return nil, nil
	}

	cred := &Credential{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		User:         st.User,
	}
	if st.IssuedAt > 0 {
		cred.IssuedAt = time.Unix(st.IssuedAt, 0)
	}
	return cred, nil
}

func (f *FileStore) Set(cred *Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := fileState{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		User:         cred.User,
	}
	if !cred.IssuedAt.IsZero() {
		st.IssuedAt = cred.IssuedAt.Unix()
	}

	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "auth-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp credential file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set credential file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}
