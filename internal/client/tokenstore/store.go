// Package tokenstore keeps the client's signed-in session in a TOML file
// so that separate CLI invocations share one login.
package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/al0nec0der/MarkPDF/internal/filex"
)

// ErrNotSignedIn is returned by RequireSignedIn when no tokens are stored.
var ErrNotSignedIn = errors.New("not signed in; run login first")

var now = time.Now

// Session is the persisted state.
type Session struct {
	ServerURL    string    `toml:"server_url"`
	Username     string    `toml:"username"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	UpdatedAt    time.Time `toml:"updated_at"`
}

// Store is a file-backed Session, safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	filePath string
	session  Session
}

// Open loads the session at path. A missing file yields an empty session.
func Open(path string) (*Store, error) {
	s := &Store{filePath: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if err := toml.Unmarshal(data, &s.session); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}

// Session returns a copy of the current state.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Tokens returns the stored access and refresh tokens.
func (s *Store) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken, s.session.RefreshToken
}

// RequireSignedIn fails with ErrNotSignedIn when there is no refresh token.
func (s *Store) RequireSignedIn() error {
	if _, refresh := s.Tokens(); refresh == "" {
		return ErrNotSignedIn
	}
	return nil
}

// SignIn records a fresh login and saves it.
func (s *Store) SignIn(serverURL, username, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{
		ServerURL:    serverURL,
		Username:     username,
		AccessToken:  access,
		RefreshToken: refresh,
		UpdatedAt:    now().UTC(),
	}
	return s.save()
}

// SetTokens replaces the token pair after a refresh and saves it.
func (s *Store) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AccessToken = access
	s.session.RefreshToken = refresh
	s.session.UpdatedAt = now().UTC()
	return s.save()
}

// Clear forgets the session and removes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *Store) save() error {
	data, err := toml.Marshal(s.session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return filex.WriteFileAtomic(s.filePath, data, 0o600)
}
