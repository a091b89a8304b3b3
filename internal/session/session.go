// Package session persists the authenticated user between CLI invocations.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/afero"
)

// Session is what login stores on disk.
type Session struct {
	Token       string      `json:"token"`
	Role        models.Role `json:"role"`
	UserID      string      `json:"user_id"`
	Email       string      `json:"email,omitempty"`
	BankerSince *time.Time  `json:"banker_since,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsBanker reports whether the session belongs to a banker.
func (s *Session) IsBanker() bool {
	return s != nil && s.Role == models.RoleBanker
}

// Since returns the banker list filter, or the zero time.
func (s *Session) Since() time.Time {
	if s == nil || s.BankerSince == nil {
		return time.Time{}
	}
	return *s.BankerSince
}

// Store reads and writes the session file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore returns a store for the file at path. A nil fs means the OS
// filesystem.
func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored session. A missing file or a session without a
// token yields types.ErrNotLoggedIn.
func (s *Store) Load() (*Session, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", s.path, err)
	}
	if sess.Token == "" {
		return nil, types.ErrNotLoggedIn
	}
	return &sess, nil
}

// Save writes sess with owner-only permissions.
func (s *Store) Save(sess *Session) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	return s.write(sess)
}

func (s *Store) write(sess *Session) error {
	if sess == nil || sess.Token == "" {
		return errors.New("refusing to save a session without token")
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Update loads the session, applies fn and saves it back while holding the
// session lock, so a concurrent login cannot be overwritten.
func (s *Store) Update(fn func(*Session)) (*Session, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.Load()
	if err != nil {
		return nil, err
	}
	fn(sess)
	if err := s.write(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Clear removes the session file. Clearing twice is not an error.
func (s *Store) Clear() error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// lock takes the cross-process lock next to the session file. Only the OS
// filesystem can be shared with another process.
func (s *Store) lock() (func(), error) {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	flk := flock.New(s.path + ".lock")
	if err := flk.Lock(); err != nil {
		return nil, fmt.Errorf("lock session %s: %w", s.path, err)
	}
	return func() { _ = flk.Unlock() }, nil
}
