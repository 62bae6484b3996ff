package pause

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store persists an optional pause expiry as a plain-text file holding a
// single unsigned integer (seconds since epoch). The daemon reads it, the
// control surface writes it. No locking: writes are rare, human-triggered
// and last-write-wins.
type Store struct {
	Path string
	// Now is the clock used for expiry checks; defaults to time.Now.
	Now func() time.Time
}

func New(path string) *Store { return &Store{Path: path} }

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Read returns the pause expiry and true while a non-expired marker exists.
// Stale or unparsable markers are deleted as a side effect, so the file
// never outlives its useful life and Read stays a point-in-time predicate.
func (s *Store) Read() (time.Time, bool) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return time.Time{}, false
	}
	secs, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		_ = os.Remove(s.Path)
		return time.Time{}, false
	}
	expiry := time.Unix(int64(secs), 0)
	if !s.now().Before(expiry) {
		_ = os.Remove(s.Path)
		return time.Time{}, false
	}
	return expiry, true
}

// Set overwrites the marker unconditionally. Last caller wins.
func (s *Store) Set(expiry time.Time) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pause dir: %w", err)
		}
	}
	data := strconv.FormatInt(expiry.Unix(), 10)
	if err := os.WriteFile(s.Path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write pause marker: %w", err)
	}
	return nil
}

// PauseFor sets the marker to now+d and returns the written expiry.
func (s *Store) PauseFor(d time.Duration) (time.Time, error) {
	expiry := s.now().Add(d)
	if err := s.Set(expiry); err != nil {
		return time.Time{}, err
	}
	return expiry, nil
}

// Clear removes the marker. Removing an absent marker is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pause marker: %w", err)
	}
	return nil
}
