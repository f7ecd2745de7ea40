// Package session carries the per-browser admin flag and edit mode as an
// explicit value with load, save and clear operations.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 12 * time.Hour

var ErrNotFound = errors.New("session not found")

// Session is the state of one browser. Only one record may be in edit
// mode at a time.
type Session struct {
	ID        string `json:"-"`
	Admin     bool   `json:"admin"`
	EditingID string `json:"editing_id,omitempty"`
	Flash     string `json:"flash,omitempty"`
}

// BeginEdit puts id in edit mode, discarding any other pending edit.
func (s *Session) BeginEdit(id string) {
	s.EditingID = id
}

func (s *Session) EndEdit() {
	s.EditingID = ""
}

func (s *Session) Editing(id string) bool {
	return id != "" && s.EditingID == id
}

// PopFlash returns the pending message and clears it.
func (s *Session) PopFlash() string {
	msg := s.Flash
	s.Flash = ""
	return msg
}

// Store persists sessions by id.
type Store interface {
	// Load returns ErrNotFound for an unknown or expired id.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, id string) error
}

// Credentials is the admin login pair.
type Credentials struct {
	Username string
	Password string
}

// Match compares the submitted pair with c.
func (c Credentials) Match(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password))
	return u&p == 1
}
