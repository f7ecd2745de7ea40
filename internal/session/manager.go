package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session id.
const CookieName = "tally_session"

type contextKey struct{}

type ManagerConfig struct {
	TTL         time.Duration
	Secure      bool
	Credentials Credentials
}

// Manager binds sessions in a Store to the session cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
	creds  Credentials
}

func NewManager(store Store, cfg ManagerConfig) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Manager{store: store, ttl: cfg.TTL, secure: cfg.Secure, creds: cfg.Credentials}
}

// Load returns the session named by the request cookie, or a fresh
// unsaved session when there is none.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return m.fresh(), nil
	}
	s, err := m.store.Load(ctx, cookie.Value)
	if errors.Is(err, ErrNotFound) {
		return m.fresh(), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) fresh() *Session {
	return &Session{ID: uuid.NewString()}
}

// Save persists s and refreshes the cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(m.ttl),
	})
	return nil
}

// Clear removes s from the store and expires the cookie.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Clear(ctx, s.ID); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	*s = Session{ID: uuid.NewString()}
	return nil
}

// Login marks s as admin when the pair matches and saves it.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, s *Session, username, password string) (bool, error) {
	if !m.creds.Match(username, password) {
		return false, nil
	}
	s.Admin = true
	return true, m.Save(ctx, w, s)
}

// Logout drops the admin flag and any pending edit.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, s *Session) error {
	return m.Clear(ctx, w, s)
}

// Middleware loads the session into the request context. A store failure
// degrades to a fresh session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(r.Context(), r)
		if err != nil {
			slog.WarnContext(r.Context(), "Failed to load session", "component", "session", "error", err)
			s = m.fresh()
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or an anonymous one.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok {
		return s
	}
	return &Session{}
}
