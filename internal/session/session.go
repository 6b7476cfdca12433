// Package session keeps one page's state between requests: the last loaded
// backend data and which panels are open. Sessions are identified by a
// random UUID stored in a cookie and persisted in memory or in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"expenseweb/internal/log"
	"expenseweb/internal/page"
	"expenseweb/internal/panel"
)

// CookieName is the cookie carrying the session id.
const CookieName = "expense_session"

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

type Session struct {
	ID         string        `json:"id"`
	Snapshot   page.Snapshot `json:"snapshot"`
	Panels     *panel.Set    `json:"panels"`
	LastActive time.Time     `json:"last_active"`
}

// New returns an empty session with a fresh id and every panel hidden.
func New() *Session {
	return &Session{
		ID:         uuid.NewString(),
		Panels:     panel.NewSet(),
		LastActive: time.Now().UTC(),
	}
}

func encode(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Panels == nil {
		s.Panels = panel.NewSet()
	}
	return &s, nil
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Manager ties a Store to the session cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger *log.Logger
	secure bool
}

func NewManager(store Store, ttl time.Duration, logger *log.Logger) *Manager {
	return &Manager{store: store, ttl: ttl, logger: logger.WithComponent(log.ComponentSession)}
}

// WithSecureCookie marks the cookie Secure, for deployments behind TLS.
func (m *Manager) WithSecureCookie(secure bool) *Manager {
	m.secure = secure
	return m
}

// Load returns the session of r, starting a new one when the cookie is
// missing, malformed or points at an expired session. A new session's
// cookie is written to w.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Session {
	ctx := r.Context()
	if c, err := r.Cookie(CookieName); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			s, err := m.store.Get(ctx, c.Value)
			if err == nil {
				return s
			}
			if !errors.Is(err, ErrNotFound) {
				m.logger.WarnContext(ctx, "Session lookup failed", log.FieldSessionID, c.Value, log.FieldError, err)
			}
		}
	}

	s := New()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.DebugContext(ctx, "Session started", log.FieldSessionID, s.ID)
	return s
}

// Save stores s. Failures are logged and returned; the page still renders
// from the in-request copy.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.LastActive = time.Now().UTC()
	if err := m.store.Save(ctx, s); err != nil {
		m.logger.ErrorContext(ctx, "Failed to save session", log.FieldSessionID, s.ID, log.FieldError, err)
		return err
	}
	return nil
}
