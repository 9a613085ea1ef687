// Package session keeps the backend session in a browser cookie and
// provides the auth guard used by protected pages.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/tradebook/internal/backend"
	"github.com/ziadkadry99/tradebook/internal/logging"
)

// ErrNoSession is returned when the request carries no usable session.
var ErrNoSession = errors.New("no session")

// Manager signs users in and out and restores sessions from cookies.
type Manager struct {
	client    *backend.Client
	cookie    string
	loginPath string
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager creates a Manager storing sessions in the named cookie and
// redirecting anonymous visitors to loginPath.
func NewManager(client *backend.Client, cookie, loginPath string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		client:    client,
		cookie:    cookie,
		loginPath: loginPath,
		logger:    logging.Component(logger, "session.Manager"),
		now:       time.Now,
	}
}

// LoginPath is where anonymous visitors are sent.
func (m *Manager) LoginPath() string { return m.loginPath }

// stored is the cookie payload.
type stored struct {
	AccessToken  string       `json:"a"`
	RefreshToken string       `json:"r"`
	ExpiresAt    int64        `json:"e"`
	User         backend.User `json:"u"`
}

func (m *Manager) read(r *http.Request) (*backend.Session, error) {
	c, err := r.Cookie(m.cookie)
	if err != nil {
		return nil, ErrNoSession
	}
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cookie", ErrNoSession)
	}
	var s stored
	if err := json.Unmarshal(data, &s); err != nil || s.AccessToken == "" {
		return nil, fmt.Errorf("%w: malformed cookie", ErrNoSession)
	}
	return &backend.Session{
		AccessToken:  s.AccessToken,
		TokenType:    "bearer",
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User:         s.User,
	}, nil
}

func (m *Manager) write(w http.ResponseWriter, r *http.Request, sess *backend.Session) {
	data, _ := json.Marshal(stored{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresAt:    sess.ExpiresAt,
		User:         sess.User,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Load restores the request's session. An expired session is refreshed
// once and the new tokens are written back to w.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*backend.Session, error) {
	sess, err := m.read(r)
	if err != nil {
		return nil, err
	}
	if !sess.Expired(m.now()) {
		return sess, nil
	}

	refreshed, err := m.client.RefreshSession(r.Context(), sess.RefreshToken)
	if err != nil {
		m.logger.Info("session refresh failed", zap.Error(err))
		m.clear(w)
		return nil, fmt.Errorf("%w: refresh failed: %v", ErrNoSession, err)
	}
	m.write(w, r, refreshed)
	return refreshed, nil
}

// CheckAuth returns the current session, or nil after redirecting the
// visitor to the login page.
func (m *Manager) CheckAuth(w http.ResponseWriter, r *http.Request) *backend.Session {
	sess, err := m.Load(w, r)
	if err != nil {
		http.Redirect(w, r, m.loginPath, http.StatusSeeOther)
		return nil
	}
	return sess
}

// SignIn authenticates with email and password and stores the session.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, email, password string) (*backend.Session, error) {
	sess, err := m.client.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		m.logger.Info("sign in failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	m.write(w, r, sess)
	return sess, nil
}

// SignOut ends the remote session, clears the cookie and redirects to the
// login page. A failure to reach the backend does not keep the visitor
// signed in locally.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) {
	if sess, err := m.read(r); err == nil {
		if err := m.client.SignOut(r.Context(), sess.AccessToken); err != nil {
			m.logger.Warn("remote sign out failed", zap.Error(err))
		}
	}
	m.clear(w)
	http.Redirect(w, r, m.loginPath, http.StatusSeeOther)
}

// GetCurrentUser asks the backend who owns the request's session. It
// returns nil when there is no session or the backend rejects it.
func (m *Manager) GetCurrentUser(ctx context.Context, r *http.Request) *backend.User {
	sess, err := m.read(r)
	if err != nil {
		return nil
	}
	u, err := m.client.GetUser(ctx, sess.AccessToken)
	if err != nil {
		m.logger.Warn("loading current user", zap.Error(err))
		return nil
	}
	return u
}

type ctxKey struct{}

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *backend.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *backend.Session {
	sess, _ := ctx.Value(ctxKey{}).(*backend.Session)
	return sess
}
