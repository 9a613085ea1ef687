package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the authenticated account.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role,omitempty"`
	LastSignInAt string `json:"last_sign_in_at,omitempty"`
}

// Session is a signed-in user's token set.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry returns when the access token stops being valid. The zero time
// means unknown.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// Expired reports whether the access token has expired at now.
func (s *Session) Expired(now time.Time) bool {
	exp := s.Expiry()
	return !exp.IsZero() && !now.Before(exp)
}

// TokenExpiry reads the exp claim of an access token without verifying
// its signature. The service verifies tokens; the client only needs to
// know when to refresh.
func TokenExpiry(accessToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("parsing access token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "password", map[string]string{"email": email, "password": password})
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) token(ctx context.Context, grant string, body map[string]string) (*Session, error) {
	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := decodeJSON(data, &sess); err != nil {
		return nil, err
	}
	if sess.AccessToken == "" {
		return nil, fmt.Errorf("token response carried no access token")
	}
	if sess.ExpiresAt == 0 {
		if exp, err := TokenExpiry(sess.AccessToken); err == nil && !exp.IsZero() {
			sess.ExpiresAt = exp.Unix()
		} else if sess.ExpiresIn > 0 {
			sess.ExpiresAt = time.Now().Add(time.Duration(sess.ExpiresIn) * time.Second).Unix()
		}
	}
	return &sess, nil
}

// GetUser returns the user owning accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	data, err := c.WithSession(&Session{AccessToken: accessToken}).do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
	})
	if err != nil {
		return nil, err
	}
	var u User
	if err := decodeJSON(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.WithSession(&Session{AccessToken: accessToken}).do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
	})
	return err
}
