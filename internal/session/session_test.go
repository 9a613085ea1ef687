package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ziadkadry99/tradebook/internal/backend"
	"github.com/ziadkadry99/tradebook/internal/backend/backendtest"
)

func setup(t *testing.T) (*backendtest.Server, *Manager) {
	t.Helper()
	fake := backendtest.NewServer()
	t.Cleanup(fake.Close)
	client, err := backend.New(fake.URL, backendtest.AnonKey)
	if err != nil {
		t.Fatal(err)
	}
	fake.AddUser("ann@example.com", "hunter2")
	return fake, NewManager(client, "tb_session", "/login.html", nil)
}

// signIn returns the session cookie issued for ann.
func signIn(t *testing.T, m *Manager) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	if _, err := m.SignIn(w, r, "ann@example.com", "hunter2"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "tb_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestCheckAuthRedirectsWithoutSession(t *testing.T) {
	_, m := setup(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/trades.html", nil)

	if sess := m.CheckAuth(w, r); sess != nil {
		t.Fatalf("got session %+v", sess)
	}
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login.html" {
		t.Errorf("Location = %q", loc)
	}
}

func TestCheckAuthMalformedCookie(t *testing.T) {
	_, m := setup(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "tb_session", Value: "%%%"})
	if m.CheckAuth(w, r) != nil || w.Code != http.StatusSeeOther {
		t.Errorf("malformed cookie should redirect, got %d", w.Code)
	}
}

func TestCheckAuthWithSession(t *testing.T) {
	_, m := setup(t)
	cookie := signIn(t, m)
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/trades.html", nil)
	r.AddCookie(cookie)
	sess := m.CheckAuth(w, r)
	if sess == nil {
		t.Fatalf("expected session, got redirect %d", w.Code)
	}
	if sess.User.Email != "ann@example.com" {
		t.Errorf("user = %+v", sess.User)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("a valid session should not rewrite the cookie")
	}
}

func TestCheckAuthRefreshesExpired(t *testing.T) {
	fake, m := setup(t)
	cookie := signIn(t, m)
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	sess := m.CheckAuth(w, r)
	if sess == nil {
		t.Fatal("expected refreshed session")
	}
	if fake.Calls(http.MethodPost, "auth") != 2 {
		t.Errorf("token calls = %d, want sign-in plus one refresh", fake.Calls(http.MethodPost, "auth"))
	}
	var rewritten bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "tb_session" && c.Value != cookie.Value {
			rewritten = true
		}
	}
	if !rewritten {
		t.Error("refreshed tokens should be written back")
	}

	// The old refresh token is spent, so replaying the old cookie fails.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	if m.CheckAuth(w, r) != nil {
		t.Error("replayed refresh token should not yield a session")
	}
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect", w.Code)
	}
}

func TestSignInBadCredentials(t *testing.T) {
	_, m := setup(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	if _, err := m.SignIn(w, r, "ann@example.com", "nope"); err == nil {
		t.Fatal("expected error")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("failed sign in must not set a cookie")
	}
}

func TestGetCurrentUser(t *testing.T) {
	_, m := setup(t)
	ctx := context.Background()

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if u := m.GetCurrentUser(ctx, r); u != nil {
		t.Errorf("anonymous user = %+v", u)
	}

	r.AddCookie(signIn(t, m))
	u := m.GetCurrentUser(ctx, r)
	if u == nil || u.Email != "ann@example.com" {
		t.Errorf("user = %+v", u)
	}
}

func TestSignOut(t *testing.T) {
	_, m := setup(t)
	cookie := signIn(t, m)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(cookie)
	m.SignOut(w, r)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login.html" {
		t.Errorf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "tb_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("cookie not cleared")
	}

	// The remote session is gone too.
	r = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.AddCookie(cookie)
	if u := m.GetCurrentUser(context.Background(), r); u != nil {
		t.Errorf("user after sign out = %+v", u)
	}
}

func TestSignOutBackendDown(t *testing.T) {
	fake, m := setup(t)
	cookie := signIn(t, m)
	fake.Fail(http.MethodPost, "auth", backendtest.Failure{Status: 503, Message: "down"})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(cookie)
	m.SignOut(w, r)
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect even when the backend fails", w.Code)
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("empty context should carry no session")
	}
	sess := &backend.Session{AccessToken: "x"}
	if got := FromContext(WithSession(context.Background(), sess)); got != sess {
		t.Errorf("FromContext = %v", got)
	}
}
