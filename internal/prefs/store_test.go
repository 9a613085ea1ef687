package prefs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ziadkadry99/tradebook/internal/db"
	"github.com/ziadkadry99/tradebook/internal/menu"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, menu.ThemeLight)
}

func TestGetSetDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "v1", KeyTheme); err != nil || ok {
		t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "v1", KeyTheme, "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "v1", KeyTheme, "light"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "v1", KeyTheme)
	if err != nil || !ok || v != "light" {
		t.Fatalf("Get = %q, %v, %v; want light", v, ok, err)
	}

	// Visitors are isolated.
	if _, ok, _ := s.Get(ctx, "v2", KeyTheme); ok {
		t.Error("v2 should not see v1's preference")
	}

	if err := s.Delete(ctx, "v1", KeyTheme); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "v1", KeyTheme); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "v1", KeyTheme); ok {
		t.Error("preference should be gone")
	}
}

func TestSetUnknownKey(t *testing.T) {
	s := setupStore(t)
	if err := s.Set(context.Background(), "v1", "font-size", "14"); err == nil {
		t.Error("expected constraint error for unknown key")
	}
}

func TestLoadStateDefaults(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	s := NewStore(database, menu.ThemeDark)

	state, err := s.LoadState(context.Background(), "new", 3)
	if err != nil {
		t.Fatal(err)
	}
	if state.OpenIndex != menu.NoSection {
		t.Errorf("OpenIndex = %d, want none", state.OpenIndex)
	}
	if state.Theme != menu.ThemeDark {
		t.Errorf("Theme = %q, want configured default dark", state.Theme)
	}
}

func TestLoadStateOutOfRange(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	s.Set(ctx, "v1", KeyMenuOpen, "5")

	state, err := s.LoadState(ctx, "v1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if state.OpenIndex != menu.NoSection {
		t.Errorf("OpenIndex = %d, want none for stale index", state.OpenIndex)
	}

	state, _ = s.LoadState(ctx, "v1", 6)
	if state.OpenIndex != 5 {
		t.Errorf("OpenIndex = %d, want 5", state.OpenIndex)
	}
}

func TestToggleSectionPersists(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	state, ok, err := s.ToggleSection(ctx, "v1", 1, threeSections, "")
	if err != nil || !ok || state.OpenIndex != 1 {
		t.Fatalf("open: state=%+v ok=%v err=%v", state, ok, err)
	}
	if v, _, _ := s.Get(ctx, "v1", KeyMenuOpen); v != "1" {
		t.Errorf("stored = %q, want 1", v)
	}

	state, _, _ = s.ToggleSection(ctx, "v1", 2, threeSections, "")
	if state.OpenIndex != 2 {
		t.Errorf("OpenIndex = %d, want 2", state.OpenIndex)
	}

	state, _, err = s.ToggleSection(ctx, "v1", 2, threeSections, "")
	if err != nil || state.OpenIndex != menu.NoSection {
		t.Fatalf("close: state=%+v err=%v", state, err)
	}
	if _, ok, _ := s.Get(ctx, "v1", KeyMenuOpen); ok {
		t.Error("closing should remove the persisted index")
	}

	if _, ok, _ := s.ToggleSection(ctx, "v1", 9, threeSections, ""); ok {
		t.Error("out-of-range toggle should be rejected")
	}
}

var threeSections = []menu.Section{
	{Title: "Journal", Children: []menu.Item{{Name: "Trades", URL: "trades.html"}}},
	{Title: "Setup", Children: []menu.Item{{Name: "Brokers", URL: "/brokers.html"}}},
	{Title: "Help", Children: []menu.Item{{Name: "About", URL: "about.html"}}},
}

func TestToggleSectionClosesActiveSection(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// Nothing persisted: Setup is open because it holds the current page.
	state, ok, err := s.ToggleSection(ctx, "v1", 1, threeSections, "/brokers.html")
	if err != nil || !ok {
		t.Fatalf("toggle: ok=%v err=%v", ok, err)
	}
	if state.OpenIndex != menu.NoSection {
		t.Errorf("OpenIndex = %d, want none", state.OpenIndex)
	}
	if _, ok, _ := s.Get(ctx, "v1", KeyMenuOpen); ok {
		t.Error("closing should leave nothing persisted")
	}

	// A different section opens and the active one closes.
	state, _, _ = s.ToggleSection(ctx, "v1", 0, threeSections, "/brokers.html")
	if state.OpenIndex != 0 {
		t.Errorf("OpenIndex = %d, want 0", state.OpenIndex)
	}
	if v, _, _ := s.Get(ctx, "v1", KeyMenuOpen); v != "0" {
		t.Errorf("stored = %q, want 0", v)
	}
}

func TestToggleThemeTwiceRestores(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.ToggleTheme(ctx, "v1")
	if err != nil || first != menu.ThemeDark {
		t.Fatalf("first toggle = %q, %v", first, err)
	}
	second, err := s.ToggleTheme(ctx, "v1")
	if err != nil || second != menu.ThemeLight {
		t.Fatalf("second toggle = %q, %v", second, err)
	}
	if v, _, _ := s.Get(ctx, "v1", KeyTheme); v != string(menu.ThemeLight) {
		t.Errorf("stored theme = %q, want light", v)
	}
}

func TestVisitorCookie(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	id := Visitor(w, r)
	if id == "" {
		t.Fatal("expected a visitor id")
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != VisitorCookie || cookies[0].Value != id {
		t.Fatalf("cookies = %+v", cookies)
	}

	// Existing cookie is reused without a new Set-Cookie.
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	if got := Visitor(w2, r2); got != id {
		t.Errorf("Visitor = %q, want %q", got, id)
	}
	if len(w2.Result().Cookies()) != 0 {
		t.Error("should not reissue a valid cookie")
	}

	// Garbage is replaced.
	w3 := httptest.NewRecorder()
	r3 := httptest.NewRequest(http.MethodGet, "/", nil)
	r3.AddCookie(&http.Cookie{Name: VisitorCookie, Value: "not-a-uuid"})
	if got := Visitor(w3, r3); got == "not-a-uuid" {
		t.Error("malformed cookie should be replaced")
	}
}
