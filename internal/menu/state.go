package menu

import (
	"strconv"
	"strings"
)

// Theme is the sidebar colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named by s, defaulting to light.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Icon is the glyph shown on the theme button: the moon offers dark mode,
// the sun offers light mode.
func (t Theme) Icon() string {
	if t == ThemeLight {
		return "🌙"
	}
	return "☀️"
}

// NoSection is the OpenIndex value when every section is closed.
const NoSection = -1

// State is the per-visitor widget state. It replaces the page-global flags
// and is passed explicitly to NewView.
type State struct {
	OpenIndex int
	Theme     Theme
	Collapsed bool
}

// NewState returns the state of a first-time visitor.
func NewState() State {
	return State{OpenIndex: NoSection, Theme: ThemeLight}
}

// ToggleSection applies an accordion click on section idx of count sections.
// Opening idx closes every other section; clicking the open section closes it.
// It returns whether idx is open afterwards and false for ok when idx is out
// of range, in which case the state is unchanged.
func (s *State) ToggleSection(idx, count int) (open, ok bool) {
	if idx < 0 || idx >= count {
		return false, false
	}
	if s.OpenIndex == idx {
		s.OpenIndex = NoSection
		return false, true
	}
	s.OpenIndex = idx
	return true, true
}

// ToggleTheme flips the theme and returns the new value.
func (s *State) ToggleTheme() Theme {
	s.Theme = s.Theme.Toggle()
	return s.Theme
}

// ToggleCollapsed flips the shared collapsed flag.
func (s *State) ToggleCollapsed() bool {
	s.Collapsed = !s.Collapsed
	return s.Collapsed
}

// RestoreOpenIndex converts a persisted "menu-open" value back to a section
// index. Empty, malformed or out-of-range values mean no selection.
func RestoreOpenIndex(stored string, count int) int {
	if stored == "" {
		return NoSection
	}
	idx, err := strconv.Atoi(strings.TrimSpace(stored))
	if err != nil || idx < 0 || idx >= count {
		return NoSection
	}
	return idx
}

// InitialCollapsed reports whether the sidebar starts collapsed on the page
// at urlPath. Only the home page starts expanded.
func InitialCollapsed(urlPath string) bool {
	return !isHome(urlPath)
}

func isHome(urlPath string) bool {
	return urlPath == "" || urlPath == "/" || strings.HasSuffix(urlPath, "index.html")
}
