package menu

import "strings"

// Labels are the fixed strings of the sidebar chrome.
type Labels struct {
	Logo              string
	SearchPlaceholder string
	Toggle            string
	Float             string
}

// DefaultLabels are used when a View has no labels set.
var DefaultLabels = Labels{
	Logo:              "Menu",
	SearchPlaceholder: "Search…",
	Toggle:            "☰",
	Float:             "⇔",
}

// ItemView is the render model of one link.
type ItemView struct {
	Name   string
	URL    string
	Active bool
	Hidden bool
}

// SectionView is the render model of one collapsible block.
type SectionView struct {
	Index int
	Title string
	Open  bool
	Items []ItemView
}

// View is everything the sidebar template binds to.
type View struct {
	Sections  []SectionView
	OpenIndex int
	Theme     Theme
	ThemeIcon string
	Collapsed bool
	Query     string
	HomePath  string
	Labels    Labels
}

// ActiveItem finds the first item whose url ends in the last segment of
// currentPath. Item urls may be bare names ("trades.html") or paths
// ("/trades.html").
func ActiveItem(sections []Section, currentPath string) (section, item int, ok bool) {
	page := lastSegment(currentPath)
	if page == "" {
		return NoSection, NoSection, false
	}
	for i, s := range sections {
		for j, it := range s.Children {
			if lastSegment(it.URL) == page {
				return i, j, true
			}
		}
	}
	return NoSection, NoSection, false
}

func lastSegment(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p[strings.LastIndex(p, "/")+1:]
}

// OpenSection is the section shown open on the page at currentPath: the
// state's OpenIndex when it is in range, otherwise the section holding the
// active link, otherwise NoSection.
func OpenSection(sections []Section, state State, currentPath string) int {
	if state.OpenIndex >= 0 && state.OpenIndex < len(sections) {
		return state.OpenIndex
	}
	if i, _, ok := ActiveItem(sections, currentPath); ok {
		return i
	}
	return NoSection
}

// NewView binds sections and state for the page at currentPath. The open
// section is the state's OpenIndex when it is in range, otherwise the
// section holding the active link. At most one section is ever open.
func NewView(sections []Section, state State, currentPath, query string) View {
	activeSection, activeItem, hasActive := ActiveItem(sections, currentPath)
	open := OpenSection(sections, state, currentPath)

	vis := Filter(sections, query)
	theme := ParseTheme(string(state.Theme))

	v := View{
		Sections:  make([]SectionView, len(sections)),
		OpenIndex: open,
		Theme:     theme,
		ThemeIcon: theme.Icon(),
		Collapsed: state.Collapsed,
		Query:     query,
		HomePath:  "/index.html",
		Labels:    DefaultLabels,
	}
	for i, s := range sections {
		sv := SectionView{
			Index: i,
			Title: s.Title,
			Open:  i == open,
			Items: make([]ItemView, len(s.Children)),
		}
		for j, it := range s.Children {
			sv.Items[j] = ItemView{
				Name:   it.Name,
				URL:    it.URL,
				Active: hasActive && i == activeSection && j == activeItem,
				Hidden: !vis.Visible(i, j),
			}
		}
		v.Sections[i] = sv
	}
	return v
}

// OpenCount returns how many sections the view renders open.
func (v View) OpenCount() int {
	n := 0
	for _, s := range v.Sections {
		if s.Open {
			n++
		}
	}
	return n
}
