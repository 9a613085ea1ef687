// Package menu implements the sidebar navigation widget: loading the menu
// description, the accordion/theme/collapse state, search filtering and
// HTML rendering.
package menu

// Section is one collapsible block of the sidebar.
type Section struct {
	Title    string `json:"title" yaml:"title"`
	Children []Item `json:"children" yaml:"children"`
}

// Item is a single navigation link.
type Item struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// ItemCount returns the total number of links across all sections.
func ItemCount(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Children)
	}
	return n
}
