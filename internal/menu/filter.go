package menu

import "strings"

// Matches reports whether an item's visible text contains query, ignoring case.
// The empty query matches everything.
func Matches(text, query string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(query))
}

// Visibility holds one flag per item, indexed like the sections it was built from.
type Visibility [][]bool

// Filter computes which items stay visible for query.
func Filter(sections []Section, query string) Visibility {
	vis := make(Visibility, len(sections))
	for i, s := range sections {
		vis[i] = make([]bool, len(s.Children))
		for j, item := range s.Children {
			vis[i][j] = Matches(item.Name, query)
		}
	}
	return vis
}

// Visible reports whether item j of section i is shown.
func (v Visibility) Visible(i, j int) bool {
	if i < 0 || i >= len(v) || j < 0 || j >= len(v[i]) {
		return false
	}
	return v[i][j]
}

// Search returns only the items matching query, dropping sections that end
// up empty. Section order and item order are preserved.
func Search(sections []Section, query string) []Section {
	out := []Section{}
	for _, s := range sections {
		var kept []Item
		for _, item := range s.Children {
			if Matches(item.Name, query) {
				kept = append(kept, item)
			}
		}
		if len(kept) > 0 {
			out = append(out, Section{Title: s.Title, Children: kept})
		}
	}
	return out
}
