package menu

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

var sidebarTmpl = template.Must(template.New("sidebar").Parse(sidebarTemplate))

// Render writes the sidebar fragment for v. All values are escaped by
// html/template.
func Render(w io.Writer, v View) error {
	if v.Labels == (Labels{}) {
		v.Labels = DefaultLabels
	}
	if err := sidebarTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("rendering sidebar: %w", err)
	}
	return nil
}

// RenderHTML renders v for embedding in another template.
func RenderHTML(v View) (template.HTML, error) {
	var b strings.Builder
	if err := Render(&b, v); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}

// Script returns the client-side behaviours (accordion, search, theme and
// collapse toggles).
func Script() string { return jsContent }

// Stylesheet returns the sidebar CSS.
func Stylesheet() string { return cssContent }
