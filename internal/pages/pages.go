// Package pages serves the markdown pages of the app wrapped in a shell
// that embeds the sidebar.
package pages

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/tradebook/internal/menu"
)

// ErrNotFound is returned for pages that do not exist or are excluded.
var ErrNotFound = errors.New("page not found")

// Page is one servable markdown file.
type Page struct {
	// Name is the slash path without extension, e.g. "trades" or "reports/tax".
	Name  string
	Title string
}

// URL returns the path the page is served at.
func (p Page) URL() string { return "/" + p.Name + ".html" }

// Shell is the per-request data around a page's content.
type Shell struct {
	Title     string
	Theme     menu.Theme
	Collapsed bool
	Sidebar   template.HTML
	Content   template.HTML
	UserEmail string
	Notice    string
}

// Renderer converts pages under a directory to HTML.
type Renderer struct {
	dir     string
	include []string
	exclude []string
	md      goldmark.Markdown
	tmpl    *template.Template
}

// NewRenderer creates a Renderer for the markdown files in dir selected by
// the include and exclude globs.
func NewRenderer(dir string, include, exclude []string) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			// Pages are trusted local files and may embed forms.
			html.WithUnsafe(),
		),
	)
	return &Renderer{
		dir:     dir,
		include: include,
		exclude: exclude,
		md:      md,
		tmpl:    template.Must(template.New("shell").Parse(shellTemplate)),
	}
}

// List returns every servable page sorted by name.
func (r *Renderer) List() ([]Page, error) {
	var pages []Page
	err := filepath.WalkDir(r.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, err := filepath.Rel(r.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !r.selected(rel) {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		pages = append(pages, Page{
			Name:  strings.TrimSuffix(rel, ".md"),
			Title: extractTitle(string(content), rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking pages dir: %w", err)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })
	return pages, nil
}

// NameFromURL maps a request path to a page name: "/" and "/index.html"
// give "index", "/reports/tax.html" gives "reports/tax".
func NameFromURL(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		return "index", true
	}
	if !strings.HasSuffix(clean, ".html") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(clean, "/"), ".html"), true
}

// Load reads and converts the named page.
func (r *Renderer) Load(name string) (Page, template.HTML, error) {
	rel := name + ".md"
	if strings.Contains(name, "..") || !r.selected(rel) {
		return Page{}, "", ErrNotFound
	}
	content, err := os.ReadFile(filepath.Join(r.dir, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return Page{}, "", ErrNotFound
	}
	if err != nil {
		return Page{}, "", fmt.Errorf("reading page %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := r.md.Convert(content, &buf); err != nil {
		return Page{}, "", fmt.Errorf("converting markdown: %w", err)
	}
	page := Page{Name: name, Title: extractTitle(string(content), rel)}
	return page, template.HTML(rewriteMDLinks(buf.String())), nil
}

// Render writes the named page inside the shell. shell.Content and an
// empty shell.Title are filled from the page.
func (r *Renderer) Render(w io.Writer, name string, shell Shell) error {
	page, content, err := r.Load(name)
	if err != nil {
		return err
	}
	shell.Content = content
	if shell.Title == "" {
		shell.Title = page.Title
	}
	return r.RenderShell(w, shell)
}

// RenderShell writes shell as a full HTML document.
func (r *Renderer) RenderShell(w io.Writer, shell Shell) error {
	shell.Theme = menu.ParseTheme(string(shell.Theme))
	if err := r.tmpl.Execute(w, shell); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

func (r *Renderer) selected(rel string) bool {
	if len(r.include) > 0 && !matchesAny(rel, r.include) {
		return false
	}
	return !matchesAny(rel, r.exclude)
}

// matchesAny checks rel against doublestar patterns.
func matchesAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(filepath.ToSlash(pattern), rel); err == nil && matched {
			return true
		}
	}
	return false
}

// extractTitle pulls the first # heading from markdown content, or falls back to the filename.
func extractTitle(content, relPath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	return strings.TrimSuffix(path.Base(relPath), ".md")
}

// rewriteMDLinks changes .md links in HTML content to .html links.
func rewriteMDLinks(content string) string {
	content = strings.ReplaceAll(content, `.md"`, `.html"`)
	return strings.ReplaceAll(content, `.md#`, `.html#`)
}
