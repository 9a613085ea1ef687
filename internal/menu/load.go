package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxMenuSize caps how much of a remote menu document is read.
const maxMenuSize = 1 << 20

// Load reads the menu description from source, which is either a local
// file path or an http(s) URL. A nil client means http.DefaultClient.
func Load(ctx context.Context, source string, client *http.Client) ([]Section, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(ctx, source, client)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("reading menu %s: %w", source, err)
	}
	return Parse(data, formatOf(source))
}

func fetch(ctx context.Context, url string, client *http.Client) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("menu endpoint returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxMenuSize))
}

// formatOf picks the parser from the source extension, ignoring any query string.
func formatOf(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(path.Ext(source)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Parse decodes a menu document in the given format ("json" or "yaml").
func Parse(data []byte, format string) ([]Section, error) {
	var sections []Section
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &sections); err != nil {
			return nil, fmt.Errorf("parsing yaml menu: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &sections); err != nil {
			return nil, fmt.Errorf("parsing json menu: %w", err)
		}
	}
	return sections, nil
}

// Validate reports sections without a title and items missing a name or url.
func Validate(sections []Section) error {
	var errs []error
	for i, s := range sections {
		if strings.TrimSpace(s.Title) == "" {
			errs = append(errs, fmt.Errorf("section %d: missing title", i))
		}
		for j, item := range s.Children {
			if strings.TrimSpace(item.Name) == "" {
				errs = append(errs, fmt.Errorf("section %d item %d: missing name", i, j))
			}
			if strings.TrimSpace(item.URL) == "" {
				errs = append(errs, fmt.Errorf("section %d item %d: missing url", i, j))
			}
		}
	}
	return errors.Join(errs...)
}
