package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// menuCandidates are checked in order to suggest a menu source.
var menuCandidates = []string{
	"data/menu.json",
	"data/menu.yaml",
	"data/menu.yml",
	"menu.json",
}

// detectMenuSource returns the first menu file found in the working directory.
func detectMenuSource() string {
	for _, p := range menuCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return DefaultConfig().Menu.Source
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to tradebook! Let's configure your server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Backend URL.
	backendPrompt := promptui.Prompt{
		Label:   "Hosted backend URL",
		Default: cfg.Backend.URL,
		Validate: func(s string) error {
			u, err := url.Parse(s)
			if err != nil || u.Host == "" {
				return fmt.Errorf("not a URL")
			}
			return nil
		},
	}
	backendURL, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	cfg.Backend.URL = strings.TrimRight(backendURL, "/")

	// 2. Anon key.
	keyPrompt := promptui.Prompt{
		Label: "Public (anon) API key",
		Mask:  '*',
	}
	anonKey, err := keyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("anon key: %w", err)
	}
	cfg.Backend.AnonKey = anonKey

	// 3. Menu source.
	menuPrompt := promptui.Prompt{
		Label:   "Menu file or URL",
		Default: detectMenuSource(),
	}
	menuSource, err := menuPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("menu source: %w", err)
	}
	cfg.Menu.Source = menuSource

	// 4. Default theme.
	themePrompt := promptui.Select{
		Label: "Default theme",
		Items: []string{string(ThemeLight), string(ThemeDark)},
	}
	_, theme, err := themePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("theme selection: %w", err)
	}
	cfg.DefaultTheme = Theme(theme)

	// 5. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be 1-65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 6. Extra CORS origins.
	originsPrompt := promptui.Prompt{
		Label:   "Extra CORS origins (comma-separated, leave blank for localhost only)",
		Default: "",
	}
	originsStr, err := originsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cors origins: %w", err)
	}
	if originsStr != "" {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, splitAndTrim(originsStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	if cfg.Backend.AnonKey == "" {
		fmt.Printf("Note: set %sBACKEND__ANON_KEY before running tradebook serve.\n", EnvPrefix)
	}
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
