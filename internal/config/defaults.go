package config

// DefaultPageExcludes are glob patterns never served as pages.
var DefaultPageExcludes = []string{
	"drafts/**",
	"**/_*.md",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			RateLimit:      10,
			RateBurst:      30,
		},
		Backend: BackendConfig{
			URL: "http://localhost:54321",
		},
		Menu: MenuConfig{
			Source:   "data/menu.json",
			HomePath: "/index.html",
		},
		Auth: AuthConfig{
			LoginPath:     "/login.html",
			SessionCookie: "tb_session",
		},
		Pages: PagesConfig{
			Dir:     "pages",
			Include: []string{"**/*.md"},
			Exclude: DefaultPageExcludes,
		},
		DataDir: "data",
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatJSON,
		},
		DefaultTheme: ThemeLight,
	}
}
