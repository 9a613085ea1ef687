package config

// Theme is the colour scheme the sidebar starts with for new visitors.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// LogFormat selects the zap encoder.
type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)

// Config is the top-level tradebook configuration, corresponding to .tradebook.yml.
type Config struct {
	Server       ServerConfig  `yaml:"server" koanf:"server"`
	Backend      BackendConfig `yaml:"backend" koanf:"backend"`
	Menu         MenuConfig    `yaml:"menu" koanf:"menu"`
	Auth         AuthConfig    `yaml:"auth" koanf:"auth"`
	Pages        PagesConfig   `yaml:"pages" koanf:"pages"`
	DataDir      string        `yaml:"data_dir" koanf:"data_dir"`
	Log          LogConfig     `yaml:"log" koanf:"log"`
	DefaultTheme Theme         `yaml:"default_theme" koanf:"default_theme"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowAll       bool     `yaml:"allow_all" koanf:"allow_all"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" koanf:"rate_limit"` // requests per second on /api, 0 disables
	RateBurst      int      `yaml:"rate_burst" koanf:"rate_burst"`
}

// BackendConfig points at the hosted database/auth service.
type BackendConfig struct {
	URL     string `yaml:"url" koanf:"url"`
	AnonKey string `yaml:"anon_key" koanf:"anon_key"`
}

// MenuConfig locates the sidebar menu description.
type MenuConfig struct {
	Source   string `yaml:"source" koanf:"source"` // file path or http(s) URL
	HomePath string `yaml:"home_path" koanf:"home_path"`
}

// AuthConfig controls session handling in the web server.
type AuthConfig struct {
	LoginPath     string `yaml:"login_path" koanf:"login_path"`
	SessionCookie string `yaml:"session_cookie" koanf:"session_cookie"`
}

// PagesConfig selects the markdown pages served with the sidebar.
type PagesConfig struct {
	Dir     string   `yaml:"dir" koanf:"dir"`
	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string    `yaml:"level" koanf:"level"`
	Format LogFormat `yaml:"format" koanf:"format"`
}
