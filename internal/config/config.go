package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const EnvPrefix = "WORKSHEETS"

const devSecret = "supersecret-dev-key"

type Config struct {
	Mode      Mode   `mapstructure:"mode"`
	HTTPAddr  string `mapstructure:"http_addr"`
	PublicURL string `mapstructure:"public_url"`

	BackendURL     string        `mapstructure:"backend_url"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`

	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`

	WorkspaceDriver string        `mapstructure:"workspace_driver"` // memory|sqlite|postgres
	WorkspaceDSN    string        `mapstructure:"workspace_dsn"`
	WorkspaceTTL    time.Duration `mapstructure:"workspace_ttl"`

	BlobDriver     string `mapstructure:"blob_driver"` // none|fs|minio
	BlobBasePath   string `mapstructure:"blob_base_path"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioSecure    bool   `mapstructure:"minio_secure"`

	ImageTimeout  time.Duration `mapstructure:"image_timeout"`
	ImageMaxBytes int64         `mapstructure:"image_max_bytes"`

	PDFConverter   string `mapstructure:"pdf_converter"` // wkhtmltopdf path; empty disables PDF
	MathStylesheet string `mapstructure:"math_stylesheet"`
	DefaultTheme   string `mapstructure:"default_theme"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// Generation requests per minute and burst, per client address.
	GenerateRate  float64 `mapstructure:"generate_rate"`
	GenerateBurst int     `mapstructure:"generate_burst"`

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline"`
}

var defaults = map[string]any{
	"mode":                 string(ModeOffline),
	"http_addr":            ":8080",
	"public_url":           "",
	"backend_url":          "http://localhost:8000",
	"backend_timeout":      "120s",
	"session_secret":       devSecret,
	"session_ttl":          "168h",
	"workspace_driver":     "memory",
	"workspace_dsn":        "",
	"workspace_ttl":        "72h",
	"blob_driver":          "fs",
	"blob_base_path":       "./data",
	"minio_endpoint":       "",
	"minio_access_key":     "",
	"minio_secret_key":     "",
	"minio_bucket":         "worksheets",
	"minio_secure":         false,
	"image_timeout":        "10s",
	"image_max_bytes":      5 << 20,
	"pdf_converter":        "wkhtmltopdf",
	"math_stylesheet":      "",
	"default_theme":        "light",
	"log_level":            "info",
	"log_file":             "",
	"generate_rate":        6.0,
	"generate_burst":       3,
	"cors_origins_online":  "https://worksheets.mindengage.ai",
	"cors_origins_offline": "http://localhost:3000,http://localhost:8080",
}

// Load reads defaults, then the YAML file at path if given, then
// WORKSHEETS_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOriginsOnline = trimAll(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = trimAll(cfg.CORSOriginsOffline)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("mode must be offline or online, got %q", c.Mode)
	}
	switch c.WorkspaceDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown workspace driver %q", c.WorkspaceDriver)
	}
	switch c.BlobDriver {
	case "none", "fs", "minio":
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	if c.BlobDriver == "minio" && c.MinioEndpoint == "" {
		return fmt.Errorf("blob driver minio needs minio_endpoint")
	}
	if c.DefaultTheme != "light" && c.DefaultTheme != "dark" {
		return fmt.Errorf("default theme must be light or dark, got %q", c.DefaultTheme)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}
	if c.Mode == ModeOnline && (c.SessionSecret == devSecret || len(c.SessionSecret) < 32) {
		return fmt.Errorf("session secret is too short (%d chars), must be at least 32 characters in online mode", len(c.SessionSecret))
	}
	return nil
}

// CORSOrigins returns the origins allowed for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// SecureCookies is true when the public URL is served over TLS.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		for _, s := range strings.Split(p, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
