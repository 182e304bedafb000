package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is the optional TOML config file read from the working directory
	DefaultFile = "org-directory.toml"

	// EnvPrefix prefixes every environment override (e.g. ORG_DIRECTORY_PORT=9090)
	EnvPrefix = "ORG_DIRECTORY_"
)

// Source kinds
const (
	SourceSeed        = "seed"
	SourceSpreadsheet = "spreadsheet"
	SourceRemote      = "remote"
)

// Config holds all configuration for the application
type Config struct {
	ConfigFile string `koanf:"config"`
	Port       int    `koanf:"port"`
	Source     string `koanf:"source"`

	// Spreadsheet source
	Spreadsheet string `koanf:"spreadsheet"`
	Watch       bool   `koanf:"watch"`

	// Remote workbook sync
	RemoteURL          string        `koanf:"remote_url"`
	RemoteTokenURL     string        `koanf:"remote_token_url"`
	RemoteClientID     string        `koanf:"remote_client_id"`
	RemoteClientSecret string        `koanf:"remote_client_secret"`
	RemoteScopes       []string      `koanf:"remote_scopes"`
	RemoteTimeout      time.Duration `koanf:"remote_timeout"`
	SyncInterval       time.Duration `koanf:"sync_interval"`

	// Import behavior
	RejectDuplicates bool     `koanf:"reject_duplicates"`
	UploadMaxBytes   int64    `koanf:"upload_max_bytes"`
	ProfileBaseURL   string   `koanf:"profile_base_url"`
	MailDomain       string   `koanf:"mail_domain"`
	Representatives  []string `koanf:"representatives"`

	// Web server
	CORSOrigins []string `koanf:"cors_origins"`
	Metrics     bool     `koanf:"metrics"`
	OpenBrowser bool     `koanf:"open"`

	// Logging
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	LogFormat  string `koanf:"log_format"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"config":               DefaultFile,
		"port":                 8080,
		"source":               SourceSeed,
		"spreadsheet":          "",
		"watch":                false,
		"remote_url":           "",
		"remote_token_url":     "",
		"remote_client_id":     "",
		"remote_client_secret": "",
		"remote_scopes":        []string{},
		"remote_timeout":       "30s",
		"sync_interval":        "0s",
		"reject_duplicates":    false,
		"upload_max_bytes":     16 << 20,
		"profile_base_url":     "",
		"mail_domain":          "",
		"representatives":      []string{},
		"cors_origins":         []string{"*"},
		"metrics":              true,
		"open":                 false,
		"verbosity":            "",
		"verbose":              0,
		"log_format":           "compact",
	}
}

// Load loads configuration from defaults, config file, .env, environment variables, and flags.
// Priority: Flags > Env (.env fills unset variables) > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file. The default file is optional, an explicit one is not.
	path, explicit := configPath(f)
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 4. Environment Variables: ORG_DIRECTORY_REMOTE_URL -> remote_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags: --remote-url -> remote_url
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configPath(f *pflag.FlagSet) (string, bool) {
	if f != nil {
		if fl := f.Lookup("config"); fl != nil && fl.Changed {
			return fl.Value.String(), true
		}
	}
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, true
	}
	return DefaultFile, false
}

// Validate checks option combinations that cannot work
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.Source {
	case SourceSeed:
	case SourceSpreadsheet:
		if c.Spreadsheet == "" {
			return fmt.Errorf("source %q requires a spreadsheet path", c.Source)
		}
	case SourceRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("source %q requires remote_url", c.Source)
		}
		if c.RemoteClientID != "" && c.RemoteTokenURL == "" {
			return fmt.Errorf("remote_client_id is set but remote_token_url is empty")
		}
	default:
		return fmt.Errorf("unknown source %q (want %s, %s or %s)", c.Source, SourceSeed, SourceSpreadsheet, SourceRemote)
	}

	if c.Watch && c.Source != SourceSpreadsheet {
		return fmt.Errorf("watch is only supported for the %s source", SourceSpreadsheet)
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("sync_interval must not be negative")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload_max_bytes must be positive")
	}

	switch c.LogFormat {
	case "compact", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}

	return nil
}

// RegisterFlags declares the flags understood by Load on a flag set
func RegisterFlags(f *pflag.FlagSet) {
	f.String("config", DefaultFile, "Path to the TOML config file")
	f.IntP("port", "p", 8080, "Port for the web server")
	f.String("source", SourceSeed, "Directory source: seed, spreadsheet or remote")
	f.String("spreadsheet", "", "Path to an .xlsx, .xls or .csv directory export")
	f.Bool("watch", false, "Reload when the spreadsheet changes")
	f.String("remote-url", "", "URL of the remote directory workbook")
	f.Duration("sync-interval", 0, "Periodic re-sync interval (0 disables)")
	f.Bool("reject-duplicates", false, "Fail imports that contain duplicate names")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.String("log-format", "compact", "Log format: compact or json")
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
