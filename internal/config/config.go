// Package config loads and validates the scanviz configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/scanviz/internal/db"
	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/logging"
	"github.com/anstrom/scanviz/internal/player"
	"github.com/anstrom/scanviz/internal/scenario"
)

const (
	configDirPerm  = 0750
	configFilePerm = 0600

	defaultAPIPort        = 8080
	defaultMaxRequestSize = 64 * 1024
)

// Config represents the complete application configuration
type Config struct {
	// Playback defaults and timing
	Playback PlaybackConfig `yaml:"playback" json:"playback"`

	// Scan catalog source
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// API configuration
	API APIConfig `yaml:"api" json:"api"`

	// Database configuration for playback history and preferences
	Database db.Config `yaml:"database" json:"database"`

	// Scheduled autoplay
	Autoplay AutoplayConfig `yaml:"autoplay" json:"autoplay"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PlaybackConfig holds the startup selection and animation timing
type PlaybackConfig struct {
	// Scan type selected on startup and after reset
	ScanType string `yaml:"scan_type" json:"scan_type"`

	// Port state selected on startup (open or closed)
	PortState string `yaml:"port_state" json:"port_state"`

	// Playback speed multiplier
	Speed float64 `yaml:"speed" json:"speed"`

	// Cosmetic port number shown in the visualization
	Port int `yaml:"port" json:"port"`

	// Colour theme (dark or light)
	Theme string `yaml:"theme" json:"theme"`

	// Phase durations at speed 1.0
	Timing TimingConfig `yaml:"timing" json:"timing"`
}

// TimingConfig holds the per-phase animation durations
type TimingConfig struct {
	LeadIn time.Duration `yaml:"lead_in" json:"lead_in"`
	Travel time.Duration `yaml:"travel" json:"travel"`
	Fade   time.Duration `yaml:"fade" json:"fade"`
	Hide   time.Duration `yaml:"hide" json:"hide"`
	Gap    time.Duration `yaml:"gap" json:"gap"`
}

// CatalogConfig selects the scan catalog
type CatalogConfig struct {
	// Optional YAML file replacing the built-in catalog
	File string `yaml:"file" json:"file"`
}

// APIConfig holds API server settings
type APIConfig struct {
	// Listen address
	Host string `yaml:"host" json:"host"`

	// Listen port
	Port int `yaml:"port" json:"port"`

	// Server timeouts
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Maximum request body size
	MaxRequestSize int64 `yaml:"max_request_size" json:"max_request_size"`

	// Serve the OpenAPI UI under /swagger/
	EnableSwagger bool `yaml:"enable_swagger" json:"enable_swagger"`

	// CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors"`

	// Rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// API key protection for mutating endpoints
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Secret used to sign the preference cookie
	SessionSecret string `yaml:"session_secret" json:"-"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
}

// RateLimitConfig holds per-client rate limiting settings
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" json:"burst_size"`
}

// AuthConfig holds API key settings. Only a bcrypt hash of the key is stored.
type AuthConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	APIKeyHash string `yaml:"api_key_hash" json:"-"`
}

// AutoplayConfig drives the unattended rotation through scan types
type AutoplayConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Standard five-field cron expression
	Schedule string `yaml:"schedule" json:"schedule"`

	// Scan types to rotate through; empty means the whole catalog
	ScanTypes []string `yaml:"scan_types" json:"scan_types"`

	// Port states to rotate through; empty means open and closed
	PortStates []string `yaml:"port_states" json:"port_states"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Enable request logging for API
	RequestLogging bool `yaml:"request_logging" json:"request_logging"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	timing := player.DefaultTiming()
	return &Config{
		Playback: PlaybackConfig{
			ScanType:  string(scenario.DefaultScanType),
			PortState: string(scenario.DefaultPortState),
			Speed:     scenario.DefaultSpeed,
			Port:      scenario.DefaultPort,
			Theme:     "dark",
			Timing: TimingConfig{
				LeadIn: timing.LeadIn,
				Travel: timing.Travel,
				Fade:   timing.Fade,
				Hide:   timing.Hide,
				Gap:    timing.Gap,
			},
		},
		Database: db.DefaultConfig(),
		API: APIConfig{
			Host:            "127.0.0.1",
			Port:            defaultAPIPort,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  defaultMaxRequestSize,
			EnableSwagger:   true,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-API-Key"},
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 20,
				BurstSize:         40,
			},
		},
		Autoplay: AutoplayConfig{
			Enabled:  false,
			Schedule: "*/5 * * * *",
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			Output:         "stderr",
			RequestLogging: true,
		},
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	// JSON is a subset of YAML, so one decoder serves both extensions.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse config file %s", filepath.Base(path)), err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirPerm); err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, configFilePerm); err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, "failed to write config file", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.validateAutoplay(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePlayback() error {
	p := c.Playback
	if !isKnownScanType(p.ScanType) && c.Catalog.File == "" {
		return errors.ErrConfigInvalid("playback.scan_type", p.ScanType)
	}
	if _, ok := scenario.ParsePortState(p.PortState); !ok {
		return errors.ErrConfigInvalid("playback.port_state", p.PortState)
	}
	if err := scenario.ValidateSpeed(p.Speed); err != nil {
		return errors.ErrConfigInvalid("playback.speed", p.Speed)
	}
	if p.Port < 1 || p.Port > 65535 {
		return errors.ErrConfigInvalid("playback.port", p.Port)
	}
	if p.Theme != "dark" && p.Theme != "light" {
		return errors.ErrConfigInvalid("playback.theme", p.Theme)
	}

	t := p.Timing
	for field, d := range map[string]time.Duration{
		"lead_in": t.LeadIn, "travel": t.Travel, "fade": t.Fade, "hide": t.Hide, "gap": t.Gap,
	} {
		if d < 0 {
			return errors.ErrConfigInvalid("playback.timing."+field, d)
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return errors.ErrConfigInvalid("api.port", c.API.Port)
	}
	if c.API.Host == "" {
		return errors.ErrConfigInvalid("api.host", c.API.Host)
	}
	if c.API.RateLimit.Enabled && (c.API.RateLimit.RequestsPerSecond <= 0 || c.API.RateLimit.BurstSize <= 0) {
		return errors.ErrConfigInvalid("api.rate_limit", c.API.RateLimit)
	}
	if c.API.Auth.Enabled && c.API.Auth.APIKeyHash == "" {
		return errors.ErrConfigInvalid("api.auth.api_key_hash", "")
	}
	return nil
}

func (c *Config) validateAutoplay() error {
	a := c.Autoplay
	if !a.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(a.Schedule); err != nil {
		return errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("invalid cron expression: %v", err), "autoplay.schedule", a.Schedule)
	}
	if c.Catalog.File == "" {
		for _, id := range a.ScanTypes {
			if !isKnownScanType(id) {
				return errors.ErrConfigInvalid("autoplay.scan_types", id)
			}
		}
	}
	for _, state := range a.PortStates {
		if _, ok := scenario.ParsePortState(state); !ok {
			return errors.ErrConfigInvalid("autoplay.port_states", state)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return errors.ErrConfigInvalid("logging.level", c.Logging.Level)
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return errors.ErrConfigInvalid("logging.format", c.Logging.Format)
	}
	return nil
}

// isKnownScanType checks against the built-in scan types. Custom catalogs
// are validated when the catalog is loaded.
func isKnownScanType(raw string) bool {
	id := scenario.ParseScanType(raw)
	for _, known := range scenario.ScanTypes {
		if id == known {
			return true
		}
	}
	return false
}

// PlayerTiming converts the timing section for the player.
func (c *Config) PlayerTiming() player.Timing {
	t := c.Playback.Timing
	return player.Timing{LeadIn: t.LeadIn, Travel: t.Travel, Fade: t.Fade, Hide: t.Hide, Gap: t.Gap}
}

// ToLogging converts the logging section for the logging package.
func (c *Config) ToLogging() logging.Config {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		format = logging.FormatText
	}
	return logging.Config{
		Level:     level,
		Format:    format,
		Output:    c.Logging.Output,
		AddSource: level == logging.LevelDebug,
	}
}

// GetAPIAddress returns the full API address
func (c *Config) GetAPIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}
