package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddr      = ":3001"
	defaultStaticDir = "public"
	defaultBaseURL   = "https://bigdata.kepco.co.kr/openapi/v1"
	defaultUserAgent = "powerdash/1.0 (+go net/http)"
	defaultTimeout   = 20 * time.Second
)

// Config holds the application configuration
type Config struct {
	Server        ServerConfig   `yaml:"server"`
	Upstream      UpstreamConfig `yaml:"upstream"`
	Log           LogConfig      `yaml:"log,omitempty"`
	MQTT          MQTTConfig     `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig       `yaml:"home_assistant,omitempty"`
	Publish       PublishConfig  `yaml:"publish,omitempty"`
}

// ServerConfig holds the inbound HTTP settings
type ServerConfig struct {
	Addr        string   `yaml:"addr,omitempty"`         // e.g. ":3001"
	StaticDir   string   `yaml:"static_dir,omitempty"`   // dashboard assets, "public" by default
	CORSOrigins []string `yaml:"cors_origins,omitempty"` // "*" when empty
}

// UpstreamConfig holds the KEPCO open API settings
type UpstreamConfig struct {
	BaseURL   string        `yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey    string        `yaml:"api_key,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// LogConfig controls the zap logger and its rotating file
type LogConfig struct {
	Level      string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format,omitempty" validate:"omitempty,oneof=json console"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" validate:"gte=0"`
}

// MQTTConfig holds MQTT broker settings for summary publishing
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker" validate:"required_if=Enabled true"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url" validate:"required_if=Enabled true,omitempty,url"` // e.g., "http://homeassistant.local:8123"
	Token    string `yaml:"token" validate:"required_if=Enabled true"`             // Long-lived access token
	EntityID string `yaml:"entity_id" validate:"required_if=Enabled true"`         // e.g., "sensor.facility_average_usage"
}

// PublishConfig controls scheduled publishing while serving
type PublishConfig struct {
	Schedule string `yaml:"schedule,omitempty"` // cron spec, e.g. "@hourly"; empty disables
}

var validate = validator.New()

// Load reads the config file, applies environment overrides and validates the result
func Load(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// Fall through with defaults if file doesn't exist
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv lets the process environment override the file.
// The API key in particular is expected to come from KEPCO_API_KEY.
func (c *Config) applyEnv() {
	if v := os.Getenv("KEPCO_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("KEPCO_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("POWERDASH_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// GetAddr returns the listen address, ":3001" by default
func (c *Config) GetAddr() string {
	if c.Server.Addr == "" {
		return defaultAddr
	}
	return c.Server.Addr
}

// GetStaticDir returns the dashboard asset directory
func (c *Config) GetStaticDir() string {
	if c.Server.StaticDir == "" {
		return defaultStaticDir
	}
	return c.Server.StaticDir
}

// GetCORSOrigins returns allowed CORS origins, all origins by default
func (c *Config) GetCORSOrigins() []string {
	if len(c.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return c.Server.CORSOrigins
}

// GetBaseURL returns the upstream base URL without a trailing slash
func (c *UpstreamConfig) GetBaseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// GetTimeout returns the per-call upstream timeout, 20s by default
func (c *UpstreamConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

// GetUserAgent returns the User-Agent sent upstream
func (c *UpstreamConfig) GetUserAgent() string {
	if c.UserAgent == "" {
		return defaultUserAgent
	}
	return c.UserAgent
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *MQTTConfig) GetTopicPrefix() string {
	if c.TopicPrefix == "" {
		return "powerdash"
	}
	return strings.TrimRight(c.TopicPrefix, "/")
}

// GetClientID returns the MQTT client id
func (c *MQTTConfig) GetClientID() string {
	if c.ClientID == "" {
		return "powerdash"
	}
	return c.ClientID
}

// GetLevel returns the log level, "info" by default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}
