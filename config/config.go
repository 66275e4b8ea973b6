package config

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Patient    PatientConfig    `yaml:"patient"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	LLM        LLMConfig        `yaml:"llm"`
	Report     ReportConfig     `yaml:"report"`
	Sensor     SensorConfig     `yaml:"sensor"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// PatientConfig seeds the single record held for the session.
type PatientConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Age  int    `yaml:"age"`
	Room string `yaml:"room"`
}

// SupervisorConfig identifies the clinician issuing actions.
type SupervisorConfig struct {
	Identity string `yaml:"identity"`
}

// LLMConfig configures the text-generation service.
type LLMConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// ReportConfig controls how report prompts render timestamps.
type ReportConfig struct {
	Timezone string `yaml:"timezone"`
}

// SensorConfig holds the bedside monitor poller configuration.
type SensorConfig struct {
	Enabled         bool              `yaml:"enabled"`
	URL             string            `yaml:"url"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"` // Ignored by YAML parser
	HTTPProxy       string            `yaml:"http_proxy"`
	Headers         map[string]string `yaml:"headers"`
	Timezone        string            `yaml:"timezone"`
}

// DatabaseConfig holds the journal database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig selects the log level, format and optional rotated file.
type LoggingConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig is passed through to lumberjack.
type LogFileConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads the configuration from the given path. A missing file yields
// the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config file %s not found; using defaults", path)
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	// The credential defaults to an empty string; generation then fails and
	// falls back to the fixed degraded texts.
	if key, ok := os.LookupEnv("API_KEY"); ok {
		cfg.LLM.APIKey = key
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Server.Port = p
		} else {
			log.Printf("ignoring invalid PORT %q", port)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Patient.ID == "" {
		cfg.Patient.ID = "P-10293"
	}
	if cfg.Patient.Name == "" {
		cfg.Patient.Name = "John Doe"
	}
	if cfg.Patient.Age <= 0 {
		cfg.Patient.Age = 54
	}
	if cfg.Patient.Room == "" {
		cfg.Patient.Room = "402"
	}

	if cfg.Supervisor.Identity == "" {
		cfg.Supervisor.Identity = "Dr. Sarah (Senior)"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-3-flash-preview"
	}
	if cfg.LLM.TimeoutSeconds > 0 {
		cfg.LLM.Timeout = time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	}

	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "Local"
	}

	if cfg.Sensor.IntervalSeconds <= 0 {
		cfg.Sensor.IntervalSeconds = 30
	}
	cfg.Sensor.Interval = time.Duration(cfg.Sensor.IntervalSeconds) * time.Second
	if cfg.Sensor.Timezone == "" {
		cfg.Sensor.Timezone = "UTC"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "file:medflow?mode=memory&cache=shared"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
