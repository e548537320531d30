package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Collector modes. ModeTop snapshots the top-N listings plus global metrics,
// ModeTracked snapshots only the coins listed in the tracked_coins table.
const (
	ModeTop     = "top"
	ModeTracked = "tracked"
)

type Config struct {
	Coinfetch CoinfetchConfig `yaml:"coinfetch"`
	Collector CollectorConfig `yaml:"collector"`
	Source    SourceConfig    `yaml:"source"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type CoinfetchConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type CollectorConfig struct {
	Mode           string               `yaml:"mode"`
	Interval       time.Duration        `yaml:"interval"`
	Limit          int                  `yaml:"limit"`
	Convert        string               `yaml:"convert"`
	Retry          RetryConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier int           `yaml:"backoff_multiplier"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

type SourceConfig struct {
	CMC CMCSourceConfig `yaml:"cmc"`
}

type CMCSourceConfig struct {
	BaseURL        string               `yaml:"base_url"`
	Timeout        time.Duration        `yaml:"timeout"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type StorageConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

type PostgresConfig struct {
	MinConns       int           `yaml:"min_conns"`
	MaxConns       int           `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SSLMode        string        `yaml:"ssl_mode"`
}

type ArchiveConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level          string        `yaml:"level"`
	Format         string        `yaml:"format"`
	Output         string        `yaml:"output"`
	MaxAge         int           `yaml:"max_age"`
	ReportInterval time.Duration `yaml:"report_interval"`
	CloudWatch     bool          `yaml:"cloudwatch"`
	Namespace      string        `yaml:"namespace"`
	DashboardName  string        `yaml:"dashboard_name"`
}

// Secrets holds the credentials that are only ever read from the process
// environment, never from the configuration file.
type Secrets struct {
	CMCAPIKey        string
	DatabaseURL      string
	DatabasePassword string
}

const (
	envCMCAPIKey        = "CMC_API_KEY"
	envDatabaseURL      = "SUPABASE_DB_URL"
	envDatabasePassword = "SUPABASE_DB_PASSWORD"
)

// LoadSecrets reads the required credentials from the environment. A missing
// variable is a fatal configuration error; all missing names are reported at
// once so the operator can fix them in one pass.
func LoadSecrets() (*Secrets, error) {
	s := &Secrets{
		CMCAPIKey:        strings.TrimSpace(os.Getenv(envCMCAPIKey)),
		DatabaseURL:      strings.TrimSpace(os.Getenv(envDatabaseURL)),
		DatabasePassword: strings.TrimSpace(os.Getenv(envDatabasePassword)),
	}

	var missing []string
	if s.CMCAPIKey == "" {
		missing = append(missing, envCMCAPIKey)
	}
	if s.DatabaseURL == "" {
		missing = append(missing, envDatabaseURL)
	}
	if s.DatabasePassword == "" {
		missing = append(missing, envDatabasePassword)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}

	return s, nil
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Collector: CollectorConfig{
			Mode:     ModeTop,
			Interval: 5 * time.Minute,
			Limit:    100,
			Convert:  "USD",
		},
		Source: SourceConfig{
			CMC: CMCSourceConfig{
				BaseURL: "https://pro-api.coinmarketcap.com",
				Timeout: 30 * time.Second,
			},
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override archive settings from environment variables if available
	if config.Storage.Archive.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.Archive.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.Archive.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.Archive.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
			config.Storage.Archive.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.Archive.Bucket = strings.TrimSpace(config.Storage.Archive.Bucket)

	// Development environments default to verbose logging unless configured.
	if config.Logging.Level == "" && !IsProductionLike(AppEnvironment()) {
		config.Logging.Level = "debug"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Coinfetch.Name == "" {
		return fmt.Errorf("coinfetch.name is required")
	}

	if cfg.Coinfetch.Version == "" {
		return fmt.Errorf("coinfetch.version is required")
	}

	switch cfg.Collector.Mode {
	case ModeTop, ModeTracked:
	default:
		return fmt.Errorf("collector.mode must be '%s' or '%s'", ModeTop, ModeTracked)
	}

	if cfg.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be greater than 0")
	}

	if cfg.Collector.Mode == ModeTop && cfg.Collector.Limit <= 0 {
		return fmt.Errorf("collector.limit must be greater than 0 in top mode")
	}

	if cfg.Collector.Retry.MaxAttempts < 0 {
		return fmt.Errorf("collector.retry.max_attempts must not be negative")
	}
	if cfg.Collector.Retry.MaxAttempts > 0 {
		if cfg.Collector.Retry.BaseDelay <= 0 {
			return fmt.Errorf("collector.retry.base_delay must be greater than 0")
		}
		if cfg.Collector.Retry.MaxDelay < cfg.Collector.Retry.BaseDelay {
			return fmt.Errorf("collector.retry.max_delay must not be less than base_delay")
		}
	}

	if cfg.Collector.CircuitBreaker.FailureThreshold > 0 && cfg.Collector.CircuitBreaker.RecoveryTimeout <= 0 {
		return fmt.Errorf("collector.circuit_breaker.recovery_timeout must be greater than 0")
	}

	if cfg.Source.CMC.BaseURL == "" {
		return fmt.Errorf("source.cmc.base_url is required")
	}
	if cfg.Source.CMC.Timeout <= 0 {
		return fmt.Errorf("source.cmc.timeout must be greater than 0")
	}

	if cfg.Storage.Archive.Enabled {
		if cfg.Storage.Archive.Bucket == "" {
			return fmt.Errorf("storage.archive.bucket is required when the archive is enabled")
		}
		if cfg.Storage.Archive.Region == "" {
			return fmt.Errorf("storage.archive.region is required when the archive is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.Archive.Bucket) {
			return fmt.Errorf("storage.archive.bucket '%s' is invalid", cfg.Storage.Archive.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
