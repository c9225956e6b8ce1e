// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the remote query pipeline, matching the reference dashboard.
const (
	DefaultCacheTTL     = 600 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultQueryTimeout = 5 * time.Minute
)

// Config holds the configuration for the reporting server.
type Config struct {
	// Remote engine and object store.
	Region        string // AWS region for Athena and S3 (required)
	ResultsBucket string // S3 bucket receiving Athena output (required)
	OutputPrefix  string // key prefix under ResultsBucket (default "dashboard-temp")
	Database      string // Athena database holding the event-log table (default "default")
	Workgroup     string // Athena workgroup (default "primary")

	// Static credentials are optional — nil means try the credentials
	// file, then the ambient SDK chain.
	AccessKeyID     *string
	SecretAccessKey *string
	CredentialsFile string // optional KEY=VALUE credentials file path

	// Pipeline tuning.
	CacheTTL     time.Duration // result cache validity window (default 600s)
	PollInterval time.Duration // job status poll interval (default 500ms)
	QueryTimeout time.Duration // overall bound on one submit→materialize cycle (default 5m)
	WarmSchedule string        // cron spec for background cache warming ("" disables)

	ReportFile    string // optional YAML report definition file
	HistoryDBPath string // SQLite job-history file (default "mailmetrics_history.sqlite")

	// HTTP server.
	ListenAddr         string   // HTTP listen address (default ":8080")
	JWTSecret          string   // HS256 secret for bearer auth ("" disables auth)
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])
	RateLimitRPS       float64  // sustained requests per second (default 50)
	RateLimitBurst     int      // burst capacity (default 100)

	LogLevel string // log level: debug, info, warn, error (default "info")
	Env      string // environment: "development" (default) or "production"

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasStaticCredentials returns true if an explicit key pair is configured.
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKeyID != nil && c.SecretAccessKey != nil
}

// OutputLocation returns the s3:// URI Athena writes result objects under.
func (c *Config) OutputLocation() string {
	return fmt.Sprintf("s3://%s/%s/", c.ResultsBucket, strings.Trim(c.OutputPrefix, "/"))
}

// LoadFromEnv loads configuration from environment variables.
// Static credentials are optional — the ambient SDK chain is the fallback.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Region:          os.Getenv("AWS_REGION"),
		ResultsBucket:   os.Getenv("RESULTS_BUCKET"),
		OutputPrefix:    os.Getenv("OUTPUT_PREFIX"),
		Database:        os.Getenv("ATHENA_DATABASE"),
		Workgroup:       os.Getenv("ATHENA_WORKGROUP"),
		CredentialsFile: os.Getenv("CREDENTIALS_FILE"),
		WarmSchedule:    os.Getenv("WARM_SCHEDULE"),
		ReportFile:      os.Getenv("REPORT_FILE"),
		HistoryDBPath:   os.Getenv("HISTORY_DB_PATH"),
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		Env:             os.Getenv("ENV"),
	}

	// Static credentials — only set if present.
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.AccessKeyID = &v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.SecretAccessKey = &v
	}

	var err error
	if cfg.CacheTTL, err = parseDurationEnv("CACHE_TTL", DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = parseDurationEnv("POLL_INTERVAL", DefaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = parseDurationEnv("QUERY_TIMEOUT", DefaultQueryTimeout); err != nil {
		return nil, err
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Required fields.
	if cfg.Region == "" {
		return nil, fmt.Errorf("AWS_REGION must be set")
	}
	if cfg.ResultsBucket == "" {
		return nil, fmt.Errorf("RESULTS_BUCKET must be set")
	}
	if (cfg.AccessKeyID == nil) != (cfg.SecretAccessKey == nil) {
		return nil, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}

	// Defaults.
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = "dashboard-temp"
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Workgroup == "" {
		cfg.Workgroup = "primary"
	}
	if cfg.HistoryDBPath == "" {
		cfg.HistoryDBPath = "mailmetrics_history.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 50
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 100
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set — the API is unauthenticated")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
