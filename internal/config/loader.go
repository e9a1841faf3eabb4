package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/seogov/internal/domain/schedule"
	"github.com/Strob0t/seogov/internal/secrets"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "seogov.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if v := os.Getenv("SEOGOV_CONFIG"); v != "" {
		path = v
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	if err := loadSecrets(&cfg); err != nil {
		return nil, fmt.Errorf("config secrets: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SEOGOV_PORT")
	setString(&cfg.Server.CORSOrigin, "SEOGOV_CORS_ORIGIN")
	setDuration(&cfg.Server.ShutdownTimeout, "SEOGOV_SHUTDOWN_TIMEOUT")
	setString(&cfg.Storage.Driver, "SEOGOV_STORAGE_DRIVER")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SEOGOV_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SEOGOV_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SEOGOV_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SEOGOV_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SEOGOV_PG_HEALTH_CHECK")

	setBool(&cfg.NATS.Enabled, "SEOGOV_NATS_ENABLED")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "SEOGOV_NATS_STREAM")
	setInt(&cfg.NATS.MaxRetries, "SEOGOV_NATS_MAX_RETRIES")

	setString(&cfg.Logging.Level, "SEOGOV_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SEOGOV_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SEOGOV_LOG_ASYNC")

	setBool(&cfg.OTel.Enabled, "SEOGOV_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTel.Insecure, "SEOGOV_OTEL_INSECURE")
	setString(&cfg.OTel.ServiceName, "OTEL_SERVICE_NAME")
	setFloat64(&cfg.OTel.SampleRate, "SEOGOV_OTEL_SAMPLE_RATE")

	setInt(&cfg.Breaker.MaxFailures, "SEOGOV_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "SEOGOV_BREAKER_TIMEOUT")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "SEOGOV_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "SEOGOV_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "SEOGOV_CACHE_L2_TTL")
	setDuration(&cfg.Cache.ScanTTL, "SEOGOV_CACHE_SCAN_TTL")

	// Governance
	setFloat64(&cfg.Budget.Monthly, "SEOGOV_BUDGET_MONTHLY")
	setString(&cfg.Budget.PricesFile, "SEOGOV_PRICES_FILE")
	setString(&cfg.Sentinel.ThresholdsFile, "SEOGOV_THRESHOLDS_FILE")
	setString(&cfg.Reviews.TemplatesFile, "SEOGOV_TEMPLATES_FILE")
	setString(&cfg.Reviews.PriorityContact, "SEOGOV_PRIORITY_CONTACT")
	setString(&cfg.Reviews.GeneralContact, "SEOGOV_GENERAL_CONTACT")
	setInt(&cfg.Reviews.Workers, "SEOGOV_REVIEW_WORKERS")
	setDuration(&cfg.Approvals.TTL, "SEOGOV_APPROVAL_TTL")
	setBool(&cfg.Scheduler.Enabled, "SEOGOV_SCHEDULER_ENABLED")
	setString(&cfg.Scheduler.Schedule, "SEOGOV_SCHEDULE")

	// Sources
	setString(&cfg.Sources.SnapshotFile, "SEOGOV_SNAPSHOT_FILE")
	setList(&cfg.Sources.ScanURLs, "SEOGOV_SCAN_URLS")
	setString(&cfg.Sources.ScanKeyword, "SEOGOV_SCAN_KEYWORD")
	setDuration(&cfg.Sources.ScanTimeout, "SEOGOV_SCAN_TIMEOUT")
	setInt(&cfg.Sources.ScanConcurrency, "SEOGOV_SCAN_CONCURRENCY")

	// Notify
	setString(&cfg.Notify.SlackWebhookURL, "SEOGOV_SLACK_WEBHOOK_URL")
	setString(&cfg.Notify.DiscordWebhookURL, "SEOGOV_DISCORD_WEBHOOK_URL")
	setString(&cfg.Notify.SMTPHost, "SEOGOV_SMTP_HOST")
	setInt(&cfg.Notify.SMTPPort, "SEOGOV_SMTP_PORT")
	setString(&cfg.Notify.SMTPFrom, "SEOGOV_SMTP_FROM")
	setString(&cfg.Notify.SMTPPassword, "SEOGOV_SMTP_PASSWORD")
	setString(&cfg.Notify.SMTPTo, "SEOGOV_SMTP_TO")
}

// Credential variables. Each may also be given as <NAME>_FILE.
var secretVars = []string{
	"DATABASE_URL",
	"SEOGOV_SMTP_PASSWORD",
	"SEOGOV_SLACK_WEBHOOK_URL",
	"SEOGOV_DISCORD_WEBHOOK_URL",
}

// loadSecrets overlays credentials resolved from the environment and from
// secret files onto cfg.
func loadSecrets(cfg *Config) error {
	v, err := secrets.NewVault(secrets.Chain(
		secrets.EnvLoader(secretVars...),
		secrets.FileLoader(secretVars...),
	))
	if err != nil {
		return err
	}
	for key, dst := range map[string]*string{
		"DATABASE_URL":               &cfg.Postgres.DSN,
		"SEOGOV_SMTP_PASSWORD":       &cfg.Notify.SMTPPassword,
		"SEOGOV_SLACK_WEBHOOK_URL":   &cfg.Notify.SlackWebhookURL,
		"SEOGOV_DISCORD_WEBHOOK_URL": &cfg.Notify.DiscordWebhookURL,
	} {
		if val := v.Get(key); val != "" {
			*dst = val
		}
	}
	return nil
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Storage.Driver {
	case "memory":
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres driver")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of memory, postgres", cfg.Storage.Driver)
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Budget.Monthly < 0 {
		return errors.New("budget.monthly must be >= 0")
	}
	if cfg.Reviews.Workers < 1 {
		return errors.New("reviews.workers must be >= 1")
	}
	if cfg.Approvals.TTL < 0 {
		return errors.New("approvals.ttl must be >= 0")
	}
	if cfg.OTel.SampleRate < 0 || cfg.OTel.SampleRate > 1 {
		return errors.New("otel.sample_rate must be within [0, 1]")
	}
	if cfg.Scheduler.Enabled {
		if _, err := schedule.Parse(cfg.Scheduler.Schedule); err != nil {
			return fmt.Errorf("scheduler.schedule: %w", err)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
