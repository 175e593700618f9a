package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"designreport/internal/domain/report"
)

type Config struct {
	Addr                 string        `yaml:"addr"`
	Environment          string        `yaml:"environment"`
	LogLevel             string        `yaml:"log_level"`
	LogFormat            string        `yaml:"log_format"`
	DatabaseURL          string        `yaml:"database_url"`
	RunMigrations        bool          `yaml:"run_migrations"`
	MigrationsDir        string        `yaml:"migrations_dir"`
	WorkDir              string        `yaml:"work_dir"`
	SessionTTL           time.Duration `yaml:"session_ttl"`
	SessionSweepSchedule string        `yaml:"session_sweep_schedule"`
	MaxUploadBytes       int64         `yaml:"max_upload_bytes"`
	RateLimitPerMinute   int           `yaml:"rate_limit_per_minute"`
	DownloadSecret       string        `yaml:"download_secret"`
	DownloadTokenTTL     time.Duration `yaml:"download_token_ttl"`
	DataEncryptionKey    string        `yaml:"data_encryption_key"`
	FrontendDir          string        `yaml:"frontend_dir"`
	FrameAncestors       []string      `yaml:"frame_ancestors"`
	PDFFontPath          string        `yaml:"pdf_font_path"`
	AdminKeyHash         string        `yaml:"admin_key_hash"`
	MetricsEnabled       bool          `yaml:"metrics_enabled"`
	ExternalHTTPTimeout  time.Duration `yaml:"external_http_timeout"`

	Kaiten Kaiten         `yaml:"kaiten"`
	Slack  Slack          `yaml:"slack"`
	Report ReportSettings `yaml:"report"`
}

type Kaiten struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	CardID  string `yaml:"card_id"`
}

func (k Kaiten) Enabled() bool {
	return k.BaseURL != "" && k.Token != "" && k.CardID != ""
}

type Slack struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

func (s Slack) Enabled() bool {
	return s.BotToken != "" && s.ChannelID != ""
}

// ReportSettings carries the spreadsheet conventions of the team: who writes
// text tasks and which headers hold which field.
type ReportSettings struct {
	TextAuthors []string       `yaml:"text_authors"`
	Columns     report.Columns `yaml:"columns"`
}

func (r ReportSettings) Options() report.Options {
	opts := report.DefaultOptions()
	opts.Columns = r.Columns
	if len(r.TextAuthors) > 0 {
		opts.TextAuthors = r.TextAuthors
	}
	return opts
}

func defaults() Config {
	return Config{
		Addr:                 ":8080",
		Environment:          "development",
		LogLevel:             "info",
		LogFormat:            "json",
		RunMigrations:        true,
		WorkDir:              os.TempDir(),
		SessionTTL:           2 * time.Hour,
		SessionSweepSchedule: "*/15 * * * *",
		MaxUploadBytes:       16 << 20,
		RateLimitPerMinute:   60,
		DownloadTokenTTL:     time.Hour,
		FrontendDir:          "frontend/dist",
		MetricsEnabled:       true,
		ExternalHTTPTimeout:  30 * time.Second,
		Report: ReportSettings{
			TextAuthors: report.DefaultTextAuthors,
			Columns:     report.DefaultColumns(),
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at CONFIG_PATH (config.yaml when unset), then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	path := getEnv("CONFIG_PATH", "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("APP_ADDR", c.Addr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("APP_ADDR") == "" {
		c.Addr = ":" + port
	}
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RunMigrations = getEnvBool("RUN_MIGRATIONS", c.RunMigrations)
	c.MigrationsDir = getEnv("MIGRATIONS_DIR", c.MigrationsDir)
	c.WorkDir = getEnv("WORK_DIR", c.WorkDir)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.SessionSweepSchedule = getEnv("SESSION_SWEEP_SCHEDULE", c.SessionSweepSchedule)
	c.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.DownloadSecret = getEnv("DOWNLOAD_SECRET", c.DownloadSecret)
	c.DownloadTokenTTL = getEnvDuration("DOWNLOAD_TOKEN_TTL", c.DownloadTokenTTL)
	c.DataEncryptionKey = getEnv("DATA_ENCRYPTION_KEY", c.DataEncryptionKey)
	c.FrontendDir = getEnv("FRONTEND_DIR", c.FrontendDir)
	if origins := getEnvList("FRAME_ANCESTORS"); origins != nil {
		c.FrameAncestors = origins
	}
	c.PDFFontPath = getEnv("PDF_FONT_PATH", c.PDFFontPath)
	c.AdminKeyHash = getEnv("ADMIN_KEY_HASH", c.AdminKeyHash)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.ExternalHTTPTimeout = getEnvDuration("EXTERNAL_HTTP_TIMEOUT", c.ExternalHTTPTimeout)

	c.Kaiten.BaseURL = strings.TrimRight(getEnv("KAITEN_BASE_URL", c.Kaiten.BaseURL), "/")
	c.Kaiten.Token = getEnv("KAITEN_TOKEN", c.Kaiten.Token)
	c.Kaiten.CardID = getEnv("KAITEN_CARD_ID", c.Kaiten.CardID)
	c.Slack.BotToken = getEnv("SLACK_BOT_TOKEN", c.Slack.BotToken)
	c.Slack.ChannelID = getEnv("SLACK_CHANNEL_ID", c.Slack.ChannelID)

	if names := getEnvList("TEXT_AUTHORS"); names != nil {
		c.Report.TextAuthors = names
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.Environment == "production" {
		if strings.TrimSpace(c.DownloadSecret) == "" {
			return fmt.Errorf("DOWNLOAD_SECRET must be set to a strong value in production")
		}
	}
	if c.PDFFontPath != "" {
		if _, err := os.Stat(c.PDFFontPath); err != nil {
			return fmt.Errorf("PDF_FONT_PATH is not readable: %w", err)
		}
	}
	if c.MaxUploadBytes < 1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.DownloadTokenTTL <= 0 {
		return fmt.Errorf("DOWNLOAD_TOKEN_TTL must be positive")
	}
	if strings.TrimSpace(c.WorkDir) == "" {
		return fmt.Errorf("WORK_DIR is required")
	}
	if c.SessionSweepSchedule != "" {
		if _, err := ParseSchedule(c.SessionSweepSchedule); err != nil {
			return fmt.Errorf("SESSION_SWEEP_SCHEDULE is invalid: %w", err)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}
	return nil
}

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(spec)
}
