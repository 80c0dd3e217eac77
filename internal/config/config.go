package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mailbox   MailboxConfig   `mapstructure:"mailbox"`
	Google    GoogleConfig    `mapstructure:"google"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	AI        AIConfig        `mapstructure:"ai"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Business  BusinessConfig  `mapstructure:"business"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig holds the local audit mirror connection configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Path     string `mapstructure:"path"`
}

// MailboxConfig selects and configures the inbound mailbox
type MailboxConfig struct {
	Provider string `mapstructure:"provider"`
	Folder   string `mapstructure:"folder"`
	IMAPHost string `mapstructure:"imap_host"`
	IMAPPort int    `mapstructure:"imap_port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// GoogleConfig holds OAuth2 and service account credentials for Gmail and Sheets
type GoogleConfig struct {
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
	RefreshToken    string `mapstructure:"refresh_token"`
	CredentialsFile string `mapstructure:"credentials_file"`
	UserEmail       string `mapstructure:"user_email"`
}

// SMTPConfig holds the outbound STARTTLS relay configuration
type SMTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type DispatchConfig struct {
	Provider string `mapstructure:"provider"`
}

// AIConfig configures the OpenAI-compatible generation endpoint
type AIConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Models    []string      `mapstructure:"models"`
	Discovery bool          `mapstructure:"discovery"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SheetsConfig configures the spreadsheet used for the audit log and catalog
type SheetsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	AuditSheet    string `mapstructure:"audit_sheet"`
	CatalogSheet  string `mapstructure:"catalog_sheet"`
	BodyLimit     int    `mapstructure:"body_limit"`
}

// RulesConfig selects where the business rule document lives
type RulesConfig struct {
	Backend       string `mapstructure:"backend"`
	Default       string `mapstructure:"default"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
}

type BusinessConfig struct {
	Name string `mapstructure:"name"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	AutoStart bool          `mapstructure:"auto_start"`
}

// PipelineConfig tunes per-message behaviour
type PipelineConfig struct {
	Dedupe       bool `mapstructure:"dedupe"`
	ReplyOnError bool `mapstructure:"reply_on_error"`
}

// LoadConfig loads configuration from a .env file, environment variables and
// an optional config file. An empty path searches ./ and ./config.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "smart-mail-reply.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)

	v.SetDefault("mailbox.provider", "imap")
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("mailbox.imap_host", "imap.gmail.com")
	v.SetDefault("mailbox.imap_port", 993)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.timeout", "30s")
	v.SetDefault("dispatch.provider", "smtp")

	v.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("ai.models", []string{"gemini-flash-latest", "gemini-2.5-flash"})
	v.SetDefault("ai.discovery", true)
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("sheets.enabled", true)
	v.SetDefault("sheets.audit_sheet", "Log")
	v.SetDefault("sheets.catalog_sheet", "Products")
	v.SetDefault("sheets.body_limit", 1000)

	v.SetDefault("rules.backend", "memory")
	v.SetDefault("rules.redis_addr", "localhost:6379")
	v.SetDefault("rules.redis_key", "smart-mail-reply:rules")

	v.SetDefault("business.name", "Our Store")

	v.SetDefault("scheduler.interval", "30s")
	v.SetDefault("scheduler.auto_start", true)

	v.SetDefault("pipeline.dedupe", false)
	v.SetDefault("pipeline.reply_on_error", false)
}

var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"log.level":               "LOG_LEVEL",
	"database.driver":         "DB_DRIVER",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.dbname":         "DB_NAME",
	"database.path":           "DB_PATH",
	"mailbox.provider":        "MAILBOX_PROVIDER",
	"mailbox.folder":          "MAILBOX_FOLDER",
	"mailbox.imap_host":       "IMAP_HOST",
	"mailbox.imap_port":       "IMAP_PORT",
	"mailbox.user":            "IMAP_USER",
	"mailbox.password":        "IMAP_PASSWORD",
	"google.client_id":        "GOOGLE_CLIENT_ID",
	"google.client_secret":    "GOOGLE_CLIENT_SECRET",
	"google.refresh_token":    "GOOGLE_REFRESH_TOKEN",
	"google.credentials_file": "GOOGLE_CREDENTIALS_FILE",
	"google.user_email":       "GOOGLE_USER_EMAIL",
	"smtp.host":               "SMTP_HOST",
	"smtp.port":               "SMTP_PORT",
	"smtp.user":               "SMTP_USER",
	"smtp.password":           "SMTP_PASSWORD",
	"smtp.from":               "SMTP_FROM",
	"dispatch.provider":       "DISPATCH_PROVIDER",
	"ai.api_key":              "AI_API_KEY",
	"ai.base_url":             "AI_BASE_URL",
	"sheets.enabled":          "SHEETS_ENABLED",
	"sheets.spreadsheet_id":   "SHEETS_SPREADSHEET_ID",
	"rules.backend":           "RULES_BACKEND",
	"rules.redis_addr":        "REDIS_ADDR",
	"rules.redis_password":    "REDIS_PASSWORD",
	"business.name":           "BUSINESS_NAME",
	"scheduler.interval":      "SCHEDULER_INTERVAL",
	"pipeline.dedupe":         "PIPELINE_DEDUPE",
	"pipeline.reply_on_error": "PIPELINE_REPLY_ON_ERROR",
}

func bindEnvVars(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// UsesGoogleOAuth reports whether any component talks to a Google API.
func (c *Config) UsesGoogleOAuth() bool {
	return c.Mailbox.Provider == "gmail" || c.Dispatch.Provider == "gmail" || c.Sheets.Enabled
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "mysql":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Mailbox.Provider {
	case "imap":
		if c.Mailbox.User == "" || c.Mailbox.Password == "" {
			return fmt.Errorf("IMAP credentials are required when using IMAP")
		}
	case "gmail":
	default:
		return fmt.Errorf("unsupported mailbox provider %q", c.Mailbox.Provider)
	}

	switch c.Dispatch.Provider {
	case "smtp":
		if c.SMTP.User == "" || c.SMTP.Password == "" {
			return fmt.Errorf("SMTP credentials are required when dispatching over SMTP")
		}
	case "gmail":
	default:
		return fmt.Errorf("unsupported dispatch provider %q", c.Dispatch.Provider)
	}

	if c.UsesGoogleOAuth() && c.Google.CredentialsFile == "" {
		if c.Google.ClientID == "" || c.Google.ClientSecret == "" || c.Google.RefreshToken == "" {
			return fmt.Errorf("Google OAuth2 credentials or a credentials file are required")
		}
	}

	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is required when sheets are enabled")
	}

	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required")
	}
	if len(c.AI.Models) == 0 && !c.AI.Discovery {
		return fmt.Errorf("at least one AI model is required when discovery is disabled")
	}

	if c.Rules.Backend != "memory" && c.Rules.Backend != "redis" {
		return fmt.Errorf("unsupported rules backend %q", c.Rules.Backend)
	}

	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
