package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "sqlite", Path: "test.db"},
		Mailbox: MailboxConfig{
			Provider: "imap",
			Folder:   "INBOX",
			User:     "shop@example.com",
			Password: "app-password",
		},
		SMTP:      SMTPConfig{Host: "smtp.example.com", Port: 587, User: "shop@example.com", Password: "app-password"},
		Dispatch:  DispatchConfig{Provider: "smtp"},
		AI:        AIConfig{APIKey: "key", Models: []string{"gemini-flash-latest"}},
		Rules:     RulesConfig{Backend: "memory"},
		Scheduler: SchedulerConfig{Interval: 30 * time.Second},
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	invalid := validConfig()
	invalid.Server.Port = ""
	assert.Error(t, invalid.Validate())

	noIMAP := validConfig()
	noIMAP.Mailbox.Password = ""
	assert.Error(t, noIMAP.Validate())

	sheets := validConfig()
	sheets.Sheets.Enabled = true
	sheets.Sheets.SpreadsheetID = "sheet-id"
	assert.Error(t, sheets.Validate(), "sheets need Google credentials")

	sheets.Google.CredentialsFile = "service-account.json"
	assert.NoError(t, sheets.Validate())

	noModels := validConfig()
	noModels.AI.Models = nil
	assert.Error(t, noModels.Validate())
	noModels.AI.Discovery = true
	assert.NoError(t, noModels.Validate())

	badInterval := validConfig()
	badInterval.Scheduler.Interval = 0
	assert.Error(t, badInterval.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	expected := "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local"
	assert.Equal(t, expected, cfg.GetDSN())

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "/tmp/audit.db"}
	assert.Equal(t, "/tmp/audit.db", sqlite.GetDSN())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
mailbox:
  folder: Support
ai:
  models: [model-a, model-b]
scheduler:
  interval: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("IMAP_PASSWORD", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Support", cfg.Mailbox.Folder)
	assert.Equal(t, "from-env", cfg.Mailbox.Password)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.AI.Models)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 1000, cfg.Sheets.BodyLimit)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.False(t, cfg.Pipeline.ReplyOnError)
}
