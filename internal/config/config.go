package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port         string
	Env          string
	LogLevel     string
	ClearConfirm string
}

// StorageConfig selects the backend the dashboard runs against.
type StorageConfig struct {
	Backend      models.Backend
	SnapshotPath string
	FeedLimit    int
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API. The
// end-of-day summary is only sent when it is complete.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	ReportTo      string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	RefreshSchedule string
	DailySchedule   string
	Timezone        string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	backend, err := models.ParseBackend(getenvWithDefault("STORAGE_BACKEND", string(models.BackendLocal)))
	if err != nil {
		return nil, err
	}

	feedLimit, err := strconv.Atoi(getenvWithDefault("FEED_LIMIT", "50"))
	if err != nil {
		return nil, fmt.Errorf("FEED_LIMIT must be an integer: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getenvWithDefault("APP_PORT", "8080"),
			Env:          getenvWithDefault("APP_ENV", "production"),
			LogLevel:     getenvWithDefault("LOG_LEVEL", "info"),
			ClearConfirm: getenvWithDefault("CLEAR_CONFIRM_TOKEN", "DELETE-ALL"),
		},
		Storage: StorageConfig{
			Backend:      backend,
			SnapshotPath: getenvWithDefault("LOCAL_SNAPSHOT_PATH", "data/milktrack.json"),
			FeedLimit:    feedLimit,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "milktrack"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ReportTo:      os.Getenv("WHATSAPP_REPORT_TO"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			RefreshSchedule: getenvWithDefault("REFRESH_CRON", "@every 1m"),
			DailySchedule:   getenvWithDefault("DAILY_REPORT_CRON", "0 20 * * *"),
			Timezone:        getenvWithDefault("TIMEZONE", "Local"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.ClearConfirm == "" {
		return errors.New("CLEAR_CONFIRM_TOKEN must not be empty")
	}

	switch c.Storage.Backend {
	case models.BackendLocal:
		if c.Storage.SnapshotPath == "" {
			return errors.New("LOCAL_SNAPSHOT_PATH must be provided for the local backend")
		}
	case models.BackendRemote:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the remote backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided for the remote backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.Storage.FeedLimit <= 0 {
		return errors.New("FEED_LIMIT must be positive")
	}

	if c.Reporting.RefreshSchedule == "" {
		return errors.New("REFRESH_CRON must be provided")
	}
	if c.Reporting.DailySchedule == "" {
		return errors.New("DAILY_REPORT_CRON must be provided")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	return nil
}

// Location resolves the calendar-day timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Reporting.Timezone)
}

// WhatsAppEnabled reports whether daily summaries can be sent.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID != "" && c.WhatsApp.ReportTo != ""
}

// SheetsEnabled reports whether daily summaries are appended to a sheet.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
