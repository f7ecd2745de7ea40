package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendPostgres, BackendSheets}

type Config struct {
	// HTTP Server
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"7s"`
	PageSize       int           `envconfig:"PAGE_SIZE" default:"20"`
	TimeZone       string        `envconfig:"TZ_NAME" default:"Asia/Manila"`

	// RefreshInterval re-reads the store so writes from other processes
	// show up. Zero disables it.
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"1m"`

	// Backend selection
	DataBackend string `envconfig:"DATA_BACKEND" default:"memory"`
	SeedDir     string `envconfig:"SEED_DIR" default:"data"`

	// Database
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/tally.db"`
	PostgresDSN  string `envconfig:"PG_DSN"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"tally"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"tally_records"`

	// BackfillInterval is how often the mirror worker reconciles the sheet
	// against the source store. Zero runs it only at startup.
	BackfillInterval time.Duration `envconfig:"BACKFILL_INTERVAL" default:"1h"`

	// Google Sheets
	GoogleSpreadsheetID       string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName           string `envconfig:"GOOGLE_SHEET_NAME" default:"Sales Records"`
	GoogleServiceAccountJSON  string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile  string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleApplicationCredFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Sessions
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`
	AdminUsername string        `envconfig:"ADMIN_USERNAME" default:"Jasper"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD" default:"Admin123"`

	// Logging
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Location resolves TZ_NAME. An empty name means UTC.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// CredentialsFile is the service account file, preferring
// GOOGLE_SERVICE_ACCOUNT_FILE over GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) CredentialsFile() string {
	if c.GoogleServiceAccountFile != "" {
		return c.GoogleServiceAccountFile
	}
	return c.GoogleApplicationCredFile
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.PageSize < 1 || c.PageSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 500", c.PageSize))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}

	if c.RefreshInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must not be negative", c.RefreshInterval))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid time zone '%s': %v", c.TimeZone, err))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			errors = append(errors, "PG_DSN is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresDSN); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid PG_DSN: must be a postgres:// or postgresql:// URL")
		}
	case BackendSheets:
		errors = append(errors, c.validateSheets()...)
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		errors = append(errors, "admin username and password cannot be empty")
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// validateSheets checks the settings the Sheets store and the mirror worker need.
func (c *Config) validateSheets() []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
	}
	file := c.CredentialsFile()
	if c.GoogleServiceAccountJSON == "" && file == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
	}
	if c.GoogleServiceAccountJSON == "" && file != "" {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", file))
		}
	}
	return errors
}

// ValidateMirror checks the worker settings: a queue to consume and a
// spreadsheet to write.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sheets mirror")
	}
	if c.BackfillInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid backfill interval %v: must not be negative", c.BackfillInterval))
	}
	errors = append(errors, c.validateSheets()...)
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
