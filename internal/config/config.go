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

	"github.com/shopspring/decimal"

	"budgetvoice/internal/log"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend   string
	SQLiteDBPath  string
	DataDirectory string

	// Budget and dialogue
	BudgetBase       string
	FollowUpTimeout  time.Duration
	ReminderInterval time.Duration
	ReminderLead     time.Duration

	// AMQP (optional: empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string

	// Assistant
	AssistantBackend string
	AssistantURL     string
	AssistantStyle   string
	AssistantTimeout time.Duration
	ArkAPIKey        string
	ArkModel         string
	ArkBaseURL       string
	ArkRegion        string
}

var (
	validBackends          = []string{"memory", "sqlite"}
	validAssistantBackends = []string{"none", "remote", "ark"}
	validStyles            = []string{"concise", "detailed", "factual"}
)

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/budgetvoice.db"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),

		BudgetBase:       getEnv("BUDGET_BASE", "100"),
		FollowUpTimeout:  getEnvDuration("FOLLOW_UP_TIMEOUT", 0),
		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", time.Hour),
		ReminderLead:     getEnvDuration("REMINDER_LEAD", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetvoice"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		AssistantBackend: getEnv("ASSISTANT_BACKEND", "none"),
		AssistantURL:     getEnv("ASSISTANT_URL", ""),
		AssistantStyle:   getEnv("ASSISTANT_STYLE", "concise"),
		AssistantTimeout: getEnvDuration("ASSISTANT_TIMEOUT", 30*time.Second),
		ArkAPIKey:        getEnv("ARK_API_KEY", ""),
		ArkModel:         getEnv("ARK_MODEL", ""),
		ArkBaseURL:       getEnv("ARK_BASE_URL", ""),
		ArkRegion:        getEnv("ARK_REGION", ""),
	}

	return cfg
}

// Base returns the parsed budget base. Call Validate first.
func (c *Config) Base() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(c.BudgetBase))
	if err != nil {
		return decimal.Zero
	}
	return d
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

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': %v", c.LogLevel, err))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if base, err := decimal.NewFromString(strings.TrimSpace(c.BudgetBase)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid budget base '%s': must be a decimal number", c.BudgetBase))
	} else if base.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid budget base %s: must not be negative", base))
	}

	if c.FollowUpTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid follow-up timeout %v: must not be negative", c.FollowUpTimeout))
	}
	if c.ReminderInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 second", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}
	if c.ReminderLead < 0 {
		errors = append(errors, fmt.Sprintf("invalid reminder lead %v: must not be negative", c.ReminderLead))
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

	errors = append(errors, c.validateAssistant()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateAssistant() []string {
	var errors []string
	if !slices.Contains(validAssistantBackends, c.AssistantBackend) {
		errors = append(errors, fmt.Sprintf("invalid assistant backend '%s': must be one of %v", c.AssistantBackend, validAssistantBackends))
	}
	if !slices.Contains(validStyles, c.AssistantStyle) {
		errors = append(errors, fmt.Sprintf("invalid assistant style '%s': must be one of %v", c.AssistantStyle, validStyles))
	}
	switch c.AssistantBackend {
	case "remote":
		if u, err := url.Parse(c.AssistantURL); err != nil || c.AssistantURL == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid assistant URL '%s': must be an http or https URL", c.AssistantURL))
		}
		if c.AssistantTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid assistant timeout %v: must be positive", c.AssistantTimeout))
		}
	case "ark":
		if c.ArkAPIKey == "" {
			errors = append(errors, "ARK_API_KEY is required when using the ark assistant backend")
		}
		if c.ArkModel == "" {
			errors = append(errors, "ARK_MODEL is required when using the ark assistant backend")
		}
	}
	return errors
}

// ValidateExport checks the settings the export worker needs on top of Validate.
func (c *Config) ValidateExport() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the export worker")
	}

	hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
	hasClient := c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != ""
	hasToken := c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != ""
	switch {
	case hasServiceAccount:
		if c.GoogleServiceAccountJSON == "" {
			errors = append(errors, missingFile("Google service account file", c.GoogleServiceAccountFile)...)
		}
	case hasClient:
		if !hasToken {
			errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided with an OAuth client")
		}
		if c.GoogleOAuthClientJSON == "" {
			errors = append(errors, missingFile("Google OAuth client file", c.GoogleOAuthClientFile)...)
		}
		if hasToken && c.GoogleOAuthTokenJSON == "" {
			errors = append(errors, missingFile("Google OAuth token file", c.GoogleOAuthTokenFile)...)
		}
	default:
		errors = append(errors, "Google credentials are required: set a service account or an OAuth client and token")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func missingFile(what, path string) []string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []string{fmt.Sprintf("%s does not exist: %s", what, path)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
