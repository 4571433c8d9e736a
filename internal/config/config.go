// Package config reads process configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/helpers"
	"github.com/joho/godotenv"
)

// Config holds every setting of the permissions API
type Config struct {
	Stage    string
	LogLevel string
	Port     int

	ActivityLogLimit  int
	RestrictedMethods []string
	LogIgnoreMethods  []string

	// PermittedAccounts are CAIP-10 account ids known to the account directory
	PermittedAccounts []string

	DatabaseURL    string
	DatabaseURLArn string
	SQSQueueURL    string

	// WebhookURL receives every origin notification as a JSON POST
	WebhookURL   string
	WebhookToken string

	// Operators are emailed through Resend when a request needs a decision
	ResendAPIKey        string
	AlertFromEmail      string
	OperatorAlertEmails []string
	ApprovalReviewURL   string

	RateLimitRPS   int
	RateLimitBurst int

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	LogRequestBodies     bool

	ShutdownTimeout time.Duration

	// OperatorAPIKeyHashes are bcrypt hashes of the keys accepted on operator routes
	OperatorAPIKeyHashes []string
}

// Load reads .env when present and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		Stage:                r.str("STAGE", constants.LocalEnvironment),
		LogLevel:             r.str("LOG_LEVEL", "info"),
		Port:                 r.int("PORT", 8000),
		ActivityLogLimit:     r.int("ACTIVITY_LOG_LIMIT", constants.DefaultActivityLogLimit),
		RestrictedMethods:    r.list("RESTRICTED_METHODS", constants.DefaultRestrictedMethods),
		LogIgnoreMethods:     r.list("LOG_IGNORE_METHODS", constants.DefaultLogIgnoreMethods),
		PermittedAccounts:    r.list("PERMITTED_ACCOUNTS", nil),
		DatabaseURL:          getenv("DATABASE_URL"),
		DatabaseURLArn:       getenv("DATABASE_URL_ARN"),
		SQSQueueURL:          getenv("SQS_QUEUE_URL"),
		WebhookURL:           getenv("NOTIFY_WEBHOOK_URL"),
		WebhookToken:         getenv("NOTIFY_WEBHOOK_TOKEN"),
		ResendAPIKey:         getenv("RESEND_API_KEY"),
		AlertFromEmail:       r.str("ALERT_FROM_EMAIL", "Cyphera Permissions <permissions@cyphera.com>"),
		OperatorAlertEmails:  r.list("OPERATOR_ALERT_EMAILS", nil),
		ApprovalReviewURL:    getenv("APPROVAL_REVIEW_URL"),
		RateLimitRPS:         r.int("RATE_LIMIT_RPS", 20),
		RateLimitBurst:       r.int("RATE_LIMIT_BURST", 40),
		CORSAllowedOrigins:   r.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		CORSAllowCredentials: r.bool("CORS_ALLOW_CREDENTIALS", false),
		LogRequestBodies:     r.bool("LOG_REQUEST_BODIES", false),
		ShutdownTimeout:      r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		OperatorAPIKeyHashes: r.list("OPERATOR_API_KEY_HASHES", nil),
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that parse but make no sense
func (c *Config) Validate() error {
	var errs []error
	if !helpers.IsValidStage(c.Stage) {
		errs = append(errs, fmt.Errorf("invalid STAGE %q", c.Stage))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.ActivityLogLimit <= 0 {
		errs = append(errs, fmt.Errorf("ACTIVITY_LOG_LIMIT must be positive, got %d", c.ActivityLogLimit))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.WebhookURL != "" && !helpers.IsValidURL(c.WebhookURL) {
		errs = append(errs, fmt.Errorf("invalid NOTIFY_WEBHOOK_URL %q", c.WebhookURL))
	}
	if c.Stage == constants.ProdEnvironment && len(c.OperatorAPIKeyHashes) == 0 {
		errs = append(errs, fmt.Errorf("OPERATOR_API_KEY_HASHES is required in prod"))
	}
	return errors.Join(errs...)
}

// SendsOperatorAlerts reports whether parked approvals are emailed to operators
func (c *Config) SendsOperatorAlerts() bool {
	return c.ResendAPIKey != "" && len(c.OperatorAlertEmails) > 0
}

// UsesDatabase reports whether grants are persisted to Postgres
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != "" || c.DatabaseURLArn != ""
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := r.getenv(key); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := r.getenv(key)
	if v == "" {
		return append([]string(nil), def...)
	}
	return helpers.SplitList(v)
}
