package config_test

import (
	"testing"
	"time"

	"github.com/cyphera/cyphera-permissions/internal/config"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, constants.LocalEnvironment, cfg.Stage)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, constants.DefaultActivityLogLimit, cfg.ActivityLogLimit)
	assert.Equal(t, constants.DefaultRestrictedMethods, cfg.RestrictedMethods)
	assert.Equal(t, constants.DefaultLogIgnoreMethods, cfg.LogIgnoreMethods)
	assert.Empty(t, cfg.PermittedAccounts)
	assert.False(t, cfg.UsesDatabase())
	assert.Equal(t, 20, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.OperatorAPIKeyHashes)
	assert.False(t, cfg.SendsOperatorAlerts())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"STAGE":                   "prod",
		"PORT":                    "9090",
		"ACTIVITY_LOG_LIMIT":      "250",
		"RESTRICTED_METHODS":      "eth_accounts, eth_sendTransaction",
		"LOG_IGNORE_METHODS":      "metamask_sendDomainMetadata",
		"PERMITTED_ACCOUNTS":      "eip155:1:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed,eip155:10:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"DATABASE_URL_ARN":        "arn:aws:secretsmanager:us-east-1:1:secret:db",
		"SQS_QUEUE_URL":           "https://sqs.us-east-1.amazonaws.com/1/notifications",
		"CORS_ALLOWED_ORIGINS":    "https://a.example, https://b.example",
		"CORS_ALLOW_CREDENTIALS":  "true",
		"SHUTDOWN_TIMEOUT":        "3s",
		"RESEND_API_KEY":          "re_test",
		"OPERATOR_ALERT_EMAILS":   "ops@example.com,oncall@example.com",
		"OPERATOR_API_KEY_HASHES": "$2a$10$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ01234, $2a$10$zyxwvutsrqponmlkjihgfeZYXWVUTSRQPONMLKJIHGFEDCBA98765",
	}))
	require.NoError(t, err)

	assert.Equal(t, constants.ProdEnvironment, cfg.Stage)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 250, cfg.ActivityLogLimit)
	assert.Equal(t, []string{"eth_accounts", "eth_sendTransaction"}, cfg.RestrictedMethods)
	assert.Equal(t, []string{"metamask_sendDomainMetadata"}, cfg.LogIgnoreMethods)
	assert.Len(t, cfg.PermittedAccounts, 2)
	assert.True(t, cfg.UsesDatabase())
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/1/notifications", cfg.SQSQueueURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.CORSAllowCredentials)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Len(t, cfg.OperatorAPIKeyHashes, 2)
	assert.True(t, cfg.SendsOperatorAlerts())
	assert.Equal(t, []string{"ops@example.com", "oncall@example.com"}, cfg.OperatorAlertEmails)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "non numeric port", env: map[string]string{"PORT": "http"}, wantErr: "invalid PORT"},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}, wantErr: "invalid PORT"},
		{name: "non numeric limit", env: map[string]string{"ACTIVITY_LOG_LIMIT": "many"}, wantErr: "invalid ACTIVITY_LOG_LIMIT"},
		{name: "zero limit", env: map[string]string{"ACTIVITY_LOG_LIMIT": "0"}, wantErr: "ACTIVITY_LOG_LIMIT must be positive"},
		{name: "unknown stage", env: map[string]string{"STAGE": "staging"}, wantErr: "invalid STAGE"},
		{name: "bad bool", env: map[string]string{"CORS_ALLOW_CREDENTIALS": "sometimes"}, wantErr: "invalid CORS_ALLOW_CREDENTIALS"},
		{name: "bad duration", env: map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, wantErr: "invalid SHUTDOWN_TIMEOUT"},
		{name: "prod without operator keys", env: map[string]string{"STAGE": "prod"}, wantErr: "OPERATOR_API_KEY_HASHES"},
		{name: "bad webhook url", env: map[string]string{"NOTIFY_WEBHOOK_URL": "hooks.example.com"}, wantErr: "invalid NOTIFY_WEBHOOK_URL"},
		{name: "zero rate", env: map[string]string{"RATE_LIMIT_RPS": "0"}, wantErr: "RATE_LIMIT_RPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromEnv(env(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
