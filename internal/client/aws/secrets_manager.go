package aws

//go:generate mockgen -destination=../../mocks/mock_secretsmanager.go -package=mocks github.com/cyphera/cyphera-permissions/internal/client/aws SecretsManagerAPI

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"go.uber.org/zap"
)

// SecretsManagerAPI is the part of the Secrets Manager client used here
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerClient wraps the AWS Secrets Manager client.
type SecretsManagerClient struct {
	svc    SecretsManagerAPI
	logger *zap.Logger
}

// NewSecretsManagerClient creates a client from the default AWS configuration
// chain (environment variables, shared config, IAM role).
func NewSecretsManagerClient(ctx context.Context) (*SecretsManagerClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewSecretsManagerClientWithAPI(secretsmanager.NewFromConfig(cfg)), nil
}

// NewSecretsManagerClientWithAPI wraps an existing Secrets Manager API
func NewSecretsManagerClientWithAPI(svc SecretsManagerAPI) *SecretsManagerClient {
	return &SecretsManagerClient{
		svc:    svc,
		logger: logger.ForComponent(logger.ComponentConfig),
	}
}

// GetSecretString fetches the secret stored under secretArn. When the ARN is
// empty or the fetch fails it falls back to fallback. It fails only when
// both are empty.
func (c *SecretsManagerClient) GetSecretString(ctx context.Context, secretArn, fallback string) (string, error) {
	if secretArn != "" {
		value, err := c.fetch(ctx, secretArn)
		if err == nil && value != "" {
			c.logger.Info("Fetched secret from Secrets Manager", zap.String("secret_arn", secretArn))
			return value, nil
		}
		c.logger.Warn("Failed to retrieve secret from Secrets Manager, falling back",
			zap.String("secret_arn", secretArn),
			zap.Error(err))
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("secret not found in Secrets Manager (%q) and no fallback value set", secretArn)
}

// rdsSecret is the JSON layout of an RDS managed database secret
type rdsSecret struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"dbname"`
	Engine   string `json:"engine"`
}

// GetDatabaseURL resolves a Postgres connection string. The secret may hold a
// plain DSN or an RDS JSON secret, which is turned into a postgres:// URL.
func (c *SecretsManagerClient) GetDatabaseURL(ctx context.Context, secretArn, fallback string) (string, error) {
	value, err := c.GetSecretString(ctx, secretArn, fallback)
	if err != nil {
		return "", err
	}

	var secret rdsSecret
	if json.Unmarshal([]byte(value), &secret) != nil || secret.Host == "" {
		return value, nil
	}
	return secret.url(), nil
}

func (s rdsSecret) url() string {
	port := s.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.Username, s.Password),
		Host:     net.JoinHostPort(s.Host, strconv.Itoa(port)),
		Path:     "/" + s.DBName,
		RawQuery: "sslmode=require",
	}
	return u.String()
}

func (c *SecretsManagerClient) fetch(ctx context.Context, secretArn string) (string, error) {
	result, err := c.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretArn),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret value: %w", err)
	}
	return aws.ToString(result.SecretString), nil
}
