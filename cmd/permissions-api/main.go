package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/cyphera/cyphera-permissions/internal/approvals"
	"github.com/cyphera/cyphera-permissions/internal/auth"
	awsclient "github.com/cyphera/cyphera-permissions/internal/client/aws"
	httpclient "github.com/cyphera/cyphera-permissions/internal/client/http"
	"github.com/cyphera/cyphera-permissions/internal/config"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/db"
	"github.com/cyphera/cyphera-permissions/internal/handlers"
	"github.com/cyphera/cyphera-permissions/internal/interfaces"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/notify"
	"github.com/cyphera/cyphera-permissions/internal/rpc"
	"github.com/cyphera/cyphera-permissions/internal/server"
	"github.com/cyphera/cyphera-permissions/internal/services"
	"github.com/cyphera/cyphera-permissions/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// @title           Cyphera Permissions API
// @version         1.0
// @description     Grants, approves and audits origin permissions across chains
// @BasePath        /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger.InitLoggerWithConfig(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Stage:       cfg.Stage,
		EnableJSON:  cfg.Stage == constants.ProdEnvironment,
		EnableColor: cfg.Stage != constants.ProdEnvironment,
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("Permissions API stopped with an error", zap.Error(err))
	}
	logger.Info("Permissions API stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	directory, err := store.NewStaticAccountDirectory(cfg.PermittedAccounts)
	if err != nil {
		return fmt.Errorf("invalid PERMITTED_ACCOUNTS: %w", err)
	}

	operatorKeys, err := auth.NewKeySet(cfg.OperatorAPIKeyHashes)
	if err != nil {
		return fmt.Errorf("invalid OPERATOR_API_KEY_HASHES: %w", err)
	}
	if !operatorKeys.Enabled() {
		logger.Warn("No operator API keys configured, operator routes are unauthenticated")
	}

	var storeOpts []store.Option
	if cfg.UsesDatabase() {
		pool, err := newPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		storeOpts = append(storeOpts, store.WithPersister(store.NewPostgresPersister(db.New(pool))))
	}
	grants := store.NewMemoryGrantStore(storeOpts...)
	startup := logger.NewStructuredLogger(logger.ComponentStore).WithField("persistence", cfg.UsesDatabase())
	if err := startup.LogOperation("load_grants", func() error { return grants.Load(ctx) }); err != nil {
		return err
	}

	notifier, err := newNotifier(ctx, cfg)
	if err != nil {
		return err
	}

	logService := services.NewPermissionLogService(services.PermissionLogConfig{
		Limit:             cfg.ActivityLogLimit,
		RestrictedMethods: cfg.RestrictedMethods,
		IgnoreMethods:     cfg.LogIgnoreMethods,
	})
	notifications := services.NewNotificationService(notifier, logService)
	notifications.SetBaseline(grants.AuthorizationSnapshot())

	var queueOpts []approvals.Option
	if cfg.SendsOperatorAlerts() {
		mailer := notify.NewOperatorMailer(notify.NewResendClient(cfg.ResendAPIKey), cfg.AlertFromEmail, cfg.OperatorAlertEmails, cfg.ApprovalReviewURL)
		queueOpts = append(queueOpts, approvals.WithListener(mailer))
	}
	queue := approvals.NewQueue(queueOpts...)
	engine := services.NewAuthorizationEngine(directory, queue, grants, services.WithObserver(notifications))
	dispatcher := rpc.NewDispatcher(engine, logService)

	srv := server.New(server.Options{
		Stage:               cfg.Stage,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		AllowCredentials:    cfg.CORSAllowCredentials,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		LogRequestBodies:    cfg.LogRequestBodies,
		ShutdownGracePeriod: cfg.ShutdownTimeout,
		OperatorKeys:        operatorKeys,
	}, handlers.NewCommonServices(engine, dispatcher, queue, logService))
	defer srv.Close()
	srv.OnShutdown(engine.RejectAllPending)

	logger.Info("Permissions API starting",
		zap.String("stage", cfg.Stage),
		zap.String("addr", cfg.Addr()),
		zap.Int("accounts", len(cfg.PermittedAccounts)),
		zap.Bool("persistence", cfg.UsesDatabase()),
		zap.Bool("sqs_notifications", cfg.SQSQueueURL != ""),
		zap.Bool("webhook_notifications", cfg.WebhookURL != ""),
		zap.Bool("operator_alerts", cfg.SendsOperatorAlerts()))

	err = srv.Run(ctx, cfg.Addr())
	queue.Close()

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if flushErr := notifications.Flush(flushCtx); flushErr != nil {
		logger.Warn("Pending notifications dropped at shutdown", zap.Error(flushErr))
	}
	return err
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dbURL := cfg.DatabaseURL
	if cfg.DatabaseURLArn != "" {
		secrets, err := awsclient.NewSecretsManagerClient(ctx)
		if err != nil {
			return nil, err
		}
		dbURL, err = secrets.GetDatabaseURL(ctx, cfg.DatabaseURLArn, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database url: %w", err)
		}
	}

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database connection string: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return pool, nil
}

func newNotifier(ctx context.Context, cfg *config.Config) (interfaces.Notifier, error) {
	notifiers := []interfaces.Notifier{notify.NewLogNotifier()}
	if cfg.SQSQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		notifiers = append(notifiers, notify.NewSQSNotifier(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL))
	}
	if cfg.WebhookURL != "" {
		client := httpclient.NewHTTPClient(httpclient.WithTimeout(5 * time.Second))
		notifiers = append(notifiers, notify.NewWebhookNotifier(client, cfg.WebhookURL, cfg.WebhookToken))
	}
	return notify.NewMultiNotifier(notifiers...), nil
}
