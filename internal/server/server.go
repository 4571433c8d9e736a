// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/cyphera/cyphera-permissions/docs"
	"github.com/cyphera/cyphera-permissions/internal/auth"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/handlers"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Options configures the router
type Options struct {
	Stage               string
	AllowedOrigins      []string
	AllowCredentials    bool
	RateLimitRPS        int
	RateLimitBurst      int
	LogRequestBodies    bool
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration

	// OperatorKeys guards every route but health and rpc. Nil leaves them open.
	OperatorKeys *auth.KeySet
}

// Server owns the gin router and the HTTP listener
type Server struct {
	router  *gin.Engine
	limiter *middleware.RateLimiter
	opts    Options
	logger  *zap.Logger

	onShutdown []func()
}

// New builds the router with every route registered
func New(opts Options, common *handlers.CommonServices) *Server {
	if opts.Stage == constants.ProdEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	if opts.RateLimitRPS <= 0 || opts.RateLimitBurst <= 0 {
		opts.RateLimitRPS, opts.RateLimitBurst = 20, 40
	}
	if opts.ShutdownGracePeriod == 0 {
		opts.ShutdownGracePeriod = 10 * time.Second
	}

	s := &Server{
		router:  gin.New(),
		limiter: middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		opts:    opts,
		logger:  logger.ForComponent(logger.ComponentServer),
	}
	// origins are URL encoded into path segments
	s.router.UseRawPath = true
	s.router.UnescapePathValues = true

	s.routes(common)
	return s
}

func (s *Server) routes(common *handlers.CommonServices) {
	router := s.router
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(configureCORS(s.opts))
	router.Use(middleware.RequestLogger(s.opts.LogRequestBodies && s.opts.Stage != constants.ProdEnvironment))
	router.Use(s.limiter.Middleware())

	healthHandler := handlers.NewHealthHandler()
	rpcHandler := handlers.NewRPCHandler(common)
	approvalHandler := handlers.NewApprovalHandler(common)
	auditHandler := handlers.NewAuditHandler(common)
	permissionHandler := handlers.NewPermissionHandler(common)

	router.GET("/health", healthHandler.Health)
	if s.opts.Stage != constants.ProdEnvironment {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/rpc", rpcHandler.HandleRPC)

		operator := auth.EnsureOperator(s.opts.OperatorKeys)

		approvals := v1.Group("/approvals", operator)
		{
			approvals.GET("", approvalHandler.ListApprovals)
			approvals.GET("/:id", approvalHandler.GetApproval)
			approvals.POST("/:id/approve", approvalHandler.ApproveApproval)
			approvals.POST("/:id/reject", approvalHandler.RejectApproval)
		}

		audit := v1.Group("/audit", operator)
		{
			audit.GET("/activity", auditHandler.ListActivity)
			audit.GET("/history", auditHandler.GetHistory)
		}

		permissions := v1.Group("/permissions", operator)
		{
			permissions.GET("/:origin", permissionHandler.GetOriginPermissions)
			permissions.DELETE("/:origin", permissionHandler.RevokeOriginPermissions)
			permissions.POST("/:origin/accounts", permissionHandler.AddPermittedAccount)
			permissions.DELETE("/:origin/accounts/:address", permissionHandler.RemovePermittedAccount)
			permissions.DELETE("/:origin/chains/:chain_id", permissionHandler.RemovePermittedChain)
		}

		v1.DELETE("/accounts/:address", operator, permissionHandler.RemoveAccountEverywhere)
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// OnShutdown registers fn to run before in-flight requests are drained.
// Requests blocked on an approval only finish once fn releases them.
func (s *Server) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Server shutting down")
	for _, fn := range s.onShutdown {
		fn()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close releases background resources held by the middleware
func (s *Server) Close() {
	s.limiter.Stop()
}

// configureCORS returns a configured CORS middleware
func configureCORS(opts Options) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = opts.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.OriginHeader, middleware.CorrelationIDHeader, auth.APIKeyHeader}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.AllowCredentials = opts.AllowCredentials
	return cors.New(corsConfig)
}
