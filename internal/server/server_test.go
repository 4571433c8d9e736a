package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cyphera/cyphera-permissions/internal/approvals"
	"github.com/cyphera/cyphera-permissions/internal/auth"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/handlers"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/middleware"
	"github.com/cyphera/cyphera-permissions/internal/rpc"
	"github.com/cyphera/cyphera-permissions/internal/server"
	"github.com/cyphera/cyphera-permissions/internal/services"
	"github.com/cyphera/cyphera-permissions/internal/store"
	"github.com/cyphera/cyphera-permissions/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, opts server.Options) *server.Server {
	t.Helper()

	directory, err := store.NewStaticAccountDirectory([]string{"eip155:1:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"})
	require.NoError(t, err)
	queue := approvals.NewQueue()
	t.Cleanup(queue.Close)

	engine := services.NewAuthorizationEngine(directory, queue, store.NewMemoryGrantStore())
	log := services.NewPermissionLogService(services.PermissionLogConfig{})
	common := handlers.NewCommonServices(engine, rpc.NewDispatcher(engine, log), queue, log)

	s := server.New(opts, common)
	t.Cleanup(s.Close)
	return s
}

func TestServer_Routes(t *testing.T) {
	s := newServer(t, server.Options{Stage: constants.TestEnvironment})
	escaped := url.PathEscape("https://dapp.example.com")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "approvals", method: http.MethodGet, path: "/api/v1/approvals", wantStatus: http.StatusOK},
		{name: "missing approval", method: http.MethodGet, path: "/api/v1/approvals/nope", wantStatus: http.StatusNotFound},
		{name: "activity", method: http.MethodGet, path: "/api/v1/audit/activity", wantStatus: http.StatusOK},
		{name: "history", method: http.MethodGet, path: "/api/v1/audit/history", wantStatus: http.StatusOK},
		{name: "permissions", method: http.MethodGet, path: "/api/v1/permissions/" + escaped, wantStatus: http.StatusOK},
		{name: "remove chain without grant", method: http.MethodDelete, path: "/api/v1/permissions/" + escaped + "/chains/eip155:1", wantStatus: http.StatusOK},
		{name: "invalid chain", method: http.MethodDelete, path: "/api/v1/permissions/" + escaped + "/chains/x", wantStatus: http.StatusBadRequest},
		{
			name:       "rpc",
			method:     http.MethodPost,
			path:       "/api/v1/rpc",
			body:       map[string]any{"jsonrpc": "2.0", "id": 1, "method": "eth_accounts", "origin": "https://dapp.example.com"},
			wantStatus: http.StatusOK,
		},
		{name: "swagger", method: http.MethodGet, path: "/swagger/doc.json", wantStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/unknown", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.PerformRequest(t, s.Handler(), tt.method, tt.path, tt.body, nil)
			testutil.AssertStatusCode(t, w, tt.wantStatus)
			assert.NotEmpty(t, w.Header().Get(middleware.CorrelationIDHeader))
		})
	}
}

func TestServer_CORS(t *testing.T) {
	s := newServer(t, server.Options{AllowedOrigins: []string{"https://admin.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/approvals", nil)
	req.Header.Set("Origin", "https://admin.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/approvals", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServer_RateLimit(t *testing.T) {
	s := newServer(t, server.Options{RateLimitRPS: 1, RateLimitBurst: 1})
	headers := map[string]string{middleware.OriginHeader: "https://dapp.example.com"}

	w := testutil.PerformRequest(t, s.Handler(), http.MethodGet, "/api/v1/approvals", nil, headers)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	w = testutil.PerformRequest(t, s.Handler(), http.MethodGet, "/api/v1/approvals", nil, headers)
	testutil.AssertStatusCode(t, w, http.StatusTooManyRequests)
}

func TestServer_RunShutsDownOnCancel(t *testing.T) {
	s := newServer(t, server.Options{})
	ctx, cancel := context.WithCancel(context.Background())

	hooked := make(chan struct{}, 1)
	s.OnShutdown(func() { hooked <- struct{}{} })

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	err := testutil.RequireReceive(t, done, testutil.DefaultTimeout, "server did not stop")
	assert.NoError(t, err)
	testutil.RequireReceive(t, hooked, testutil.DefaultTimeout, "shutdown hook not run")
}

func TestServer_OperatorAuth(t *testing.T) {
	hash, err := auth.HashAPIKey("operator-key")
	require.NoError(t, err)
	keys, err := auth.NewKeySet([]string{hash})
	require.NoError(t, err)
	s := newServer(t, server.Options{OperatorKeys: keys})

	tests := []struct {
		name       string
		method     string
		path       string
		key        string
		body       any
		wantStatus int
	}{
		{name: "health is open", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{
			name:       "rpc is open",
			method:     http.MethodPost,
			path:       "/api/v1/rpc",
			body:       map[string]any{"jsonrpc": "2.0", "id": 1, "method": "eth_accounts", "origin": "https://dapp.example.com"},
			wantStatus: http.StatusOK,
		},
		{name: "approvals without key", method: http.MethodGet, path: "/api/v1/approvals", wantStatus: http.StatusUnauthorized},
		{name: "approvals with key", method: http.MethodGet, path: "/api/v1/approvals", key: "operator-key", wantStatus: http.StatusOK},
		{name: "audit with wrong key", method: http.MethodGet, path: "/api/v1/audit/activity", key: "nope", wantStatus: http.StatusUnauthorized},
		{name: "account removal without key", method: http.MethodDelete, path: "/api/v1/accounts/0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.key != "" {
				headers[auth.APIKeyHeader] = tt.key
			}
			w := testutil.PerformRequest(t, s.Handler(), tt.method, tt.path, tt.body, headers)
			testutil.AssertStatusCode(t, w, tt.wantStatus)
		})
	}
}

func TestServer_SwaggerHiddenInProd(t *testing.T) {
	s := newServer(t, server.Options{Stage: constants.ProdEnvironment})
	w := testutil.PerformRequest(t, s.Handler(), http.MethodGet, "/swagger/doc.json", nil, nil)
	testutil.AssertStatusCode(t, w, http.StatusNotFound)
}
