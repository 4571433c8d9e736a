package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/middleware"
	"github.com/cyphera/cyphera-permissions/internal/rpcerrors"
	"github.com/cyphera/cyphera-permissions/internal/store"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RPCDispatcher handles one JSON-RPC request from an origin
type RPCDispatcher interface {
	Dispatch(ctx context.Context, req business.RPCRequest) business.RPCResponse
}

// ApprovalQueue exposes the requests waiting for an operator decision
type ApprovalQueue interface {
	List() []business.ApprovalRequest
	Get(id string) (business.ApprovalRequest, bool)
	Approve(id string, result business.ApprovalResult) error
	Reject(id string) error
}

// AuditLog exposes the recorded activity and permission history
type AuditLog interface {
	GetActivityLog() []business.ActivityLogEntry
	GetHistory() business.PermissionHistory
}

// PermissionEngine is the engine surface used by the admin routes
type PermissionEngine interface {
	GetPermissions(ctx context.Context, origin string) (business.SubjectPermissions, error)
	GetPermittedAccounts(ctx context.Context, origin string) ([]string, error)
	GetSession(origin string) *caip25.Authorization
	ValidatePermittedAccounts(ctx context.Context, accounts []string) error
	AddPermittedAccount(ctx context.Context, origin, address string) error
	RemovePermittedAccount(ctx context.Context, origin, address string) error
	RemoveAllAccountPermissions(ctx context.Context, address string) error
	RemovePermittedChain(ctx context.Context, origin, chainID string) error
	RevokePermissions(ctx context.Context, origin string, names []string) error
}

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	engine     PermissionEngine
	dispatcher RPCDispatcher
	approvals  ApprovalQueue
	audit      AuditLog
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(engine PermissionEngine, dispatcher RPCDispatcher, approvals ApprovalQueue, audit AuditLog) *CommonServices {
	return &CommonServices{
		engine:     engine,
		dispatcher: dispatcher,
		approvals:  approvals,
		audit:      audit,
	}
}

// sendError logs err with the request's correlation id and sends a JSON
// error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	log := middleware.LoggerFromContext(c.Request.Context())
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Debug(message, fields...)
	}
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// handleServiceError maps engine and store errors to HTTP status codes
func handleServiceError(c *gin.Context, err error, notFoundMsg string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, store.ErrSubjectNotFound),
		errors.Is(err, store.ErrPermissionNotFound),
		errors.Is(err, store.ErrCaveatNotFound):
		sendError(c, http.StatusNotFound, notFoundMsg, err)
		return
	}

	var rpcErr *rpcerrors.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case rpcerrors.CodeInvalidParams:
			sendError(c, http.StatusBadRequest, rpcErr.Message, err)
			return
		case rpcerrors.CodeUnauthorized:
			sendError(c, http.StatusForbidden, rpcErr.Message, err)
			return
		case rpcerrors.CodeResourceUnavailable:
			sendError(c, http.StatusConflict, rpcErr.Message, err)
			return
		}
	}
	sendError(c, http.StatusInternalServerError, "Internal server error", err)
}

// sendSuccess sends data as the response body
func sendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

// sendSuccessMessage sends a success message
func sendSuccessMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, SuccessResponse{Message: message})
}

// sendList sends a list response
func sendList(c *gin.Context, items any) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}
