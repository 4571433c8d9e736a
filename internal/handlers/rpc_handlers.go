package handlers

import (
	"net/http"

	"github.com/cyphera/cyphera-permissions/internal/helpers"
	"github.com/cyphera/cyphera-permissions/internal/middleware"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/gin-gonic/gin"
)

// RPCHandler accepts JSON-RPC requests from origins
type RPCHandler struct {
	common *CommonServices
}

// NewRPCHandler creates a new instance of RPCHandler
func NewRPCHandler(common *CommonServices) *RPCHandler {
	return &RPCHandler{common: common}
}

// HandleRPC godoc
// @Summary Submit a JSON-RPC request
// @Description Runs a permission method for the origin named by the X-Origin header or the body. Permission requests block until an operator decides on them.
// @Tags rpc
// @Accept json
// @Produce json
// @Param X-Origin header string false "Requesting origin"
// @Param request body business.RPCRequest true "JSON-RPC request"
// @Success 200 {object} business.RPCResponse
// @Failure 400 {object} ErrorResponse
// @Router /rpc [post]
func (h *RPCHandler) HandleRPC(c *gin.Context) {
	var req business.RPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON-RPC request", err)
		return
	}

	if origin := c.GetHeader(middleware.OriginHeader); origin != "" {
		req.Origin = origin
	}
	if !helpers.IsOriginValid(req.Origin) {
		sendError(c, http.StatusBadRequest, "A valid origin is required", nil)
		return
	}
	if req.JSONRPC == "" {
		req.JSONRPC = "2.0"
	}

	sendSuccess(c, http.StatusOK, h.common.dispatcher.Dispatch(c.Request.Context(), req))
}
