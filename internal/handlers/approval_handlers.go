package handlers

import (
	"errors"
	"maps"
	"net/http"
	"slices"

	"github.com/cyphera/cyphera-permissions/internal/approvals"
	"github.com/cyphera/cyphera-permissions/internal/constants"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/middleware"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/gin-gonic/gin"
)

// ApprovalHandler lets an operator decide on pending permission requests
type ApprovalHandler struct {
	common *CommonServices
}

// NewApprovalHandler creates a new instance of ApprovalHandler
func NewApprovalHandler(common *CommonServices) *ApprovalHandler {
	return &ApprovalHandler{common: common}
}

// ApproveRequest is the operator's decision. Omitted permissions approve what
// was requested. Accounts may be omitted when the approved permissions need
// none or already name them.
type ApproveRequest struct {
	Permissions business.RequestedPermissions `json:"permissions,omitempty"`
	Accounts    []string                      `json:"accounts"`
	ChainIDs    []string                      `json:"chainIds,omitempty"`
}

// ListApprovals godoc
// @Summary List pending approvals
// @Description Lists the permission requests waiting for a decision, oldest first
// @Tags approvals
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /approvals [get]
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	sendList(c, h.common.approvals.List())
}

// GetApproval godoc
// @Summary Get a pending approval
// @Tags approvals
// @Produce json
// @Param id path string true "Approval request ID"
// @Success 200 {object} business.ApprovalRequest
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /approvals/{id} [get]
func (h *ApprovalHandler) GetApproval(c *gin.Context) {
	req, ok := h.common.approvals.Get(c.Param("id"))
	if !ok {
		sendError(c, http.StatusNotFound, "Approval request not found", nil)
		return
	}
	sendSuccess(c, http.StatusOK, req)
}

// ApproveApproval godoc
// @Summary Approve a pending request
// @Description Approves the request with the given accounts. Accounts are checked against the account directory before the request is released, and are only required when an approved eth_accounts permission names none.
// @Tags approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval request ID"
// @Param decision body ApproveRequest true "Approved accounts and permissions"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /approvals/{id}/approve [post]
func (h *ApprovalHandler) ApproveApproval(c *gin.Context) {
	id := c.Param("id")

	var body ApproveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	pending, ok := h.common.approvals.Get(id)
	if !ok {
		sendError(c, http.StatusNotFound, "Approval request not found", nil)
		return
	}
	approved := body.Permissions
	if approved == nil {
		approved = pending.RequestData.Permissions
	}
	for name := range approved {
		if _, ok := pending.RequestData.Permissions[name]; !ok {
			sendError(c, http.StatusBadRequest, "Approved permission "+name+" was not requested", nil)
			return
		}
	}
	if len(body.Accounts) > 0 || needsApprovedAccounts(approved) {
		if err := h.common.engine.ValidatePermittedAccounts(c.Request.Context(), body.Accounts); err != nil {
			handleServiceError(c, err, "Account not found")
			return
		}
	}

	err := h.common.approvals.Approve(id, business.ApprovalResult{
		Permissions: body.Permissions,
		Accounts:    body.Accounts,
		ChainIDs:    body.ChainIDs,
	})
	if errors.Is(err, approvals.ErrRequestNotFound) {
		sendError(c, http.StatusNotFound, "Approval request not found", err)
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to approve request", err)
		return
	}
	recordDecision(c, pending, "approved")
	sendSuccessMessage(c, http.StatusOK, "Approval request approved")
}

// RejectApproval godoc
// @Summary Reject a pending request
// @Tags approvals
// @Produce json
// @Param id path string true "Approval request ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /approvals/{id}/reject [post]
func (h *ApprovalHandler) RejectApproval(c *gin.Context) {
	id := c.Param("id")
	pending, _ := h.common.approvals.Get(id)

	err := h.common.approvals.Reject(id)
	if errors.Is(err, approvals.ErrRequestNotFound) {
		sendError(c, http.StatusNotFound, "Approval request not found", err)
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to reject request", err)
		return
	}
	recordDecision(c, pending, "rejected")
	sendSuccessMessage(c, http.StatusOK, "Approval request rejected")
}

// needsApprovedAccounts reports whether approving permissions requires the
// operator to pick accounts
func needsApprovedAccounts(permissions business.RequestedPermissions) bool {
	permission, ok := permissions[constants.PermissionEthAccounts]
	if !ok {
		return false
	}
	caveat, ok := permission.FindCaveat(constants.CaveatRestrictReturnedAccounts)
	if !ok {
		return true
	}
	accounts, _ := caveat.StringValues()
	return len(accounts) == 0
}

func recordDecision(c *gin.Context, req business.ApprovalRequest, decision string) {
	logger.NewStructuredLogger(logger.ComponentApprovals).
		WithCorrelationID(middleware.GetCorrelationID(c)).
		WithFields(map[string]interface{}{
			"auth_type":   c.GetString("authType"),
			"permissions": slices.Sorted(maps.Keys(req.RequestData.Permissions)),
		}).
		LogApprovalEvent(req.ID, req.Origin, decision)
}
