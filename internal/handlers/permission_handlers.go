package handlers

import (
	"net/http"
	"sort"

	"github.com/cyphera/cyphera-permissions/internal/caip25"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/gin-gonic/gin"
)

// PermissionHandler lets an operator inspect and trim the grants of an origin
type PermissionHandler struct {
	common *CommonServices
}

// NewPermissionHandler creates a new instance of PermissionHandler
func NewPermissionHandler(common *CommonServices) *PermissionHandler {
	return &PermissionHandler{common: common}
}

// OriginPermissionsResponse is everything an origin has been granted
type OriginPermissionsResponse struct {
	Object      string                `json:"object"`
	Origin      string                `json:"origin"`
	Permissions []business.Permission `json:"permissions"`
	Accounts    []string              `json:"accounts"`
	Session     *caip25.Authorization `json:"session,omitempty"`
}

// AddAccountRequest names the account to permit
type AddAccountRequest struct {
	Address string `json:"address" binding:"required"`
}

// RevokePermissionsRequest names the permissions to revoke. An empty list
// revokes everything the origin holds.
type RevokePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// GetOriginPermissions godoc
// @Summary Get an origin's permissions
// @Description Origins contain slashes, so the path parameter must be URL encoded
// @Tags permissions
// @Produce json
// @Param origin path string true "URL encoded origin"
// @Success 200 {object} OriginPermissionsResponse
// @Security ApiKeyAuth
// @Router /permissions/{origin} [get]
func (h *PermissionHandler) GetOriginPermissions(c *gin.Context) {
	ctx := c.Request.Context()
	origin := c.Param("origin")

	permissions, err := h.common.engine.GetPermissions(ctx, origin)
	if err != nil {
		handleServiceError(c, err, "Origin not found")
		return
	}
	accounts, err := h.common.engine.GetPermittedAccounts(ctx, origin)
	if err != nil {
		handleServiceError(c, err, "Origin not found")
		return
	}

	list := make([]business.Permission, 0, len(permissions))
	names := permissions.Names()
	sort.Strings(names)
	for _, name := range names {
		list = append(list, permissions[name])
	}
	if accounts == nil {
		accounts = []string{}
	}

	sendSuccess(c, http.StatusOK, OriginPermissionsResponse{
		Object:      "origin_permissions",
		Origin:      origin,
		Permissions: list,
		Accounts:    accounts,
		Session:     h.common.engine.GetSession(origin),
	})
}

// RevokeOriginPermissions godoc
// @Summary Revoke an origin's permissions
// @Tags permissions
// @Accept json
// @Produce json
// @Param origin path string true "URL encoded origin"
// @Param request body RevokePermissionsRequest false "Permissions to revoke"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /permissions/{origin} [delete]
func (h *PermissionHandler) RevokeOriginPermissions(c *gin.Context) {
	ctx := c.Request.Context()
	origin := c.Param("origin")

	var body RevokePermissionsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			sendError(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	names := body.Permissions
	if len(names) == 0 {
		permissions, err := h.common.engine.GetPermissions(ctx, origin)
		if err != nil {
			handleServiceError(c, err, "Origin not found")
			return
		}
		names = permissions.Names()
	}
	if len(names) == 0 {
		sendError(c, http.StatusNotFound, "Origin not found", nil)
		return
	}

	if err := h.common.engine.RevokePermissions(ctx, origin, names); err != nil {
		handleServiceError(c, err, "Origin not found")
		return
	}
	sendSuccessMessage(c, http.StatusOK, "Permissions revoked")
}

// AddPermittedAccount godoc
// @Summary Permit another account for an origin
// @Tags permissions
// @Accept json
// @Produce json
// @Param origin path string true "URL encoded origin"
// @Param request body AddAccountRequest true "Account to permit"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /permissions/{origin}/accounts [post]
func (h *PermissionHandler) AddPermittedAccount(c *gin.Context) {
	var body AddAccountRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.common.engine.AddPermittedAccount(c.Request.Context(), c.Param("origin"), body.Address); err != nil {
		handleServiceError(c, err, "Origin has no account permission")
		return
	}
	sendSuccessMessage(c, http.StatusOK, "Account permitted")
}

// RemovePermittedAccount godoc
// @Summary Remove an account from an origin
// @Description Revokes the account permission when it was the last account
// @Tags permissions
// @Produce json
// @Param origin path string true "URL encoded origin"
// @Param address path string true "Account address"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /permissions/{origin}/accounts/{address} [delete]
func (h *PermissionHandler) RemovePermittedAccount(c *gin.Context) {
	if err := h.common.engine.RemovePermittedAccount(c.Request.Context(), c.Param("origin"), c.Param("address")); err != nil {
		handleServiceError(c, err, "Origin has no account permission")
		return
	}
	sendSuccessMessage(c, http.StatusOK, "Account removed")
}

// RemovePermittedChain godoc
// @Summary Remove a chain from an origin
// @Tags permissions
// @Produce json
// @Param origin path string true "URL encoded origin"
// @Param chain_id path string true "CAIP-2 chain id"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /permissions/{origin}/chains/{chain_id} [delete]
func (h *PermissionHandler) RemovePermittedChain(c *gin.Context) {
	if err := h.common.engine.RemovePermittedChain(c.Request.Context(), c.Param("origin"), c.Param("chain_id")); err != nil {
		handleServiceError(c, err, "Origin not found")
		return
	}
	sendSuccessMessage(c, http.StatusOK, "Chain removed")
}

// RemoveAccountEverywhere godoc
// @Summary Remove an account from every origin
// @Description Used when an account leaves the wallet
// @Tags permissions
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} SuccessResponse
// @Security ApiKeyAuth
// @Router /accounts/{address} [delete]
func (h *PermissionHandler) RemoveAccountEverywhere(c *gin.Context) {
	if err := h.common.engine.RemoveAllAccountPermissions(c.Request.Context(), c.Param("address")); err != nil {
		handleServiceError(c, err, "Account not found")
		return
	}
	sendSuccessMessage(c, http.StatusOK, "Account removed from all origins")
}
