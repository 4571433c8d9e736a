package handlers

import (
	"net/http"

	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the activity log and permission history
type AuditHandler struct {
	common *CommonServices
}

// NewAuditHandler creates a new instance of AuditHandler
func NewAuditHandler(common *CommonServices) *AuditHandler {
	return &AuditHandler{common: common}
}

// ListActivity godoc
// @Summary List recorded activity
// @Description Lists logged requests oldest first. Filter by origin with the origin query parameter.
// @Tags audit
// @Produce json
// @Param origin query string false "Only entries from this origin"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /audit/activity [get]
func (h *AuditHandler) ListActivity(c *gin.Context) {
	entries := h.common.audit.GetActivityLog()
	if origin := c.Query("origin"); origin != "" {
		filtered := make([]business.ActivityLogEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.Origin == origin {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	sendList(c, entries)
}

// GetHistory godoc
// @Summary Get permission history
// @Description Returns when each permission and account was last approved per origin
// @Tags audit
// @Produce json
// @Param origin query string false "Only history for this origin"
// @Success 200 {object} business.PermissionHistory
// @Security ApiKeyAuth
// @Router /audit/history [get]
func (h *AuditHandler) GetHistory(c *gin.Context) {
	history := h.common.audit.GetHistory()
	if origin := c.Query("origin"); origin != "" {
		entry, ok := history[origin]
		if !ok {
			entry = business.OriginHistory{}
		}
		history = business.PermissionHistory{origin: entry}
	}
	sendSuccess(c, http.StatusOK, history)
}
