package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RefreshStatuses handles GET /api/status/refresh (and its legacy alias
// GET /update-room-status): re-derives every room's status from the schedule
// without touching occupancy counts.
func (h *Handler) RefreshStatuses(c *gin.Context) {
	updated, err := h.ledger.Refresh(c.Request.Context())
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK", "updated": updated})
}
