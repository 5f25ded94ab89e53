package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"room-status-backend/internal/ledger"
)

// ListAvailability handles GET /room: all rooms partitioned into inProgress
// and free.
func (h *Handler) ListAvailability(c *gin.Context) {
	availability, err := h.ledger.ListAvailability(c.Request.Context())
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

// GetRoom handles GET /rooms/{room_id}.
func (h *Handler) GetRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": "invalid room ID",
			"kind":    string(ledger.KindInvalidInput),
		})
		return
	}

	view, err := h.ledger.RoomView(c.Request.Context(), roomID)
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
