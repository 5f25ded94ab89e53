package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"room-status-backend/internal/ledger"
)

type recordEventRequest struct {
	DeltaCount *int   `json:"delta_count"`
	Source     string `json:"source"`
	EventKey   string `json:"event_key"`
}

// RecordEvent handles POST /api/rooms/{room_id}/events.
func (h *Handler) RecordEvent(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": "invalid room ID",
			"kind":    string(ledger.KindInvalidInput),
		})
		return
	}

	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Covers missing bodies and non-integer delta_count values alike.
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": "delta_count must be a nonzero integer and source must be set",
			"kind":    string(ledger.KindInvalidInput),
		})
		return
	}

	view, err := h.ledger.RecordEvent(c.Request.Context(), ledger.EventRequest{
		RoomID:   roomID,
		Delta:    req.DeltaCount,
		Source:   req.Source,
		EventKey: req.EventKey,
	})
	if err != nil {
		abortWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK", "room": view})
}
