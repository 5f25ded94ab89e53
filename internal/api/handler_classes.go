package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"room-status-backend/internal/ledger"
	"room-status-backend/internal/model"
	"room-status-backend/internal/schedule"
)

type createClassRequest struct {
	RoomID     int64    `json:"room_id" binding:"required"`
	ClassName  string   `json:"class_name" binding:"required"`
	DayPattern string   `json:"day_pattern" binding:"required"`
	CustomDays []string `json:"custom_days"`
	StartTime  string   `json:"start_time" binding:"required"`
	EndTime    string   `json:"end_time" binding:"required"`
}

// ListClasses handles GET /api/regular-classes.
func (h *Handler) ListClasses(c *gin.Context) {
	views, err := h.store.ListBlocks(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve classes"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateClass handles POST /api/regular-classes.
func (h *Handler) CreateClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": err.Error(),
			"kind":    string(ledger.KindInvalidInput),
		})
		return
	}

	block := model.ClassBlock{
		RoomID:     req.RoomID,
		ClassName:  req.ClassName,
		DayPattern: req.DayPattern,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if req.DayPattern == model.PatternCustom {
		days, err := schedule.NormalizeCustomDays(req.CustomDays)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"message": err.Error(),
				"kind":    string(ledger.KindInvalidInput),
			})
			return
		}
		block.CustomDays = days
	}

	if err := h.ledger.CreateBlock(c.Request.Context(), &block); err != nil {
		abortWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "OK", "id": block.ID})
}

// DeleteClass handles DELETE /api/regular-classes/{class_id}.
func (h *Handler) DeleteClass(c *gin.Context) {
	classID, err := strconv.ParseInt(c.Param("class_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": "invalid class ID",
			"kind":    string(ledger.KindInvalidInput),
		})
		return
	}

	if err := h.ledger.DeleteBlock(c.Request.Context(), classID); err != nil {
		abortWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}
