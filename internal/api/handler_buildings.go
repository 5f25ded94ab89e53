package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-status-backend/internal/model"
)

// BuildingResponse represents the API response for a single building.
type BuildingResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	TotalRooms int64  `json:"total_rooms"`
	MaxFloor   int    `json:"max_floor"`
}

// GetBuildings handles the GET /buildings request.
func (h *Handler) GetBuildings(c *gin.Context) {
	buildings, err := h.store.ListBuildings(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve buildings"})
		return
	}

	type aggRow struct {
		BuildingCode string
		TotalRooms   int64
		MaxFloor     int
	}
	var aggs []aggRow
	if err := h.store.DB().WithContext(c.Request.Context()).
		Model(&model.Room{}).
		Select("building_code, COUNT(*) as total_rooms, COALESCE(MAX(floor), 0) as max_floor").
		Group("building_code").
		Scan(&aggs).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to aggregate rooms"})
		return
	}

	aggMap := make(map[string]aggRow, len(aggs))
	for _, a := range aggs {
		aggMap[a.BuildingCode] = a
	}

	responses := make([]BuildingResponse, 0, len(buildings))
	for _, b := range buildings {
		a := aggMap[b.Code] // zero value when the building has no rooms
		responses = append(responses, BuildingResponse{
			Code: b.Code, Name: b.Name,
			TotalRooms: a.TotalRooms, MaxFloor: a.MaxFloor,
		})
	}
	c.JSON(http.StatusOK, responses)
}
