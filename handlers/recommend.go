package handlers

import (
	"net/http"
	"strconv"

	"canteen-api/middleware"

	"github.com/gin-gonic/gin"
)

// GetRecommendations suggests popular items the caller has not tried yet
func (h *Handler) GetRecommendations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
			return
		}
		limit = n
	}

	userID := middleware.OptionalUserID(c)
	recs, err := h.Recommendations.Recommend(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":          userID,
		"recommendations": recs,
	})
}
