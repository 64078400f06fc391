package handlers

import (
	"io"
	"net/http"

	"canteen-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AddMenuItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Price    int64  `json:"price" binding:"gte=0"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

type SetAvailabilityRequest struct {
	Items []services.StockLevel `json:"items" binding:"required"`
}

// ListMenu returns the menu, filtered by ?category= and ?available=true
func (h *Handler) ListMenu(c *gin.Context) {
	items, err := h.Stock.ListMenu(c.Request.Context(), c.Query("category"), c.Query("available") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"menu":  items,
	})
}

// AddMenuItem creates a new menu entry (staff only)
func (h *Handler) AddMenuItem(c *gin.Context) {
	var req AddMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Stock.AddMenuItem(c.Request.Context(), services.NewMenuItem{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// SetAvailability replaces the stock of the whole menu (staff only)
func (h *Handler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Stock.SetAvailability(c.Request.Context(), req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Menu availability updated",
		"updated": res.Updated,
		"unknown": res.Unknown,
	})
}

// StreamMenu pushes menu changes to the client as server-sent events
func (h *Handler) StreamMenu(c *gin.Context) {
	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.Logger.Debug("menu stream opened", zap.Int("subscribers", h.Hub.Subscribers()))
	c.SSEvent("connected", gin.H{"subscribers": h.Hub.Subscribers()})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ctx.Done():
			return false
		}
	})
	h.Logger.Debug("menu stream closed")
}
