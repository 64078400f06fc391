package handlers

import (
	"net/http"
	"strconv"

	"canteen-api/middleware"
	"canteen-api/models"
	"canteen-api/services"

	"github.com/gin-gonic/gin"
)

type PlaceOrderRequest struct {
	CustomerName     string   `json:"customerName" binding:"required"`
	Items            []string `json:"items" binding:"required,min=1,dive,required"`
	Total            *int64   `json:"total"`
	DeliveryLocation string   `json:"deliveryLocation" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// PlaceOrder reserves stock and records the order. Signed-in callers get the
// order attached to their account.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Orders.PlaceOrder(c.Request.Context(), services.PlaceOrderInput{
		CustomerName:     req.CustomerName,
		Items:            req.Items,
		ClientTotal:      req.Total,
		DeliveryLocation: req.DeliveryLocation,
		UserID:           middleware.OptionalUserID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetOrderHistory lists the caller's orders, or another user's for staff
func (h *Handler) GetOrderHistory(c *gin.Context) {
	requested, ok := queryUserID(c)
	if !ok {
		return
	}
	userID, ok := actingUser(c, requested)
	if !ok {
		return
	}

	orders, err := h.Orders.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"count":   len(orders),
		"orders":  orders,
	})
}

// ListOrders returns the kitchen view of all orders with a per-status summary
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.Orders.ListOrders(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		h.respondError(c, err)
		return
	}

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

// UpdateOrderStatus moves an order to its next lifecycle state
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetUserID(c)
	order, err := h.Orders.AdvanceStatus(c.Request.Context(), uint(id), req.Status, &actor, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var previous models.OrderStatus
	if n := len(order.StatusHistory); n > 0 {
		previous = order.StatusHistory[n-1].FromStatus
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"order_id":        order.ID,
		"previous_status": previous,
		"current_status":  order.Status,
		"order":           order,
	})
}
