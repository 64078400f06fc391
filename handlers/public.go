package handlers

import (
	"net/http"

	"canteen-api/models"
	"canteen-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Canteen Ordering API",
		"version": "1.0.0",
	})
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Canteen Ordering API",
		"docs":    "/api/state-machine",
		"health":  "/health",
		"roles":   []models.UserRole{models.RoleStudent, models.RoleStaff, models.RoleAdmin},
	})
}

// GetStateMachineInfo returns the full state machine for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, s := range []models.OrderStatus{models.StatusPreparing, models.StatusReady, models.StatusPickup} {
		if statemachine.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"initial_state":   models.StatusPreparing,
		"terminal_states": terminal,
		"description":     "Canteen Order Lifecycle State Machine",
	})
}
