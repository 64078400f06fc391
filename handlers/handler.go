package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"canteen-api/broadcast"
	"canteen-api/logging"
	"canteen-api/middleware"
	"canteen-api/models"
	"canteen-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP API
type Handler struct {
	Stock           *services.StockService
	Orders          *services.OrderService
	Wallet          *services.WalletService
	Users           *services.UserService
	Recommendations *services.RecommendationService
	Hub             *broadcast.Hub
	Tokens          *middleware.TokenIssuer
	Logger          *zap.Logger
}

// respondError maps service errors onto HTTP responses
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		oos          *services.OutOfStockError
		insufficient *services.InsufficientFundsError
		transition   *services.TransitionError
		throttled    *services.ThrottledError
	)
	switch {
	case errors.As(err, &oos):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item out of stock", "item": oos.Item})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Insufficient funds",
			"current":   insufficient.Current,
			"requested": insufficient.Requested,
		})
	case errors.As(err, &transition):
		valid := transition.Valid
		if valid == nil {
			valid = []models.OrderStatus{}
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    transition.Current,
			"requested":         transition.Requested,
			"reason":            transition.Reason,
			"valid_next_states": valid,
		})
	case errors.As(err, &throttled):
		secs := int(throttled.RetryAfter.Seconds())
		c.Header("Retry-After", strconv.Itoa(secs))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": throttled.Error(), "retry_after": secs})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		h.Logger.Error("request failed",
			zap.String("request_id", c.GetString(logging.RequestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// actingUser resolves the user a request acts on. Callers act on themselves
// unless they are staff.
func actingUser(c *gin.Context, requested *uint) (uint, bool) {
	caller := middleware.GetUserID(c)
	if requested == nil || *requested == caller {
		return caller, true
	}
	if !middleware.GetRole(c).IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied. Only staff may act on other users"})
		return 0, false
	}
	return *requested, true
}

// queryUserID parses the optional ?userId= parameter
func queryUserID(c *gin.Context) (*uint, bool) {
	raw := c.Query("userId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid userId"})
		return nil, false
	}
	uid := uint(id)
	return &uid, true
}
