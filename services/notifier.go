package services

import (
	"context"

	"canteen-api/models"
)

//go:generate mockgen -source=notifier.go -destination=mock_notifier_test.go -package=services

// OrderNotifier is told about order events after they are committed.
// Implementations must return quickly.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus)
}

type NopNotifier struct{}

func (NopNotifier) OrderPlaced(context.Context, *models.Order) {}

func (NopNotifier) OrderStatusChanged(context.Context, *models.Order, models.OrderStatus) {}
