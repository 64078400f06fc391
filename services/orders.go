package services

import (
	"context"
	"errors"
	"strings"

	"canteen-api/models"
	"canteen-api/statemachine"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PlaceOrderInput struct {
	CustomerName     string
	Items            []string // one entry per unit; duplicates mean several units
	ClientTotal      *int64   // informational only, the stored total is computed from menu prices
	DeliveryLocation string
	UserID           *uint // nil for anonymous orders
}

type OrderService struct {
	db       *gorm.DB
	stock    *StockService
	notifier OrderNotifier
	logger   *zap.Logger
}

func NewOrderService(db *gorm.DB, stock *StockService, notifier OrderNotifier, logger *zap.Logger) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{db: db, stock: stock, notifier: notifier, logger: logger}
}

// PlaceOrder reserves every requested unit and records the order in the same
// transaction. Either all stock is taken and the order exists, or nothing changed.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.DeliveryLocation = strings.TrimSpace(in.DeliveryLocation)
	switch {
	case in.CustomerName == "":
		return nil, validationf("customer name is required")
	case in.DeliveryLocation == "":
		return nil, validationf("delivery location is required")
	case len(in.Items) == 0:
		return nil, validationf("at least one item is required")
	}

	var (
		order       models.Order
		reservation *Reservation
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.UserID != nil {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", *in.UserID).Count(&count).Error; err != nil {
				return storage("check user", err)
			}
			if count == 0 {
				return ErrUserNotFound
			}
		}

		r, err := s.stock.Reserve(tx, in.Items)
		if err != nil {
			return err
		}
		reservation = r

		items := make([]models.OrderItem, len(r.Units))
		for i, u := range r.Units {
			items[i] = models.OrderItem{Position: i, Name: u.Name, Price: u.Price}
		}
		order = models.Order{
			CustomerName:     in.CustomerName,
			UserID:           in.UserID,
			Items:            items,
			Total:            r.Total(),
			DeliveryLocation: in.DeliveryLocation,
			Status:           models.StatusPreparing,
		}
		if err := tx.Create(&order).Error; err != nil {
			return storage("create order", err)
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPreparing,
			ChangedBy: in.UserID,
			Note:      "Order placed",
		}
		if err := tx.Create(&history).Error; err != nil {
			return storage("record status history", err)
		}
		order.StatusHistory = []models.OrderStatusHistory{history}
		return nil
	})
	if err != nil {
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			s.logger.Info("order rejected", zap.String("item", oos.Item), zap.String("reason", "out of stock"))
		}
		return nil, err
	}

	if in.ClientTotal != nil && *in.ClientTotal != order.Total {
		s.logger.Warn("client total differs from menu prices",
			zap.Uint("order_id", order.ID),
			zap.Int64("client_total", *in.ClientTotal),
			zap.Int64("total", order.Total))
	}
	s.logger.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Int("units", len(order.Items)),
		zap.Int64("total", order.Total))

	s.stock.publisher.PublishMenu(reservation.Touched)
	s.notifier.OrderPlaced(ctx, &order)
	return &order, nil
}

// AdvanceStatus moves an order one step forward through the lifecycle
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uint, to models.OrderStatus, actorID *uint, note string) (*models.Order, error) {
	if !to.Valid() {
		return nil, validationf("unknown status %q", to)
	}

	var (
		order models.Order
		from  models.OrderStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return storage("load order", err)
		}
		from = order.Status

		if err := statemachine.CanTransition(from, to); err != nil {
			return &TransitionError{
				Current:   from,
				Requested: to,
				Valid:     statemachine.ValidTransitionsFrom(from),
				Reason:    err.Error(),
			}
		}

		// only applies if nobody moved the order since we read it
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, from).
			Update("status", to)
		if res.Error != nil {
			return storage("update order status", res.Error)
		}
		if res.RowsAffected == 0 {
			return &TransitionError{
				Current:   from,
				Requested: to,
				Valid:     statemachine.ValidTransitionsFrom(from),
				Reason:    "order status changed concurrently",
			}
		}

		history := models.OrderStatusHistory{
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  actorID,
			Note:       note,
		}
		if err := tx.Create(&history).Error; err != nil {
			return storage("record status history", err)
		}
		return preloadOrder(tx).First(&order, orderID).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.Uint("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	s.notifier.OrderStatusChanged(ctx, &order, from)
	return &order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := preloadOrder(s.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, storage("load order", err)
	}
	return &order, nil
}

// ListOrders returns all orders, newest first, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	query := preloadOrder(s.db.WithContext(ctx))
	if status != "" {
		if !status.Valid() {
			return nil, validationf("unknown status %q", status)
		}
		query = query.Where("status = ?", status)
	}
	return s.find(query)
}

// ListOrdersForUser returns the user's orders, newest first. A user without
// orders gets an empty list.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.find(preloadOrder(s.db.WithContext(ctx)).Where("user_id = ?", userID))
}

func (s *OrderService) find(query *gorm.DB) ([]models.Order, error) {
	orders := []models.Order{}
	if err := query.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, storage("list orders", err)
	}
	return orders, nil
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}
