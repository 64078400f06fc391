package models

import "time"

// OrderStatus represents the canteen order lifecycle
type OrderStatus string

const (
	StatusPreparing OrderStatus = "Preparing"
	StatusReady     OrderStatus = "Ready"
	StatusPickup    OrderStatus = "Pickup"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPreparing, StatusReady, StatusPickup:
		return true
	}
	return false
}

type Order struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	CustomerName     string               `json:"customer_name" gorm:"not null"`
	UserID           *uint                `json:"user_id" gorm:"index"`
	Items            []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	Total            int64                `json:"total" gorm:"not null"`
	DeliveryLocation string               `json:"delivery_location" gorm:"not null"`
	Status           OrderStatus          `json:"status" gorm:"not null;default:'Preparing';index"`
	StatusHistory    []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time            `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// OrderItem is one unit of demand. Items reference the menu by name, not by key,
// so renamed or removed menu entries do not break old orders.
type OrderItem struct {
	ID       uint   `json:"-" gorm:"primaryKey"`
	OrderID  uint   `json:"-" gorm:"not null;index"`
	Position int    `json:"-" gorm:"not null"`
	Name     string `json:"name" gorm:"not null;index"`
	Price    int64  `json:"price" gorm:"not null"` // snapshot price at time of order
}

// Names returns the ordered item names, duplicates included
func (o *Order) Names() []string {
	names := make([]string, len(o.Items))
	for i, it := range o.Items {
		names[i] = it.Name
	}
	return names
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  *uint       `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
