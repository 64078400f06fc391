package models

import "time"

// MenuItem is keyed by name. Availability always mirrors Quantity > 0.
type MenuItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null"`
	Category     string    `json:"category"`
	Price        int64     `json:"price" gorm:"not null"`
	Availability bool      `json:"availability" gorm:"not null;default:false"`
	Quantity     int       `json:"quantity" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
