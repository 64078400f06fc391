package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleStudent UserRole = "Student"
	RoleStaff   UserRole = "Staff"
	RoleAdmin   UserRole = "Admin"
)

type User struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	Phone         string              `json:"phone" gorm:"uniqueIndex;not null"`
	Email         string              `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string              `json:"-" gorm:"not null"`
	Role          UserRole            `json:"role" gorm:"not null;default:'Student'"`
	WalletBalance int64               `json:"-" gorm:"not null;default:0"`
	Transactions  []WalletTransaction `json:"-" gorm:"foreignKey:UserID"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Wallet is the JSON view of a user's balance and its ledger
type Wallet struct {
	Balance      int64               `json:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
}

// IsStaff reports whether the role may manage the menu and orders
func (r UserRole) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}
