package models

import "time"

// LoginThrottle counts consecutive failed logins per phone number
type LoginThrottle struct {
	Phone         string     `gorm:"primaryKey"`
	FailCount     int        `gorm:"not null"`
	LastFailedAt  *time.Time
	CooldownUntil *time.Time
	UpdatedAt     time.Time
}
