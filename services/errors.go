package services

import (
	"errors"
	"fmt"
	"time"

	"canteen-api/models"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrThrottled          = errors.New("too many failed attempts")
	ErrStorage            = errors.New("storage error")

	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storage wraps a driver/gorm failure so callers can tell it from business errors
func storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

type OutOfStockError struct {
	Item string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("item %q is out of stock", e.Item)
}

func (e *OutOfStockError) Is(target error) bool { return target == ErrOutOfStock }

type InsufficientFundsError struct {
	Current   int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, requested %d", e.Current, e.Requested)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

type TransitionError struct {
	Current   models.OrderStatus
	Requested models.OrderStatus
	Valid     []models.OrderStatus
	Reason    string
}

func (e *TransitionError) Error() string { return e.Reason }

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %d seconds", int(e.RetryAfter.Seconds()))
}

func (e *ThrottledError) Is(target error) bool { return target == ErrThrottled }
