package models

import "time"

// TransactionKind is the direction of a wallet ledger entry
type TransactionKind string

const (
	KindCredit TransactionKind = "credit"
	KindDebit  TransactionKind = "debit"
)

// WalletTransaction is an append-only ledger row; the running sum of rows is the balance
type WalletTransaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user_id" gorm:"not null;index"`
	Kind         TransactionKind `json:"kind" gorm:"not null"`
	Amount       int64           `json:"amount" gorm:"not null"`
	BalanceAfter int64           `json:"balance_after" gorm:"not null"`
	Description  string          `json:"description"`
	PaymentRef   string          `json:"payment_ref,omitempty"` // external payment id, stored only
	CreatedAt    time.Time       `json:"timestamp"`
}
