package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"canteen-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry carries the optional metadata recorded with a wallet movement
type Entry struct {
	Description string
	PaymentRef  string
}

type WalletService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewWalletService(db *gorm.DB, logger *zap.Logger) *WalletService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletService{db: db, logger: logger}
}

// Credit adds amount to the user's balance and returns the new balance
func (s *WalletService) Credit(ctx context.Context, userID uint, amount int64, entry Entry) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND wallet_balance <= ?", userID, math.MaxInt64-amount).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
		if res.Error != nil {
			return storage("credit wallet", res.Error)
		}
		if res.RowsAffected == 0 {
			if _, err := readBalance(tx, userID); err != nil {
				return err
			}
			return fmt.Errorf("%w: balance would overflow", ErrInvalidAmount)
		}

		var err error
		if balance, err = readBalance(tx, userID); err != nil {
			return err
		}
		return appendTransaction(tx, userID, models.KindCredit, amount, balance, entry)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("wallet credited",
		zap.Uint("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance))
	return balance, nil
}

// Debit removes amount from the user's balance. The balance check and the
// decrement are one statement, so concurrent debits can never overdraw.
func (s *WalletService) Debit(ctx context.Context, userID uint, amount int64, entry Entry) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND wallet_balance >= ?", userID, amount).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
		if res.Error != nil {
			return storage("debit wallet", res.Error)
		}
		if res.RowsAffected == 0 {
			current, err := readBalance(tx, userID)
			if err != nil {
				return err
			}
			return &InsufficientFundsError{Current: current, Requested: amount}
		}

		var err error
		if balance, err = readBalance(tx, userID); err != nil {
			return err
		}
		return appendTransaction(tx, userID, models.KindDebit, amount, balance, entry)
	})
	if err != nil {
		var insufficient *InsufficientFundsError
		if errors.As(err, &insufficient) {
			s.logger.Info("wallet debit rejected",
				zap.Uint("user_id", userID),
				zap.Int64("balance", insufficient.Current),
				zap.Int64("requested", amount))
		}
		return 0, err
	}

	s.logger.Info("wallet debited",
		zap.Uint("user_id", userID),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance))
	return balance, nil
}

func (s *WalletService) GetBalance(ctx context.Context, userID uint) (int64, error) {
	return readBalance(s.db.WithContext(ctx), userID)
}

// Transactions returns the user's wallet history, oldest first
func (s *WalletService) Transactions(ctx context.Context, userID uint) ([]models.WalletTransaction, error) {
	db := s.db.WithContext(ctx)
	if _, err := readBalance(db, userID); err != nil {
		return nil, err
	}
	txs := []models.WalletTransaction{}
	if err := db.Where("user_id = ?", userID).Order("id").Find(&txs).Error; err != nil {
		return nil, storage("list wallet transactions", err)
	}
	return txs, nil
}

func (s *WalletService) Wallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if wallet.Balance, err = readBalance(tx, userID); err != nil {
			return err
		}
		wallet.Transactions = []models.WalletTransaction{}
		if err := tx.Where("user_id = ?", userID).Order("id").Find(&wallet.Transactions).Error; err != nil {
			return storage("list wallet transactions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func readBalance(db *gorm.DB, userID uint) (int64, error) {
	var user models.User
	if err := db.Select("id", "wallet_balance").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, storage("read balance", err)
	}
	return user.WalletBalance, nil
}

func appendTransaction(tx *gorm.DB, userID uint, kind models.TransactionKind, amount, balanceAfter int64, entry Entry) error {
	row := models.WalletTransaction{
		UserID:       userID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  strings.TrimSpace(entry.Description),
		PaymentRef:   strings.TrimSpace(entry.PaymentRef),
	}
	if row.Description == "" {
		row.Description = defaultDescription(kind)
	}
	if err := tx.Create(&row).Error; err != nil {
		return storage("record wallet transaction", err)
	}
	return nil
}

func defaultDescription(kind models.TransactionKind) string {
	if kind == models.KindCredit {
		return "Wallet top-up"
	}
	return "Wallet payment"
}
