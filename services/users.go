package services

import (
	"context"
	"errors"
	"strings"

	"canteen-api/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	throttle *Throttle
	logger   *zap.Logger
}

func NewUserService(db *gorm.DB, throttle *Throttle, logger *zap.Logger) *UserService {
	if throttle == nil {
		throttle = NewThrottle(db)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{db: db, throttle: throttle, logger: logger}
}

// Register creates a Student account with an empty wallet
func (s *UserService) Register(ctx context.Context, phone, email, password string) (*models.User, error) {
	return s.create(ctx, phone, email, password, models.RoleStudent)
}

func (s *UserService) create(ctx context.Context, phone, email, password string, role models.UserRole) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	email = strings.ToLower(strings.TrimSpace(email))
	if phone == "" || email == "" || password == "" {
		return nil, validationf("phone, email and password are required")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("phone = ? OR email = ?", phone, email).Count(&count).Error; err != nil {
		return nil, storage("check user", err)
	}
	if count > 0 {
		return nil, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Phone:        phone,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, storage("create user", err)
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return &user, nil
}

// Login checks a phone/password pair. While the phone is cooling down after
// failed attempts the password is not checked at all.
func (s *UserService) Login(ctx context.Context, phone, password string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if err := s.throttle.Check(ctx, phone); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage("load user", err)
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		if ferr := s.throttle.RecordFailure(ctx, phone); ferr != nil {
			s.logger.Error("record login failure", zap.Error(ferr))
		}
		s.logger.Info("login failed", zap.String("phone", phone))
		return nil, ErrInvalidCredentials
	}

	if err := s.throttle.RecordSuccess(ctx, phone); err != nil {
		s.logger.Error("reset login throttle", zap.Error(err))
	}
	return &user, nil
}

// Profile returns the user together with their wallet
func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, *models.Wallet, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, storage("load user", err)
	}
	wallet := &models.Wallet{Balance: user.WalletBalance, Transactions: user.Transactions}
	if wallet.Transactions == nil {
		wallet.Transactions = []models.WalletTransaction{}
	}
	return &user, wallet, nil
}

// EnsureAdmin creates the bootstrap Admin account unless the phone is already taken
func (s *UserService) EnsureAdmin(ctx context.Context, phone, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("phone = ?", strings.TrimSpace(phone)).First(&user).Error
	if err == nil {
		if user.Role != models.RoleAdmin {
			s.logger.Warn("bootstrap admin phone belongs to a non-admin account",
				zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage("load admin", err)
	}
	return s.create(ctx, phone, email, password, models.RoleAdmin)
}
