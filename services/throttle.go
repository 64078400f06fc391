package services

import (
	"context"
	"errors"
	"math"
	"time"

	"canteen-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ThrottleCooldownCapSeconds = 30

// Throttle tracks failed logins per phone number and enforces an exponential cooldown
type Throttle struct {
	db  *gorm.DB
	now func() time.Time
}

func NewThrottle(db *gorm.DB) *Throttle {
	return &Throttle{db: db, now: time.Now}
}

// WaitSeconds returns how many seconds the phone must wait before trying again (0 if no cooldown).
func (t *Throttle) WaitSeconds(ctx context.Context, phone string) (int, error) {
	var row models.LoginThrottle
	err := t.db.WithContext(ctx).First(&row, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storage("read login throttle", err)
	}
	if row.CooldownUntil == nil {
		return 0, nil
	}
	now := t.now()
	if now.Before(*row.CooldownUntil) {
		return int(math.Ceil(row.CooldownUntil.Sub(now).Seconds())), nil
	}
	return 0, nil
}

// Check returns a ThrottledError while the phone is cooling down
func (t *Throttle) Check(ctx context.Context, phone string) error {
	wait, err := t.WaitSeconds(ctx, phone)
	if err != nil {
		return err
	}
	if wait > 0 {
		return &ThrottledError{RetryAfter: time.Duration(wait) * time.Second}
	}
	return nil
}

// RecordFailure increments fail_count and sets cooldown_until = now + min(30, 2^fail_count) seconds.
func (t *Throttle) RecordFailure(ctx context.Context, phone string) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.LoginThrottle
		err := tx.First(&row, "phone = ?", phone).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return storage("read login throttle", err)
		}

		now := t.now()
		until := now.Add(time.Duration(CooldownSecondsForFailCount(row.FailCount+1)) * time.Second)
		row.Phone = phone
		row.FailCount++
		row.LastFailedAt = &now
		row.CooldownUntil = &until
		if err := upsertThrottle(tx, &row); err != nil {
			return storage("record login failure", err)
		}
		return nil
	})
}

// RecordSuccess resets fail_count and cooldown_until for the phone.
func (t *Throttle) RecordSuccess(ctx context.Context, phone string) error {
	row := models.LoginThrottle{Phone: phone}
	if err := upsertThrottle(t.db.WithContext(ctx), &row); err != nil {
		return storage("reset login throttle", err)
	}
	return nil
}

func upsertThrottle(db *gorm.DB, row *models.LoginThrottle) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"fail_count", "last_failed_at", "cooldown_until", "updated_at"}),
	}).Create(row).Error
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	if failCount < 0 {
		failCount = 0
	}
	s := int(math.Pow(2, float64(min(failCount, 16))))
	if s > ThrottleCooldownCapSeconds {
		return ThrottleCooldownCapSeconds
	}
	return s
}
