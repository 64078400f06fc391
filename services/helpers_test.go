package services

import (
	"sync"
	"testing"

	"canteen-api/config"
	"canteen-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(config.DBConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedMenu(t *testing.T, db *gorm.DB, items ...models.MenuItem) {
	t.Helper()
	for i := range items {
		items[i].Availability = items[i].Quantity > 0
		require.NoError(t, db.Create(&items[i]).Error)
	}
}

func seedUser(t *testing.T, db *gorm.DB, phone string, balance int64) *models.User {
	t.Helper()
	user := models.User{
		Phone:         phone,
		Email:         phone + "@canteen.test",
		PasswordHash:  "x",
		Role:          models.RoleStudent,
		WalletBalance: balance,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func loadItem(t *testing.T, db *gorm.DB, name string) models.MenuItem {
	t.Helper()
	var item models.MenuItem
	require.NoError(t, db.Where("name = ?", name).First(&item).Error)
	return item
}

// assertAvailabilityInvariant checks availability == (quantity > 0) for every menu row
func assertAvailabilityInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var items []models.MenuItem
	require.NoError(t, db.Find(&items).Error)
	for _, it := range items {
		require.Equalf(t, it.Quantity > 0, it.Availability, "item %q: quantity %d, availability %v", it.Name, it.Quantity, it.Availability)
		require.GreaterOrEqual(t, it.Quantity, 0)
	}
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]models.MenuItem
}

func (p *recordingPublisher) PublishMenu(items []models.MenuItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, items)
}

func (p *recordingPublisher) last() []models.MenuItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.batches) == 0 {
		return nil
	}
	return p.batches[len(p.batches)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func names(items []models.MenuItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
