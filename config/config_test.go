package config

import (
	"os"
	"testing"
	"time"

	"canteen-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_DSN", "JWT_TTL", "BROADCAST_BUFFER", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "ADMIN_PHONE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "canteen.db", cfg.DB.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 16, cfg.Broadcast.Buffer)
	assert.False(t, cfg.Telegram.Enabled())
	assert.False(t, cfg.Admin.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("BROADCAST_BUFFER", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("ADMIN_PHONE", "1000000000")
	t.Setenv("ADMIN_EMAIL", "admin@canteen.test")
	t.Setenv("ADMIN_PASSWORD", "changeme")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 16, cfg.Broadcast.Buffer, "invalid numbers fall back to the default")
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Telegram.Enabled())
	assert.EqualValues(t, -100200, cfg.Telegram.ChatID)
	assert.True(t, cfg.Admin.Enabled())
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load()
	require.NoError(t, err, "a missing .env is not an error")

	require.NoError(t, os.WriteFile(".env", []byte("JWT_SECRET=\"unterminated\n"), 0o600))
	_, err = Load()
	assert.ErrorContains(t, err, "load .env")
}

func TestOpenDB(t *testing.T) {
	_, err := OpenDB(DBConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")

	db, err := OpenDB(DBConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	for _, table := range []any{&models.User{}, &models.WalletTransaction{}, &models.MenuItem{}, &models.Order{}, &models.OrderItem{}, &models.OrderStatusHistory{}, &models.LoginThrottle{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{":memory:", ":memory:"},
		{"canteen.db", "canteen.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"file:canteen.db?cache=shared", "file:canteen.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{"canteen.db?_pragma=journal_mode(WAL)", "canteen.db?_pragma=journal_mode(WAL)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in))
	}
}
