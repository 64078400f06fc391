package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"canteen-api/broadcast"
	"canteen-api/config"
	"canteen-api/handlers"
	"canteen-api/middleware"
	"canteen-api/models"
	"canteen-api/routes"
	"canteen-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type apiFixture struct {
	t      *testing.T
	db     *gorm.DB
	hub    *broadcast.Hub
	tokens *middleware.TokenIssuer
	router *gin.Engine
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	db, err := config.OpenDB(config.DBConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	hub := broadcast.NewHub(8, logger)
	t.Cleanup(hub.Close)
	stock := services.NewStockService(db, hub, logger)
	tokens := middleware.NewTokenIssuer([]byte("test-secret"), time.Hour)
	h := &handlers.Handler{
		Stock:           stock,
		Orders:          services.NewOrderService(db, stock, nil, logger),
		Wallet:          services.NewWalletService(db, logger),
		Users:           services.NewUserService(db, nil, logger),
		Recommendations: services.NewRecommendationService(db),
		Hub:             hub,
		Tokens:          tokens,
		Logger:          logger,
	}
	return &apiFixture{t: t, db: db, hub: hub, tokens: tokens, router: routes.NewRouter(h, logger)}
}

func (f *apiFixture) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

// user creates an account with the given role and returns it with a token
func (f *apiFixture) user(phone string, role models.UserRole, balance int64) (*models.User, string) {
	f.t.Helper()
	u := models.User{Phone: phone, Email: phone + "@canteen.test", PasswordHash: "x", Role: role, WalletBalance: balance}
	require.NoError(f.t, f.db.Create(&u).Error)
	token, err := f.tokens.GenerateToken(&u)
	require.NoError(f.t, err)
	return &u, token
}

func (f *apiFixture) menu(items ...models.MenuItem) {
	f.t.Helper()
	for i := range items {
		items[i].Availability = items[i].Quantity > 0
		require.NoError(f.t, f.db.Create(&items[i]).Error)
	}
}

func TestHealthAndStateMachine(t *testing.T) {
	f := newAPI(t)

	w, body := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, body = f.do(http.MethodGet, "/api/state-machine", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["state_machine"], 2)
	assert.Equal(t, []any{"Pickup"}, body["terminal_states"])
}

func TestRegisterLoginProfile(t *testing.T) {
	f := newAPI(t)

	w, body := f.do(http.MethodPost, "/api/auth/register", "", gin.H{"phone": "9876543210", "email": "asha@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "Student", user["role"])
	assert.NotContains(t, user, "password_hash")

	w, _ = f.do(http.MethodPost, "/api/auth/register", "", gin.H{"phone": "9876543210", "email": "asha@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = f.do(http.MethodPost, "/api/auth/register", "", gin.H{"phone": "1", "email": "not-an-email", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = f.do(http.MethodPost, "/api/auth/login", "", gin.H{"mobileNumber": "9876543210", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	token := body["token"].(string)

	w, body = f.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	wallet := body["wallet"].(map[string]any)
	assert.EqualValues(t, 0, wallet["balance"])

	w, _ = f.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginThrottled(t *testing.T) {
	f := newAPI(t)
	w, _ := f.do(http.MethodPost, "/api/auth/register", "", gin.H{"phone": "9876543210", "email": "asha@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = f.do(http.MethodPost, "/api/auth/login", "", gin.H{"mobileNumber": "9876543210", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := f.do(http.MethodPost, "/api/auth/login", "", gin.H{"mobileNumber": "9876543210", "password": "secret1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, body, "retry_after")
}

func TestStaffMenuManagement(t *testing.T) {
	f := newAPI(t)
	_, staff := f.user("1000000001", models.RoleStaff, 0)
	_, student := f.user("1000000002", models.RoleStudent, 0)
	f.menu(models.MenuItem{Name: "Tea", Category: "Drinks", Price: 15, Quantity: 3})

	item := gin.H{"name": "Coffee", "category": "Drinks", "price": 20, "quantity": 0}
	w, _ := f.do(http.MethodPost, "/api/staff/menu", student, item)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(http.MethodPost, "/api/staff/menu", staff, item)
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = f.do(http.MethodPost, "/api/staff/menu", staff, item)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body := f.do(http.MethodPost, "/api/staff/menu/availability", staff, gin.H{
		"items": []gin.H{{"name": "Coffee", "quantity": 5}, {"name": "Pizza", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := body["updated"].([]any)
	require.Len(t, updated, 1)
	assert.Equal(t, "Coffee", updated[0].(map[string]any)["name"])
	assert.Equal(t, []any{"Pizza"}, body["unknown"])

	w, body = f.do(http.MethodGet, "/api/menu?available=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"], "tea was reset by the bulk update")
}

func TestOrderFlow(t *testing.T) {
	f := newAPI(t)
	_, staff := f.user("1000000001", models.RoleStaff, 0)
	student, token := f.user("1000000002", models.RoleStudent, 0)
	f.menu(
		models.MenuItem{Name: "Tea", Price: 15, Quantity: 1},
		models.MenuItem{Name: "Samosa", Price: 12, Quantity: 4},
	)

	order := gin.H{"customerName": "Asha", "items": []string{"Tea", "Samosa"}, "total": 27, "deliveryLocation": "Library"}
	w, body := f.do(http.MethodPost, "/api/orders", token, order)
	require.Equal(t, http.StatusCreated, w.Code)
	placed := body["order"].(map[string]any)
	assert.Equal(t, "Preparing", placed["status"])
	assert.EqualValues(t, 27, placed["total"])
	assert.EqualValues(t, student.ID, placed["user_id"])
	orderID := int(placed["id"].(float64))

	w, body = f.do(http.MethodPost, "/api/orders", "", order)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Tea", body["item"])

	w, _ = f.do(http.MethodPost, "/api/orders", "", gin.H{"customerName": "Asha", "items": []string{}, "deliveryLocation": "Library"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = f.do(http.MethodGet, "/api/orders/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, _ = f.do(http.MethodGet, "/api/orders/history?userId=999", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = f.do(http.MethodGet, "/api/orders/history?userId=999", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["orders"])

	path := "/api/staff/orders/" + strconv.Itoa(orderID) + "/status"
	w, body = f.do(http.MethodPatch, path, staff, gin.H{"status": "Pickup"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Preparing", body["current_status"])
	assert.Equal(t, []any{"Ready"}, body["valid_next_states"])

	w, body = f.do(http.MethodPatch, path, staff, gin.H{"status": "Ready", "note": "on the counter"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Preparing", body["previous_status"])
	assert.Equal(t, "Ready", body["current_status"])

	w, _ = f.do(http.MethodPatch, "/api/staff/orders/999/status", staff, gin.H{"status": "Ready"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = f.do(http.MethodGet, "/api/staff/orders?status=Ready", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, map[string]any{"Ready": float64(1)}, body["order_summary"])
}

func TestWalletEndpoints(t *testing.T) {
	f := newAPI(t)
	student, token := f.user("1000000002", models.RoleStudent, 50)
	_, admin := f.user("1000000003", models.RoleAdmin, 0)

	w, body := f.do(http.MethodPost, "/api/wallet/debit", token, gin.H{"amount": 70})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 50, body["current"])
	assert.EqualValues(t, 70, body["requested"])

	w, body = f.do(http.MethodPost, "/api/wallet/credit", token, gin.H{"amount": 30, "paymentRef": "pay_1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 80, body["balance"])

	w, _ = f.do(http.MethodPost, "/api/wallet/credit", token, gin.H{"amount": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = f.do(http.MethodPost, "/api/wallet/debit", admin, gin.H{"userId": student.ID, "amount": 30, "description": "Lunch"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 50, body["balance"])

	w, _ = f.do(http.MethodPost, "/api/wallet/credit", token, gin.H{"userId": 999, "amount": 10})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = f.do(http.MethodPost, "/api/wallet/credit", admin, gin.H{"userId": 999, "amount": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = f.do(http.MethodGet, "/api/wallet/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := body["transactions"].([]any)
	require.Len(t, txs, 2)
	assert.Equal(t, "credit", txs[0].(map[string]any)["kind"])
	assert.Equal(t, "debit", txs[1].(map[string]any)["kind"])
	assert.Contains(t, txs[0], "timestamp")

	w, body = f.do(http.MethodGet, "/api/wallet", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 50, body["balance"])
}

func TestRecommendationsEndpoint(t *testing.T) {
	f := newAPI(t)
	f.menu(models.MenuItem{Name: "Tea", Price: 15, Quantity: 5})
	w, _ := f.do(http.MethodPost, "/api/orders", "", gin.H{"customerName": "A", "items": []string{"Tea"}, "deliveryLocation": "B"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := f.do(http.MethodGet, "/api/recommendations?limit=3", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	recs := body["recommendations"].([]any)
	require.Len(t, recs, 1)
	assert.Equal(t, "Tea", recs[0].(map[string]any)["itemId"])
	assert.Nil(t, body["userId"])

	w, _ = f.do(http.MethodGet, "/api/recommendations?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMenuStream(t *testing.T) {
	f := newAPI(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/menu/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	events := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event:"); ok {
				events <- strings.TrimSpace(name)
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
		return ""
	}

	require.Equal(t, "connected", next())
	f.hub.PublishMenu([]models.MenuItem{{Name: "Coffee", Quantity: 5, Availability: true}})
	assert.Equal(t, broadcast.EventMenuUpdated, next())
}
