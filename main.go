package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"canteen-api/broadcast"
	"canteen-api/config"
	"canteen-api/handlers"
	"canteen-api/logging"
	"canteen-api/middleware"
	"canteen-api/notify"
	"canteen-api/routes"
	"canteen-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	gin.SetMode(cfg.GinMode)
	logger, err := logging.New(cfg.LogLevel, cfg.GinMode == gin.DebugMode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := config.OpenDB(cfg.DB)
	if err != nil {
		return err
	}
	logger.Info("database ready", zap.String("driver", cfg.DB.Driver))

	hub := broadcast.NewHub(cfg.Broadcast.Buffer, logger.Named("broadcast"))

	var notifier services.OrderNotifier = services.NopNotifier{}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger.Named("telegram"))
		if err != nil {
			logger.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			defer tg.Close()
			notifier = tg
		}
	}

	stock := services.NewStockService(db, hub, logger.Named("stock"))
	users := services.NewUserService(db, services.NewThrottle(db), logger.Named("users"))
	h := &handlers.Handler{
		Stock:           stock,
		Orders:          services.NewOrderService(db, stock, notifier, logger.Named("orders")),
		Wallet:          services.NewWalletService(db, logger.Named("wallet")),
		Users:           users,
		Recommendations: services.NewRecommendationService(db),
		Hub:             hub,
		Tokens:          middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Logger:          logger,
	}

	if cfg.Admin.Enabled() {
		admin, err := users.EnsureAdmin(context.Background(), cfg.Admin.Phone, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return err
		}
		logger.Info("admin account ready", zap.Uint("user_id", admin.ID))
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.NewRouter(h, logger.Named("http")),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	logger.Info("shutting down server gracefully")
	// closing the hub ends open menu streams so Shutdown does not wait on them
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server exited gracefully")
	return nil
}
