package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pointage/internal/config"
	"pointage/internal/directory"
	"pointage/internal/display"
	"pointage/internal/kvstore"
	"pointage/internal/metrics"
	"pointage/internal/presence"
)

// Kiosk daemon: loads the attendance services, keeps the daily token fresh,
// renders its QR code to disk on each rotation, and dumps a metrics snapshot
// on shutdown.
func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()

	met := metrics.NewSet()

	dir := directory.NewService(store, logger, cfg.SessionSigningKey, cfg.SessionIssuer, cfg.SessionTTL)
	ledger := presence.NewLedger(store, logger, met)

	ledger.OnRotate(func(token presence.DailyToken) {
		if err := display.WriteQR(cfg.QROutputPath, cfg.CheckinBaseURL, token, cfg.QRSize); err != nil {
			logger.Warn("qr render failed", zap.Error(err))
			return
		}
		logger.Info("qr rendered", zap.String("path", cfg.QROutputPath), zap.String("token", token.Token))
	})

	if err := dir.Load(ctx); err != nil {
		logger.Fatal("directory load failed", zap.Error(err))
	}
	if err := ledger.Load(ctx); err != nil {
		logger.Fatal("presence load failed", zap.Error(err))
	}
	met.SetDirectoryUsers(len(dir.GetAllUsers()))

	// The persisted token may already be fresh, in which case OnRotate never
	// fired; make sure the kiosk has a QR to show.
	if token, ok := ledger.CurrentToken(); ok {
		if err := display.WriteQR(cfg.QROutputPath, cfg.CheckinBaseURL, token, cfg.QRSize); err != nil {
			logger.Warn("qr render failed", zap.Error(err))
		}
	}

	logger.Info("pointage started",
		zap.String("backend", cfg.StoreBackend),
		zap.Duration("token_check_interval", cfg.TokenCheckInterval))

	ledger.RunRotation(ctx, cfg.TokenCheckInterval)

	if err := met.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("metrics dump failed", zap.Error(err))
	}
	logger.Info("pointage stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newStore builds the configured key-value backend.
func newStore(ctx context.Context, cfg config.App) (kvstore.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return kvstore.NewMemory(), func() {}, nil
	case "redis":
		r := kvstore.NewRedis(cfg.RedisAddr, "pointage")
		return r, func() { _ = r.Close() }, nil
	case "postgres":
		p, err := kvstore.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	default:
		f, err := kvstore.NewFile(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	}
}
