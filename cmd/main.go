package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/api"
	"multi-tenant-crm/internal/auth"
	"multi-tenant-crm/internal/config"
	"multi-tenant-crm/internal/logger"
	"multi-tenant-crm/internal/manager"
	"multi-tenant-crm/internal/messaging"
	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/storage"
)

// @title Multi-Tenant CRM API
// @version 1.0
// @description Real-estate CRM with per-company data isolation and role-based access
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.Init(cfg.Log.Level, cfg.Log.Environment, "crm-api")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer l.Sync()

	metrics.Init()

	auth.SetSecret(cfg.Auth.JWTSecret)
	auth.SetTTL(cfg.Auth.TokenTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL, l)
	if err != nil {
		l.Fatal("Failed to init DB", zap.Error(err))
	}
	defer db.Close()
	if cfg.Database.Migrate {
		if err := db.Migrate(ctx); err != nil {
			l.Fatal("Failed to migrate DB", zap.Error(err))
		}
	}
	l.Info("PostgreSQL connected")

	sessions, closeSessions, err := sessionStore(ctx, cfg, l)
	if err != nil {
		l.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer closeSessions()

	// Init RabbitMQ
	rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL, l)
	if err != nil {
		l.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitClient.Close()
	l.Info("RabbitMQ connected")

	authService := auth.NewService(db, sessions, l.Named("auth"))

	tm := manager.NewTenantManager(rabbitClient.GetConnection(), rabbitClient, db, authService, l.Named("tenants"))
	tm.Limits = manager.Limits{MaxUsers: cfg.Tenants.MaxUsers, MaxProperties: cfg.Tenants.MaxProperties}

	// Recover Existing Tenants
	tenants, err := db.ListActiveTenants(ctx)
	if err != nil {
		l.Fatal("Failed to load tenants", zap.Error(err))
	}
	for _, tenant := range tenants {
		if err := tm.AddTenant(ctx, tenant.ID); err != nil {
			l.Warn("Failed to recover tenant", zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
			continue
		}
	}
	l.Info("Tenants recovered", zap.Int("count", len(tenants)))

	go trackQueueDepth(ctx, cfg.QueueDepthInterval, tm, rabbitClient)

	apiHandler := api.NewAPI(db, authService, tm, cfg, l.Named("http"))
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info("Starting API server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	l.Info("Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("HTTP shutdown error", zap.Error(err))
	}

	// Stop all tenant consumers
	tm.ShutdownAll()

	l.Info("Graceful shutdown complete")
}

// sessionStore uses Redis when configured and falls back to process memory,
// which only suits a single API instance. The returned func releases the
// Redis connection pool.
func sessionStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (auth.SessionStore, func() error, error) {
	if cfg.Redis.Addr == "" {
		l.Warn("No Redis configured, sessions are kept in memory")
		return auth.NewMemorySessionStore(), func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}
	l.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	return auth.NewRedisSessionStore(client), client.Close, nil
}

func trackQueueDepth(ctx context.Context, every time.Duration, tm *manager.TenantManager, rabbit *messaging.RabbitClient) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, tenantID := range tm.ListTenantIDs() {
				rabbit.UpdateQueueDepth(tenantID)
			}
		}
	}
}
