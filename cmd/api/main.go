package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docauth/docs"
	"docauth/internal/auth"
	"docauth/internal/config"
	"docauth/internal/database"
	"docauth/internal/database/migration"
	"docauth/internal/filetype"
	"docauth/internal/fingerprint"
	handlers "docauth/internal/http/handler"
	"docauth/internal/http/middleware"
	"docauth/internal/logger"
	"docauth/internal/metrics"
	"docauth/internal/ocr"
	"docauth/internal/otel"
	"docauth/internal/repository"
	"docauth/internal/repository/memory"
	"docauth/internal/repository/postgres"
	"docauth/internal/service"
	"docauth/internal/storage"
)

// backend is the storage wiring selected by STORE_BACKEND.
type backend struct {
	db    *sql.DB
	store storage.Storage
	docs  repository.DocumentRepository
	users repository.UserRepository
}

// @title Document Authentication API
// @version 1.0
// @description Sign documents and verify presented copies by fingerprint or OCR text.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Location())
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server_exited", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	if be.db != nil {
		defer be.db.Close()
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Only reachable with the memory backend; tokens die with the process anyway.
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		log.Warn("auth_secret_generated", zap.String("reason", "AUTH_JWT_SECRET not set"))
	}
	tokens, err := auth.NewTokenManager(secret, cfg.Auth.Issuer, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}

	var extractor ocr.Extractor = ocr.Disabled{}
	if cfg.OCR.Enabled {
		extractor = ocr.NewHTTPExtractor(cfg.OCR.Endpoint, cfg.OCR.Language, nil)
	}
	normalizer := ocr.NewNormalizer(extractor, cfg.OCR.Timeout)

	userSvc := service.NewUserService(be.users, log)
	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPassword != "" {
		created, err := userSvc.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.AdminEmail)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info("admin_bootstrap", zap.String("username", cfg.Auth.AdminUsername), zap.Bool("created", created))
	}

	deps := handlers.Deps{
		DB:        be.db,
		Store:     be.store,
		Documents: service.NewDocumentService(be.store, be.docs, cfg.Documents.PageSize, cfg.Documents.MaxPageSize),
		Signing: service.NewSigningService(
			be.store, be.docs,
			filetype.NewInspector(cfg.Documents.AllowedExtensions),
			fingerprint.NewSealer(cfg.Documents.SigningKeyBits),
			rec, log,
		),
		Verification:   service.NewVerificationService(be.store, be.docs, normalizer, rec, log),
		Users:          userSvc,
		Auth:           service.NewAuthService(be.users, tokens, log),
		Tokens:         tokens,
		Log:            log,
		MaxUploadBytes: cfg.Documents.MaxUploadBytes,
		PublicBaseURL:  cfg.PublicBaseURL,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart overhead on top of the largest accepted document.
		BodyLimit: cfg.Documents.MaxUploadBytes + 1<<20,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	handlers.RegisterRoutes(app, deps)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("server_starting", zap.String("addr", addr), zap.String("store_backend", cfg.StoreBackend), zap.Bool("ocr_enabled", cfg.OCR.Enabled))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openBackend(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		log.Warn("store_backend_memory", zap.String("reason", "documents are lost on restart"))
		return &backend{
			store: storage.NewMemory(),
			docs:  memory.NewDocumentMemory(),
			users: memory.NewUserMemory(),
		}, nil
	case config.StoreBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration: %w", err)
		}
		store, err := storage.NewMinIO(ctx, cfg.MinIO, log)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		return &backend{
			db:    db,
			store: store,
			docs:  postgres.NewDocumentPostgres(db),
			users: postgres.NewUserPostgres(db),
		}, nil
	default:
		return nil, errors.New("unknown store backend " + cfg.StoreBackend)
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate auth secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
