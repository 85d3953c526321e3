package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/tutor_connect/configs"
	"github.com/anjiri1684/tutor_connect/database"
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/anjiri1684/tutor_connect/jobs"
	applog "github.com/anjiri1684/tutor_connect/logger"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/notifications"
	"github.com/anjiri1684/tutor_connect/ratelimit"
	"github.com/anjiri1684/tutor_connect/routes"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/anjiri1684/tutor_connect/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := applog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.GeneratedSecret {
		log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	auth, err := services.NewAuthService(store, tokens, bcrypt.DefaultCost, log)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	hub := websocket.NewHub(auth, log)
	notifier := notifications.Fanout{hub}
	if cfg.EmailEnabled() {
		notifier = append(notifier, notifications.NewEmailNotifier(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName, log))
		log.Info("email notifications enabled", zap.String("sender", cfg.EmailSender))
	}

	h := &handlers.Handler{
		Auth:     auth,
		Users:    services.NewUserService(store),
		Sessions: services.NewSessionService(store, notifier, log),
		Reviews:  services.NewReviewService(store, notifier, log),
	}

	var limiter middleware.Limiter
	if cfg.RateLimitEnabled() {
		fw, err := ratelimit.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.LoginRateLimit, cfg.LoginRateWindow)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		defer fw.Close()
		limiter = fw
		log.Info("login rate limiting enabled", zap.Int("limit", cfg.LoginRateLimit), zap.Duration("window", cfg.LoginRateWindow))
	}

	if cfg.RatingAuditEnabled() {
		c, err := jobs.Schedule(cfg.RatingAuditSchedule, store, log)
		if err != nil {
			return fmt.Errorf("schedule rating audit: %w", err)
		}
		c.Start()
		defer c.Stop()
		log.Info("rating audit scheduled", zap.String("schedule", cfg.RatingAuditSchedule))
	}

	app := fiber.New(fiber.Config{
		AppName:      "Tutor Connect",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
		MaxAge:       86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: time.RFC3339,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Setup(app, cfg.APIPrefix, routes.Deps{
		Handler: h,
		Tokens:  tokens,
		Hub:     hub,
		Limiter: limiter,
		Log:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store), zap.String("env", cfg.AppEnv))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func openStore(cfg *config.Config, log *zap.Logger) (database.Store, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return database.NewMemoryStore(), nil
	}
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return database.NewGormStore(db), nil
}
