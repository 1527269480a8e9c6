package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authboilerplate/backend/internal/config"
	domain "authboilerplate/backend/internal/domain/auth"
	"authboilerplate/backend/internal/httpserver"
	"authboilerplate/backend/internal/infrastructure/email"
	"authboilerplate/backend/internal/infrastructure/memory"
	"authboilerplate/backend/internal/infrastructure/mongodb"
	"authboilerplate/backend/internal/infrastructure/password"
	"authboilerplate/backend/internal/infrastructure/postgres"
	"authboilerplate/backend/internal/infrastructure/token"
	"authboilerplate/backend/internal/logging"
	"authboilerplate/backend/internal/selector"
	authusecase "authboilerplate/backend/internal/usecase/auth"
	userusecase "authboilerplate/backend/internal/usecase/user"
	"authboilerplate/backend/internal/usecase/verification"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hasher := password.NewBcrypt(password.DefaultCost)

	selected, err := selector.Select(rootCtx, selector.Options{
		BuildPhase: cfg.IsBuildPhase(),
		Production: cfg.IsProduction(),
		Mode:       cfg.Mode,
		Mongo: mongodb.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			Username:       cfg.MongoUsername,
			Password:       cfg.MongoPassword,
			ConnectTimeout: cfg.MongoConnectTimeout,
		},
		Hasher: hasher,
		Mock: memory.DirectoryOptions{
			FixturePassword: cfg.FixturePassword,
			DevLogin:        !cfg.IsProduction(),
		},
		Logger: logger.Named("selector"),
	})
	if err != nil {
		logger.Fatal("failed to select credential directory", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := selected.Close(ctx); err != nil {
			logger.Warn("directory close failed", zap.Error(err))
		}
	}()

	tokenRepo, closeTokens := openTokenRepository(rootCtx, cfg, logger)
	defer closeTokens()

	tokens := verification.NewService(tokenRepo, logger.Named("tokens"))
	go tokens.RunCleanup(rootCtx, cfg.TokenCleanupInterval)

	notifier := buildNotifier(cfg, selected.Mode, logger.Named("email"))
	sessions := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)

	authService := authusecase.NewService(selected.Directory, tokens, notifier, sessions, logger.Named("auth"))
	userService := userusecase.NewService(selected.Directory, logger.Named("users"))

	server := httpserver.NewServer(cfg, authService, userService, httpserver.Options{
		DirectoryMode:    selected.Mode,
		FallbackReason:   selected.FallbackReason,
		ProtectedUserIDs: memory.FixtureIDs(),
		Logger:           logger.Named("http"),
	})
	logger.Info("HTTP server listening",
		zap.String("addr", server.Addr()),
		zap.String("env", cfg.Env),
		zap.String("directory", string(selected.Mode)),
	)

	go func() {
		if err := server.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				logger.Info("HTTP server closed")
				return
			}
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("graceful shutdown completed")
	}
}

// openTokenRepository uses Postgres when DATABASE_URL is set and falls back to memory otherwise.
func openTokenRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.TokenRepository, func()) {
	if cfg.DatabaseURL == "" || cfg.IsBuildPhase() {
		logger.Info("token store: memory")
		return memory.NewTokenRepository(), func() {}
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("token store: postgres unavailable, using memory", zap.Error(err))
		return memory.NewTokenRepository(), func() {}
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}
	logger.Info("token store: postgres")
	return postgres.NewTokenRepository(db.SQL), db.Close
}

// buildNotifier sends real mail only for an external directory with SMTP configured.
func buildNotifier(cfg config.Config, mode config.Mode, logger *zap.Logger) authusecase.Notifier {
	if cfg.SMTPHost == "" || mode == config.ModeMock {
		return email.NewLogNotifier(cfg.AppURL, logger)
	}
	n, err := email.NewSMTPNotifier(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		Timeout:  15 * time.Second,
	}, cfg.AppURL, logger)
	if err != nil {
		logger.Warn("smtp notifier unavailable, logging emails instead", zap.Error(err))
		return email.NewLogNotifier(cfg.AppURL, logger)
	}
	return n
}
