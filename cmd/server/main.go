package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/sarankoundinya2000/smartsplit/internal/auth"
	"github.com/sarankoundinya2000/smartsplit/internal/config"
	"github.com/sarankoundinya2000/smartsplit/internal/notify"
	"github.com/sarankoundinya2000/smartsplit/internal/receipt"
	"github.com/sarankoundinya2000/smartsplit/internal/server"
	"github.com/sarankoundinya2000/smartsplit/internal/service"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
	"github.com/sarankoundinya2000/smartsplit/internal/storage/snapshot"
	"github.com/sarankoundinya2000/smartsplit/internal/storage/sqlite"
	"github.com/sarankoundinya2000/smartsplit/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.Format == "json" {
		logging.SetupJSON(logging.ParseLevel(cfg.Logging.Level))
	} else {
		logging.SetupWithLevel(logging.ParseLevel(cfg.Logging.Level))
	}
	logger := slog.Default()

	ctx := context.Background()

	store, err := newStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("storage initialized", "backend", cfg.Storage.Backend)

	parser, err := newParser(ctx, cfg.Receipt, logger)
	if err != nil {
		logger.Error("failed to initialize receipt parser", "error", err)
		os.Exit(1)
	}

	sender, err := newSender(ctx, cfg.Mail, logger)
	if err != nil {
		logger.Error("failed to initialize mail sender", "error", err)
		os.Exit(1)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	var google auth.Authenticator
	if cfg.Auth.GoogleClientID != "" {
		google = auth.NewGoogleAuthenticator(store, cfg.Auth.GoogleClientID)
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}
	password := auth.NewPasswordAuthenticator(store)

	groups := service.NewGroupService(store, logger)
	expenses := service.NewExpenseService(store, parser, sender, logger)

	router := server.NewRouter(logger, server.RouterDependencies{
		Auth:           server.NewAuthHandlers(logger, google, password, jwtManager),
		API:            server.NewAPIHandlers(logger, groups, expenses),
		AllowedOrigins: splitCSV(cfg.HTTP.AllowedOriginsCSV),
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("received signal, shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}

func newStore(cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Backend == "snapshot" {
		return snapshot.New(cfg.SnapshotDir)
	}
	return sqlite.New(cfg.SQLitePath)
}

func newParser(ctx context.Context, cfg config.ReceiptConfig, logger *slog.Logger) (receipt.Parser, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, receipt parsing disabled")
		return receipt.Unavailable{}, nil
	}
	return receipt.NewGeminiParser(ctx, cfg.GeminiAPIKey, cfg.Model)
}

func newSender(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (notify.Sender, error) {
	if cfg.Sender != "gmail" {
		return notify.NewLogSender(logger), nil
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return notify.NewGmailSender(ctx, cfg.From, opts...)
}

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
