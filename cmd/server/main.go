package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/horserace/internal/common/clock"
	"github.com/KirkDiggler/horserace/internal/common/identity"
	"github.com/KirkDiggler/horserace/internal/common/logger"
	"github.com/KirkDiggler/horserace/internal/common/uuid"
	"github.com/KirkDiggler/horserace/internal/config"
	"github.com/KirkDiggler/horserace/internal/dice"
	"github.com/KirkDiggler/horserace/internal/handlers/discord"
	"github.com/KirkDiggler/horserace/internal/handlers/rest"
	"github.com/KirkDiggler/horserace/internal/handlers/socket"
	gameRepo "github.com/KirkDiggler/horserace/internal/repositories/game"
	gameService "github.com/KirkDiggler/horserace/internal/services/game"
	"github.com/KirkDiggler/horserace/internal/services/messaging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(&logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			zl.Warn("failed to close store", zap.Error(err))
		}
	}()
	zl.Info("store ready", zap.String("store", string(cfg.Store)))

	hub := socket.NewHub(zl)

	svc, err := gameService.New(&gameService.Config{
		TeardownDelay: cfg.TeardownDelay,
		GameRepo:      repo,
		DiceRoller:    dice.New(&dice.Config{Seed: cfg.DiceSeed}),
		Clock:         &clock.DefaultClock{},
		UUIDGenerator: uuid.New(),
		Broadcaster:   hub,
		Logger:        zl,
	})
	if err != nil {
		return fmt.Errorf("failed to create game service: %w", err)
	}

	verifier, issuer, err := newIdentity(cfg)
	if err != nil {
		return err
	}

	api, err := rest.New(&rest.Config{
		GameService: svc,
		Verifier:    verifier,
		Issuer:      issuer,
		Logger:      zl,
	})
	if err != nil {
		return fmt.Errorf("failed to create REST handler: %w", err)
	}

	ws, err := socket.New(&socket.Config{
		Hub:         hub,
		GameService: svc,
		Verifier:    verifier,
		Logger:      zl,
	})
	if err != nil {
		return fmt.Errorf("failed to create websocket handler: %w", err)
	}

	router := api.Routes()
	router.Handle("/ws", ws)

	go svc.RunSweeper(ctx, cfg.SweepInterval)

	if cfg.DiscordEnabled() {
		bot, err := startBot(cfg, svc, zl)
		if err != nil {
			return err
		}
		defer func() {
			if err := bot.Stop(); err != nil {
				zl.Warn("failed to stop discord bot", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore connects the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (gameRepo.Repository, func() error, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		repo, err := gameRepo.NewSQLite(&gameRepo.SQLiteConfig{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return repo, repo.Close, nil
	default:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		repo, err := gameRepo.NewRedis(&gameRepo.Config{RedisClient: redisClient})
		if err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("failed to create game repository: %w", err)
		}
		return repo, redisClient.Close, nil
	}
}

// newIdentity signs credentials when a secret is configured and trusts the login otherwise
func newIdentity(cfg *config.Config) (identity.Verifier, rest.TokenIssuer, error) {
	if cfg.JWTSecret == "" {
		return identity.Trusted{}, nil, nil
	}

	jwt, err := identity.New(&identity.Config{Secret: []byte(cfg.JWTSecret)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create identity verifier: %w", err)
	}
	return jwt, jwt, nil
}

func startBot(cfg *config.Config, svc gameService.Service, zl *zap.Logger) (*discord.Bot, error) {
	msgs, err := messaging.NewService(&messaging.ServiceConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging service: %w", err)
	}

	bot, err := discord.New(&discord.Config{
		Token:         cfg.DiscordToken,
		ApplicationID: cfg.ApplicationID,
		GuildID:       cfg.GuildID,
		GameService:   svc,
		Messaging:     msgs,
		Logger:        zl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create discord bot: %w", err)
	}

	if err := bot.Start(); err != nil {
		return nil, fmt.Errorf("failed to start discord bot: %w", err)
	}
	return bot, nil
}
