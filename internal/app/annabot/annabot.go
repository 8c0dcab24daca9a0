// Package annabot собирает приложение: хранилище, кеш, сервисы, клиент
// Telegram и сервер liveness-проверок.
package annabot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dirtydonny/annabot/internal/bot"
	"github.com/dirtydonny/annabot/internal/cache"
	"github.com/dirtydonny/annabot/internal/composer"
	"github.com/dirtydonny/annabot/internal/config"
	"github.com/dirtydonny/annabot/internal/http/handlers/health"
	"github.com/dirtydonny/annabot/internal/llm"
	"github.com/dirtydonny/annabot/internal/services/chat"
	"github.com/dirtydonny/annabot/internal/services/entitlement"
	"github.com/dirtydonny/annabot/internal/storage"
)

type App struct {
	bot    *bot.Bot
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.annabot.New"

	db, err := storage.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Без адреса redis кеш отключен: проверки доступа идут в хранилище.
	var entitlementCache entitlement.Cache = cache.Noop{}
	if cfg.RedisConnection.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entitlementCache = redisCache
	}

	entitlementService := entitlement.New(db, entitlementCache, logger)
	chatService := chat.New(db, llm.New(cfg.LLM), cfg.LLM.SystemPrompt, logger)
	splitter := composer.New(composer.DefaultOptions())

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	botService := bot.New(api, entitlementService, chatService, splitter, logger, cfg.Telegram.PollTimeout)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/health", health.New(logger).ServeHTTP)

	srv := &http.Server{
		Addr:         cfg.HealthServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HealthServer.Timeout,
		WriteTimeout: cfg.HealthServer.Timeout,
		IdleTimeout:  cfg.HealthServer.IdleTimeout,
	}

	return &App{
		bot:    botService,
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает long polling и сервер liveness-проверок и блокируется
// до отмены контекста или фатальной ошибки одного из них.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("health server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	go func() {
		errCh <- a.bot.Run(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}
