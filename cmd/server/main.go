package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/auth"
	"ecommerce-backend/internal/cache"
	"ecommerce-backend/internal/catalog"
	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/db"
	handler "ecommerce-backend/internal/handler/http"
	"ecommerce-backend/internal/notification"
	"ecommerce-backend/internal/order"
	"ecommerce-backend/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.New(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("main: failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.Postgres, "migrations")
	if err != nil {
		log.Fatal().Err(err).Msg("main: failed to connect to postgres")
	}
	defer pool.Close()

	if err := db.Seed(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("main: failed to seed database")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("main: failed to connect to redis")
	}
	defer redisClient.Close()

	var sender notification.Sender = notification.NopSender{}
	if cfg.SMTP.Host != "" {
		sender, err = notification.NewSMTPSender(cfg.SMTP)
		if err != nil {
			log.Fatal().Err(err).Msg("main: failed to configure smtp sender")
		}
	} else {
		log.Warn().Msg("main: SMTP_HOST not set, email notifications disabled")
	}

	userService := user.NewService(user.NewRepository(pool))

	issuer := auth.NewTokenIssuer(cfg.JWT)
	authService := auth.NewService(userService, auth.NewRefreshTokenRepository(pool), issuer)

	catalogService := catalog.NewService(
		catalog.NewCategoryRepository(pool),
		catalog.NewProductRepository(pool),
		cache.NewRedisCache(redisClient),
	)

	orderService := order.NewService(
		order.NewRepository(pool),
		catalog.NewProductRepository(pool),
		userService,
		notification.NewEmailNotifier(sender),
	)

	router := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Customer: handler.NewCustomerHandler(userService),
		Category: handler.NewCategoryHandler(catalogService),
		Product:  handler.NewProductHandler(catalogService),
		Order:    handler.NewOrderHandler(orderService),
	}, handler.NewAuthenticator(issuer))

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("main: http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("main: http server failed")
	case <-ctx.Done():
		log.Info().Msg("main: shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("main: graceful shutdown failed")
	}

	log.Info().Msg("main: server stopped")
}
