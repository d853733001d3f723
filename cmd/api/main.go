package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"terra-storefront/internal/auth"
	"terra-storefront/internal/config"
	"terra-storefront/internal/database"
	"terra-storefront/internal/handler"
	"terra-storefront/internal/infrastructure/payment"
	"terra-storefront/internal/repo"
	"terra-storefront/internal/service"
	"terra-storefront/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	userRepo := repo.NewUserRepo(db)
	productRepo := repo.NewProductRepo(db)
	cartRepo := repo.NewCartRepo(db)
	orderRepo := repo.NewOrderRepo(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	gateway := payment.NewHostedGateway(cfg.GatewayBaseURL, cfg.GatewayAPIKey)
	verifier := payment.NewVerifier(cfg.WebhookSecret)

	authService := service.NewAuthService(userRepo, tokens, cfg.BCryptCost)
	catalogService := service.NewCatalogService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo)
	checkoutService := service.NewCheckoutService(
		db, cartRepo, orderRepo, gateway, verifier,
		cfg.SuccessURL, cfg.CancelURL, logger,
	)

	handlers := &handler.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Product:  handler.NewProductHandler(catalogService),
		Cart:     handler.NewCartHandler(cartService),
		Checkout: handler.NewCheckoutHandler(checkoutService, orderService),
		Webhook:  handler.NewWebhookHandler(checkoutService),
	}

	router := handler.NewRouter(handlers, tokens, db, cfg.AllowedOrigins)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep := worker.NewReconciliationWorker(
		orderRepo, gateway, cfg.ReconcileInterval, cfg.ReconcileAfter, logger,
	)
	go sweep.Run(ctx)

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info("terra storefront listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shut down", "error", err)
	}
	logger.Info("server exited")
}
