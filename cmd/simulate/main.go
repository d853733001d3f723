// Command simulate runs checkouts against a flaky mock gateway and then
// lets the reconciliation worker repair the stuck pending orders, so the
// failure paths can be watched end to end against a real database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"terra-storefront/internal/auth"
	"terra-storefront/internal/config"
	"terra-storefront/internal/database"
	"terra-storefront/internal/domain"
	"terra-storefront/internal/infrastructure/payment"
	"terra-storefront/internal/repo"
	"terra-storefront/internal/service"
	"terra-storefront/internal/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Load()
	ctx := context.Background()

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

	userRepo := repo.NewUserRepo(db)
	productRepo := repo.NewProductRepo(db)
	cartRepo := repo.NewCartRepo(db)
	orderRepo := repo.NewOrderRepo(db)

	// 30% of session creations fail outright; half of the created
	// sessions end up paid at the gateway.
	gateway := payment.NewMockGateway()
	gateway.FailureRate = 30
	gateway.CompleteRate = 50

	verifier := payment.NewVerifier("simulate-secret")
	tokens := auth.NewTokenManager("simulate-secret", time.Hour)
	authService := service.NewAuthService(userRepo, tokens, 4)
	checkoutService := service.NewCheckoutService(
		db, cartRepo, orderRepo, gateway, verifier,
		cfg.SuccessURL, cfg.CancelURL, logger,
	)

	user, product, err := seed(ctx, authService, userRepo, productRepo)
	if err != nil {
		logger.Error("failed to seed data", "error", err)
		os.Exit(1)
	}

	fmt.Println("--- STARTING SIMULATION (20 CHECKOUTS) ---")
	for i := 0; i < 20; i++ {
		if err := cartRepo.Upsert(ctx, user.ID, product.ID, 2); err != nil {
			logger.Error("failed to fill cart", "error", err)
			continue
		}

		result, err := checkoutService.InitiateCheckout(ctx, user.ID, domain.ContactDetails{
			Name: "Sim User", Email: "sim@example.com", Phone: "000",
			Address: "1 Simulation Way",
		})
		if err != nil {
			fmt.Printf("[%d] checkout FAILED: %v\n", i+1, err)
		} else {
			fmt.Printf("[%d] checkout OK -> %s\n", i+1, result.RedirectURL)
		}

		if result != nil && result.Order != nil {
			fresh, _ := orderRepo.FindById(ctx, result.Order.ID)
			if fresh != nil {
				fmt.Printf("    -> DB status: %s\n", fresh.Status)
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("--- RUNNING RECONCILIATION ---")
	sweep := worker.NewReconciliationWorker(orderRepo, gateway, time.Second, 0, logger)
	sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	sweep.Run(sweepCtx)
}

func seed(
	ctx context.Context,
	authService service.AuthService,
	userRepo repo.UserRepo,
	productRepo repo.ProductRepo,
) (*domain.User, *domain.Product, error) {
	username := fmt.Sprintf("sim-%d", time.Now().UnixNano())
	_, err := authService.Signup(ctx, username, username+"@example.com", "password123")
	if err != nil {
		return nil, nil, err
	}
	user, err := userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		Title:     "Simulation Widget",
		Price:     decimal.RequireFromString("19.99"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := productRepo.Create(ctx, product); err != nil {
		return nil, nil, err
	}
	return user, product, nil
}
