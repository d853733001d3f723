package repo

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"terra-storefront/internal/database"
	"terra-storefront/internal/domain"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%d/testdb?sslmode=disable", host, port.Int())
	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	require.NoError(t, database.RunMigrations(db, "../../migrations"))

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return db, cleanup
}

func createTestUser(t *testing.T, db *sql.DB) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     "user-" + uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), user))
	return user
}

func createTestProduct(t *testing.T, db *sql.DB, price string) *domain.Product {
	t.Helper()
	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		Title:     "product-" + uuid.NewString(),
		Price:     decimal.RequireFromString(price),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewProductRepo(db).Create(context.Background(), product))
	return product
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewUserRepo(db)

	user := createTestUser(t, db)

	dup := &domain.User{
		ID:           uuid.New(),
		Username:     user.Username,
		Email:        "other@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)
}

func TestUserRepo_FindByUsername_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewUserRepo(db).FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepo_UpdateMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewProductRepo(db).Update(context.Background(), &domain.Product{
		ID:    uuid.New(),
		Title: "ghost",
		Price: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepo_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewProductRepo(db)

	product := createTestProduct(t, db, "19.99")

	got, err := repo.FindById(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Title, got.Title)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("19.99")),
		"price should survive storage exactly, got %s", got.Price)

	product.Price = decimal.RequireFromString("24.50")
	require.NoError(t, repo.Update(ctx, product))

	got, err = repo.FindById(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("24.50")))

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.FindById(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartRepo_UpsertIncrementsExistingLine(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewCartRepo(db)

	user := createTestUser(t, db)
	product := createTestProduct(t, db, "5.00")

	require.NoError(t, repo.Upsert(ctx, user.ID, product.ID, 1))
	require.NoError(t, repo.Upsert(ctx, user.ID, product.ID, 1))

	views, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, 1, "adding the same product twice must not create a second line")
	assert.Equal(t, int32(2), views[0].Quantity)
	assert.True(t, views[0].Subtotal.Equal(decimal.RequireFromString("10.00")))
}

func TestCartRepo_SetQuantityZeroRemovesLine(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewCartRepo(db)

	user := createTestUser(t, db)
	product := createTestProduct(t, db, "5.00")

	require.NoError(t, repo.Upsert(ctx, user.ID, product.ID, 3))
	require.NoError(t, repo.SetQuantity(ctx, user.ID, product.ID, 0))

	views, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCartRepo_SetQuantityOverwrites(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewCartRepo(db)

	user := createTestUser(t, db)
	product := createTestProduct(t, db, "5.00")

	require.NoError(t, repo.Upsert(ctx, user.ID, product.ID, 3))
	require.NoError(t, repo.SetQuantity(ctx, user.ID, product.ID, 7))

	views, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int32(7), views[0].Quantity)
}

func TestCartRepo_RemoveMissingIsNoOp(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db)
	assert.NoError(t, NewCartRepo(db).Remove(context.Background(), user.ID, uuid.New()))
	assert.NoError(t, NewCartRepo(db).SetQuantity(context.Background(), user.ID, uuid.New(), 5))
}

func TestOrderRepo_CreateOrderLinesRollsBackWithOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	user := createTestUser(t, db)
	product := createTestProduct(t, db, "9.99")

	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    user.ID,
		Total:     decimal.RequireFromString("19.98"),
		Status:    domain.OrderPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))

	// Second line references a product that does not exist; the foreign
	// key violation must take the order row down with it.
	lines := []domain.OrderLine{
		{OrderID: order.ID, ProductID: product.ID, Quantity: 1, UnitPrice: product.Price},
		{OrderID: order.ID, ProductID: uuid.New(), Quantity: 1, UnitPrice: product.Price},
	}
	err = repo.CreateOrderLines(ctx, tx, lines)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())

	_, err = repo.FindById(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound, "no partially written order may be visible")
}

func TestOrderRepo_MarkPaidIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	user := createTestUser(t, db)
	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    user.ID,
		Total:     decimal.NewFromInt(10),
		Status:    domain.OrderPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Commit())

	changed, err := repo.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed, "second confirmation must be a no-op")

	got, err := repo.FindById(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, got.Status)
}

func TestOrderRepo_FindStuckPending(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewOrderRepo(db)

	user := createTestUser(t, db)
	old := time.Now().Add(-time.Hour)
	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    user.ID,
		Total:     decimal.NewFromInt(10),
		Status:    domain.OrderPending,
		CreatedAt: old,
		UpdatedAt: old,
	}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Commit())

	stuck, err := repo.FindStuckPending(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, order.ID, stuck[0].ID)

	// A freshly updated order is not stuck.
	_, err = repo.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	stuck, err = repo.FindStuckPending(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, stuck)
}
