package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"terra-storefront/internal/auth"
	"terra-storefront/internal/repo"
)

func newAuthService(userRepo repo.UserRepo) (AuthService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(userRepo, tokens, bcrypt.MinCost), tokens
}

func TestAuthService_SignupIssuesUsableToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	userRepo := repo.NewUserRepo(db)
	svc, tokens := newAuthService(userRepo)

	token, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.Admin, "signup never grants admin")

	// The stored hash is not the password.
	user, err := userRepo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
}

func TestAuthService_SignupDuplicateUsername(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc, _ := newAuthService(repo.NewUserRepo(db))

	_, err := svc.Signup(ctx, "bob", "bob@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "bob", "bob2@example.com", "password2")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestAuthService_Login(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc, tokens := newAuthService(repo.NewUserRepo(db))
	_, err := svc.Signup(ctx, "carol", "carol@example.com", "correct-horse")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "carol", "correct-horse")
	require.NoError(t, err)
	_, err = tokens.Validate(token)
	assert.NoError(t, err)
}

func TestAuthService_LoginDoesNotDistinguishFailures(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc, _ := newAuthService(repo.NewUserRepo(db))
	_, err := svc.Signup(ctx, "dave", "dave@example.com", "correct-horse")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "dave", "wrong-horse")
	_, unknownUser := svc.Login(ctx, "nobody", "whatever")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
}

func TestCartService_AddValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	env := newCheckoutEnv(t, db)

	svc := NewCartService(env.cart, env.products)
	product := env.seedProduct(t, "5.00")

	assert.ErrorIs(t, svc.Add(ctx, env.testUser.ID, product.ID, 0), ErrValidation)
	assert.ErrorIs(t, svc.Add(ctx, env.testUser.ID, uuid.New(), 1), ErrNotFound)
	assert.NoError(t, svc.Add(ctx, env.testUser.ID, product.ID, 1))
}

func TestCatalogService_Validation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc := NewCatalogService(repo.NewProductRepo(db))

	_, err := svc.Create(ctx, ProductInput{Title: "", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, ProductInput{Title: "widget", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	product, err := svc.Create(ctx, ProductInput{
		Title: "widget",
		Price: decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(product.Price))
}
