package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"terra-storefront/internal/auth"
	"terra-storefront/internal/domain"
	"terra-storefront/internal/repo"
)

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type authService struct {
	userRepo   repo.UserRepo
	tokens     *auth.TokenManager
	bcryptCost int
}

func NewAuthService(userRepo repo.UserRepo, tokens *auth.TokenManager, bcryptCost int) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return "", ErrDuplicateIdentity
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	return s.tokens.Issue(user)
}

// Login deliberately returns the same error for an unknown username and a
// wrong password, so responses cannot be used to enumerate accounts.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user)
}
