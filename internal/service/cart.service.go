package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"terra-storefront/internal/domain"
	"terra-storefront/internal/repo"
)

type CartService interface {
	// Add upserts (user, product); adding a product already in the cart
	// increments its quantity rather than duplicating the line.
	Add(ctx context.Context, userID, productID uuid.UUID, qty int32) error
	// SetQuantity overwrites; qty <= 0 removes the line. Both SetQuantity
	// and Remove are no-ops on a missing line.
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int32) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]domain.CartView, error)
}

type cartService struct {
	cartRepo    repo.CartRepo
	productRepo repo.ProductRepo
}

func NewCartService(cartRepo repo.CartRepo, productRepo repo.ProductRepo) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) Add(ctx context.Context, userID, productID uuid.UUID, qty int32) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	if _, err := s.productRepo.FindById(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.cartRepo.Upsert(ctx, userID, productID, qty)
}

func (s *cartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int32) error {
	return s.cartRepo.SetQuantity(ctx, userID, productID, qty)
}

func (s *cartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.cartRepo.Remove(ctx, userID, productID)
}

func (s *cartService) List(ctx context.Context, userID uuid.UUID) ([]domain.CartView, error) {
	return s.cartRepo.ListByUser(ctx, userID)
}
