package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"terra-storefront/internal/domain"
	"terra-storefront/internal/repo"
)

// ProductInput carries the admin-supplied product fields.
type ProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Image       string
}

type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	productRepo repo.ProductRepo
}

func NewCatalogService(productRepo repo.ProductRepo) CatalogService {
	return &catalogService{productRepo: productRepo}
}

func (s *catalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindById(ctx, id)
	if err == repo.ErrNotFound {
		return nil, ErrNotFound
	}
	return product, err
}

func (s *catalogService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.productRepo.FindById(ctx, id)
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.productRepo.Delete(ctx, id)
	if err == repo.ErrNotFound {
		return ErrNotFound
	}
	return err
}

func validateProduct(in ProductInput) error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}
