package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"terra-storefront/internal/domain"
	"terra-storefront/internal/repo"
)

// UserOrder is an order with its lines, as returned to the owning user.
type UserOrder struct {
	domain.Order
	Lines []domain.OrderLine `json:"items"`
}

type OrderService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]UserOrder, error)
	ListAll(ctx context.Context) ([]repo.AdminOrder, error)
}

type orderService struct {
	orderRepo repo.OrderRepo
}

func NewOrderService(orderRepo repo.OrderRepo) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]UserOrder, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := make([]UserOrder, 0, len(orders))
	for _, order := range orders {
		lines, err := s.orderRepo.LinesByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		result = append(result, UserOrder{Order: order, Lines: lines})
	}
	return result, nil
}

func (s *orderService) ListAll(ctx context.Context) ([]repo.AdminOrder, error) {
	return s.orderRepo.ListWithLines(ctx)
}
