package service

import (
	"context"
	"errors"
	"fmt"

	shared "campus-eats/domain"

	"go.uber.org/zap"
)

var (
	ErrLoginRequired = errors.New("sign in to place an order")
	ErrEmptyCart     = errors.New("cart is empty")
)

// Checkout places the active cart as an order and clears it once the backend
// has accepted it. A rejected order leaves the cart as it was.
func (s *CartStore) Checkout(ctx context.Context, placer OrderPlacer, token string) (*shared.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scope.Guest() {
		return nil, ErrLoginRequired
	}
	if s.scope.Venue == "" {
		return nil, ErrVenueNotSelected
	}

	s.ensureLoaded(ctx)
	if len(s.lines) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]shared.OrderLine, 0, len(s.lines))
	for _, line := range s.lines {
		lines = append(lines, shared.OrderLine{MenuItemID: line.ItemID, Quantity: line.Quantity})
	}

	order, err := placer.CreateOrder(ctx, token, lines)
	if err != nil {
		s.logger.Warn("order placement failed",
			zap.String("owner", s.scope.Owner),
			zap.String("venue", s.scope.Venue),
			zap.Error(err))
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	if order == nil {
		order = &shared.Order{}
	}

	s.logger.Info("order placed",
		zap.String("owner", s.scope.Owner),
		zap.String("venue", s.scope.Venue),
		zap.String("order_id", order.ID),
		zap.Int("lines", len(lines)))
	s.clear(ctx)
	return order, nil
}
