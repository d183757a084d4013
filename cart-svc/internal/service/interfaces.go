package service

import (
	"context"

	"campus-eats/backend"
	"campus-eats/cart-svc/internal/storage"
	"campus-eats/domain"
)

// KVStore is the persistence surface shared by carts and saved venue selections.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) (*domain.Identity, error)
}

type VenueDirectory interface {
	ListVenues(ctx context.Context) ([]domain.Venue, error)
	UpdateUserVenue(ctx context.Context, token, venueID string) error
}

// OrderPlacer submits a checked-out cart as a new order on behalf of the caller.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, token string, lines []domain.OrderLine) (*domain.Order, error)
}

var (
	_ OrderPlacer = (*backend.Client)(nil)
	_ KVStore = (*storage.RedisStore)(nil)
	_ KVStore = (*storage.PostgresStore)(nil)
)
