package service

import (
	"context"

	"campus-eats/backend"
	"campus-eats/domain"
	"campus-eats/orderboard-svc/internal/storage"
)

type OrderBackend interface {
	FetchAllOrders(ctx context.Context, venueID string) ([]domain.Order, error)
	SubmitStatusTransition(ctx context.Context, orderID string, status domain.OrderStatus, venueID string) error
}

type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, event domain.StatusEvent) error
}

type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) (*domain.Identity, error)
}

type QRGenerator interface {
	Generate(orderID, pickupCode string) ([]byte, error)
}

var _ OrderBackend = (*backend.Client)(nil)
var _ IdentityResolver = (*backend.Client)(nil)
var _ StatusPublisher = (*storage.KafkaPublisher)(nil)
