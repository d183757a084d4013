package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campus-eats/backend"
	"campus-eats/domain"
	boarddomain "campus-eats/orderboard-svc/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrBoardStopped      = errors.New("board is stopped")
	ErrOrderNotFound     = errors.New("order not found on board")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoPickupCode      = errors.New("order has no pickup code")
)

type BoardOptions struct {
	ID        string
	VenueID   string
	AdminID   string
	Hidden    bool
	Backend   OrderBackend
	Publisher StatusPublisher
	QR        QRGenerator
	Cadence   *Cadence
	Clock     Clock
	Metrics   *Metrics
	Logger    *zap.Logger
}

// Board keeps one venue's order list fresh for a mounted admin view.
// Automatic polls run one at a time on the board's own goroutine.
type Board struct {
	id        string
	venueID   string
	adminID   string
	backend   OrderBackend
	publisher StatusPublisher
	qr        QRGenerator
	cadence   *Cadence
	clock     Clock
	metrics   *Metrics
	logger    *zap.Logger

	mu            sync.RWMutex
	state         boarddomain.BoardState
	orders        []domain.Order
	lastUpdatedAt time.Time
	interval      time.Duration
	visible       bool
	fetched       bool
	refreshing    int
	lastSeen      time.Time
	started       bool
	cancel        context.CancelFunc

	wake chan struct{}
	done chan struct{}
}

func NewBoard(opts BoardOptions) *Board {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Board{
		id:        opts.ID,
		venueID:   opts.VenueID,
		adminID:   opts.AdminID,
		backend:   opts.Backend,
		publisher: opts.Publisher,
		qr:        opts.QR,
		cadence:   opts.Cadence,
		clock:     clock,
		metrics:   opts.Metrics,
		logger:    logger.With(zap.String("board", opts.ID), zap.String("venue", opts.VenueID)),
		state:     boarddomain.StateIdle,
		visible:   !opts.Hidden,
		lastSeen:  clock.Now(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

func (b *Board) ID() string      { return b.id }
func (b *Board) VenueID() string { return b.venueID }
func (b *Board) AdminID() string { return b.adminID }

// Done is closed once the board has stopped and its loop has exited.
func (b *Board) Done() <-chan struct{} {
	return b.done
}

// Touch records that the owning admin still has the board open.
func (b *Board) Touch() {
	now := b.clock.Now()
	b.mu.Lock()
	b.lastSeen = now
	b.mu.Unlock()
}

// IdleFor reports how long it has been since the board was last touched.
func (b *Board) IdleFor() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clock.Now().Sub(b.lastSeen)
}

func (b *Board) Start() {
	b.mu.Lock()
	if b.started || b.state == boarddomain.StateStopped {
		b.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.started = true
	b.cancel = cancel
	b.mu.Unlock()

	b.metrics.boardMounted()
	b.logger.Info("board mounted", zap.Bool("visible", b.Visible()))
	go b.run(ctx)
}

// Stop cancels the pending timer and any in-flight fetch. Results that arrive
// afterwards are discarded.
func (b *Board) Stop() {
	b.mu.Lock()
	if b.state == boarddomain.StateStopped {
		b.mu.Unlock()
		return
	}
	b.state = boarddomain.StateStopped
	started, cancel := b.started, b.cancel
	b.mu.Unlock()

	if started {
		cancel()
		b.metrics.boardStopped()
	} else {
		close(b.done)
	}
	b.logger.Info("board stopped")
}

func (b *Board) SetVisible(visible bool) {
	b.mu.Lock()
	if b.state == boarddomain.StateStopped || b.visible == visible {
		b.mu.Unlock()
		return
	}
	b.visible = visible
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Board) Visible() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visible
}

func (b *Board) State() boarddomain.BoardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Board) Snapshot() boarddomain.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := boarddomain.Snapshot{
		BoardID:    b.id,
		VenueID:    b.venueID,
		State:      b.state,
		Orders:     append([]domain.Order{}, b.orders...),
		IntervalMs: b.interval.Milliseconds(),
		Visible:    b.visible,
		Refreshing: b.refreshing > 0,
	}
	if b.fetched {
		updated := b.lastUpdatedAt
		snap.LastUpdatedAt = &updated
	}
	return snap
}

func (b *Board) run(ctx context.Context) {
	defer close(b.done)

	first := true
	for {
		if ctx.Err() != nil {
			return
		}

		if !b.resume() {
			select {
			case <-ctx.Done():
				return
			case <-b.wake:
			}
			continue
		}

		if first {
			first = false
			b.poll(ctx)
			continue
		}

		timer := b.clock.NewTimer(b.nextInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-b.wake:
			timer.Stop()
		case <-timer.C():
			if b.Visible() {
				b.poll(ctx)
			}
		}
	}
}

// resume reports whether the board may schedule polls, moving it into or out
// of the paused state to match visibility.
func (b *Board) resume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.state == boarddomain.StateStopped:
		return false
	case !b.visible:
		b.state = boarddomain.StatePaused
		return false
	case b.fetched:
		b.state = boarddomain.StatePolling
	default:
		b.state = boarddomain.StateIdle
	}
	return true
}

func (b *Board) nextInterval() time.Duration {
	b.mu.Lock()
	interval := b.cadence.Interval(b.clock.Now(), len(b.orders))
	b.interval = interval
	b.mu.Unlock()

	b.metrics.observeInterval(b.venueID, interval)
	return interval
}

func (b *Board) poll(ctx context.Context) {
	orders, err := b.fetch(ctx, triggerAuto)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, backend.ErrUnauthorized) {
			b.logger.Warn("backend rejected board credentials, stopping", zap.Error(err))
			b.Stop()
			return
		}
		b.logger.Error("failed to poll orders", zap.Error(err))
		return
	}
	b.apply(orders)
}

// Refresh fetches immediately without touching the automatic schedule.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.state == boarddomain.StateStopped {
		b.mu.Unlock()
		return ErrBoardStopped
	}
	b.refreshing++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.refreshing--
		b.mu.Unlock()
	}()

	orders, err := b.fetch(ctx, triggerManual)
	if err != nil {
		return fmt.Errorf("failed to refresh orders: %w", err)
	}
	if !b.apply(orders) {
		return ErrBoardStopped
	}
	return nil
}

func (b *Board) fetch(ctx context.Context, trigger string) ([]domain.Order, error) {
	start := b.clock.Now()
	orders, err := b.backend.FetchAllOrders(ctx, b.venueID)
	b.metrics.observePoll(trigger, b.clock.Now().Sub(start), err)
	return orders, err
}

// apply replaces the list with a fetch result unless the board has stopped.
// Statuses only move forward: a fetch that reports an order at a lower rank
// than the board already shows was read before a later write and keeps the
// board's status.
func (b *Board) apply(orders []domain.Order) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == boarddomain.StateStopped {
		return false
	}

	shown := make(map[string]domain.OrderStatus, len(b.orders))
	for _, o := range b.orders {
		shown[o.ID] = o.Status
	}
	for i := range orders {
		local, ok := shown[orders[i].ID]
		if ok && local.Rank() > orders[i].Status.Rank() {
			b.logger.Debug("keeping newer local status",
				zap.String("order", orders[i].ID),
				zap.String("local", string(local)),
				zap.String("fetched", string(orders[i].Status)))
			orders[i].Status = local
		}
	}

	b.orders = orders
	b.lastUpdatedAt = b.clock.Now()
	b.fetched = true
	if b.state == boarddomain.StateIdle {
		b.state = boarddomain.StatePolling
	}
	return true
}

// UpdateStatus submits a transition and only changes the local list once the
// backend has accepted it.
func (b *Board) UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus, actorID string) (domain.Order, error) {
	b.mu.RLock()
	stopped := b.state == boarddomain.StateStopped
	order, found := b.find(orderID)
	b.mu.RUnlock()

	switch {
	case stopped:
		return domain.Order{}, ErrBoardStopped
	case !found:
		return domain.Order{}, ErrOrderNotFound
	case !order.Status.CanTransitionTo(to):
		return domain.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, to)
	}

	err := b.backend.SubmitStatusTransition(ctx, orderID, to, b.venueID)
	b.metrics.observeStatusUpdate(err)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	from := order.Status
	b.mu.Lock()
	if b.state != boarddomain.StateStopped {
		for i := range b.orders {
			if b.orders[i].ID == orderID {
				b.orders[i].Status = to
				order = b.orders[i]
			}
		}
	}
	b.mu.Unlock()

	b.logger.Info("order status updated",
		zap.String("order", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	b.publish(ctx, domain.StatusEvent{
		Type:      domain.EventOrderStatusChanged,
		OrderID:   orderID,
		VenueID:   b.venueID,
		From:      from,
		To:        to,
		ActorID:   actorID,
		Timestamp: b.clock.Now(),
	})
	order.Status = to
	return order, nil
}

func (b *Board) publish(ctx context.Context, event domain.StatusEvent) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.PublishStatusChange(ctx, event); err != nil {
		b.logger.Warn("failed to publish status event", zap.String("order", event.OrderID), zap.Error(err))
	}
}

// PickupQR renders the pickup code of an order currently on the board.
func (b *Board) PickupQR(orderID string) ([]byte, error) {
	b.mu.RLock()
	order, found := b.find(orderID)
	b.mu.RUnlock()

	if !found {
		return nil, ErrOrderNotFound
	}
	if order.PickupCode == "" {
		return nil, ErrNoPickupCode
	}
	return b.qr.Generate(order.ID, order.PickupCode)
}

func (b *Board) find(orderID string) (domain.Order, bool) {
	for _, o := range b.orders {
		if o.ID == orderID {
			return o, true
		}
	}
	return domain.Order{}, false
}
