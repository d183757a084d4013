package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"campus-eats/config"
	"campus-eats/domain"
	"campus-eats/orderboard-svc/internal/service"

	"github.com/stretchr/testify/require"
)

// fakeClock fires timers only when the test advances it.
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	timers    []*fakeTimer
	scheduled chan time.Duration
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, scheduled: make(chan time.Duration, 64)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) service.Timer {
	c.mu.Lock()
	t := &fakeTimer{clock: c, c: make(chan time.Time, 1), at: c.now.Add(d)}
	c.timers = append(c.timers, t)
	c.mu.Unlock()

	c.scheduled <- d
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			t.c <- c.now
		}
	}
}

type fakeTimer struct {
	clock   *fakeClock
	c       chan time.Time
	at      time.Time
	stopped bool
	fired   bool
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.c
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fetchReply struct {
	orders []domain.Order
	err    error
}

type fetchCall struct {
	venueID string
	reply   chan fetchReply
}

// gatedBackend hands every fetch to the test, which decides when and how it
// completes. Replies are delivered even after the caller's context ends, like a
// response already on the wire.
type gatedBackend struct {
	calls       chan fetchCall
	inFlight    int32
	maxInFlight int32

	mu        sync.Mutex
	submitErr error
	submitted []domain.OrderStatus
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{calls: make(chan fetchCall, 16)}
}

func (b *gatedBackend) FetchAllOrders(ctx context.Context, venueID string) ([]domain.Order, error) {
	n := atomic.AddInt32(&b.inFlight, 1)
	defer atomic.AddInt32(&b.inFlight, -1)
	for {
		max := atomic.LoadInt32(&b.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&b.maxInFlight, max, n) {
			break
		}
	}

	call := fetchCall{venueID: venueID, reply: make(chan fetchReply, 1)}
	b.calls <- call
	r := <-call.reply
	return r.orders, r.err
}

func (b *gatedBackend) SubmitStatusTransition(ctx context.Context, orderID string, status domain.OrderStatus, venueID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return b.submitErr
	}
	b.submitted = append(b.submitted, status)
	return nil
}

func (b *gatedBackend) expectFetch(t *testing.T) fetchCall {
	t.Helper()
	select {
	case call := <-b.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected an order fetch")
		return fetchCall{}
	}
}

func (b *gatedBackend) expectNoFetch(t *testing.T) {
	t.Helper()
	select {
	case <-b.calls:
		t.Fatal("unexpected order fetch")
	case <-time.After(100 * time.Millisecond):
	}
}

func expectScheduled(t *testing.T, clock *fakeClock) time.Duration {
	t.Helper()
	select {
	case d := <-clock.scheduled:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("expected the next poll to be scheduled")
		return 0
	}
}

func expectNothingScheduled(t *testing.T, clock *fakeClock) {
	t.Helper()
	select {
	case d := <-clock.scheduled:
		t.Fatalf("unexpected poll scheduled after %s", d)
	case <-time.After(100 * time.Millisecond):
	}
}

// quietMorning is outside every default peak window.
var quietMorning = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func testCadence(t *testing.T) *service.Cadence {
	t.Helper()
	cfg := config.DefaultPollingConfig()
	cfg.Location = "UTC"
	cadence, err := service.NewCadence(cfg)
	require.NoError(t, err)
	return cadence
}

func order(id string, status domain.OrderStatus) domain.Order {
	return domain.Order{ID: id, PickupCode: "P-" + id, Status: status, TotalAmount: 100}
}

func busyOrders() []domain.Order {
	return []domain.Order{
		order("o1", domain.StatusPending),
		order("o2", domain.StatusConfirmed),
		order("o3", domain.StatusPreparing),
	}
}
