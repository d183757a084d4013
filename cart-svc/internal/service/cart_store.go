package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"campus-eats/cart-svc/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrVenueNotSelected = errors.New("select a venue before adding items to the cart")
	ErrInvalidItem      = errors.New("menu item id is required")
	ErrInvalidQuantity  = errors.New("quantity must not be negative")
)

// CartStore owns the active cart of one browsing session. The active cart is the
// one persisted under the current (owner, venue) scope.
//
// Writes to storage are suppressed until the load for the current scope has
// completed, so an unread persisted cart is never overwritten by an empty one.
type CartStore struct {
	mu     sync.Mutex
	kv     KVStore
	logger *zap.Logger

	scope  domain.CartScope
	lines  []domain.CartLine
	loaded bool

	// set on a guest -> user transition, cleared once the guest cart for the
	// selected venue has been considered for merging
	pendingMerge bool
}

func NewCartStore(kv KVStore, logger *zap.Logger) *CartStore {
	return &CartStore{
		kv:     kv,
		logger: logger,
		loaded: true,
	}
}

// Sync applies the identity and venue signals in that order, so a login and a
// venue choice arriving together merge into the right user cart.
func (s *CartStore) Sync(ctx context.Context, userID, venueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setIdentity(ctx, userID)
	s.selectVenue(ctx, venueID)
}

func (s *CartStore) SetIdentity(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setIdentity(ctx, userID)
}

func (s *CartStore) SelectVenue(ctx context.Context, venueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectVenue(ctx, venueID)
}

func (s *CartStore) setIdentity(ctx context.Context, userID string) {
	if userID == s.scope.Owner {
		return
	}

	wasGuest := s.scope.Guest()
	s.scope.Owner = userID
	s.pendingMerge = wasGuest && userID != ""

	s.logger.Info("cart identity changed",
		zap.String("owner", userID), zap.String("venue", s.scope.Venue))
	s.reload(ctx)
	s.mergeGuest(ctx)
}

func (s *CartStore) selectVenue(ctx context.Context, venueID string) {
	if venueID == s.scope.Venue {
		return
	}

	s.scope.Venue = venueID
	s.logger.Info("cart venue changed",
		zap.String("owner", s.scope.Owner), zap.String("venue", venueID))
	s.reload(ctx)
	s.mergeGuest(ctx)
}

// AddItem adds quantity units of item, defaulting to one when quantity is zero.
func (s *CartStore) AddItem(ctx context.Context, item domain.MenuItem, quantity int) error {
	if item.ID == "" {
		return ErrInvalidItem
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scope.Venue == "" {
		s.logger.Warn("add to cart rejected without venue", zap.String("item_id", item.ID))
		return ErrVenueNotSelected
	}
	if quantity == 0 {
		quantity = 1
	}

	s.ensureLoaded(ctx)
	if i := s.indexOf(item.ID); i >= 0 {
		s.lines[i].Quantity += quantity
	} else {
		s.lines = append(s.lines, domain.LineFromItem(item, quantity))
	}
	s.persist(ctx)
	return nil
}

func (s *CartStore) RemoveItem(ctx context.Context, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)
	s.remove(ctx, itemID)
}

// SetQuantity replaces a line's quantity. A quantity of zero or less removes the
// line; an absent line is left absent.
func (s *CartStore) SetQuantity(ctx context.Context, itemID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)
	if quantity <= 0 {
		s.remove(ctx, itemID)
		return
	}

	i := s.indexOf(itemID)
	if i < 0 {
		s.logger.Debug("quantity update for item not in cart", zap.String("item_id", itemID))
		return
	}
	s.lines[i].Quantity = quantity
	s.persist(ctx)
}

func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear(ctx)
}

func (s *CartStore) clear(ctx context.Context) {
	s.lines = nil
	if s.scope.Venue == "" {
		return
	}
	if err := s.kv.Remove(ctx, s.scope.Key()); err != nil {
		s.logger.Error("failed to remove cart", zap.String("key", s.scope.Key()), zap.Error(err))
		return
	}
	s.loaded = true
}

func (s *CartStore) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLines(s.lines)
}

func (s *CartStore) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.lines)
}

func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ItemCount(s.lines)
}

func (s *CartStore) Scope() domain.CartScope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

func (s *CartStore) View() domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.CartView{
		Venue:     s.scope.Venue,
		Owner:     s.scope.Owner,
		Lines:     copyLines(s.lines),
		Total:     Total(s.lines),
		ItemCount: ItemCount(s.lines),
	}
}

// The helpers below expect s.mu to be held.

func (s *CartStore) remove(ctx context.Context, itemID string) {
	i := s.indexOf(itemID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist(ctx)
}

func (s *CartStore) indexOf(itemID string) int {
	for i, line := range s.lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (s *CartStore) reload(ctx context.Context) {
	s.lines = nil
	s.loaded = false

	if s.scope.Venue == "" {
		s.loaded = true
		return
	}

	lines, err := s.read(ctx, s.scope)
	if err != nil {
		s.logger.Error("failed to load cart", zap.String("key", s.scope.Key()), zap.Error(err))
		return
	}
	s.lines = lines
	s.loaded = true
}

// ensureLoaded retries a load that failed on the last scope change.
func (s *CartStore) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.reload(ctx)
	s.mergeGuest(ctx)
}

func (s *CartStore) mergeGuest(ctx context.Context) {
	if !s.pendingMerge || s.scope.Guest() || s.scope.Venue == "" || !s.loaded {
		return
	}

	guestScope := s.scope.GuestScope()
	guest, err := s.read(ctx, guestScope)
	if err != nil {
		s.logger.Error("failed to load guest cart", zap.String("key", guestScope.Key()), zap.Error(err))
		return
	}
	s.pendingMerge = false
	if len(guest) == 0 {
		return
	}

	s.lines = MergeLines(s.lines, guest)
	if err := s.write(ctx); err != nil {
		s.logger.Error("failed to persist merged cart", zap.String("key", s.scope.Key()), zap.Error(err))
		return
	}
	if err := s.kv.Remove(ctx, guestScope.Key()); err != nil {
		s.logger.Error("failed to remove guest cart", zap.String("key", guestScope.Key()), zap.Error(err))
	}
	s.logger.Info("merged guest cart",
		zap.String("owner", s.scope.Owner),
		zap.String("venue", s.scope.Venue),
		zap.Int("guest_lines", len(guest)))
}

func (s *CartStore) read(ctx context.Context, scope domain.CartScope) ([]domain.CartLine, error) {
	raw, found, err := s.kv.Get(ctx, scope.Key())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.logger.Error("discarding unreadable cart", zap.String("key", scope.Key()), zap.Error(err))
		return nil, nil
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.ItemID != "" && line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	return kept, nil
}

func (s *CartStore) persist(ctx context.Context) {
	if s.scope.Venue == "" || !s.loaded {
		s.logger.Debug("cart write suppressed before load", zap.String("key", s.scope.Key()))
		return
	}
	if err := s.write(ctx); err != nil {
		s.logger.Error("failed to persist cart", zap.String("key", s.scope.Key()), zap.Error(err))
	}
}

func (s *CartStore) write(ctx context.Context) error {
	lines := s.lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.scope.Key(), string(payload))
}

// MergeLines folds guest into user: equal item ids sum their quantities, other
// guest lines are appended in order. Neither input is modified.
func MergeLines(user, guest []domain.CartLine) []domain.CartLine {
	merged := copyLines(user)
	for _, line := range guest {
		found := false
		for i := range merged {
			if merged[i].ItemID == line.ItemID {
				merged[i].Quantity += line.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, line)
		}
	}
	return merged
}

func Total(lines []domain.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func ItemCount(lines []domain.CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

func copyLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
