package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"campus-eats/domain"

	"go.uber.org/zap"
)

var ErrUnknownVenue = errors.New("venue does not exist or is inactive")

type savedVenue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VenueSelector resolves the venue a session is browsing. Authenticated users keep
// their choice on their profile; guests keep it in the KV store under the session.
type VenueSelector struct {
	directory VenueDirectory
	kv        KVStore
	logger    *zap.Logger
	cacheTTL  time.Duration

	mu       sync.RWMutex
	venues   []domain.Venue
	cachedAt time.Time
}

func NewVenueSelector(directory VenueDirectory, kv KVStore, cacheTTL time.Duration, logger *zap.Logger) *VenueSelector {
	return &VenueSelector{
		directory: directory,
		kv:        kv,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

func SavedVenueKey(sessionID string) string {
	return "venue:" + sessionID
}

// List returns the active venues, served from cache within the TTL.
func (v *VenueSelector) List(ctx context.Context) ([]domain.Venue, error) {
	v.mu.RLock()
	if v.venues != nil && time.Since(v.cachedAt) < v.cacheTTL {
		venues := v.venues
		v.mu.RUnlock()
		return venues, nil
	}
	v.mu.RUnlock()

	all, err := v.directory.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}

	active := make([]domain.Venue, 0, len(all))
	for _, venue := range all {
		if venue.IsActive {
			active = append(active, venue)
		}
	}

	v.mu.Lock()
	v.venues = active
	v.cachedAt = time.Now()
	v.mu.Unlock()
	return active, nil
}

// Selected returns the session's venue, or nil when none is chosen yet. A venue a
// user picked before signing in is moved onto their profile.
func (v *VenueSelector) Selected(ctx context.Context, sessionID string, identity *domain.Identity, token string) (*domain.Venue, error) {
	venues, err := v.List(ctx)
	if err != nil {
		return nil, err
	}

	if identity != nil && identity.SelectedVenueID != "" {
		if venue, ok := domain.FindVenue(venues, identity.SelectedVenueID); ok {
			return &venue, nil
		}
		v.logger.Warn("profile venue no longer available",
			zap.String("user_id", identity.UserID), zap.String("venue", identity.SelectedVenueID))
		return nil, nil
	}

	saved, ok := v.readSaved(ctx, sessionID)
	if !ok {
		return nil, nil
	}

	venue, found := domain.FindVenue(venues, saved.ID)
	if !found {
		v.removeSaved(ctx, sessionID)
		return nil, nil
	}

	if identity != nil {
		if err := v.directory.UpdateUserVenue(ctx, token, venue.ID); err != nil {
			v.logger.Error("failed to move saved venue to profile",
				zap.String("user_id", identity.UserID), zap.Error(err))
			return &venue, nil
		}
		identity.SelectedVenueID = venue.ID
		v.removeSaved(ctx, sessionID)
	}
	return &venue, nil
}

func (v *VenueSelector) Select(ctx context.Context, sessionID string, identity *domain.Identity, token, venueID string) (*domain.Venue, error) {
	venues, err := v.List(ctx)
	if err != nil {
		return nil, err
	}
	venue, ok := domain.FindVenue(venues, venueID)
	if !ok {
		return nil, ErrUnknownVenue
	}

	if identity != nil {
		if err := v.directory.UpdateUserVenue(ctx, token, venue.ID); err != nil {
			return nil, fmt.Errorf("failed to update profile venue: %w", err)
		}
		identity.SelectedVenueID = venue.ID
	}

	payload, _ := json.Marshal(savedVenue{ID: venue.ID, Name: venue.Name})
	if err := v.kv.Set(ctx, SavedVenueKey(sessionID), string(payload)); err != nil {
		v.logger.Error("failed to save venue selection", zap.String("session", sessionID), zap.Error(err))
	}
	return &venue, nil
}

func (v *VenueSelector) readSaved(ctx context.Context, sessionID string) (savedVenue, bool) {
	raw, found, err := v.kv.Get(ctx, SavedVenueKey(sessionID))
	if err != nil {
		v.logger.Error("failed to read saved venue", zap.String("session", sessionID), zap.Error(err))
		return savedVenue{}, false
	}
	if !found {
		return savedVenue{}, false
	}

	var saved savedVenue
	if err := json.Unmarshal([]byte(raw), &saved); err != nil || saved.ID == "" {
		v.logger.Error("discarding unreadable saved venue", zap.String("session", sessionID))
		v.removeSaved(ctx, sessionID)
		return savedVenue{}, false
	}
	return saved, true
}

func (v *VenueSelector) removeSaved(ctx context.Context, sessionID string) {
	if err := v.kv.Remove(ctx, SavedVenueKey(sessionID)); err != nil {
		v.logger.Error("failed to remove saved venue", zap.String("session", sessionID), zap.Error(err))
	}
}
