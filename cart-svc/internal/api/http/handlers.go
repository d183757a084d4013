package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"campus-eats/backend"
	"campus-eats/cart-svc/internal/domain"
	"campus-eats/cart-svc/internal/service"
	shared "campus-eats/domain"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	Sessions *service.SessionRegistry
	Venues   *service.VenueSelector
	Identity service.IdentityResolver
	Orders   service.OrderPlacer
	logger   *zap.Logger
}

func NewHandler(sessions *service.SessionRegistry, venues *service.VenueSelector, identity service.IdentityResolver, orders service.OrderPlacer, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Venues:   venues,
		Identity: identity,
		Orders:   orders,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/sessions", h.createSession).Methods("POST")
	r.HandleFunc("/api/venues", h.listVenues).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/venue", h.getVenue).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/venue", h.selectVenue).Methods("PUT")

	r.HandleFunc("/api/sessions/{id}/cart", h.getCart).Methods("GET")
	r.HandleFunc("/api/sessions/{id}/cart", h.clearCart).Methods("DELETE")
	r.HandleFunc("/api/sessions/{id}/cart/checkout", h.checkout).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/cart/items", h.addItem).Methods("POST")
	r.HandleFunc("/api/sessions/{id}/cart/items/{itemId}", h.setQuantity).Methods("PUT")
	r.HandleFunc("/api/sessions/{id}/cart/items/{itemId}", h.removeItem).Methods("DELETE")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "cart-svc",
		"sessions":  h.Sessions.Len(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	id, _ := h.Sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
}

func (h *Handler) listVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.Venues.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list venues", zap.Error(err))
		http.Error(w, "Failed to load venues", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, venues)
}

func (h *Handler) getVenue(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if _, err := h.Sessions.Open(sessionID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	identity, token, ok := h.identify(w, r)
	if !ok {
		return
	}

	venue, err := h.Venues.Selected(r.Context(), sessionID, identity, token)
	if err != nil {
		h.logger.Error("failed to resolve venue", zap.String("session", sessionID), zap.Error(err))
		http.Error(w, "Failed to load venues", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"venue": venue})
}

func (h *Handler) selectVenue(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	store, err := h.Sessions.Open(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var payload struct {
		VenueID string `json:"venueId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.VenueID == "" {
		http.Error(w, "Missing venueId", http.StatusBadRequest)
		return
	}

	identity, token, ok := h.identify(w, r)
	if !ok {
		return
	}

	venue, err := h.Venues.Select(r.Context(), sessionID, identity, token, payload.VenueID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownVenue) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to select venue", zap.String("session", sessionID), zap.Error(err))
		http.Error(w, "Failed to select venue", http.StatusBadGateway)
		return
	}

	store.Sync(r.Context(), identity.OwnerID(), venue.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"venue": venue})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, store.View())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}

	var payload struct {
		Item     domain.MenuItem `json:"item"`
		Quantity int             `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := store.AddItem(r.Context(), payload.Item, payload.Quantity); err != nil {
		switch {
		case errors.Is(err, service.ErrVenueNotSelected):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, service.ErrInvalidItem), errors.Is(err, service.ErrInvalidQuantity):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, store.View())
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}

	var payload struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Quantity == nil {
		http.Error(w, "Missing quantity", http.StatusBadRequest)
		return
	}

	store.SetQuantity(r.Context(), mux.Vars(r)["itemId"], *payload.Quantity)
	writeJSON(w, http.StatusOK, store.View())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	store.RemoveItem(r.Context(), mux.Vars(r)["itemId"])
	writeJSON(w, http.StatusOK, store.View())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}
	store.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	store, ok := h.openCart(w, r)
	if !ok {
		return
	}

	order, err := store.Checkout(r.Context(), h.Orders, bearerToken(r))
	if err != nil {
		var statusErr *backend.StatusError
		switch {
		case errors.Is(err, service.ErrLoginRequired):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, service.ErrVenueNotSelected):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, service.ErrEmptyCart):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, backend.ErrUnauthorized):
			http.Error(w, "Order not allowed for this account", http.StatusForbidden)
		case errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError:
			http.Error(w, statusErr.Body, statusErr.Code)
		default:
			h.logger.Error("checkout failed", zap.String("session", mux.Vars(r)["id"]), zap.Error(err))
			http.Error(w, "Failed to place order", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order": order,
		"cart":  store.View(),
	})
}

// openCart brings the session's cart in line with the caller's current identity
// and venue before any cart operation runs.
func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) (*service.CartStore, bool) {
	sessionID := mux.Vars(r)["id"]
	store, err := h.Sessions.Open(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	identity, token, ok := h.identify(w, r)
	if !ok {
		return nil, false
	}

	venue, err := h.Venues.Selected(r.Context(), sessionID, identity, token)
	if err != nil {
		h.logger.Error("failed to resolve venue", zap.String("session", sessionID), zap.Error(err))
		http.Error(w, "Failed to load venues", http.StatusBadGateway)
		return nil, false
	}

	venueID := ""
	if venue != nil {
		venueID = venue.ID
	}
	store.Sync(r.Context(), identity.OwnerID(), venueID)
	return store, true
}

// identify resolves the bearer token. A missing or rejected token means a guest.
func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (*shared.Identity, string, bool) {
	token := bearerToken(r)
	if token == "" {
		return nil, "", true
	}

	identity, err := h.resolve(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to resolve identity", zap.Error(err))
		http.Error(w, "Failed to verify session", http.StatusBadGateway)
		return nil, "", false
	}
	return identity, token, true
}

func (h *Handler) resolve(ctx context.Context, token string) (*shared.Identity, error) {
	identity, err := h.Identity.CurrentIdentity(ctx, token)
	if errors.Is(err, backend.ErrUnauthorized) {
		return nil, nil
	}
	return identity, err
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
