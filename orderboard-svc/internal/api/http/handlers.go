package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"campus-eats/backend"
	shared "campus-eats/domain"
	"campus-eats/orderboard-svc/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	Boards   *service.BoardRegistry
	Identity service.IdentityResolver
	logger   *zap.Logger
}

func NewHandler(boards *service.BoardRegistry, identity service.IdentityResolver, logger *zap.Logger) *Handler {
	return &Handler{
		Boards:   boards,
		Identity: identity,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/admin/boards", h.mountBoard).Methods("POST")
	r.HandleFunc("/api/admin/boards/{id}", h.getBoard).Methods("GET")
	r.HandleFunc("/api/admin/boards/{id}", h.unmountBoard).Methods("DELETE")
	r.HandleFunc("/api/admin/boards/{id}/visibility", h.setVisibility).Methods("PUT")
	r.HandleFunc("/api/admin/boards/{id}/refresh", h.refreshBoard).Methods("POST")
	r.HandleFunc("/api/admin/boards/{id}/orders/{orderId}/status", h.updateStatus).Methods("PUT")
	r.HandleFunc("/api/admin/boards/{id}/orders/{orderId}/qrcode", h.pickupQR).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "orderboard-svc",
		"boards":    h.Boards.Len(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type mountRequest struct {
	VenueID string `json:"venueId"`
	Hidden  bool   `json:"hidden"`
}

func (h *Handler) mountBoard(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.admin(w, r)
	if !ok {
		return
	}

	var req mountRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if req.VenueID == "" {
		req.VenueID = identity.SelectedVenueID
	}
	if req.VenueID == "" {
		http.Error(w, "venueId is required", http.StatusBadRequest)
		return
	}

	board := h.Boards.Mount(req.VenueID, identity.UserID, req.Hidden)
	writeJSON(w, http.StatusCreated, board.Snapshot())
}

func (h *Handler) getBoard(w http.ResponseWriter, r *http.Request) {
	board, _, ok := h.boardFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, board.Snapshot())
}

func (h *Handler) unmountBoard(w http.ResponseWriter, r *http.Request) {
	board, _, ok := h.boardFor(w, r)
	if !ok {
		return
	}
	if err := h.Boards.Unmount(board.ID()); err != nil && !errors.Is(err, service.ErrBoardNotFound) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request) {
	board, _, ok := h.boardFor(w, r)
	if !ok {
		return
	}

	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Visible == nil {
		http.Error(w, "visible is required", http.StatusBadRequest)
		return
	}

	board.SetVisible(*req.Visible)
	writeJSON(w, http.StatusOK, board.Snapshot())
}

func (h *Handler) refreshBoard(w http.ResponseWriter, r *http.Request) {
	board, _, ok := h.boardFor(w, r)
	if !ok {
		return
	}

	if err := board.Refresh(r.Context()); err != nil {
		switch {
		case errors.Is(err, service.ErrBoardStopped):
			http.Error(w, err.Error(), http.StatusGone)
		default:
			h.logger.Error("manual refresh failed", zap.String("board", board.ID()), zap.Error(err))
			http.Error(w, "Failed to refresh orders", http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, board.Snapshot())
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	board, identity, ok := h.boardFor(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	status, err := shared.ParseOrderStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	order, err := board.UpdateStatus(r.Context(), mux.Vars(r)["orderId"], status, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, service.ErrBoardStopped):
			http.Error(w, err.Error(), http.StatusGone)
		default:
			h.logger.Error("status update failed", zap.String("board", board.ID()), zap.Error(err))
			http.Error(w, "Failed to update order status", http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) pickupQR(w http.ResponseWriter, r *http.Request) {
	board, _, ok := h.boardFor(w, r)
	if !ok {
		return
	}

	png, err := board.PickupQR(mux.Vars(r)["orderId"])
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrNoPickupCode):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("failed to render pickup code", zap.Error(err))
			http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// admin resolves the caller and requires the admin role.
func (h *Handler) admin(w http.ResponseWriter, r *http.Request) (*shared.Identity, bool) {
	identity, status := h.authenticate(r)
	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return nil, false
	}
	return identity, true
}

// boardFor loads the addressed board for its owner. When the owner's session
// has ended or they are no longer an admin, the board is stopped.
func (h *Handler) boardFor(w http.ResponseWriter, r *http.Request) (*service.Board, *shared.Identity, bool) {
	board, err := h.Boards.Get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, nil, false
	}

	identity, status := h.authenticate(r)
	switch {
	case status == http.StatusUnauthorized:
		h.loseIdentity(board, "session ended")
		http.Error(w, http.StatusText(status), status)
		return nil, nil, false
	case status == http.StatusForbidden && identity.UserID == board.AdminID():
		h.loseIdentity(board, "admin role revoked")
		http.Error(w, http.StatusText(status), status)
		return nil, nil, false
	case status != http.StatusOK:
		http.Error(w, http.StatusText(status), status)
		return nil, nil, false
	case identity.UserID != board.AdminID():
		http.Error(w, "Board belongs to another admin", http.StatusForbidden)
		return nil, nil, false
	}
	board.Touch()
	return board, identity, true
}

func (h *Handler) loseIdentity(board *service.Board, reason string) {
	h.logger.Warn("stopping board after identity loss", zap.String("board", board.ID()), zap.String("reason", reason))
	h.Boards.Unmount(board.ID())
}

// authenticate returns http.StatusOK with an admin identity, or the status the
// caller should receive. A forbidden result still carries the identity.
func (h *Handler) authenticate(r *http.Request) (*shared.Identity, int) {
	token := bearerToken(r)
	if token == "" {
		return nil, http.StatusUnauthorized
	}

	identity, err := h.Identity.CurrentIdentity(r.Context(), token)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return nil, http.StatusUnauthorized
	case err != nil:
		h.logger.Error("failed to resolve identity", zap.Error(err))
		return nil, http.StatusBadGateway
	case identity == nil:
		return nil, http.StatusUnauthorized
	case !identity.IsAdmin():
		return identity, http.StatusForbidden
	}
	return identity, http.StatusOK
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
