package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrBoardNotFound = errors.New("board not found")

// BoardDeps is shared by every board a registry mounts.
type BoardDeps struct {
	Backend   OrderBackend
	Publisher StatusPublisher
	QR        QRGenerator
	Cadence   *Cadence
	Clock     Clock
	Metrics   *Metrics
}

type BoardRegistry struct {
	mu     sync.RWMutex
	boards map[string]*Board
	deps   BoardDeps
	logger *zap.Logger
}

func NewBoardRegistry(deps BoardDeps, logger *zap.Logger) *BoardRegistry {
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}
	return &BoardRegistry{
		boards: make(map[string]*Board),
		deps:   deps,
		logger: logger,
	}
}

// Mount starts a board for venueID. The board outlives the request that
// mounted it and is forgotten once it stops.
func (r *BoardRegistry) Mount(venueID, adminID string, hidden bool) *Board {
	board := NewBoard(BoardOptions{
		ID:        uuid.NewString(),
		VenueID:   venueID,
		AdminID:   adminID,
		Hidden:    hidden,
		Backend:   r.deps.Backend,
		Publisher: r.deps.Publisher,
		QR:        r.deps.QR,
		Cadence:   r.deps.Cadence,
		Clock:     r.deps.Clock,
		Metrics:   r.deps.Metrics,
		Logger:    r.logger,
	})

	r.mu.Lock()
	r.boards[board.ID()] = board
	r.mu.Unlock()

	board.Start()
	go r.forget(board)
	return board
}

func (r *BoardRegistry) forget(board *Board) {
	<-board.Done()
	r.mu.Lock()
	if r.boards[board.ID()] == board {
		delete(r.boards, board.ID())
	}
	r.mu.Unlock()
}

func (r *BoardRegistry) Get(id string) (*Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	board, ok := r.boards[id]
	if !ok {
		return nil, ErrBoardNotFound
	}
	return board, nil
}

func (r *BoardRegistry) Unmount(id string) error {
	r.mu.Lock()
	board, ok := r.boards[id]
	delete(r.boards, id)
	r.mu.Unlock()

	if !ok {
		return ErrBoardNotFound
	}
	board.Stop()
	return nil
}

func (r *BoardRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boards)
}

// Sweep stops boards whose admin has not touched them for longer than idle
// and returns how many were stopped.
func (r *BoardRegistry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	var stale []*Board
	for id, board := range r.boards {
		if board.IdleFor() > idle {
			stale = append(stale, board)
			delete(r.boards, id)
		}
	}
	r.mu.Unlock()

	for _, board := range stale {
		board.Stop()
	}
	if len(stale) > 0 {
		r.logger.Info("swept idle boards", zap.Int("stopped", len(stale)))
	}
	return len(stale)
}

func (r *BoardRegistry) StopAll() {
	r.mu.Lock()
	boards := make([]*Board, 0, len(r.boards))
	for id, board := range r.boards {
		boards = append(boards, board)
		delete(r.boards, id)
	}
	r.mu.Unlock()

	for _, board := range boards {
		board.Stop()
		<-board.Done()
	}
}
