package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidSession = errors.New("invalid session id")

type session struct {
	store    *CartStore
	lastSeen time.Time
}

// SessionRegistry holds one CartStore per browsing session. Carts live in the KV
// store, so a session that is swept or lost on restart is rebuilt on next use.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	kv       KVStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewSessionRegistry(kv KVStore, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*session),
		kv:       kv,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *SessionRegistry) Create() (string, *CartStore) {
	id := uuid.NewString()
	store, _ := r.Open(id)
	return id, store
}

// Open returns the store for id, creating it if the session is unknown.
func (r *SessionRegistry) Open(id string) (*CartStore, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		sess = &session{store: NewCartStore(r.kv, r.logger.With(zap.String("session", id)))}
		r.sessions[id] = sess
	}
	sess.lastSeen = r.now()
	return sess.store, nil
}

func (r *SessionRegistry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than idle and returns how many were dropped.
func (r *SessionRegistry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	dropped := 0
	for id, sess := range r.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Info("swept idle cart sessions", zap.Int("dropped", dropped))
	}
	return dropped
}
