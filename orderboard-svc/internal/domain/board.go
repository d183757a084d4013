package domain

import (
	"time"

	shared "campus-eats/domain"
)

type BoardState string

const (
	StateIdle    BoardState = "idle"
	StatePolling BoardState = "polling"
	StatePaused  BoardState = "paused"
	StateStopped BoardState = "stopped"
)

// Snapshot is a consistent read of one mounted board.
type Snapshot struct {
	BoardID       string         `json:"boardId"`
	VenueID       string         `json:"venueId"`
	State         BoardState     `json:"state"`
	Orders        []shared.Order `json:"orders"`
	LastUpdatedAt *time.Time     `json:"lastUpdatedAt"`
	IntervalMs    int64          `json:"intervalMs"`
	Visible       bool           `json:"visible"`
	Refreshing    bool           `json:"refreshing"`
}
