package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions lists, per status, the statuses an admin may request next.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

var ranks = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusCompleted: 4,
	StatusCancelled: 4,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the statuses reachable from s in one step.
func (s OrderStatus) Next() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, candidate := range transitions[s] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition exists.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Rank orders statuses along the lifecycle. Terminal statuses share the highest rank.
func (s OrderStatus) Rank() int {
	rank, ok := ranks[s]
	if !ok {
		return -1
	}
	return rank
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

type Customer struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnmarshalJSON accepts either a populated user object or a bare user id.
func (c *Customer) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*c = Customer{ID: id}
		return nil
	}
	type plain Customer
	return json.Unmarshal(data, (*plain)(c))
}

type OrderItem struct {
	ItemID              string  `json:"itemId"`
	Name                string  `json:"name"`
	Price               float64 `json:"price"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions string  `json:"specialInstructions,omitempty"`
}

type Order struct {
	ID          string      `json:"_id"`
	PickupCode  string      `json:"pickupCode"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"orderDate"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Customer    *Customer   `json:"userId,omitempty"`
	VenueID     string      `json:"collegeId,omitempty"`
}

type StatusEvent struct {
	Type      string      `json:"type"`
	OrderID   string      `json:"orderId"`
	VenueID   string      `json:"venueId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ActorID   string      `json:"actorId"`
	Timestamp time.Time   `json:"timestamp"`
}

const EventOrderStatusChanged = "order_status_changed"

// OrderLine is one requested line of a new order.
type OrderLine struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}
