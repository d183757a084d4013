package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"campus-eats/domain"
)

var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrNotFound     = errors.New("backend: not found")

	errUndecodable = errors.New("undecodable response body")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned for non-2xx responses other than 401/403/404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d: %s", e.Code, e.Body)
}

// Client talks to the campus REST backend. ServiceToken authorizes calls made on
// behalf of the service itself (order board polling).
type Client struct {
	BaseURL      string
	ServiceToken string
	client       HTTPClient
}

func NewClient(baseURL, serviceToken string, client HTTPClient) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ServiceToken: serviceToken,
		client:       client,
	}
}

func (c *Client) CurrentIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	var identity domain.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *Client) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	var payload struct {
		Colleges []domain.Venue `json:"colleges"`
	}
	if err := c.do(ctx, http.MethodGet, "/college/all", "", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Colleges, nil
}

func (c *Client) UpdateUserVenue(ctx context.Context, token, venueID string) error {
	body := map[string]string{"collegeId": venueID}
	return c.do(ctx, http.MethodPut, "/college/user/college", token, body, nil)
}

// CreateOrder places an order for the caller. The backend answers with the new
// order either bare or wrapped as {"order": ...}; an unrecognised body still
// counts as success.
func (c *Client) CreateOrder(ctx context.Context, token string, lines []domain.OrderLine) (*domain.Order, error) {
	body := map[string][]domain.OrderLine{"items": lines}
	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, "/orders", token, body, &raw)
	if errors.Is(err, errUndecodable) {
		return &domain.Order{}, nil
	}
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Order *domain.Order `json:"order"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Order != nil {
		return wrapped.Order, nil
	}
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return &domain.Order{}, nil
	}
	return &order, nil
}

func (c *Client) FetchAllOrders(ctx context.Context, venueID string) ([]domain.Order, error) {
	path := "/orders/admin/all?collegeId=" + url.QueryEscape(venueID)
	orders := []domain.Order{}
	if err := c.do(ctx, http.MethodGet, path, c.ServiceToken, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) SubmitStatusTransition(ctx context.Context, orderID string, status domain.OrderStatus, venueID string) error {
	path := "/orders/admin/" + url.PathEscape(orderID) + "/status"
	body := map[string]string{"status": string(status), "collegeId": venueID}
	return c.do(ctx, http.MethodPut, path, c.ServiceToken, body, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w: %w", path, errUndecodable, err)
	}
	return nil
}
