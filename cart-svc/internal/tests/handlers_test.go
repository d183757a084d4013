package tests

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus-eats/backend"
	httpapi "campus-eats/cart-svc/internal/api/http"
	cartdomain "campus-eats/cart-svc/internal/domain"
	"campus-eats/cart-svc/internal/mocks"
	"campus-eats/cart-svc/internal/service"
	"campus-eats/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cartHarness struct {
	router    *mux.Router
	identity  *mocks.IdentityResolver
	directory *mocks.VenueDirectory
	orders    *mocks.OrderPlacer
	redis     *miniredis.Miniredis
}

func newCartHarness(t *testing.T) *cartHarness {
	t.Helper()
	kv, mr := newRedisKV(t)
	identity := mocks.NewIdentityResolver(t)
	directory := mocks.NewVenueDirectory(t)
	directory.On("ListVenues", mock.Anything).Return(testVenues, nil).Maybe()
	orders := mocks.NewOrderPlacer(t)

	handler := httpapi.NewHandler(
		service.NewSessionRegistry(kv, zap.NewNop()),
		service.NewVenueSelector(directory, kv, time.Minute, zap.NewNop()),
		identity,
		orders,
		zap.NewNop(),
	)
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	return &cartHarness{router: r, identity: identity, directory: directory, orders: orders, redis: mr}
}

func (h *cartHarness) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func (h *cartHarness) newSession(t *testing.T) string {
	t.Helper()
	rr := h.do(http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	_, err := uuid.Parse(body["sessionId"])
	require.NoError(t, err)
	return body["sessionId"]
}

func decodeCart(t *testing.T, rr *httptest.ResponseRecorder) cartdomain.CartView {
	t.Helper()
	var view cartdomain.CartView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&view))
	return view
}

func TestCartHandlers_GuestFlow(t *testing.T) {
	h := newCartHarness(t)
	session := h.newSession(t)
	base := "/api/sessions/" + session

	rr := h.do(http.MethodPost, base+"/cart/items", "", `{"item":{"_id":"a","name":"Dosa","price":40},"quantity":1}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = h.do(http.MethodPut, base+"/venue", "", `{"venueId":"north"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = h.do(http.MethodPost, base+"/cart/items", "", `{"item":{"_id":"a","name":"Dosa","price":40},"quantity":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = h.do(http.MethodPost, base+"/cart/items", "", `{"item":{"_id":"b","name":"Tea","price":10}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	view := decodeCart(t, rr)
	assert.Equal(t, "north", view.Venue)
	assert.Equal(t, 90.0, view.Total)
	assert.Equal(t, 3, view.ItemCount)

	rr = h.do(http.MethodPut, base+"/cart/items/a", "", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rr.Code)
	view = decodeCart(t, rr)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "b", view.Lines[0].ItemID)

	rr = h.do(http.MethodDelete, base+"/cart/items/b", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeCart(t, rr).Lines)

	rr = h.do(http.MethodDelete, base+"/cart", "", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, h.redis.Exists("cart:guest:north"))
}

func TestCartHandlers_LoginMergesGuestCart(t *testing.T) {
	h := newCartHarness(t)
	session := h.newSession(t)
	base := "/api/sessions/" + session
	seedCart(t, h.redis, "cart:user:u1:north", []cartdomain.CartLine{line("a", 10, 2)})

	h.identity.On("CurrentIdentity", mock.Anything, "user-token").
		Return(&domain.Identity{UserID: "u1", Name: "Asha"}, nil)
	h.directory.On("UpdateUserVenue", mock.Anything, "user-token", "north").Return(nil).Once()

	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/venue", "", `{"venueId":"north"}`).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, base+"/cart/items", "", `{"item":{"_id":"a","price":10},"quantity":3}`).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, base+"/cart/items", "", `{"item":{"_id":"b","price":5},"quantity":1}`).Code)

	rr := h.do(http.MethodGet, base+"/cart", "user-token", "")
	require.Equal(t, http.StatusOK, rr.Code)

	view := decodeCart(t, rr)
	assert.Equal(t, "u1", view.Owner)
	assert.Equal(t, map[string]int{"a": 5, "b": 1}, quantities(view.Lines))
	assert.False(t, h.redis.Exists("cart:guest:north"))
}

func TestCartHandlers_NegativeQuantityIsRejected(t *testing.T) {
	h := newCartHarness(t)
	base := "/api/sessions/" + h.newSession(t)
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, base+"/venue", "", `{"venueId":"north"}`).Code)

	rr := h.do(http.MethodPost, base+"/cart/items", "", `{"item":{"_id":"a","price":10},"quantity":-2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(http.MethodGet, base+"/cart", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeCart(t, rr).Lines)
}

func TestCartHandlers_Checkout(t *testing.T) {
	tests := []struct {
		name         string
		prepareMocks func(orders *mocks.OrderPlacer)
		wantCode     int
		wantLines    int
	}{
		{
			name: "placed",
			prepareMocks: func(orders *mocks.OrderPlacer) {
				orders.On("CreateOrder", mock.Anything, "user-token", []domain.OrderLine{{MenuItemID: "a", Quantity: 2}}).
					Return(&domain.Order{ID: "o1", PickupCode: "AB12", Status: domain.StatusPending}, nil).Once()
			},
			wantCode:  http.StatusCreated,
			wantLines: 0,
		},
		{
			name: "rejected_by_backend",
			prepareMocks: func(orders *mocks.OrderPlacer) {
				orders.On("CreateOrder", mock.Anything, "user-token", mock.Anything).
					Return(nil, &backend.StatusError{Code: http.StatusBadRequest, Body: "Menu item unavailable"}).Once()
			},
			wantCode:  http.StatusBadRequest,
			wantLines: 1,
		},
		{
			name: "phone_not_verified",
			prepareMocks: func(orders *mocks.OrderPlacer) {
				orders.On("CreateOrder", mock.Anything, "user-token", mock.Anything).
					Return(nil, backend.ErrUnauthorized).Once()
			},
			wantCode:  http.StatusForbidden,
			wantLines: 1,
		},
		{
			name: "backend_down",
			prepareMocks: func(orders *mocks.OrderPlacer) {
				orders.On("CreateOrder", mock.Anything, "user-token", mock.Anything).
					Return(nil, errors.New("connection refused")).Once()
			},
			wantCode:  http.StatusBadGateway,
			wantLines: 1,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			h := newCartHarness(t)
			base := "/api/sessions/" + h.newSession(t)
			h.identity.On("CurrentIdentity", mock.Anything, "user-token").
				Return(&domain.Identity{UserID: "u1", SelectedVenueID: "north"}, nil)
			seedCart(t, h.redis, "cart:user:u1:north", []cartdomain.CartLine{line("a", 10, 2)})
			testCase.prepareMocks(h.orders)

			rr := h.do(http.MethodPost, base+"/cart/checkout", "user-token", "")
			assert.Equal(t, testCase.wantCode, rr.Code)

			rr = h.do(http.MethodGet, base+"/cart", "user-token", "")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Len(t, decodeCart(t, rr).Lines, testCase.wantLines)
			assert.Equal(t, testCase.wantLines > 0, h.redis.Exists("cart:user:u1:north"))
		})
	}
}

func TestCartHandlers_CheckoutResponse(t *testing.T) {
	h := newCartHarness(t)
	h.identity.On("CurrentIdentity", mock.Anything, "user-token").
		Return(&domain.Identity{UserID: "u1", SelectedVenueID: "north"}, nil)

	rr := h.do(http.MethodPost, "/api/sessions/"+h.newSession(t)+"/cart/checkout", "user-token", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	seedCart(t, h.redis, "cart:user:u1:north", []cartdomain.CartLine{line("a", 10, 1)})
	h.orders.On("CreateOrder", mock.Anything, "user-token", []domain.OrderLine{{MenuItemID: "a", Quantity: 1}}).
		Return(&domain.Order{ID: "o1", PickupCode: "AB12", Status: domain.StatusPending}, nil).Once()

	rr = h.do(http.MethodPost, "/api/sessions/"+h.newSession(t)+"/cart/checkout", "user-token", "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Order domain.Order        `json:"order"`
		Cart  cartdomain.CartView `json:"cart"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "AB12", body.Order.PickupCode)
	assert.Empty(t, body.Cart.Lines)
	assert.Equal(t, "u1", body.Cart.Owner)
}

func TestCartHandlers_RejectedTokenIsGuest(t *testing.T) {
	h := newCartHarness(t)
	session := h.newSession(t)

	h.identity.On("CurrentIdentity", mock.Anything, "expired").Return(nil, backend.ErrUnauthorized)

	rr := h.do(http.MethodGet, "/api/sessions/"+session+"/cart", "expired", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "", decodeCart(t, rr).Owner)
}

func TestCartHandlers_Errors(t *testing.T) {
	h := newCartHarness(t)
	session := h.newSession(t)

	h.identity.On("CurrentIdentity", mock.Anything, "flaky").Return(nil, errors.New("connection reset"))

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     string
		wantCode int
	}{
		{"invalid_session", http.MethodGet, "/api/sessions/nope/cart", "", "", http.StatusBadRequest},
		{"identity_backend_down", http.MethodGet, "/api/sessions/" + session + "/cart", "flaky", "", http.StatusBadGateway},
		{"unknown_venue", http.MethodPut, "/api/sessions/" + session + "/venue", "", `{"venueId":"closed"}`, http.StatusBadRequest},
		{"missing_venue_id", http.MethodPut, "/api/sessions/" + session + "/venue", "", `{}`, http.StatusBadRequest},
		{"bad_item_json", http.MethodPost, "/api/sessions/" + session + "/cart/items", "", `nope`, http.StatusBadRequest},
		{"missing_quantity", http.MethodPut, "/api/sessions/" + session + "/cart/items/a", "", `{}`, http.StatusBadRequest},
		{"guest_checkout", http.MethodPost, "/api/sessions/" + session + "/cart/checkout", "", "", http.StatusUnauthorized},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			rr := h.do(testCase.method, testCase.path, testCase.token, testCase.body)
			assert.Equal(t, testCase.wantCode, rr.Code)
		})
	}
}

func TestCartHandlers_VenuesAndHealth(t *testing.T) {
	h := newCartHarness(t)
	session := h.newSession(t)

	rr := h.do(http.MethodGet, "/api/venues", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var venues []domain.Venue
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&venues))
	assert.Len(t, venues, 2)

	rr = h.do(http.MethodGet, "/api/sessions/"+session+"/venue", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"venue":null}`, rr.Body.String())

	rr = h.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.Equal(t, "cart-svc", health["service"])
}
