package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlacer struct {
	gotUserID  int64
	gotAddress string
	gotCart    *shop.Cart
	order      *shop.Order
	err        error
}

func (m *mockPlacer) PlaceOrder(ctx context.Context, userID int64, addr string, cart *shop.Cart) (*shop.Order, error) {
	m.gotUserID = userID
	m.gotAddress = addr
	m.gotCart = cart
	return m.order, m.err
}

type mockReader struct {
	orders    map[int64]*shop.Order
	byUser    map[int64][]shop.Order
	statusErr error
	statuses  map[int64]shop.Status
}

func (m *mockReader) GetOrderByID(ctx context.Context, id int64) (*shop.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, shop.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockReader) GetOrdersByUser(ctx context.Context, userID int64) ([]shop.Order, error) {
	return m.byUser[userID], nil
}

func (m *mockReader) UpdateOrderStatus(ctx context.Context, id int64, next shop.Status) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	if m.statuses == nil {
		m.statuses = map[int64]shop.Status{}
	}
	m.statuses[id] = next
	return nil
}

type published struct {
	Key     []byte
	Value   []byte
	Headers []kafkago.Header
}

type mockPublisher struct{ msgs []published }

func (m *mockPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	m.msgs = append(m.msgs, published{Key: key, Value: value, Headers: headers})
}

func newTestRouter(h *OrdersHandler) *chi.Mux {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func placedOrder() *shop.Order {
	return &shop.Order{
		ID:          42,
		UserID:      7,
		TotalAmount: decimal.RequireFromString("25.00"),
		Status:      shop.StatusPending,
		Lines: []shop.OrderLine{
			{OrderID: 42, ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{OrderID: 42, ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
	}
}

func postPlace(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const placeBody = `{"user_id":7,"shipping_address":"Jl. Kenanga 9","items":[{"product_id":1,"qty":2},{"product_id":2,"qty":1}]}`

func TestPlaceOrder_Created(t *testing.T) {
	placer := &mockPlacer{order: placedOrder()}
	pub := &mockPublisher{}
	h := &OrdersHandler{Placer: placer, Producer: pub, Service: "storefront-api"}

	w := postPlace(t, newTestRouter(h), placeBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp placeOrderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.OrderID)
	assert.Equal(t, "25", resp.TotalAmount)
	assert.Equal(t, "pending", resp.Status)

	assert.Equal(t, int64(7), placer.gotUserID)
	assert.Equal(t, "Jl. Kenanga 9", placer.gotAddress)
	require.NotNil(t, placer.gotCart)
	assert.Equal(t, 3, placer.gotCart.ItemCount())

	// one event on the wire, keyed by order id
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, []byte("42"), pub.msgs[0].Key)
	var env shop.Envelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].Value, &env))
	assert.Equal(t, shop.EventOrderPlaced, env.EventType)
	assert.Equal(t, "42", env.CorrelationID)
	assert.Equal(t, "storefront-api", env.Producer)
	var payload shop.OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, int64(42), payload.OrderID)
	assert.Len(t, payload.Lines, 2)
}

func TestPlaceOrder_BadRequests(t *testing.T) {
	h := &OrdersHandler{Placer: &mockPlacer{order: placedOrder()}}
	r := newTestRouter(h)

	assert.Equal(t, http.StatusBadRequest, postPlace(t, r, "not json").Code)
	assert.Equal(t, http.StatusBadRequest, postPlace(t, r, `{"user_id":0,"items":[{"product_id":1,"qty":1}]}`).Code)
	assert.Equal(t, http.StatusBadRequest, postPlace(t, r, `{"user_id":7,"items":[]}`).Code)
}

func TestPlaceOrder_EmptyCartRejection(t *testing.T) {
	h := &OrdersHandler{Placer: &mockPlacer{err: shop.ErrEmptyCart}}

	w := postPlace(t, newTestRouter(h), placeBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrder_InsufficientStockConflict(t *testing.T) {
	h := &OrdersHandler{Placer: &mockPlacer{
		err: &shop.InsufficientStockError{ProductID: 2, Available: 0, Requested: 1},
	}}

	w := postPlace(t, newTestRouter(h), placeBody)
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["product_id"])
	assert.EqualValues(t, 0, body["available"])
	assert.EqualValues(t, 1, body["requested"])
}

func TestPlaceOrder_ConnectionUnavailable(t *testing.T) {
	h := &OrdersHandler{Placer: &mockPlacer{
		err: fmt.Errorf("%w: pool exhausted", shop.ErrConnection),
	}}

	w := postPlace(t, newTestRouter(h), placeBody)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["retryable"])
}

func TestPlaceOrder_RollbackFailureNotRetryable(t *testing.T) {
	h := &OrdersHandler{Placer: &mockPlacer{
		err: &shop.RollbackError{
			Cause: &shop.TxError{Step: "insert order lines", Err: fmt.Errorf("boom")},
			Err:   fmt.Errorf("conn gone"),
		},
	}}

	w := postPlace(t, newTestRouter(h), placeBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["retryable"])
}

func TestGetOrder(t *testing.T) {
	h := &OrdersHandler{Orders: &mockReader{orders: map[int64]*shop.Order{42: placedOrder()}}}
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got shop.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.ID)
	assert.Len(t, got.Lines, 2)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUserOrders_EmptyIsArray(t *testing.T) {
	h := &OrdersHandler{Orders: &mockReader{}}
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/7/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestUpdateStatus(t *testing.T) {
	reader := &mockReader{}
	h := &OrdersHandler{Orders: reader}
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPatch, "/orders/42/status", bytes.NewBufferString(`{"status":"paid"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, shop.StatusPaid, reader.statuses[42])
}

func TestUpdateStatus_BadTransitionConflict(t *testing.T) {
	h := &OrdersHandler{Orders: &mockReader{
		statusErr: fmt.Errorf("%w: shipped -> pending", shop.ErrBadTransition),
	}}
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPatch, "/orders/42/status", bytes.NewBufferString(`{"status":"pending"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}
