package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	kafkax "github.com/Jatinjeswaniii/E-shoppingCart/internal/kafka"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/metrics"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/redisx"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// OrderPlacer is the placement protocol as the handler sees it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID int64, shippingAddress string, cart *shop.Cart) (*shop.Order, error)
}

// OrderReader covers the read/update side of the order store.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id int64) (*shop.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]shop.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, next shop.Status) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Placer   OrderPlacer
	Orders   OrderReader
	Producer Publisher // optional
	Redis    *redis.Client
	Metrics  *metrics.ShopMetrics
	Service  string
}

type placeOrderReq struct {
	UserID          int64           `json:"user_id"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []placeOrderLine `json:"items"`
}

type placeOrderLine struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type placeOrderResp struct {
	OrderID     int64  `json:"order_id"`
	TotalAmount string `json:"total_amount"`
	Status      string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
	r.Get("/users/{userID}/orders", h.listUserOrders)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID <= 0 || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	// Cart snapshot dari client: hanya id+qty yang dipercaya, harga
	// diambil ulang oleh core.
	cart := shop.NewCart()
	for _, it := range req.Items {
		cart.Add(shop.Product{ID: it.ProductID}, it.Qty)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	order, err := h.Placer.PlaceOrder(ctx, req.UserID, req.ShippingAddress, cart)
	if h.Metrics != nil {
		h.Metrics.PlacementSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		h.countPlacement("rejected")
		writeError(w, err)
		return
	}
	h.countPlacement("placed")

	if h.Redis != nil {
		// invalidate any stale aggregate, cache comes back on first read
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrder, order.ID)).Err()
	}
	h.publishPlaced(order)

	writeJSON(w, http.StatusCreated, placeOrderResp{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount.String(),
		Status:      string(order.Status),
	})
}

func (h *OrdersHandler) countPlacement(outcome string) {
	if h.Metrics != nil {
		h.Metrics.OrdersPlaced.WithLabelValues(outcome).Inc()
	}
}

func (h *OrdersHandler) publishPlaced(order *shop.Order) {
	if h.Producer == nil {
		return
	}
	lines := make([]shop.PlacedLine, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, shop.PlacedLine{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: strconv.FormatInt(order.ID, 10),
		Payload: kafkax.MustMarshal(shop.OrderPlacedPayload{
			OrderID:     order.ID,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
			Lines:       lines,
		}),
	}
	h.Producer.Publish(shop.PartitionKey(order.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrder, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	order, err := h.Orders.GetOrderByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(order); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Orders.GetOrdersByUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []shop.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Orders.UpdateOrderStatus(ctx, id, shop.Status(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrder, id)).Err()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
