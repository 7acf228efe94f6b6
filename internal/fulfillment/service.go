package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Jatinjeswaniii/E-shoppingCart/internal/redisx"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	kafkago "github.com/segmentio/kafka-go"
)

// OrderStatusUpdater is the slice of shop.OrderRepo the worker needs.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, id int64, next shop.Status) error
}

// EventCache marks events processed and invalidates stale read caches.
type EventCache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Service advances freshly placed orders to paid. Payment capture itself
// is simulated; the point is moving status through the transition table
// off the placement path.
type Service struct {
	Orders      OrderStatusUpdater
	Cache       EventCache // optional
	ServiceName string
}

// HandleOrderPlaced is the consumer handler for shop.TopicOrderPlaced.
// Redelivery is harmless: duplicates short-circuit on the redis dedup key
// or on the transition table. The dedup key is written only after the
// event reached a terminal outcome; a failed status update must stay
// unmarked so the redelivery retries it.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventOrderPlaced {
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "fulfillment", env.EventID)
	if s.Cache != nil {
		seen, _ := s.Cache.Exists(ctx, dkey)
		if seen {
			return nil
		}
	}

	var p shop.OrderPlacedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	err := s.Orders.UpdateOrderStatus(ctx, p.OrderID, shop.StatusPaid)
	switch {
	case err == nil:
		log.Printf("order %d marked paid", p.OrderID)
		s.markProcessed(ctx, dkey)
		if s.Cache != nil {
			// readers must not keep seeing the pending aggregate
			_ = s.Cache.Del(ctx, fmt.Sprintf(redisx.KeyOrder, p.OrderID))
		}
		return nil
	case errors.Is(err, shop.ErrBadTransition):
		// already advanced (e.g. cancelled, or a duplicate event)
		s.markProcessed(ctx, dkey)
		return nil
	case errors.Is(err, shop.ErrOrderNotFound):
		log.Printf("order %d from event %s not found, dropping", p.OrderID, env.EventID)
		s.markProcessed(ctx, dkey)
		return nil
	default:
		return err // retry via consumer
	}
}

func (s *Service) markProcessed(ctx context.Context, dkey string) {
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, dkey, "1", redisx.TTLDedup)
	}
}
