package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUpdater struct {
	calls []struct {
		ID   int64
		Next shop.Status
	}
	err error
}

func (m *mockUpdater) UpdateOrderStatus(ctx context.Context, id int64, next shop.Status) error {
	m.calls = append(m.calls, struct {
		ID   int64
		Next shop.Status
	}{id, next})
	return m.err
}

type mockCache struct {
	keys map[string]string
	dels []string
}

func newMockCache() *mockCache {
	return &mockCache{keys: map[string]string{}}
}

func (m *mockCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.keys[key]
	return ok, nil
}

func (m *mockCache) Set(_ context.Context, key, val string, _ time.Duration) error {
	m.keys[key] = val
	return nil
}

func (m *mockCache) Del(_ context.Context, key string) error {
	m.dels = append(m.dels, key)
	delete(m.keys, key)
	return nil
}

func placedMessage(t *testing.T, orderID int64) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(shop.OrderPlacedPayload{OrderID: orderID, UserID: 7})
	require.NoError(t, err)
	env, err := json.Marshal(shop.Envelope{
		EventID:      uuid.NewString(),
		EventType:    shop.EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "storefront-api",
		Payload:      payload,
	})
	require.NoError(t, err)
	return kafkago.Message{Value: env}
}

func TestHandleOrderPlaced_AdvancesToPaid(t *testing.T) {
	upd := &mockUpdater{}
	svc := &Service{Orders: upd, ServiceName: "fulfillment"}

	err := svc.HandleOrderPlaced(context.Background(), placedMessage(t, 42))
	require.NoError(t, err)
	require.Len(t, upd.calls, 1)
	assert.Equal(t, int64(42), upd.calls[0].ID)
	assert.Equal(t, shop.StatusPaid, upd.calls[0].Next)
}

func TestHandleOrderPlaced_IgnoresOtherEventTypes(t *testing.T) {
	upd := &mockUpdater{}
	svc := &Service{Orders: upd}

	env, err := json.Marshal(shop.Envelope{
		EventID:   uuid.NewString(),
		EventType: "OrderCancelled",
		Payload:   json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleOrderPlaced(context.Background(), kafkago.Message{Value: env}))
	assert.Empty(t, upd.calls)
}

func TestHandleOrderPlaced_MalformedEnvelope(t *testing.T) {
	upd := &mockUpdater{}
	svc := &Service{Orders: upd}

	err := svc.HandleOrderPlaced(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.Error(t, err)
	assert.Empty(t, upd.calls)
}

func TestHandleOrderPlaced_BadTransitionIsDropped(t *testing.T) {
	upd := &mockUpdater{err: shop.ErrBadTransition}
	svc := &Service{Orders: upd}

	assert.NoError(t, svc.HandleOrderPlaced(context.Background(), placedMessage(t, 42)))
}

func TestHandleOrderPlaced_MissingOrderIsDropped(t *testing.T) {
	upd := &mockUpdater{err: shop.ErrOrderNotFound}
	svc := &Service{Orders: upd}

	assert.NoError(t, svc.HandleOrderPlaced(context.Background(), placedMessage(t, 42)))
}

func TestHandleOrderPlaced_StoreErrorIsRetried(t *testing.T) {
	boom := errors.New("db down")
	upd := &mockUpdater{err: boom}
	svc := &Service{Orders: upd}

	err := svc.HandleOrderPlaced(context.Background(), placedMessage(t, 42))
	assert.ErrorIs(t, err, boom)
}

func TestHandleOrderPlaced_DuplicateDeliveryShortCircuits(t *testing.T) {
	upd := &mockUpdater{}
	svc := &Service{Orders: upd, Cache: newMockCache()}
	msg := placedMessage(t, 42)

	require.NoError(t, svc.HandleOrderPlaced(context.Background(), msg))
	require.NoError(t, svc.HandleOrderPlaced(context.Background(), msg))

	assert.Len(t, upd.calls, 1, "the duplicate must not reach the store")
}

func TestHandleOrderPlaced_StoreErrorLeavesEventUnmarked(t *testing.T) {
	// a failed update must stay retryable: the event may only be marked
	// processed once it reached a terminal outcome
	upd := &mockUpdater{err: errors.New("db down")}
	cache := newMockCache()
	svc := &Service{Orders: upd, Cache: cache}
	msg := placedMessage(t, 42)

	require.Error(t, svc.HandleOrderPlaced(context.Background(), msg))
	assert.Empty(t, cache.keys, "no dedup mark may be written for a failed update")

	// store recovered; the redelivery must go through
	upd.err = nil
	require.NoError(t, svc.HandleOrderPlaced(context.Background(), msg))
	require.Len(t, upd.calls, 2)
	assert.Equal(t, shop.StatusPaid, upd.calls[1].Next)
	assert.NotEmpty(t, cache.keys, "terminal outcome marks the event processed")
}

func TestHandleOrderPlaced_DroppedOutcomesAreMarked(t *testing.T) {
	upd := &mockUpdater{err: shop.ErrBadTransition}
	cache := newMockCache()
	svc := &Service{Orders: upd, Cache: cache}
	msg := placedMessage(t, 42)

	require.NoError(t, svc.HandleOrderPlaced(context.Background(), msg))
	assert.NotEmpty(t, cache.keys)

	require.NoError(t, svc.HandleOrderPlaced(context.Background(), msg))
	assert.Len(t, upd.calls, 1)
}

func TestHandleOrderPlaced_SuccessInvalidatesOrderCache(t *testing.T) {
	upd := &mockUpdater{}
	cache := newMockCache()
	svc := &Service{Orders: upd, Cache: cache}

	require.NoError(t, svc.HandleOrderPlaced(context.Background(), placedMessage(t, 42)))
	assert.Contains(t, cache.dels, "order:42",
		"cached aggregate must not keep serving the pending status")
}
