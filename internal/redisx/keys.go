package redisx

import "time"

const (
	// Cache aggregate order: order:{order_id} -> serialized order JSON
	KeyOrder = "order:%d"

	// Cache product catalog listing -> serialized product slice
	KeyCatalog = "catalog:products"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache   = 5 * time.Minute
	TTLCatalogCache = 1 * time.Minute
	TTLDedup        = 48 * time.Hour
)
