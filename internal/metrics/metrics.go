package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ShopMetrics struct {
	OrdersPlaced     *prometheus.CounterVec
	PlacementSeconds prometheus.Histogram
}

func NewShopMetrics(service string) *ShopMetrics {
	service = strings.ReplaceAll(service, "-", "_") // metric names reject dashes
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eshop",
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Order placement attempts by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eshop",
		Subsystem: service,
		Name:      "placement_duration_seconds",
		Help:      "Order placement latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	prometheus.MustRegister(placed, latency)
	return &ShopMetrics{OrdersPlaced: placed, PlacementSeconds: latency}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
