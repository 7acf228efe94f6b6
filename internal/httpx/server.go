package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Jatinjeswaniii/E-shoppingCart/internal/metrics"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core's error taxonomy onto status codes, so the
// presentation layer renders what the core reports without inspecting
// message strings.
func writeError(w http.ResponseWriter, err error) {
	var ve *shop.ValidationError
	var ise *shop.InsufficientStockError
	var rbe *shop.RollbackError
	var txe *shop.TxError

	switch {
	case errors.Is(err, shop.ErrEmptyCart), errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.As(err, &ise):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      err.Error(),
			"product_id": ise.ProductID,
			"available":  ise.Available,
			"requested":  ise.Requested,
		})
	case errors.Is(err, shop.ErrBadTransition):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case errors.Is(err, shop.ErrOrderNotFound),
		errors.Is(err, shop.ErrProductNotFound),
		errors.Is(err, shop.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, shop.ErrBadCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
	case errors.Is(err, shop.ErrConnection):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error(), "retryable": true})
	case errors.As(err, &rbe):
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "retryable": false})
	case errors.As(err, &txe):
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "retryable": true})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}
