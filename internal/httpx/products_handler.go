package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Jatinjeswaniii/E-shoppingCart/internal/redisx"
	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// CatalogStore is the product store as the catalog endpoints see it.
type CatalogStore interface {
	GetByID(ctx context.Context, id int64) (*shop.Product, error)
	GetAll(ctx context.Context) ([]shop.Product, error)
	Create(ctx context.Context, p *shop.Product) error
	Update(ctx context.Context, p *shop.Product) error
	Delete(ctx context.Context, id int64) error
}

type ProductsHandler struct {
	Products CatalogStore
	Redis    *redis.Client
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyCatalog).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	ps, err := h.Products.GetAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if ps == nil {
		ps = []shop.Product{}
	}
	if h.Redis != nil {
		if b, err := json.Marshal(ps); err == nil {
			_ = h.Redis.Set(ctx, redisx.KeyCatalog, b, redisx.TTLCatalogCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p shop.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Products.Create(ctx, &p); err != nil {
		writeError(w, err)
		return
	}
	h.invalidateCatalog(ctx)
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	var p shop.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	p.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Products.Update(ctx, &p); err != nil {
		writeError(w, err)
		return
	}
	h.invalidateCatalog(ctx)
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	h.invalidateCatalog(ctx)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) invalidateCatalog(ctx context.Context) {
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, redisx.KeyCatalog).Err()
	}
}
