package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Jatinjeswaniii/E-shoppingCart/internal/shop"
	"github.com/go-chi/chi/v5"
)

// UserStore is the user collaborator: registration field validation and
// credential checks, nothing session-shaped.
type UserStore interface {
	Register(ctx context.Context, u *shop.User, password string) error
	Authenticate(ctx context.Context, username, password string) (*shop.User, error)
}

type UsersHandler struct {
	Users UserStore
}

func (h *UsersHandler) Register(r *chi.Mux) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u := &shop.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Address:  req.Address,
	}
	if err := h.Users.Register(ctx, u, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
