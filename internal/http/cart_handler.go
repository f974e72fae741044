package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/pricing"
	"github.com/yogitridirgantara/POS-DR/internal/session"
)

type CartHandler struct {
	sessions *session.MemoryStore
	catalog  Catalog
	timeout  time.Duration
}

func NewCartHandler(sessions *session.MemoryStore, catalog Catalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  catalog,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CustomerRequestDTO struct {
	CustomerName string `json:"customer_name"`
	Note         string `json:"note"`
}

// CartResponseDTO pairs the cart with its live pricing snapshot, recomputed
// on every read.
type CartResponseDTO struct {
	SessionID string           `json:"session_id"`
	Cart      *domain.Cart     `json:"cart"`
	Pricing   pricing.Snapshot `json:"pricing"`
}

func (h *CartHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()
	respondJSON(w, http.StatusCreated, cartResponse(sess))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(sess))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := sess.Checkout.Mutate(func(c *domain.Cart) { c.AddItem(product) }); err != nil {
		handleCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(sess))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Quantities below 1 remove the line, mirroring the register's minus
	// button on a single-item line.
	if err := sess.Checkout.Mutate(func(c *domain.Cart) { c.SetQuantity(productID, req.Quantity) }); err != nil {
		handleCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(sess))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := sess.Checkout.Mutate(func(c *domain.Cart) { c.RemoveItem(productID) }); err != nil {
		handleCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(sess))
}

func (h *CartHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CustomerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := sess.Checkout.Mutate(func(c *domain.Cart) {
		c.CustomerName = req.CustomerName
		c.Note = req.Note
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(sess))
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "session_id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", "session not found")
		} else {
			respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return nil, false
	}
	return sess, true
}

func cartResponse(sess *session.Session) CartResponseDTO {
	return CartResponseDTO{
		SessionID: sess.ID,
		Cart:      sess.Cart,
		Pricing:   pricing.Quote(sess.Cart),
	}
}
