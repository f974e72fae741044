package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/yogitridirgantara/POS-DR/internal/checkout"
	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/pricing"
	"github.com/yogitridirgantara/POS-DR/internal/publisher"
	"github.com/yogitridirgantara/POS-DR/pkg/metrics"
)

type CheckoutHandler struct {
	cart      *CartHandler
	publisher *publisher.SalePublisher
	metrics   *metrics.ServerMetrics
	timeout   time.Duration
}

func NewCheckoutHandler(cart *CartHandler, pub *publisher.SalePublisher, m *metrics.ServerMetrics, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		cart:      cart,
		publisher: pub,
		metrics:   m,
		timeout:   timeout,
	}
}

type CheckoutResponseDTO struct {
	State   string           `json:"state"`
	Pricing pricing.Snapshot `json:"pricing"`
}

type TransactionResponseDTO struct {
	State       string                    `json:"state"`
	Transaction *domain.TransactionRecord `json:"transaction"`
}

// Begin validates the cart and parks the checkout behind the confirmation
// gate. Nothing is persisted yet.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.cart.session(w, r)
	if !ok {
		return
	}

	quote, err := sess.Checkout.Begin()
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		State:   sess.Checkout.State().String(),
		Pricing: quote,
	})
}

// Confirm is the explicit operator gate: it triggers the single store insert
// and, on success, clears the cart and emits the sale event.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := h.cart.session(w, r)
	if !ok {
		return
	}

	record, err := sess.Checkout.Confirm(ctx)
	if err != nil {
		// Only submissions that reached the store count as failures; state
		// conflicts never left the process.
		var persistErr *checkout.PersistenceError
		if errors.As(err, &persistErr) {
			h.metrics.Checkouts.WithLabelValues("failed").Inc()
		}
		handleCheckoutError(w, err)
		return
	}

	h.metrics.Checkouts.WithLabelValues("succeeded").Inc()
	h.publisher.PublishAsync(record)

	respondJSON(w, http.StatusCreated, TransactionResponseDTO{
		State:       sess.Checkout.State().String(),
		Transaction: record,
	})
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.cart.session(w, r)
	if !ok {
		return
	}

	if err := sess.Checkout.Cancel(); err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		State:   sess.Checkout.State().String(),
		Pricing: pricing.Quote(sess.Cart),
	})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	var persistErr *checkout.PersistenceError

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrEmptyCustomerName):
		respondError(w, http.StatusUnprocessableEntity, "empty_customer_name", "customer name is required")
	case errors.Is(err, checkout.ErrCheckoutInProgress),
		errors.Is(err, checkout.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, checkout.ErrNotAwaitingConfirm):
		respondError(w, http.StatusConflict, "no_pending_checkout", err.Error())
	case errors.As(err, &persistErr):
		// The cart is intact; the operator can retry the same checkout.
		respondError(w, http.StatusBadGateway, "persistence_failed", "transaction could not be saved, retry the checkout")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
