package handlers

import (
	"context"
	"net/http"

	"github.com/SachinRathod0101/Time-left-backend/internal/services"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, actor services.Actor, eventID string) (*services.Order, error)
}

type PaymentHandler struct {
	payments OrderCreator
}

func NewPaymentHandler(payments OrderCreator) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type CreateOrderRequest struct {
	EventID string `json:"eventId"`
}

// CreateOrder opens a Razorpay order for an event ticket. The client
// completes checkout with the returned order id.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.payments.CreateOrder(r.Context(), actorFrom(r), req.EventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}
