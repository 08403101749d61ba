package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusCaptured PaymentStatus = "captured"
)

// Payment is the ledger row written when an external order is created.
type Payment struct {
	ID                uuid.UUID     `json:"id"`
	UserID            string        `json:"userId"`
	EventID           string        `json:"eventId"`
	Amount            int64         `json:"amount"`
	Currency          string        `json:"currency"`
	Receipt           string        `json:"receipt"`
	RazorpayOrderID   string        `json:"razorpayOrderId"`
	RazorpayPaymentID string        `json:"razorpayPaymentId,omitempty"`
	Status            PaymentStatus `json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
}
