package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentLedger stores a record of every order created.
type PaymentLedger interface {
	Create(ctx context.Context, p *models.Payment) error
}

type PaymentService struct {
	gateway  OrderGateway
	ledger   PaymentLedger
	amount   int64
	currency string
	timeout  time.Duration
	now      func() time.Time
}

func NewPaymentService(gateway OrderGateway, ledger PaymentLedger, amount int64, currency string, timeout time.Duration) *PaymentService {
	return &PaymentService{
		gateway:  gateway,
		ledger:   ledger,
		amount:   amount,
		currency: currency,
		timeout:  timeout,
		now:      time.Now,
	}
}

// CreateOrder opens a gateway order for eventID and records it. The order is
// not linked to the event's roster or status.
func (s *PaymentService) CreateOrder(ctx context.Context, actor Actor, eventID string) (*Order, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, utils.NewValidationError("eventId", "Event id is required")
	}
	if _, err := primitive.ObjectIDFromHex(eventID); err != nil {
		return nil, utils.NewValidationError("eventId", "Invalid event id")
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("create order: %w: payment gateway not configured", ErrUpstream)
	}

	now := s.now().UTC()
	// Razorpay caps receipts at 40 characters.
	receipt := fmt.Sprintf("rcpt_%s_%d", eventID, now.Unix())

	var order *Order
	err := callExternal(ctx, s.timeout, "razorpay", func(ctx context.Context) error {
		var err error
		order, err = s.gateway.CreateOrder(ctx, s.amount, s.currency, receipt)
		return err
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:          actor.ID.Hex(),
		EventID:         eventID,
		Amount:          s.amount,
		Currency:        s.currency,
		Receipt:         receipt,
		RazorpayOrderID: order.ID,
		Status:          models.PaymentStatusCreated,
		CreatedAt:       now,
	}
	if err := s.ledger.Create(ctx, payment); err != nil {
		// The order already exists upstream; the client can still pay it.
		logging.FromContext(ctx).Error("failed to record payment order",
			"order_id", order.ID, "event_id", eventID, "error", err)
	}
	return order, nil
}
