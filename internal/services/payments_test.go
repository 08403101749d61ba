package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubGateway struct {
	receipt string
	err     error
	delay   time.Duration
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	g.receipt = receipt
	return &Order{ID: "order_123", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

type memLedger struct {
	payments []*models.Payment
	err      error
}

func (l *memLedger) Create(_ context.Context, p *models.Payment) error {
	if l.err != nil {
		return l.err
	}
	l.payments = append(l.payments, p)
	return nil
}

func TestCreateOrder(t *testing.T) {
	gateway := &stubGateway{}
	ledger := &memLedger{}
	svc := NewPaymentService(gateway, ledger, 50000, "INR", time.Second)
	svc.now = func() time.Time { return fixedNow }
	actor := ActorFromUser(newUser("Payer", models.RoleUser))
	eventID := primitive.NewObjectID().Hex()

	order, err := svc.CreateOrder(context.Background(), actor, eventID)
	require.NoError(t, err)
	assert.Equal(t, "order_123", order.ID)
	assert.Equal(t, int64(50000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.LessOrEqual(t, len(gateway.receipt), 40)

	require.Len(t, ledger.payments, 1)
	p := ledger.payments[0]
	assert.Equal(t, eventID, p.EventID)
	assert.Equal(t, actor.ID.Hex(), p.UserID)
	assert.Equal(t, "order_123", p.RazorpayOrderID)
	assert.Equal(t, models.PaymentStatusCreated, p.Status)
}

func TestCreateOrderErrors(t *testing.T) {
	actor := ActorFromUser(newUser("Payer", models.RoleUser))
	eventID := primitive.NewObjectID().Hex()

	svc := NewPaymentService(&stubGateway{}, &memLedger{}, 50000, "INR", time.Second)
	_, err := svc.CreateOrder(context.Background(), actor, "")
	var verr *utils.ValidationError
	assert.ErrorAs(t, err, &verr)

	svc = NewPaymentService(&stubGateway{err: errors.New("bad key")}, &memLedger{}, 50000, "INR", time.Second)
	_, err = svc.CreateOrder(context.Background(), actor, eventID)
	assert.ErrorIs(t, err, ErrUpstream)

	svc = NewPaymentService(&stubGateway{delay: time.Second}, &memLedger{}, 50000, "INR", 10*time.Millisecond)
	_, err = svc.CreateOrder(context.Background(), actor, eventID)
	assert.ErrorIs(t, err, ErrUpstreamTimeout)

	// A ledger failure does not hide an order the client can already pay.
	svc = NewPaymentService(&stubGateway{}, &memLedger{err: errors.New("pg down")}, 50000, "INR", time.Second)
	order, err := svc.CreateOrder(context.Background(), actor, eventID)
	require.NoError(t, err)
	assert.Equal(t, "order_123", order.ID)
}

func TestOrderFromResponse(t *testing.T) {
	order, err := orderFromResponse(map[string]interface{}{
		"id": "order_9", "amount": float64(50000), "currency": "INR", "receipt": "rcpt_x", "status": "created",
	})
	require.NoError(t, err)
	assert.Equal(t, &Order{ID: "order_9", Amount: 50000, Currency: "INR", Receipt: "rcpt_x", Status: "created"}, order)

	_, err = orderFromResponse(map[string]interface{}{"error": "bad"})
	assert.Error(t, err)
}
