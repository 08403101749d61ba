package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/google/uuid"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryResult records the outcome for one recipient.
type DeliveryResult struct {
	Recipient string
	Err       error
}

// Batch is a prepared set of notifications. Failed holds recipients that
// could not be addressed at all; they are reported with the delivery results.
type Batch struct {
	Messages []Message
	Failed   []DeliveryResult
}

// Dispatcher sends notification batches in the background. Every recipient in
// a batch is attempted; one failure never stops the others.
type Dispatcher struct {
	mailer  Mailer
	timeout time.Duration
	wg      sync.WaitGroup
	report  func(logger *slog.Logger, results []DeliveryResult)
}

func NewDispatcher(mailer Mailer, timeout time.Duration) *Dispatcher {
	d := &Dispatcher{mailer: mailer, timeout: timeout}
	d.report = d.logResults
	return d
}

// Go runs build and then delivers the batch it returns on a tracked
// goroutine. The request context's values are kept but its cancellation is
// not, so the batch outlives the response. It returns the batch id.
func (d *Dispatcher) Go(ctx context.Context, name string, build func(ctx context.Context) (Batch, error)) string {
	batchID := uuid.NewString()
	logger := logging.FromContext(ctx).With("batch_id", batchID, "batch", name)
	ctx = logging.WithLogger(context.WithoutCancel(ctx), logger)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		batch, err := build(ctx)
		if err != nil {
			logger.Error("failed to prepare notifications", "error", err)
			return
		}
		results := append(batch.Failed, d.Deliver(ctx, batch.Messages)...)
		d.report(logger, results)
	}()
	return batchID
}

// Deliver attempts every message concurrently and returns one result per
// message, in input order.
func (d *Dispatcher) Deliver(ctx context.Context, msgs []Message) []DeliveryResult {
	results := make([]DeliveryResult, len(msgs))
	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := callExternal(ctx, d.timeout, "smtp", func(ctx context.Context) error {
				return d.mailer.Send(ctx, msg)
			})
			results[i] = DeliveryResult{Recipient: msg.To, Err: err}
		}()
	}
	wg.Wait()
	return results
}

// Wait blocks until every in-flight batch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) logResults(logger *slog.Logger, results []DeliveryResult) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Warn("notification failed", "recipient", r.Recipient, "error", r.Err)
		}
	}
	logger.Info("notification batch finished", "sent", len(results)-failed, "failed", failed)
}
