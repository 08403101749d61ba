package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDeliverAttemptsEveryRecipient(t *testing.T) {
	mailer := &recordingMailer{fail: map[string]bool{"b@example.com": true}}
	d := NewDispatcher(mailer, time.Second)

	results := d.Deliver(context.Background(), []Message{
		{To: "a@example.com"}, {To: "b@example.com"}, {To: "c@example.com"},
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.ErrorIs(t, results[1].Err, ErrUpstream)
	assert.Equal(t, "b@example.com", results[1].Recipient)
	assert.NoError(t, results[2].Err)
	assert.Len(t, mailer.Attempts(), 3)
}

func TestGoReportsBuildFailureWithoutSending(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, time.Second)

	id := d.Go(context.Background(), "test", func(context.Context) (Batch, error) {
		return Batch{}, errors.New("lookup failed")
	})
	d.Wait()

	assert.NotEmpty(t, id)
	assert.Empty(t, mailer.Attempts())
}

func TestApprovalEmail(t *testing.T) {
	event := &models.Event{
		ID:         primitive.NewObjectID(),
		Title:      "Jazz <night>",
		Location:   "Chennai",
		EventDate:  time.Date(2030, 7, 5, 19, 0, 0, 0, time.UTC),
		RevealDate: time.Date(2030, 7, 4, 9, 0, 0, 0, time.UTC),
	}
	user := &models.User{Name: "Ravi", Email: "ravi@example.com"}

	msg, err := approvalEmail(event, user, "https://timeleft.example")
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", msg.To)
	assert.Equal(t, "Event Approved: Jazz <night>", msg.Subject)
	assert.Contains(t, msg.HTML, "Jazz &lt;night&gt;")
	assert.Contains(t, msg.HTML, "Chennai")
	assert.Contains(t, msg.HTML, "Fri, 05 Jul 2030")
	assert.Contains(t, msg.HTML, "https://timeleft.example/events/"+event.ID.Hex())
}
