package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/store"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type eventFixture struct {
	svc         *EventService
	events      *memEvents
	users       *memUsers
	icebreakers *memIcebreakers
	mailer      *recordingMailer
	dispatcher  *Dispatcher
	feed        *recordingFeed
	uploader    *stubUploader
}

func newEventFixture(t *testing.T, users ...*models.User) *eventFixture {
	t.Helper()
	f := &eventFixture{
		events:      newMemEvents(),
		users:       newMemUsers(users...),
		icebreakers: newMemIcebreakers(),
		mailer:      &recordingMailer{fail: map[string]bool{}},
		feed:        &recordingFeed{},
		uploader:    &stubUploader{url: "https://img.example"},
	}
	f.dispatcher = NewDispatcher(f.mailer, time.Second)
	f.svc = NewEventService(f.events, f.users, f.icebreakers, f.uploader, f.dispatcher, f.feed, EventServiceConfig{
		FrontendURL:         "https://timeleft.example/",
		ExternalCallTimeout: time.Second,
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func newUser(name string, role models.Role) *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
		Role:  role,
	}
}

func strPtr(s string) *string { return &s }

func validInput(maxParticipants string) EventInput {
	return EventInput{
		Title:           strPtr("Dinner with strangers"),
		Description:     strPtr("Six people, one table"),
		EventDate:       strPtr(fixedNow.Add(72 * time.Hour).Format(time.RFC3339)),
		RevealDate:      strPtr(fixedNow.Add(48 * time.Hour).Format(time.RFC3339)),
		Location:        strPtr("Bengaluru"),
		MaxParticipants: strPtr(maxParticipants),
	}
}

func (f *eventFixture) create(t *testing.T, owner *models.User, maxParticipants string) *models.Event {
	t.Helper()
	event, err := f.svc.Create(context.Background(), ActorFromUser(owner), validInput(maxParticipants))
	require.NoError(t, err)
	return event
}

func TestCreateEvent(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	f := newEventFixture(t, owner)

	event := f.create(t, owner, "6")

	assert.Equal(t, models.EventStatusPending, event.Status)
	assert.Empty(t, event.Participants)
	assert.Equal(t, owner.ID, event.CreatedBy)
	assert.Equal(t, 6, event.MaxParticipants)
	assert.Equal(t, fixedNow, event.CreatedAt)

	stored, err := f.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, stored.Title)
}

func TestCreateEventValidation(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	f := newEventFixture(t, owner)

	cases := []struct {
		name  string
		edit  func(in *EventInput)
		field string
	}{
		{"missing title", func(in *EventInput) { in.Title = nil }, "title"},
		{"blank location", func(in *EventInput) { in.Location = strPtr("  ") }, "location"},
		{"unparseable event date", func(in *EventInput) { in.EventDate = strPtr("next friday") }, "eventDate"},
		{"unparseable reveal date", func(in *EventInput) { in.RevealDate = strPtr("soon") }, "revealDate"},
		{"event date in the past", func(in *EventInput) {
			in.EventDate = strPtr(fixedNow.Add(-time.Hour).Format(time.RFC3339))
			in.RevealDate = strPtr(fixedNow.Add(-2 * time.Hour).Format(time.RFC3339))
		}, "eventDate"},
		{"reveal after event", func(in *EventInput) {
			in.RevealDate = strPtr(fixedNow.Add(96 * time.Hour).Format(time.RFC3339))
		}, "revealDate"},
		{"capacity not a number", func(in *EventInput) { in.MaxParticipants = strPtr("six") }, "maxParticipants"},
		{"capacity too small", func(in *EventInput) { in.MaxParticipants = strPtr("1") }, "maxParticipants"},
		{"capacity too large", func(in *EventInput) { in.MaxParticipants = strPtr("101") }, "maxParticipants"},
		{"title too long", func(in *EventInput) { in.Title = strPtr(strings.Repeat("a", 101)) }, "title"},
		{"description too long", func(in *EventInput) { in.Description = strPtr(strings.Repeat("a", 1001)) }, "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput("6")
			tc.edit(&in)
			_, err := f.svc.Create(context.Background(), ActorFromUser(owner), in)

			var verr *utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCreateEventAcceptsRevealEqualToEvent(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	f := newEventFixture(t, owner)

	in := validInput("6")
	in.RevealDate = in.EventDate
	_, err := f.svc.Create(context.Background(), ActorFromUser(owner), in)
	assert.NoError(t, err)
}

func TestCreateEventImageUpload(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	image := func(contentType string, size int64) *Image {
		return &Image{Body: strings.NewReader("img"), Filename: "a.png", ContentType: contentType, Size: size}
	}

	t.Run("stores returned url", func(t *testing.T) {
		f := newEventFixture(t, owner)
		in := validInput("6")
		in.Image = image("image/png", 3)
		event, err := f.svc.Create(context.Background(), ActorFromUser(owner), in)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/events", event.ImageURL)
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		f := newEventFixture(t, owner)
		in := validInput("6")
		in.Image = image("application/pdf", 3)
		_, err := f.svc.Create(context.Background(), ActorFromUser(owner), in)
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("rejects oversized image", func(t *testing.T) {
		f := newEventFixture(t, owner)
		in := validInput("6")
		in.Image = image("image/jpeg", MaxImageSize+1)
		_, err := f.svc.Create(context.Background(), ActorFromUser(owner), in)
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("upload failure is upstream", func(t *testing.T) {
		f := newEventFixture(t, owner)
		f.uploader.err = errors.New("cloudinary down")
		in := validInput("6")
		in.Image = image("image/gif", 3)
		_, err := f.svc.Create(context.Background(), ActorFromUser(owner), in)
		assert.ErrorIs(t, err, ErrUpstream)
		assert.NotErrorIs(t, err, ErrUpstreamTimeout)
	})

	t.Run("slow upload times out", func(t *testing.T) {
		f := newEventFixture(t, owner)
		f.svc.timeout = 10 * time.Millisecond
		f.uploader.delay = time.Second
		in := validInput("6")
		in.Image = image("image/gif", 3)
		_, err := f.svc.Create(context.Background(), ActorFromUser(owner), in)
		assert.ErrorIs(t, err, ErrUpstreamTimeout)
	})
}

func TestJoinScenarioWithCapacityTwo(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	a, b, c := newUser("A", models.RoleUser), newUser("B", models.RoleUser), newUser("C", models.RoleUser)
	f := newEventFixture(t, owner, a, b, c)
	ctx := context.Background()

	event := f.create(t, owner, "2")

	got, err := f.svc.Join(ctx, ActorFromUser(a), event.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 1)

	_, err = f.svc.Join(ctx, ActorFromUser(a), event.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	current, _ := f.events.GetByID(ctx, event.ID)
	assert.Len(t, current.Participants, 1)

	got, err = f.svc.Join(ctx, ActorFromUser(b), event.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)

	_, err = f.svc.Join(ctx, ActorFromUser(c), event.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	current, _ = f.events.GetByID(ctx, event.ID)
	assert.Len(t, current.Participants, 2)
	assert.Equal(t, []primitive.ObjectID{a.ID, b.ID}, current.ParticipantIDs())
}

func TestJoinChecksCapacityBeforeDuplicate(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	a, b := newUser("A", models.RoleUser), newUser("B", models.RoleUser)
	f := newEventFixture(t, owner, a, b)
	ctx := context.Background()

	event := f.create(t, owner, "2")
	_, err := f.svc.Join(ctx, ActorFromUser(a), event.ID)
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, ActorFromUser(b), event.ID)
	require.NoError(t, err)

	_, err = f.svc.Join(ctx, ActorFromUser(a), event.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestJoinMissingEvent(t *testing.T) {
	f := newEventFixture(t)
	_, err := f.svc.Join(context.Background(), ActorFromUser(newUser("A", models.RoleUser)), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Event not found")
}

// contendedEvents loses every conditional append, as if other joiners kept
// getting there first without ever filling the event.
type contendedEvents struct {
	*memEvents
	adds int
}

func (c *contendedEvents) AddParticipant(context.Context, primitive.ObjectID, models.Participant) (*models.Event, error) {
	c.adds++
	return nil, store.ErrNoMatch
}

func TestJoinReportsBusyAfterLosingEveryAttempt(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	a := newUser("A", models.RoleUser)
	f := newEventFixture(t, owner, a)
	event := f.create(t, owner, "6")

	events := &contendedEvents{memEvents: f.events}
	svc := NewEventService(events, f.users, f.icebreakers, nil, nil, nil, EventServiceConfig{})

	_, err := svc.Join(context.Background(), ActorFromUser(a), event.ID)
	assert.ErrorIs(t, err, ErrBusy)
	assert.NotErrorIs(t, err, store.ErrNoMatch)
	assert.Equal(t, joinAttempts, events.adds)
}

func TestConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	f := newEventFixture(t, owner)
	event := f.create(t, owner, "5")

	const joiners = 40
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
	)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Join(context.Background(), ActorFromUser(newUser("U", models.RoleUser)), event.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected join error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, joiners-5, full)
	current, err := f.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, current.Participants, 5)
}

func TestLeave(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	a := newUser("A", models.RoleUser)
	f := newEventFixture(t, owner, a)
	ctx := context.Background()
	event := f.create(t, owner, "4")

	_, err := f.svc.Leave(ctx, ActorFromUser(a), event.ID)
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = f.svc.Join(ctx, ActorFromUser(a), event.ID)
	require.NoError(t, err)
	got, err := f.svc.Leave(ctx, ActorFromUser(a), event.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Participants)

	_, err = f.svc.Leave(ctx, ActorFromUser(a), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{FeedJoined, FeedLeft}, f.feed.Types())
}

func TestUpdateAndDeletePolicy(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	stranger := newUser("Stranger", models.RoleUser)
	admin := newUser("Admin", models.RoleAdmin)
	f := newEventFixture(t, owner, stranger, admin)
	ctx := context.Background()
	event := f.create(t, owner, "6")

	_, err := f.svc.Update(ctx, ActorFromUser(stranger), event.ID, EventInput{Title: strPtr("Mine now")})
	assert.ErrorIs(t, err, ErrForbidden)
	err = f.svc.Delete(ctx, ActorFromUser(stranger), event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Update(ctx, ActorFromUser(owner), event.ID, EventInput{Title: strPtr("Brunch")})
	require.NoError(t, err)
	assert.Equal(t, "Brunch", got.Title)
	assert.Equal(t, event.Location, got.Location)

	got, err = f.svc.Update(ctx, ActorFromUser(admin), event.ID, EventInput{Location: strPtr("Mumbai")})
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", got.Location)
	assert.Equal(t, "Brunch", got.Title)

	require.NoError(t, f.svc.Delete(ctx, ActorFromUser(admin), event.ID))
	_, err = f.svc.Get(ctx, event.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateValidatesMergedState(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	a, b := newUser("A", models.RoleUser), newUser("B", models.RoleUser)
	f := newEventFixture(t, owner, a, b)
	ctx := context.Background()
	event := f.create(t, owner, "6")

	// Reveal moved past the unchanged event date.
	_, err := f.svc.Update(ctx, ActorFromUser(owner), event.ID, EventInput{
		RevealDate: strPtr(fixedNow.Add(100 * time.Hour).Format(time.RFC3339)),
	})
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "revealDate", verr.Field)

	// Event date moved before the unchanged reveal date.
	_, err = f.svc.Update(ctx, ActorFromUser(owner), event.ID, EventInput{
		EventDate: strPtr(fixedNow.Add(24 * time.Hour).Format(time.RFC3339)),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "revealDate", verr.Field)

	_, err = f.svc.Join(ctx, ActorFromUser(a), event.ID)
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, ActorFromUser(b), event.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, ActorFromUser(owner), event.ID, EventInput{MaxParticipants: strPtr("1")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "maxParticipants", verr.Field)

	got, err := f.svc.Update(ctx, ActorFromUser(owner), event.ID, EventInput{MaxParticipants: strPtr("2")})
	require.NoError(t, err)
	assert.Equal(t, 2, got.MaxParticipants)
}

func TestApproveAndRejectTransitions(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	stranger := newUser("Stranger", models.RoleUser)
	admin := newUser("Admin", models.RoleAdmin)
	f := newEventFixture(t, owner, stranger, admin)
	ctx := context.Background()

	event := f.create(t, owner, "6")
	_, err := f.svc.Approve(ctx, ActorFromUser(stranger), event.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Reject(ctx, ActorFromUser(stranger), event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Approve(ctx, ActorFromUser(admin), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusApproved, got.Status)

	_, err = f.svc.Approve(ctx, ActorFromUser(admin), event.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.Reject(ctx, ActorFromUser(admin), event.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsBusinessRule(err))

	other := f.create(t, owner, "6")
	got, err = f.svc.Reject(ctx, ActorFromUser(owner), other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusRejected, got.Status)

	_, err = f.svc.Approve(ctx, ActorFromUser(admin), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	f.dispatcher.Wait()
	assert.Empty(t, f.mailer.Attempts())
}

func TestApproveNotifiesEveryParticipant(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	admin := newUser("Admin", models.RoleAdmin)
	a, b, c := newUser("A", models.RoleUser), newUser("B", models.RoleUser), newUser("C", models.RoleUser)
	f := newEventFixture(t, owner, admin, a, b, c)
	ctx := context.Background()

	event := f.create(t, owner, "6")
	for _, u := range []*models.User{a, b, c} {
		_, err := f.svc.Join(ctx, ActorFromUser(u), event.ID)
		require.NoError(t, err)
	}
	f.mailer.fail[b.Email] = true

	got, err := f.svc.Approve(ctx, ActorFromUser(admin), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusApproved, got.Status)

	f.dispatcher.Wait()
	assert.ElementsMatch(t, []string{a.Email, b.Email, c.Email}, f.mailer.Attempts())
}

func TestApproveReportsMissingParticipantAndStillMailsTheRest(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	a, b := newUser("A", models.RoleUser), newUser("B", models.RoleUser)
	f := newEventFixture(t, owner, a, b)
	ctx := context.Background()

	event := f.create(t, owner, "6")
	_, err := f.svc.Join(ctx, ActorFromUser(a), event.ID)
	require.NoError(t, err)
	ghost := primitive.NewObjectID()
	_, err = f.events.AddParticipant(ctx, event.ID, models.Participant{User: ghost, JoinedAt: fixedNow})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, ActorFromUser(b), event.ID)
	require.NoError(t, err)
	f.mailer.fail[b.Email] = true

	var results []DeliveryResult
	f.dispatcher.report = func(_ *slog.Logger, r []DeliveryResult) { results = r }

	_, err = f.svc.Approve(ctx, ActorFromUser(owner), event.ID)
	require.NoError(t, err)
	f.dispatcher.Wait()

	assert.ElementsMatch(t, []string{a.Email, b.Email}, f.mailer.Attempts())
	require.Len(t, results, 3)
	failed := map[string]error{}
	for _, r := range results {
		if r.Err != nil {
			failed[r.Recipient] = r.Err
		}
	}
	assert.Len(t, failed, 2)
	assert.ErrorIs(t, failed[ghost.Hex()], ErrNotFound)
	assert.ErrorIs(t, failed[b.Email], ErrUpstream)
}

func TestApproveDispatchOutlivesRequestContext(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	a := newUser("A", models.RoleUser)
	f := newEventFixture(t, owner, a)

	event := f.create(t, owner, "6")
	_, err := f.svc.Join(context.Background(), ActorFromUser(a), event.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, err = f.svc.Approve(ctx, ActorFromUser(owner), event.ID)
	require.NoError(t, err)
	cancel()

	f.dispatcher.Wait()
	assert.Equal(t, []string{a.Email}, f.mailer.Attempts())
}

func TestAttachAndDetachIcebreakers(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	stranger := newUser("Stranger", models.RoleUser)
	f := newEventFixture(t, owner, stranger)
	ctx := context.Background()

	event := f.create(t, owner, "6")
	ib := &models.Icebreaker{Question: "Favourite city?", Category: models.CategoryFun}
	require.NoError(t, f.icebreakers.Create(ctx, ib))

	_, err := f.svc.AttachIcebreaker(ctx, ActorFromUser(owner), event.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Icebreaker not found")

	_, err = f.svc.AttachIcebreaker(ctx, ActorFromUser(stranger), event.ID, ib.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.AttachIcebreaker(ctx, ActorFromUser(owner), event.ID, ib.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{ib.ID}, got.Icebreakers)

	_, err = f.svc.AttachIcebreaker(ctx, ActorFromUser(owner), event.ID, ib.ID)
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	got, err = f.svc.DetachIcebreaker(ctx, ActorFromUser(owner), event.ID, ib.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Icebreakers)

	_, err = f.svc.DetachIcebreaker(ctx, ActorFromUser(owner), event.ID, ib.ID)
	assert.ErrorIs(t, err, ErrNotAttached)
}

func TestGetDetailAndListResolveReferences(t *testing.T) {
	owner := newUser("Owner", models.RoleUser)
	owner.City = "Pune"
	owner.Password = "hash"
	a := newUser("A", models.RoleUser)
	f := newEventFixture(t, owner, a)
	ctx := context.Background()

	event := f.create(t, owner, "6")
	_, err := f.svc.Join(ctx, ActorFromUser(a), event.ID)
	require.NoError(t, err)
	ghost := primitive.NewObjectID()
	_, err = f.events.AddParticipant(ctx, event.ID, models.Participant{User: ghost, JoinedAt: fixedNow})
	require.NoError(t, err)

	kept := &models.Icebreaker{Question: "First concert?", Category: models.CategoryFun}
	gone := &models.Icebreaker{Question: "Tea or coffee?", Category: models.CategoryFun}
	for _, ib := range []*models.Icebreaker{kept, gone} {
		require.NoError(t, f.icebreakers.Create(ctx, ib))
		_, err = f.svc.AttachIcebreaker(ctx, ActorFromUser(owner), event.ID, ib.ID)
		require.NoError(t, err)
	}
	require.NoError(t, f.icebreakers.Delete(ctx, gone.ID))

	detail, err := f.svc.GetDetail(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.CreatedBy)
	assert.Equal(t, owner.ID, detail.CreatedBy.ID)
	assert.Equal(t, "Pune", detail.CreatedBy.City)
	require.Len(t, detail.Participants, 2)
	require.NotNil(t, detail.Participants[0].User)
	assert.Equal(t, "A", detail.Participants[0].User.Name)
	assert.Equal(t, fixedNow, detail.Participants[0].JoinedAt)
	assert.Nil(t, detail.Participants[1].User)
	require.Len(t, detail.Icebreakers, 1)
	assert.Equal(t, "First concert?", detail.Icebreakers[0].Question)

	page, err := f.svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, detail.CreatedBy, page.Events[0].CreatedBy)
	assert.Len(t, page.Events[0].Participants, 2)

	_, err = f.svc.GetDetail(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanMutate(t *testing.T) {
	ownerID := primitive.NewObjectID()
	owner := Actor{ID: ownerID, Role: models.RoleUser}
	stranger := Actor{ID: primitive.NewObjectID(), Role: models.RoleUser}
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	assert.True(t, CanMutate(owner, ownerID))
	assert.True(t, CanMutate(admin, ownerID))
	assert.False(t, CanMutate(stranger, ownerID))

	assert.False(t, CanMutate(owner, primitive.NilObjectID))
	assert.True(t, CanMutate(admin, primitive.NilObjectID))
}
