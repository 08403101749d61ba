package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/query"
	"github.com/SachinRathod0101/Time-left-backend/internal/store"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventStore is the persistence the event workflow needs.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	List(ctx context.Context, q query.ListQuery) ([]models.Event, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.EventPatch) (*models.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddParticipant(ctx context.Context, id primitive.ObjectID, p models.Participant) (*models.Event, error)
	RemoveParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Event, error)
	AddIcebreaker(ctx context.Context, id, icebreakerID primitive.ObjectID) (*models.Event, error)
	RemoveIcebreaker(ctx context.Context, id, icebreakerID primitive.ObjectID) (*models.Event, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.EventStatus) (*models.Event, error)
}

// UserLookup resolves participant ids to user records.
type UserLookup interface {
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// IcebreakerLookup loads icebreakers referenced by events.
type IcebreakerLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Icebreaker, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Icebreaker, error)
}

// joinAttempts bounds how often Join retries after losing a race that the
// reloaded event says it should have won.
const joinAttempts = 3

const eventImageFolder = "events"

// EventInput carries raw request fields; nil means the field was not sent.
type EventInput struct {
	Title           *string
	Description     *string
	EventDate       *string
	RevealDate      *string
	Location        *string
	MaxParticipants *string
	Image           *Image
}

// EventPage is one page of a filtered event listing.
type EventPage struct {
	Events     []models.EventDetail
	Total      int64
	Pagination query.Pagination
}

type EventService struct {
	events      EventStore
	users       UserLookup
	icebreakers IcebreakerLookup
	uploader    ImageUploader
	dispatcher  *Dispatcher
	feed        RosterPublisher

	frontendURL string
	timeout     time.Duration
	now         func() time.Time
}

type EventServiceConfig struct {
	FrontendURL         string
	ExternalCallTimeout time.Duration
}

func NewEventService(events EventStore, users UserLookup, icebreakers IcebreakerLookup, uploader ImageUploader,
	dispatcher *Dispatcher, feed RosterPublisher, cfg EventServiceConfig) *EventService {
	return &EventService{
		events:      events,
		users:       users,
		icebreakers: icebreakers,
		uploader:    uploader,
		dispatcher:  dispatcher,
		feed:        feed,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		timeout:     cfg.ExternalCallTimeout,
		now:         time.Now,
	}
}

func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (*models.Event, error) {
	required := []struct {
		name  string
		value *string
	}{
		{"title", in.Title},
		{"description", in.Description},
		{"eventDate", in.EventDate},
		{"revealDate", in.RevealDate},
		{"location", in.Location},
		{"maxParticipants", in.MaxParticipants},
	}
	var missing []string
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, utils.NewValidationError(missing[0], "Missing required fields: "+strings.Join(missing, ", "))
	}

	patch, err := s.parseInput(in)
	if err != nil {
		return nil, err
	}
	if patch.RevealDate.After(*patch.EventDate) {
		return nil, utils.NewValidationError("revealDate", "Reveal date must be before the event date")
	}

	event := &models.Event{
		CreatedAt:       s.now().UTC(),
		Title:           *patch.Title,
		Description:     *patch.Description,
		EventDate:       *patch.EventDate,
		RevealDate:      *patch.RevealDate,
		Location:        *patch.Location,
		MaxParticipants: *patch.MaxParticipants,
		Participants:    []models.Participant{},
		Icebreakers:     []primitive.ObjectID{},
		Status:          models.EventStatusPending,
		CreatedBy:       actor.ID,
	}

	if in.Image != nil {
		imageURL, err := s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		event.ImageURL = imageURL
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	logging.FromContext(ctx).Info("event created", "event_id", event.ID.Hex(), "created_by", actor.ID.Hex())
	return event, nil
}

func (s *EventService) Get(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return s.load(ctx, id)
}

// GetDetail returns the event with its creator, participants and icebreakers
// resolved.
func (s *EventService) GetDetail(ctx context.Context, id primitive.ObjectID) (*models.EventDetail, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.populate(ctx, []models.Event{*event})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *EventService) List(ctx context.Context, values url.Values) (*EventPage, error) {
	q, err := query.Parse(values, store.EventFields)
	if err != nil {
		return nil, err
	}
	events, total, err := s.events.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	details, err := s.populate(ctx, events)
	if err != nil {
		return nil, err
	}
	return &EventPage{Events: details, Total: total, Pagination: q.Paginate(total)}, nil
}

// populate resolves the users and icebreakers referenced by events with one
// lookup per collection. Icebreakers that no longer exist are left out.
func (s *EventService) populate(ctx context.Context, events []models.Event) ([]models.EventDetail, error) {
	var userIDs, icebreakerIDs []primitive.ObjectID
	for i := range events {
		if !events[i].CreatedBy.IsZero() {
			userIDs = append(userIDs, events[i].CreatedBy)
		}
		userIDs = append(userIDs, events[i].ParticipantIDs()...)
		icebreakerIDs = append(icebreakerIDs, events[i].Icebreakers...)
	}

	users := make(map[primitive.ObjectID]*models.UserSummary)
	if len(userIDs) > 0 {
		found, err := s.users.GetMany(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("load event users: %w", err)
		}
		for i := range found {
			users[found[i].ID] = found[i].Summary()
		}
	}
	icebreakers := make(map[primitive.ObjectID]models.Icebreaker)
	if len(icebreakerIDs) > 0 {
		found, err := s.icebreakers.GetMany(ctx, icebreakerIDs)
		if err != nil {
			return nil, fmt.Errorf("load event icebreakers: %w", err)
		}
		for _, ib := range found {
			icebreakers[ib.ID] = ib
		}
	}

	out := make([]models.EventDetail, len(events))
	for i, e := range events {
		d := models.EventDetail{
			Event:        e,
			CreatedBy:    users[e.CreatedBy],
			Participants: make([]models.ParticipantDetail, 0, len(e.Participants)),
			Icebreakers:  make([]models.Icebreaker, 0, len(e.Icebreakers)),
		}
		for _, p := range e.Participants {
			d.Participants = append(d.Participants, models.ParticipantDetail{User: users[p.User], JoinedAt: p.JoinedAt})
		}
		for _, id := range e.Icebreakers {
			if ib, ok := icebreakers[id]; ok {
				d.Icebreakers = append(d.Icebreakers, ib)
			}
		}
		out[i] = d
	}
	return out, nil
}

// Update applies the fields present in in. The merged dates must still keep
// the reveal date at or before the event date, and the capacity may not drop
// below the current roster.
func (s *EventService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, in EventInput) (*models.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, event.CreatedBy) {
		return nil, fmt.Errorf("not authorized to update this event: %w", ErrForbidden)
	}

	patch, err := s.parseInput(in)
	if err != nil {
		return nil, err
	}
	eventDate, revealDate := event.EventDate, event.RevealDate
	if patch.EventDate != nil {
		eventDate = *patch.EventDate
	}
	if patch.RevealDate != nil {
		revealDate = *patch.RevealDate
	}
	if revealDate.After(eventDate) {
		return nil, utils.NewValidationError("revealDate", "Reveal date must be before the event date")
	}
	if patch.MaxParticipants != nil && *patch.MaxParticipants < len(event.Participants) {
		return nil, capacityBelowRoster(len(event.Participants))
	}

	if in.Image != nil {
		imageURL, err := s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &imageURL
	}
	if patch.Empty() {
		return event, nil
	}

	updated, err := s.events.Update(ctx, id, patch)
	if errors.Is(err, store.ErrNoMatch) {
		current, loadErr := s.load(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, capacityBelowRoster(len(current.Participants))
	}
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.publish(ctx, FeedUpdated, updated, primitive.NilObjectID)
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	event, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !CanMutate(actor, event.CreatedBy) {
		return fmt.Errorf("not authorized to delete this event: %w", ErrForbidden)
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Event")
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.publish(ctx, FeedDeleted, event, primitive.NilObjectID)
	return nil
}

// Join adds the actor to the roster. Checks run existence, then capacity,
// then duplicate; the append itself is a conditional update, so concurrent
// joins can never overfill the event.
func (s *EventService) Join(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Event, error) {
	for attempt := 0; attempt < joinAttempts; attempt++ {
		event, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if event.IsFull() {
			return nil, ErrCapacityExceeded
		}
		if event.HasParticipant(actor.ID) {
			return nil, ErrAlreadyRegistered
		}

		updated, err := s.events.AddParticipant(ctx, id, models.Participant{
			User:     actor.ID,
			JoinedAt: s.now().UTC(),
		})
		if errors.Is(err, store.ErrNoMatch) {
			// Lost a race; reload and report what changed.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("join event: %w", err)
		}
		s.publish(ctx, FeedJoined, updated, actor.ID)
		return updated, nil
	}
	return nil, fmt.Errorf("join event %s after %d attempts: %w", id.Hex(), joinAttempts, ErrBusy)
}

func (s *EventService) Leave(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.HasParticipant(actor.ID) {
		return nil, ErrNotRegistered
	}

	updated, err := s.events.RemoveParticipant(ctx, id, actor.ID)
	if errors.Is(err, store.ErrNoMatch) {
		if _, err := s.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("leave event: %w", err)
	}
	s.publish(ctx, FeedLeft, updated, actor.ID)
	return updated, nil
}

// Approve moves a pending event to approved and emails every participant in
// the background.
func (s *EventService) Approve(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Event, error) {
	event, err := s.transition(ctx, actor, id, models.EventStatusApproved)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, FeedApproved, event, primitive.NilObjectID)
	s.notifyApproval(ctx, event)
	return event, nil
}

func (s *EventService) Reject(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Event, error) {
	event, err := s.transition(ctx, actor, id, models.EventStatusRejected)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, FeedRejected, event, primitive.NilObjectID)
	return event, nil
}

func (s *EventService) transition(ctx context.Context, actor Actor, id primitive.ObjectID, to models.EventStatus) (*models.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, event.CreatedBy) {
		return nil, fmt.Errorf("not authorized to change this event's status: %w", ErrForbidden)
	}
	if event.Status != models.EventStatusPending {
		return nil, fmt.Errorf("cannot move a %s event to %s: %w", event.Status, to, ErrInvalidTransition)
	}

	updated, err := s.events.SetStatus(ctx, id, models.EventStatusPending, to)
	if errors.Is(err, store.ErrNoMatch) {
		current, loadErr := s.load(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, fmt.Errorf("cannot move a %s event to %s: %w", current.Status, to, ErrInvalidTransition)
	}
	if err != nil {
		return nil, fmt.Errorf("set event status: %w", err)
	}
	logging.FromContext(ctx).Info("event status changed", "event_id", id.Hex(), "status", to, "by", actor.ID.Hex())
	return updated, nil
}

// notifyApproval queues one email per participant. Participants are read
// from the approved snapshot so later roster changes do not alter the batch.
func (s *EventService) notifyApproval(ctx context.Context, event *models.Event) {
	if s.dispatcher == nil || len(event.Participants) == 0 {
		return
	}
	ids := event.ParticipantIDs()
	s.dispatcher.Go(ctx, "event_approved", func(ctx context.Context) (Batch, error) {
		users, err := s.users.GetMany(ctx, ids)
		if err != nil {
			return Batch{}, fmt.Errorf("load participants: %w", err)
		}
		byID := make(map[primitive.ObjectID]*models.User, len(users))
		for i := range users {
			byID[users[i].ID] = &users[i]
		}

		var batch Batch
		for _, id := range ids {
			user, ok := byID[id]
			if !ok {
				batch.Failed = append(batch.Failed, DeliveryResult{Recipient: id.Hex(), Err: notFound("User")})
				continue
			}
			msg, err := approvalEmail(event, user, s.frontendURL)
			if err != nil {
				batch.Failed = append(batch.Failed, DeliveryResult{Recipient: user.Email, Err: fmt.Errorf("render approval email: %w", err)})
				continue
			}
			batch.Messages = append(batch.Messages, msg)
		}
		return batch, nil
	})
}

func (s *EventService) AttachIcebreaker(ctx context.Context, actor Actor, id, icebreakerID primitive.ObjectID) (*models.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.icebreakers.GetByID(ctx, icebreakerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Icebreaker")
		}
		return nil, fmt.Errorf("load icebreaker: %w", err)
	}
	if !CanMutate(actor, event.CreatedBy) {
		return nil, fmt.Errorf("not authorized to add icebreakers to this event: %w", ErrForbidden)
	}
	if event.HasIcebreaker(icebreakerID) {
		return nil, ErrAlreadyAttached
	}

	updated, err := s.events.AddIcebreaker(ctx, id, icebreakerID)
	if errors.Is(err, store.ErrNoMatch) {
		if _, err := s.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyAttached
	}
	if err != nil {
		return nil, fmt.Errorf("attach icebreaker: %w", err)
	}
	return updated, nil
}

func (s *EventService) DetachIcebreaker(ctx context.Context, actor Actor, id, icebreakerID primitive.ObjectID) (*models.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, event.CreatedBy) {
		return nil, fmt.Errorf("not authorized to remove icebreakers from this event: %w", ErrForbidden)
	}
	if !event.HasIcebreaker(icebreakerID) {
		return nil, ErrNotAttached
	}

	updated, err := s.events.RemoveIcebreaker(ctx, id, icebreakerID)
	if errors.Is(err, store.ErrNoMatch) {
		if _, err := s.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotAttached
	}
	if err != nil {
		return nil, fmt.Errorf("detach icebreaker: %w", err)
	}
	return updated, nil
}

func (s *EventService) load(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Event")
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	return event, nil
}

func (s *EventService) upload(ctx context.Context, img *Image) (string, error) {
	if err := img.Validate("image"); err != nil {
		return "", err
	}
	if s.uploader == nil {
		return "", fmt.Errorf("image upload: %w: no image store configured", ErrUpstream)
	}
	var imageURL string
	err := callExternal(ctx, s.timeout, "image upload", func(ctx context.Context) error {
		var err error
		imageURL, err = s.uploader.Upload(ctx, img, eventImageFolder)
		return err
	})
	return imageURL, err
}

func (s *EventService) publish(ctx context.Context, kind string, event *models.Event, userID primitive.ObjectID) {
	if s.feed == nil {
		return
	}
	ev := RosterEvent{
		Type:            kind,
		EventID:         event.ID.Hex(),
		Participants:    len(event.Participants),
		MaxParticipants: event.MaxParticipants,
		Status:          string(event.Status),
	}
	if !userID.IsZero() {
		ev.UserID = userID.Hex()
	}
	if err := s.feed.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("failed to publish roster event", "event_id", ev.EventID, "error", err)
	}
}

// parseInput validates every present field the way creation does.
func (s *EventService) parseInput(in EventInput) (models.EventPatch, error) {
	var patch models.EventPatch

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return patch, utils.NewValidationError("title", "Title is required")
		}
		if utf8.RuneCountInString(title) > models.MaxEventTitleLength {
			return patch, utils.NewValidationError("title", "Title cannot be more than 100 characters")
		}
		patch.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			return patch, utils.NewValidationError("description", "Description is required")
		}
		if utf8.RuneCountInString(desc) > models.MaxEventDescriptionLength {
			return patch, utils.NewValidationError("description", "Description cannot be more than 1000 characters")
		}
		patch.Description = &desc
	}
	if in.EventDate != nil {
		t, err := query.ParseTime(strings.TrimSpace(*in.EventDate))
		if err != nil {
			return patch, utils.NewValidationError("eventDate", "Invalid event date format")
		}
		if !t.After(s.now()) {
			return patch, utils.NewValidationError("eventDate", "Event date must be in the future")
		}
		t = t.UTC()
		patch.EventDate = &t
	}
	if in.RevealDate != nil {
		t, err := query.ParseTime(strings.TrimSpace(*in.RevealDate))
		if err != nil {
			return patch, utils.NewValidationError("revealDate", "Invalid reveal date format")
		}
		t = t.UTC()
		patch.RevealDate = &t
	}
	if in.Location != nil {
		loc := strings.TrimSpace(*in.Location)
		if loc == "" {
			return patch, utils.NewValidationError("location", "Location is required")
		}
		patch.Location = &loc
	}
	if in.MaxParticipants != nil {
		n, err := strconv.Atoi(strings.TrimSpace(*in.MaxParticipants))
		if err != nil {
			return patch, utils.NewValidationError("maxParticipants", "Max participants must be a number")
		}
		if n < models.MinParticipants || n > models.MaxParticipants {
			return patch, utils.NewValidationError("maxParticipants", "Max participants must be between 2 and 100")
		}
		patch.MaxParticipants = &n
	}
	return patch, nil
}

func capacityBelowRoster(n int) error {
	return utils.NewValidationError("maxParticipants",
		fmt.Sprintf("Max participants cannot be lower than the current number of participants (%d)", n))
}
