package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/query"
	"github.com/SachinRathod0101/Time-left-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memEvents mirrors the conditional updates of store.EventRepository.
type memEvents struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]*models.Event
}

func newMemEvents() *memEvents {
	return &memEvents{events: make(map[primitive.ObjectID]*models.Event)}
}

func clone(e *models.Event) *models.Event {
	c := *e
	c.Participants = append([]models.Participant{}, e.Participants...)
	c.Icebreakers = append([]primitive.ObjectID{}, e.Icebreakers...)
	return &c
}

func (m *memEvents) Create(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	m.events[e.ID] = clone(e)
	return nil
}

func (m *memEvents) GetByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(e), nil
}

func (m *memEvents) List(_ context.Context, q query.ListQuery) ([]models.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Event{}
	for _, e := range m.events {
		out = append(out, *clone(e))
	}
	return out, int64(len(out)), nil
}

func (m *memEvents) Update(_ context.Context, id primitive.ObjectID, patch models.EventPatch) (*models.Event, error) {
	return m.mutate(id, func(e *models.Event) bool {
		if patch.MaxParticipants != nil && len(e.Participants) > *patch.MaxParticipants {
			return false
		}
		if patch.Title != nil {
			e.Title = *patch.Title
		}
		if patch.Description != nil {
			e.Description = *patch.Description
		}
		if patch.EventDate != nil {
			e.EventDate = *patch.EventDate
		}
		if patch.RevealDate != nil {
			e.RevealDate = *patch.RevealDate
		}
		if patch.Location != nil {
			e.Location = *patch.Location
		}
		if patch.MaxParticipants != nil {
			e.MaxParticipants = *patch.MaxParticipants
		}
		if patch.ImageURL != nil {
			e.ImageURL = *patch.ImageURL
		}
		return true
	})
}

func (m *memEvents) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memEvents) AddParticipant(_ context.Context, id primitive.ObjectID, p models.Participant) (*models.Event, error) {
	return m.mutate(id, func(e *models.Event) bool {
		if e.HasParticipant(p.User) || len(e.Participants) >= e.MaxParticipants {
			return false
		}
		e.Participants = append(e.Participants, p)
		return true
	})
}

func (m *memEvents) RemoveParticipant(_ context.Context, id, userID primitive.ObjectID) (*models.Event, error) {
	return m.mutate(id, func(e *models.Event) bool {
		for i, p := range e.Participants {
			if p.User == userID {
				e.Participants = append(e.Participants[:i], e.Participants[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (m *memEvents) AddIcebreaker(_ context.Context, id, icebreakerID primitive.ObjectID) (*models.Event, error) {
	return m.mutate(id, func(e *models.Event) bool {
		if e.HasIcebreaker(icebreakerID) {
			return false
		}
		e.Icebreakers = append(e.Icebreakers, icebreakerID)
		return true
	})
}

func (m *memEvents) RemoveIcebreaker(_ context.Context, id, icebreakerID primitive.ObjectID) (*models.Event, error) {
	return m.mutate(id, func(e *models.Event) bool {
		for i, ib := range e.Icebreakers {
			if ib == icebreakerID {
				e.Icebreakers = append(e.Icebreakers[:i], e.Icebreakers[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (m *memEvents) SetStatus(_ context.Context, id primitive.ObjectID, from, to models.EventStatus) (*models.Event, error) {
	return m.mutate(id, func(e *models.Event) bool {
		if e.Status != from {
			return false
		}
		e.Status = to
		return true
	})
}

func (m *memEvents) mutate(id primitive.ObjectID, apply func(e *models.Event) bool) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, store.ErrNoMatch
	}
	next := clone(e)
	if !apply(next) {
		return nil, store.ErrNoMatch
	}
	m.events[id] = next
	return clone(next), nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) GetMany(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) List(_ context.Context, q query.ListQuery) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (m *memUsers) Update(_ context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, store.ErrDuplicate
			}
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.City != nil {
		u.City = *patch.City
	}
	if patch.Photo != nil {
		u.Photo = *patch.Photo
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	c := *u
	return &c, nil
}

func (m *memUsers) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	return nil
}

type memIcebreakers struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Icebreaker
}

func newMemIcebreakers() *memIcebreakers {
	return &memIcebreakers{items: make(map[primitive.ObjectID]*models.Icebreaker)}
}

func (m *memIcebreakers) Create(_ context.Context, ib *models.Icebreaker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ib.ID.IsZero() {
		ib.ID = primitive.NewObjectID()
	}
	c := *ib
	m.items[ib.ID] = &c
	return nil
}

func (m *memIcebreakers) GetByID(_ context.Context, id primitive.ObjectID) (*models.Icebreaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ib, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *ib
	return &c, nil
}

func (m *memIcebreakers) GetMany(_ context.Context, ids []primitive.ObjectID) ([]models.Icebreaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Icebreaker{}
	for _, id := range ids {
		if ib, ok := m.items[id]; ok {
			out = append(out, *ib)
		}
	}
	return out, nil
}

func (m *memIcebreakers) List(_ context.Context, category models.IcebreakerCategory) ([]models.Icebreaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Icebreaker{}
	for _, ib := range m.items {
		if category == "" || ib.Category == category {
			out = append(out, *ib)
		}
	}
	return out, nil
}

func (m *memIcebreakers) Update(_ context.Context, id primitive.ObjectID, patch models.IcebreakerPatch) (*models.Icebreaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ib, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Question != nil {
		ib.Question = *patch.Question
	}
	if patch.Category != nil {
		ib.Category = *patch.Category
	}
	c := *ib
	return &c, nil
}

func (m *memIcebreakers) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// recordingMailer fails for addresses listed in fail.
type recordingMailer struct {
	mu       sync.Mutex
	attempts []string
	fail     map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, msg.To)
	if m.fail[msg.To] {
		return errors.New("mailbox unavailable")
	}
	return nil
}

func (m *recordingMailer) Attempts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.attempts...)
}

type stubUploader struct {
	url   string
	err   error
	delay time.Duration
}

func (u *stubUploader) Upload(ctx context.Context, _ *Image, folder string) (string, error) {
	if u.delay > 0 {
		select {
		case <-time.After(u.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if u.err != nil {
		return "", u.err
	}
	return u.url + "/" + folder, nil
}

type recordingFeed struct {
	mu     sync.Mutex
	events []RosterEvent
}

func (f *recordingFeed) Publish(_ context.Context, ev RosterEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *recordingFeed) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemRevocations() *memRevocations {
	return &memRevocations{revoked: make(map[string]bool)}
}

func (r *memRevocations) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = true
	return nil
}

func (r *memRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[tokenID], nil
}
