package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusApproved  EventStatus = "approved"
	EventStatusRejected  EventStatus = "rejected"
	EventStatusCompleted EventStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusRejected, EventStatusCompleted:
		return true
	}
	return false
}

const (
	MaxEventTitleLength       = 100
	MaxEventDescriptionLength = 1000
	MinParticipants           = 2
	MaxParticipants           = 100
	DefaultMaxParticipants    = 6
)

// Participant is owned by its Event and has no identity of its own.
type Participant struct {
	User     primitive.ObjectID `bson:"user" json:"user"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`

	Title           string    `bson:"title" json:"title"`
	Description     string    `bson:"description" json:"description"`
	EventDate       time.Time `bson:"event_date" json:"eventDate"`
	RevealDate      time.Time `bson:"reveal_date" json:"revealDate"`
	Location        string    `bson:"location" json:"location"`
	MaxParticipants int       `bson:"max_participants" json:"maxParticipants"`
	ImageURL        string    `bson:"image_url,omitempty" json:"imageUrl,omitempty"`

	Participants []Participant        `bson:"participants" json:"participants"`
	Icebreakers  []primitive.ObjectID `bson:"icebreakers" json:"icebreakers"`
	Status       EventStatus          `bson:"status" json:"status"`
	CreatedBy    primitive.ObjectID   `bson:"created_by" json:"createdBy"`
}

// ParticipantDetail is a roster entry with its user resolved. User is nil
// when the account no longer exists.
type ParticipantDetail struct {
	User     *UserSummary `json:"user"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// EventDetail is an Event with its creator, roster and icebreakers resolved.
// In JSON these fields replace the id-only ones of the embedded Event.
type EventDetail struct {
	Event
	CreatedBy    *UserSummary        `json:"createdBy"`
	Participants []ParticipantDetail `json:"participants"`
	Icebreakers  []Icebreaker        `json:"icebreakers"`
}

// HasParticipant reports whether userID is on the roster.
func (e *Event) HasParticipant(userID primitive.ObjectID) bool {
	for _, p := range e.Participants {
		if p.User == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the roster has reached MaxParticipants.
func (e *Event) IsFull() bool {
	return len(e.Participants) >= e.MaxParticipants
}

// HasIcebreaker reports whether icebreakerID is attached.
func (e *Event) HasIcebreaker(icebreakerID primitive.ObjectID) bool {
	for _, id := range e.Icebreakers {
		if id == icebreakerID {
			return true
		}
	}
	return false
}

// ParticipantIDs returns the roster user ids in join order.
func (e *Event) ParticipantIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(e.Participants))
	for _, p := range e.Participants {
		ids = append(ids, p.User)
	}
	return ids
}

// EventPatch is a validated partial update; nil fields are left unchanged.
type EventPatch struct {
	Title           *string
	Description     *string
	EventDate       *time.Time
	RevealDate      *time.Time
	Location        *string
	MaxParticipants *int
	ImageURL        *string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.EventDate == nil && p.RevealDate == nil &&
		p.Location == nil && p.MaxParticipants == nil && p.ImageURL == nil
}
