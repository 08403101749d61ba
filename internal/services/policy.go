package services

import (
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated identity behind a request.
type Actor struct {
	ID    primitive.ObjectID
	Role  models.Role
	Name  string
	Email string
}

// ActorFromUser builds the Actor for a loaded user record.
func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanMutate is the owner-or-admin rule applied before every state change on
// events and icebreakers. A zero owner (no recorded creator) is admin-only.
func CanMutate(actor Actor, owner primitive.ObjectID) bool {
	if actor.IsAdmin() {
		return true
	}
	return !owner.IsZero() && actor.ID == owner
}
