package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`

	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"` // Don't return password in JSON
	Role     Role   `bson:"role" json:"role"`

	// Profile fields
	Bio   string `bson:"bio,omitempty" json:"bio,omitempty"`
	City  string `bson:"city,omitempty" json:"city,omitempty"`
	Photo string `bson:"photo,omitempty" json:"photo,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the public part of a profile, shown on events the user
// created or joined.
type UserSummary struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Bio   string             `json:"bio,omitempty"`
	City  string             `json:"city,omitempty"`
	Photo string             `json:"photo,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Bio: u.Bio, City: u.City, Photo: u.Photo}
}

// UserPatch holds the profile fields a user may change; nil means unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Bio      *string
	City     *string
	Photo    *string
	Password *string // already hashed
}
