package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IcebreakerCategory string

const (
	CategoryFun           IcebreakerCategory = "fun"
	CategoryPersonal      IcebreakerCategory = "personal"
	CategoryProfessional  IcebreakerCategory = "professional"
	CategoryPhilosophical IcebreakerCategory = "philosophical"
	CategoryOther         IcebreakerCategory = "other"
)

const MaxQuestionLength = 200

// Valid reports whether c is one of the known categories.
func (c IcebreakerCategory) Valid() bool {
	switch c {
	case CategoryFun, CategoryPersonal, CategoryProfessional, CategoryPhilosophical, CategoryOther:
		return true
	}
	return false
}

type Icebreaker struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`

	Question  string              `bson:"question" json:"question"`
	Category  IcebreakerCategory  `bson:"category" json:"category"`
	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
}

// IcebreakerPatch holds validated changes; nil means unchanged.
type IcebreakerPatch struct {
	Question *string
	Category *IcebreakerCategory
}
