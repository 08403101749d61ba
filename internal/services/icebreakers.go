package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/store"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IcebreakerStore interface {
	Create(ctx context.Context, ib *models.Icebreaker) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Icebreaker, error)
	List(ctx context.Context, category models.IcebreakerCategory) ([]models.Icebreaker, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.IcebreakerPatch) (*models.Icebreaker, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// IcebreakerInput carries raw request fields; nil means not sent.
type IcebreakerInput struct {
	Question *string
	Category *string
}

type IcebreakerService struct {
	icebreakers IcebreakerStore
}

func NewIcebreakerService(icebreakers IcebreakerStore) *IcebreakerService {
	return &IcebreakerService{icebreakers: icebreakers}
}

func (s *IcebreakerService) Create(ctx context.Context, actor Actor, in IcebreakerInput) (*models.Icebreaker, error) {
	if in.Question == nil {
		return nil, utils.NewValidationError("question", "Question is required")
	}
	patch, err := parseIcebreakerInput(in)
	if err != nil {
		return nil, err
	}

	ib := &models.Icebreaker{
		CreatedAt: time.Now().UTC(),
		Question:  *patch.Question,
		Category:  models.CategoryFun,
		CreatedBy: &actor.ID,
	}
	if patch.Category != nil {
		ib.Category = *patch.Category
	}

	if err := s.icebreakers.Create(ctx, ib); err != nil {
		return nil, fmt.Errorf("create icebreaker: %w", err)
	}
	return ib, nil
}

func (s *IcebreakerService) Get(ctx context.Context, id primitive.ObjectID) (*models.Icebreaker, error) {
	return s.load(ctx, id)
}

// List returns the catalog, optionally narrowed to one category.
func (s *IcebreakerService) List(ctx context.Context, category string) ([]models.Icebreaker, error) {
	c := models.IcebreakerCategory(strings.TrimSpace(category))
	if c != "" && !c.Valid() {
		return nil, utils.NewValidationError("category", "Invalid category")
	}
	out, err := s.icebreakers.List(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("list icebreakers: %w", err)
	}
	return out, nil
}

func (s *IcebreakerService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, in IcebreakerInput) (*models.Icebreaker, error) {
	ib, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(actor, owner(ib)) {
		return nil, fmt.Errorf("not authorized to update this icebreaker: %w", ErrForbidden)
	}
	patch, err := parseIcebreakerInput(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.icebreakers.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Icebreaker")
		}
		return nil, fmt.Errorf("update icebreaker: %w", err)
	}
	return updated, nil
}

// Delete removes the icebreaker. Events keep a dangling reference, which
// the owner can detach.
func (s *IcebreakerService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	ib, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !CanMutate(actor, owner(ib)) {
		return fmt.Errorf("not authorized to delete this icebreaker: %w", ErrForbidden)
	}
	if err := s.icebreakers.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Icebreaker")
		}
		return fmt.Errorf("delete icebreaker: %w", err)
	}
	return nil
}

func (s *IcebreakerService) load(ctx context.Context, id primitive.ObjectID) (*models.Icebreaker, error) {
	ib, err := s.icebreakers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Icebreaker")
		}
		return nil, fmt.Errorf("load icebreaker: %w", err)
	}
	return ib, nil
}

// owner is the zero id for icebreakers without a recorded creator.
func owner(ib *models.Icebreaker) primitive.ObjectID {
	if ib.CreatedBy == nil {
		return primitive.NilObjectID
	}
	return *ib.CreatedBy
}

func parseIcebreakerInput(in IcebreakerInput) (models.IcebreakerPatch, error) {
	var patch models.IcebreakerPatch
	if in.Question != nil {
		q := strings.TrimSpace(*in.Question)
		if q == "" {
			return patch, utils.NewValidationError("question", "Question is required")
		}
		if utf8.RuneCountInString(q) > models.MaxQuestionLength {
			return patch, utils.NewValidationError("question", "Question cannot be more than 200 characters")
		}
		patch.Question = &q
	}
	if in.Category != nil {
		c := models.IcebreakerCategory(strings.TrimSpace(*in.Category))
		if !c.Valid() {
			return patch, utils.NewValidationError("category",
				"Category must be one of fun, personal, professional, philosophical, other")
		}
		patch.Category = &c
	}
	return patch, nil
}
