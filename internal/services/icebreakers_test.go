package services

import (
	"context"
	"strings"
	"testing"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIcebreakerLifecycle(t *testing.T) {
	store := newMemIcebreakers()
	svc := NewIcebreakerService(store)
	ctx := context.Background()
	owner := ActorFromUser(newUser("Owner", models.RoleUser))
	stranger := ActorFromUser(newUser("Stranger", models.RoleUser))
	admin := ActorFromUser(newUser("Admin", models.RoleAdmin))

	ib, err := svc.Create(ctx, owner, IcebreakerInput{Question: strPtr("Best trip ever?")})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryFun, ib.Category)
	require.NotNil(t, ib.CreatedBy)
	assert.Equal(t, owner.ID, *ib.CreatedBy)

	_, err = svc.Update(ctx, stranger, ib.ID, IcebreakerInput{Question: strPtr("Hijacked")})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Update(ctx, owner, ib.ID, IcebreakerInput{Category: strPtr("personal")})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPersonal, got.Category)
	assert.Equal(t, "Best trip ever?", got.Question)

	list, err := svc.List(ctx, "personal")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.List(ctx, "spicy")
	var verr *utils.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, ib.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, ib.ID))
	_, err = svc.Get(ctx, ib.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIcebreakerWithoutCreatorIsAdminOnly(t *testing.T) {
	store := newMemIcebreakers()
	svc := NewIcebreakerService(store)
	ctx := context.Background()

	orphan := &models.Icebreaker{Question: "Seeded question", Category: models.CategoryOther}
	require.NoError(t, store.Create(ctx, orphan))

	_, err := svc.Update(ctx, ActorFromUser(newUser("U", models.RoleUser)), orphan.ID, IcebreakerInput{Question: strPtr("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, ActorFromUser(newUser("Admin", models.RoleAdmin)), orphan.ID, IcebreakerInput{Question: strPtr("x?")})
	assert.NoError(t, err)
}

func TestIcebreakerValidation(t *testing.T) {
	svc := NewIcebreakerService(newMemIcebreakers())
	actor := ActorFromUser(newUser("U", models.RoleUser))

	cases := map[string]IcebreakerInput{
		"missing question": {},
		"blank question":   {Question: strPtr("   ")},
		"long question":    {Question: strPtr(strings.Repeat("q", 201))},
		"unknown category": {Question: strPtr("Why?"), Category: strPtr("spicy")},
	}
	for name, in := range cases {
		_, err := svc.Create(context.Background(), actor, in)
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr, name)
	}
}
