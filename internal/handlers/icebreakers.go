package handlers

import (
	"context"
	"net/http"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IcebreakerService is the icebreaker catalog the HTTP layer drives.
type IcebreakerService interface {
	Create(ctx context.Context, actor services.Actor, in services.IcebreakerInput) (*models.Icebreaker, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Icebreaker, error)
	List(ctx context.Context, category string) ([]models.Icebreaker, error)
	Update(ctx context.Context, actor services.Actor, id primitive.ObjectID, in services.IcebreakerInput) (*models.Icebreaker, error)
	Delete(ctx context.Context, actor services.Actor, id primitive.ObjectID) error
}

type IcebreakerHandler struct {
	icebreakers IcebreakerService
}

func NewIcebreakerHandler(icebreakers IcebreakerService) *IcebreakerHandler {
	return &IcebreakerHandler{icebreakers: icebreakers}
}

type IcebreakerRequest struct {
	Question *string `json:"question"`
	Category *string `json:"category"`
}

func (req IcebreakerRequest) input() services.IcebreakerInput {
	return services.IcebreakerInput{Question: req.Question, Category: req.Category}
}

func (h *IcebreakerHandler) CreateIcebreaker(w http.ResponseWriter, r *http.Request) {
	var req IcebreakerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ib, err := h.icebreakers.Create(r.Context(), actorFrom(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, ib)
}

// ListIcebreakers returns the catalog, filtered by ?category= when given.
func (h *IcebreakerHandler) ListIcebreakers(w http.ResponseWriter, r *http.Request) {
	list, err := h.icebreakers.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Icebreaker{}
	}
	count := len(list)
	writeJSON(w, http.StatusOK, Response{Success: true, Count: &count, Data: list})
}

func (h *IcebreakerHandler) GetIcebreaker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Icebreaker")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ib, err := h.icebreakers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ib)
}

func (h *IcebreakerHandler) UpdateIcebreaker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Icebreaker")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req IcebreakerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ib, err := h.icebreakers.Update(r.Context(), actorFrom(r), id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ib)
}

func (h *IcebreakerHandler) DeleteIcebreaker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Icebreaker")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.icebreakers.Delete(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
