package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SachinRathod0101/Time-left-backend/internal/middleware"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxFormMemory is how much of a multipart body is held in memory; the rest
// spills to temp files.
const maxFormMemory = 10 << 20

// EventService is the event workflow the HTTP layer drives.
type EventService interface {
	Create(ctx context.Context, actor services.Actor, in services.EventInput) (*models.Event, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	GetDetail(ctx context.Context, id primitive.ObjectID) (*models.EventDetail, error)
	List(ctx context.Context, values url.Values) (*services.EventPage, error)
	Update(ctx context.Context, actor services.Actor, id primitive.ObjectID, in services.EventInput) (*models.Event, error)
	Delete(ctx context.Context, actor services.Actor, id primitive.ObjectID) error
	Join(ctx context.Context, actor services.Actor, id primitive.ObjectID) (*models.Event, error)
	Leave(ctx context.Context, actor services.Actor, id primitive.ObjectID) (*models.Event, error)
	Approve(ctx context.Context, actor services.Actor, id primitive.ObjectID) (*models.Event, error)
	Reject(ctx context.Context, actor services.Actor, id primitive.ObjectID) (*models.Event, error)
	AttachIcebreaker(ctx context.Context, actor services.Actor, id, icebreakerID primitive.ObjectID) (*models.Event, error)
	DetachIcebreaker(ctx context.Context, actor services.Actor, id, icebreakerID primitive.ObjectID) (*models.Event, error)
}

type EventHandler struct {
	events EventService
}

func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

// CreateEvent accepts multipart/form-data (with an optional "image" file) or JSON.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := readEventInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	event, err := h.events.Create(r.Context(), actorFrom(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, event)
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, err := h.events.List(r.Context(), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	events := page.Events
	if events == nil {
		events = []models.EventDetail{}
	}
	writeList(w, events, len(events), page.Total, page.Pagination)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		writeError(w, r, err)
		return
	}
	event, err := h.events.GetDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, cleanup, err := readEventInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	event, err := h.events.Update(r.Context(), actorFrom(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.events.Delete(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}

func (h *EventHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.events.Join)
}

func (h *EventHandler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.events.Leave)
}

func (h *EventHandler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.events.Approve)
}

func (h *EventHandler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.events.Reject)
}

type attachRequest struct {
	IcebreakerID string `json:"icebreakerId"`
}

func (h *EventHandler) AttachIcebreaker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req attachRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IcebreakerID == "" {
		writeError(w, r, utils.NewValidationError("icebreakerId", "Icebreaker ID is required"))
		return
	}
	icebreakerID, err := primitive.ObjectIDFromHex(req.IcebreakerID)
	if err != nil {
		writeError(w, r, notFoundError("Icebreaker"))
		return
	}

	event, err := h.events.AttachIcebreaker(r.Context(), actorFrom(r), id, icebreakerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

func (h *EventHandler) DetachIcebreaker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		writeError(w, r, err)
		return
	}
	icebreakerID, err := pathID(r, "icebreakerId", "Icebreaker")
	if err != nil {
		writeError(w, r, err)
		return
	}

	event, err := h.events.DetachIcebreaker(r.Context(), actorFrom(r), id, icebreakerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

// act runs a single-event state change named by the {id} path param.
func (h *EventHandler) act(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, services.Actor, primitive.ObjectID) (*models.Event, error)) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		writeError(w, r, err)
		return
	}
	event, err := fn(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, event)
}

func actorFrom(r *http.Request) services.Actor {
	if u := middleware.UserFrom(r.Context()); u != nil {
		return services.ActorFromUser(u)
	}
	return services.Actor{}
}

var eventFields = []string{"title", "description", "eventDate", "revealDate", "location", "maxParticipants"}

// readEventInput reads event fields from a multipart form or a JSON object.
// The returned cleanup releases the uploaded file and temp files.
func readEventInput(r *http.Request) (services.EventInput, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readEventForm(r)
	}

	fields, err := decodeFlatJSON(r)
	if err != nil {
		return services.EventInput{}, noop, err
	}
	return eventInputFrom(fields), noop, nil
}

func readEventForm(r *http.Request) (services.EventInput, func(), error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return services.EventInput{}, func() {}, utils.NewValidationError("body", "Failed to parse form")
	}
	fields := make(map[string]string)
	for _, name := range eventFields {
		if values, ok := r.MultipartForm.Value[name]; ok && len(values) > 0 {
			fields[name] = values[0]
		}
	}
	in := eventInputFrom(fields)

	img, closer, err := formImage(r, "image")
	cleanup := func() {
		if closer != nil {
			closer.Close()
		}
		r.MultipartForm.RemoveAll()
	}
	if err != nil {
		cleanup()
		return services.EventInput{}, func() {}, err
	}
	in.Image = img
	return in, cleanup, nil
}

func eventInputFrom(fields map[string]string) services.EventInput {
	get := func(name string) *string {
		if v, ok := fields[name]; ok {
			return &v
		}
		return nil
	}
	return services.EventInput{
		Title:           get("title"),
		Description:     get("description"),
		EventDate:       get("eventDate"),
		RevealDate:      get("revealDate"),
		Location:        get("location"),
		MaxParticipants: get("maxParticipants"),
	}
}

// formImage returns the optional file under field, or nil when none was sent.
func formImage(r *http.Request, field string) (*services.Image, io.Closer, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, utils.NewValidationError(field, "Failed to read uploaded file")
	}
	return &services.Image{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, file, nil
}

// decodeFlatJSON decodes a JSON object of scalars into strings so JSON and
// form bodies share one validation path ({"maxParticipants": 5} reads as "5").
func decodeFlatJSON(r *http.Request) (map[string]string, error) {
	var raw map[string]interface{}
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(raw))
	for name, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			fields[name] = v
		case float64:
			fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			fields[name] = strconv.FormatBool(v)
		default:
			return nil, utils.NewValidationError(name, "Invalid value for "+name)
		}
	}
	return fields, nil
}
