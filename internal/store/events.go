package store

import (
	"context"
	"errors"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventFields is the list/filter allow-list for events.
var EventFields = query.Schema{
	"title":           {Key: "title", Kind: query.KindString},
	"location":        {Key: "location", Kind: query.KindString},
	"eventDate":       {Key: "event_date", Kind: query.KindTime},
	"revealDate":      {Key: "reveal_date", Kind: query.KindTime},
	"maxParticipants": {Key: "max_participants", Kind: query.KindInt},
	"createdAt":       {Key: "created_at", Kind: query.KindTime},
	"createdBy":       {Key: "created_by", Kind: query.KindObjectID},
	"status": {Key: "status", Kind: query.KindEnum, Enum: []string{
		string(models.EventStatusPending), string(models.EventStatusApproved),
		string(models.EventStatusRejected), string(models.EventStatusCompleted),
	}},
	"description":  {Key: "description", Kind: query.KindSelectOnly},
	"imageUrl":     {Key: "image_url", Kind: query.KindSelectOnly},
	"participants": {Key: "participants", Kind: query.KindSelectOnly},
	"icebreakers":  {Key: "icebreakers", Kind: query.KindSelectOnly},
}

type EventRepository struct {
	col *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection("events")}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Participants == nil {
		event.Participants = []models.Participant{}
	}
	if event.Icebreakers == nil {
		event.Icebreakers = []primitive.ObjectID{}
	}
	_, err := r.col.InsertOne(ctx, event)
	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) List(ctx context.Context, q query.ListQuery) ([]models.Event, int64, error) {
	filter := q.Filter()
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(q.SortDoc()).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))
	if proj := q.Projection(); proj != nil {
		opts.SetProjection(proj)
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Update applies patch with $set. When patch lowers max participants the
// update only matches while the roster still fits.
func (r *EventRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.EventPatch) (*models.Event, error) {
	set := bson.M{}
	filter := bson.M{"_id": id}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.EventDate != nil {
		set["event_date"] = *patch.EventDate
	}
	if patch.RevealDate != nil {
		set["reveal_date"] = *patch.RevealDate
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.MaxParticipants != nil {
		set["max_participants"] = *patch.MaxParticipants
		filter["$expr"] = bson.M{"$lte": bson.A{bson.M{"$size": "$participants"}, *patch.MaxParticipants}}
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

func (r *EventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddParticipant appends p only if the user is not yet on the roster and the
// roster is below capacity, in a single atomic update.
func (r *EventRepository) AddParticipant(ctx context.Context, id primitive.ObjectID, p models.Participant) (*models.Event, error) {
	filter := bson.M{
		"_id":               id,
		"participants.user": bson.M{"$ne": p.User},
		"$expr":             bson.M{"$lt": bson.A{bson.M{"$size": "$participants"}, "$max_participants"}},
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$push": bson.M{"participants": p}})
}

func (r *EventRepository) RemoveParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Event, error) {
	filter := bson.M{"_id": id, "participants.user": userID}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$pull": bson.M{"participants": bson.M{"user": userID}}})
}

func (r *EventRepository) AddIcebreaker(ctx context.Context, id, icebreakerID primitive.ObjectID) (*models.Event, error) {
	filter := bson.M{"_id": id, "icebreakers": bson.M{"$ne": icebreakerID}}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$push": bson.M{"icebreakers": icebreakerID}})
}

func (r *EventRepository) RemoveIcebreaker(ctx context.Context, id, icebreakerID primitive.ObjectID) (*models.Event, error) {
	filter := bson.M{"_id": id, "icebreakers": icebreakerID}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$pull": bson.M{"icebreakers": icebreakerID}})
}

// SetStatus moves the event from one status to another; ErrNoMatch when the
// event is no longer in from.
func (r *EventRepository) SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.EventStatus) (*models.Event, error) {
	filter := bson.M{"_id": id, "status": from}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"status": to}})
}

func (r *EventRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Event, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var event models.Event
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoMatch
		}
		return nil, err
	}
	return &event, nil
}
