package store

import (
	"context"
	"errors"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IcebreakerRepository struct {
	col *mongo.Collection
}

func NewIcebreakerRepository(db *mongo.Database) *IcebreakerRepository {
	return &IcebreakerRepository{col: db.Collection("icebreakers")}
}

func (r *IcebreakerRepository) Create(ctx context.Context, ib *models.Icebreaker) error {
	if ib.ID.IsZero() {
		ib.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, ib)
	return err
}

func (r *IcebreakerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Icebreaker, error) {
	var ib models.Icebreaker
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ib); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ib, nil
}

// List returns every icebreaker, optionally narrowed to one category.
// GetMany returns the icebreakers with the given ids; unknown ids are skipped.
func (r *IcebreakerRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Icebreaker, error) {
	out := []models.Icebreaker{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *IcebreakerRepository) List(ctx context.Context, category models.IcebreakerCategory) ([]models.Icebreaker, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Icebreaker{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *IcebreakerRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.IcebreakerPatch) (*models.Icebreaker, error) {
	set := bson.M{}
	if patch.Question != nil {
		set["question"] = *patch.Question
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ib models.Icebreaker
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&ib); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ib, nil
}

func (r *IcebreakerRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
