package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/entwine-app/entwine/internal/model"
)

// CompatRepo persists the cached per-couple compatibility profile, keyed
// by canonical pair key.
type CompatRepo interface {
	Get(ctx context.Context, pairKey string) (*model.CoupleCompatibility, error)
	// Save writes the profile with a version check. The expectedVersion of
	// a fresh row is 0. Returns ErrVersionConflict when another generate
	// run won the race.
	Save(ctx context.Context, profile *model.CoupleCompatibility, expectedVersion int64) error
}

type compatRepo struct {
	collection *mongo.Collection
}

func NewCompatRepo(db *mongo.Database) CompatRepo {
	return &compatRepo{collection: db.Collection("couple_compatibility")}
}

func (r *compatRepo) Get(ctx context.Context, pairKey string) (*model.CoupleCompatibility, error) {
	var c model.CoupleCompatibility
	err := r.collection.FindOne(ctx, bson.M{"_id": pairKey}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *compatRepo) Save(ctx context.Context, profile *model.CoupleCompatibility, expectedVersion int64) error {
	profile.Version = expectedVersion + 1

	if expectedVersion == 0 {
		_, err := r.collection.InsertOne(ctx, profile)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return err
	}

	res, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": profile.PairKey, "version": expectedVersion},
		profile,
		options.Replace())
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}
