package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/entwine-app/entwine/internal/model"
)

// MatchRepo reads the external match collection. The core never writes it.
type MatchRepo interface {
	GetByID(ctx context.Context, matchID string) (*model.Match, error)
}

type matchRepo struct {
	collection *mongo.Collection
}

func NewMatchRepo(db *mongo.Database) MatchRepo {
	return &matchRepo{collection: db.Collection("matches")}
}

func (r *matchRepo) GetByID(ctx context.Context, matchID string) (*model.Match, error) {
	var m model.Match
	err := r.collection.FindOne(ctx, bson.M{"_id": matchID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
