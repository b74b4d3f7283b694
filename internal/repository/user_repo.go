package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/entwine-app/entwine/internal/model"
)

// UserRepo is a read-only view over the identity service's users
// collection, used to denormalize display profiles into sessions.
type UserRepo interface {
	Profile(ctx context.Context, userID string) (model.Player, error)
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{collection: db.Collection("users")}
}

func (r *userRepo) Profile(ctx context.Context, userID string) (model.Player, error) {
	var doc struct {
		ID          string `bson:"_id"`
		DisplayName string `bson:"displayName"`
		PhotoURL    string `bson:"photoUrl"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return model.Player{}, fmt.Errorf("user %s not found", userID)
	}
	if err != nil {
		return model.Player{}, err
	}
	return model.Player{
		UserID:      doc.ID,
		DisplayName: doc.DisplayName,
		PhotoURL:    doc.PhotoURL,
	}, nil
}
