package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/entwine-app/entwine/internal/model"
)

// EnsureIndexes creates the compound indexes every collection relies on.
// Safe to call on every boot.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "matchId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("by_match_status"),
		},
		{
			Keys:    bson.D{{Key: "player1.userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("by_p1_status"),
		},
		{
			Keys:    bson.D{{Key: "player2.userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("by_p2_status"),
		},
		// reaper sweep
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("by_status_expiry"),
		},
		// one non-terminal session per couple per game type
		{
			Keys: bson.D{{Key: "pairKey", Value: 1}},
			Options: options.Index().
				SetName("uniq_open_pair").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"open": true}),
		},
		{
			Keys:    bson.D{{Key: "pairKey", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index().SetName("by_pair_completed"),
		},
	}

	for _, gt := range model.AllGameTypes {
		coll := db.Collection(sessionCollectionName(gt))
		if _, err := coll.Indexes().CreateMany(ctx, sessionIndexes); err != nil {
			return err
		}
	}

	matches := db.Collection("matches")
	_, err := matches.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userA", Value: 1}, {Key: "userB", Value: 1}},
			Options: options.Index().SetName("by_pair_ab"),
		},
		{
			Keys:    bson.D{{Key: "userB", Value: 1}, {Key: "userA", Value: 1}},
			Options: options.Index().SetName("by_pair_ba"),
		},
	})
	if err != nil {
		return err
	}

	compat := db.Collection("couple_compatibility")
	_, err = compat.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pairKey", Value: 1}},
			Options: options.Index().SetName("uniq_pair").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "matchId", Value: 1}},
			Options: options.Index().SetName("by_match"),
		},
	})
	return err
}
