package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/model"
)

// MaxCASRetries bounds optimistic-write retries per operation.
const MaxCASRetries = 5

// ErrVersionConflict is returned by Mutate after exhausting CAS retries.
var ErrVersionConflict = errors.New("session version conflict")

// ErrActiveSessionExists is returned by Insert when another non-terminal
// session for the same couple and game type already exists.
var ErrActiveSessionExists = errors.New("active session already exists")

// SessionRepo persists game sessions, one collection per game type. All
// writes are single-document and version-checked, so a session is only
// ever observed in a consistent state.
type SessionRepo interface {
	Insert(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, gameType model.GameType, id string) (*model.Session, error)
	// Mutate runs a read-mutate-CAS-write loop. fn may be called several
	// times and must be idempotent on the in-memory session.
	Mutate(ctx context.Context, gameType model.GameType, id string, fn func(*model.Session) error) (*model.Session, error)
	LatestFinished(ctx context.Context, gameType model.GameType, pairKey string) (*model.Session, error)
	CountFinished(ctx context.Context, gameType model.GameType, pairKey string) (int64, error)
	HistoryForUser(ctx context.Context, gameType model.GameType, userID string, limit int64) ([]*model.Session, error)
	// FindStale returns non-terminal sessions whose expiry has passed.
	FindStale(ctx context.Context, gameType model.GameType, now time.Time, limit int64) ([]*model.Session, error)
	// FindPlaying returns sessions in the live question loop, for the
	// boot-time timer recovery sweep.
	FindPlaying(ctx context.Context, gameType model.GameType) ([]*model.Session, error)
}

type sessionRepo struct {
	collections map[model.GameType]*mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	colls := make(map[model.GameType]*mongo.Collection, len(model.AllGameTypes))
	for _, gt := range model.AllGameTypes {
		colls[gt] = db.Collection(sessionCollectionName(gt))
	}
	return &sessionRepo{collections: colls}
}

func sessionCollectionName(gt model.GameType) string {
	return gt.Namespace() + "_sessions"
}

func (r *sessionRepo) coll(gt model.GameType) *mongo.Collection {
	return r.collections[gt]
}

func (r *sessionRepo) Insert(ctx context.Context, s *model.Session) error {
	s.Open = !s.Status.Terminal()
	_, err := r.coll(s.GameType).InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return ErrActiveSessionExists
	}
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, gt model.GameType, id string) (*model.Session, error) {
	var s model.Session
	err := r.coll(gt).FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Mutate(ctx context.Context, gt model.GameType, id string, fn func(*model.Session) error) (*model.Session, error) {
	for attempt := 0; attempt < MaxCASRetries; attempt++ {
		s, err := r.GetByID(ctx, gt, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, apperr.New(apperr.CodeNotFound, "SessionRepo.Mutate", "session not found")
		}

		ver := s.Version
		if err := fn(s); err != nil {
			return nil, err
		}
		s.Version = ver + 1
		s.Open = !s.Status.Terminal()

		res, err := r.coll(gt).ReplaceOne(ctx, bson.M{"_id": id, "version": ver}, s)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return s, nil
		}
		// lost the race, re-read and retry
	}
	return nil, ErrVersionConflict
}

func (r *sessionRepo) LatestFinished(ctx context.Context, gt model.GameType, pairKey string) (*model.Session, error) {
	filter := bson.M{
		"pairKey": pairKey,
		"status":  bson.M{"$in": []model.Status{model.StatusCompleted, model.StatusDiscussion}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	var s model.Session
	err := r.coll(gt).FindOne(ctx, filter, opts).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) CountFinished(ctx context.Context, gt model.GameType, pairKey string) (int64, error) {
	filter := bson.M{
		"pairKey": pairKey,
		"status":  bson.M{"$in": []model.Status{model.StatusCompleted, model.StatusDiscussion}},
	}
	return r.coll(gt).CountDocuments(ctx, filter)
}

func (r *sessionRepo) HistoryForUser(ctx context.Context, gt model.GameType, userID string, limit int64) ([]*model.Session, error) {
	filter := bson.M{"$or": []bson.M{
		{"player1.userId": userID},
		{"player2.userId": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "invitedAt", Value: -1}}).SetLimit(limit)

	cursor, err := r.coll(gt).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) FindStale(ctx context.Context, gt model.GameType, now time.Time, limit int64) ([]*model.Session, error) {
	filter := bson.M{
		"status":    bson.M{"$in": model.NonTerminalStatuses},
		"expiresAt": bson.M{"$lt": now},
	}
	opts := options.Find().SetLimit(limit)

	cursor, err := r.coll(gt).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) FindPlaying(ctx context.Context, gt model.GameType) ([]*model.Session, error) {
	cursor, err := r.coll(gt).Find(ctx, bson.M{"status": model.StatusPlaying})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
