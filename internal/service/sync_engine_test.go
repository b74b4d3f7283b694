package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/config"
	"github.com/entwine-app/entwine/internal/model"
)

// miniWYREngine is a two-question engine sharing the production loop, so
// completion paths are testable without fifty rounds.
func miniWYREngine(repo *memSessionRepo, b *memBroadcaster) (*SyncEngine, *TimerService) {
	timers := NewTimerService()
	insights := NewInsightService(config.AIConfig{}, logrus.New())

	spec := SyncSpec{
		GameType: model.GameWouldYouRather,
		Size:     2,
		Validate: func(in AnswerInput) (*model.AnswerRecord, error) {
			if in.Choice == nil || (*in.Choice != "A" && *in.Choice != "B") {
				return nil, apperr.New(apperr.CodeValidation, "wyr.validate", "choice must be A or B")
			}
			return &model.AnswerRecord{Choice: in.Choice}, nil
		},
		QuestionPayload: func(sess *model.Session) map[string]interface{} {
			return map[string]interface{}{"sessionId": sess.ID, "index": sess.Sync.CurrentIndex}
		},
		RevealPayload: func(sess *model.Session, idx int) map[string]interface{} {
			return map[string]interface{}{"sessionId": sess.ID, "index": idx}
		},
		Score: ScoreWYR,
	}
	engine := NewSyncEngine(spec, repo, timers, insights, logrus.New())
	engine.SetBroadcaster(b)
	return engine, timers
}

func seedMiniSession(repo *memSessionRepo, status model.Status) *model.Session {
	sess := seedSession(repo, model.GameWouldYouRather, status)
	// shrink to the two-question test deck
	sess.QuestionOrder = []int{0, 1}
	sess.Sync = model.NewSyncState(2)
	return sess
}

func TestEngineStart(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)

	engine.Start(sess.ID)

	got, _ := repo.GetByID(context.Background(), model.GameWouldYouRather, sess.ID)
	assert.Equal(t, model.StatusPlaying, got.Status)
	assert.Equal(t, 0, got.Sync.CurrentIndex)
	assert.False(t, got.Sync.QuestionExpiresAt.IsZero())
	assert.Len(t, b.eventsNamed("wyr:question"), 2)

	// a second Start is a no-op
	engine.Start(sess.ID)
	assert.Len(t, b.eventsNamed("wyr:question"), 2)
}

func TestRecordAnswerFlow(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)
	engine.Start(sess.ID)

	_, err := engine.RecordAnswer(context.Background(), sess.ID, "alice", 0, AnswerInput{Choice: strPtr("A")})
	require.NoError(t, err)

	// partner notified, no reveal yet
	partner := b.eventsNamed("wyr:partner_answered")
	require.Len(t, partner, 1)
	assert.Equal(t, "bob", partner[0].UserID)
	assert.Equal(t, 0, partner[0].Payload.(map[string]interface{})["questionIndex"])
	assert.Empty(t, b.eventsNamed("wyr:reveal"))

	_, err = engine.RecordAnswer(context.Background(), sess.ID, "bob", 0, AnswerInput{Choice: strPtr("A")})
	require.NoError(t, err)

	// both in: reveal pushed to both players
	assert.Len(t, b.eventsNamed("wyr:reveal"), 2)
}

func TestRecordAnswerRejections(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)
	engine.Start(sess.ID)

	ctx := context.Background()

	_, err := engine.RecordAnswer(ctx, sess.ID, "mallory", 0, AnswerInput{Choice: strPtr("A")})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotParticipant))

	_, err = engine.RecordAnswer(ctx, sess.ID, "alice", 1, AnswerInput{Choice: strPtr("A")})
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict), "wrong index")

	_, err = engine.RecordAnswer(ctx, sess.ID, "alice", 0, AnswerInput{Choice: strPtr("X")})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = engine.RecordAnswer(ctx, sess.ID, "alice", 0, AnswerInput{Choice: strPtr("A")})
	require.NoError(t, err)
	_, err = engine.RecordAnswer(ctx, sess.ID, "alice", 0, AnswerInput{Choice: strPtr("B")})
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict), "double submit")

	// the stored answer is the first one
	got, _ := repo.GetByID(ctx, model.GameWouldYouRather, sess.ID)
	assert.Equal(t, "A", *got.Sync.P1Answers[0].Choice)
}

func TestTimeoutRecordsMissingAnswers(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)
	engine.Start(sess.ID)

	_, err := engine.RecordAnswer(context.Background(), sess.ID, "alice", 0, AnswerInput{Choice: strPtr("A")})
	require.NoError(t, err)

	engine.Timeout(sess.ID, 0)

	got, _ := repo.GetByID(context.Background(), model.GameWouldYouRather, sess.ID)
	assert.False(t, got.Sync.P1Answers[0].TimedOut)
	assert.True(t, got.Sync.P2Answers[0].TimedOut)
	assert.Len(t, b.eventsNamed("wyr:reveal"), 2)

	// a late duplicate timeout is a no-op
	engine.Timeout(sess.ID, 0)
	assert.Len(t, b.eventsNamed("wyr:reveal"), 2)
}

func TestTimeoutAfterRevealIsNoOp(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)
	engine.Start(sess.ID)

	ctx := context.Background()
	_, err := engine.RecordAnswer(ctx, sess.ID, "alice", 0, AnswerInput{Choice: strPtr("A")})
	require.NoError(t, err)
	_, err = engine.RecordAnswer(ctx, sess.ID, "bob", 0, AnswerInput{Choice: strPtr("B")})
	require.NoError(t, err)

	engine.Timeout(sess.ID, 0)

	got, _ := repo.GetByID(ctx, model.GameWouldYouRather, sess.ID)
	assert.False(t, got.Sync.P1Answers[0].TimedOut)
	assert.False(t, got.Sync.P2Answers[0].TimedOut)
}

func TestAdvanceSingleStep(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)
	engine.Start(sess.ID)

	engine.advance(sess.ID, 0)
	got, _ := repo.GetByID(context.Background(), model.GameWouldYouRather, sess.ID)
	assert.Equal(t, 1, got.Sync.CurrentIndex)

	// a second advance from the same index cannot double-skip
	engine.advance(sess.ID, 0)
	got, _ = repo.GetByID(context.Background(), model.GameWouldYouRather, sess.ID)
	assert.Equal(t, 1, got.Sync.CurrentIndex)
}

func TestFullSessionCompletes(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)
	engine.Start(sess.ID)

	ctx := context.Background()
	for idx := 0; idx < 2; idx++ {
		_, err := engine.RecordAnswer(ctx, sess.ID, "alice", idx, AnswerInput{Choice: strPtr("A")})
		require.NoError(t, err)
		_, err = engine.RecordAnswer(ctx, sess.ID, "bob", idx, AnswerInput{Choice: strPtr("A")})
		require.NoError(t, err)
		engine.advance(sess.ID, idx)
	}

	got, _ := repo.GetByID(ctx, model.GameWouldYouRather, sess.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.Results)
	assert.Equal(t, 100, got.Results.CompatibilityScore)
	assert.NotNil(t, got.CompletedAt)
	assert.Len(t, b.eventsNamed("wyr:game_completed"), 2)
}

func TestResume(t *testing.T) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	engine, _ := miniWYREngine(repo, b)
	sess := seedMiniSession(repo, model.StatusStarting)
	engine.Start(sess.ID)

	ctx := context.Background()
	_, err := engine.RecordAnswer(ctx, sess.ID, "alice", 0, AnswerInput{Choice: strPtr("A")})
	require.NoError(t, err)

	state, err := engine.Resume(ctx, sess.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaying, state["status"])
	assert.Equal(t, true, state["answered"])

	state, err = engine.Resume(ctx, sess.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, false, state["answered"])

	_, err = engine.Resume(ctx, sess.ID, "mallory")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotParticipant))
}
