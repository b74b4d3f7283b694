package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/config"
	"github.com/entwine-app/entwine/internal/model"
)

func newTestTTL() (*TTLService, *memSessionRepo, *memBroadcaster) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	svc := NewTTLService(repo, NewInsightService(config.AIConfig{}, logrus.New()), logrus.New())
	svc.SetBroadcaster(b)
	return svc, repo, b
}

func ttlStatements(round int) []string {
	return []string{
		fmt.Sprintf("truth one %d", round),
		fmt.Sprintf("truth two %d", round),
		fmt.Sprintf("the lie %d", round),
	}
}

func TestTTLSubmitStatements(t *testing.T) {
	svc, repo, b := newTestTTL()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitStatements(ctx, sess.ID, "alice", 0, ttlStatements(0), 2)
	require.NoError(t, err)

	got, _ := repo.GetByID(ctx, model.GameTwoTruthsLie, sess.ID)
	require.NotNil(t, got.TTL.P1Entries[0])
	assert.Equal(t, 2, got.TTL.P1Entries[0].LieIndex)

	notified := b.eventsNamed("ttl:partner_submitted")
	require.Len(t, notified, 1)
	assert.Equal(t, "bob", notified[0].UserID)

	// rounds are write-once
	_, err = svc.SubmitStatements(ctx, sess.ID, "alice", 0, ttlStatements(0), 1)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestTTLSubmitStatementsValidation(t *testing.T) {
	svc, repo, _ := newTestTTL()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitStatements(ctx, sess.ID, "alice", 0, []string{"only", "two"}, 0)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.SubmitStatements(ctx, sess.ID, "alice", 0, []string{"a", "b", "  "}, 0)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.SubmitStatements(ctx, sess.ID, "alice", 0, ttlStatements(0), 3)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.SubmitStatements(ctx, sess.ID, "alice", model.TTLRounds, ttlStatements(0), 0)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestTTLGuessNeedsPartnerEntry(t *testing.T) {
	svc, repo, _ := newTestTTL()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)

	_, err := svc.SubmitGuess(context.Background(), sess.ID, "alice", 0, 1)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestTTLGuessCorrectness(t *testing.T) {
	svc, repo, _ := newTestTTL()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitStatements(ctx, sess.ID, "bob", 0, ttlStatements(0), 2)
	require.NoError(t, err)

	_, err = svc.SubmitGuess(ctx, sess.ID, "alice", 0, 2)
	require.NoError(t, err)

	got, _ := repo.GetByID(ctx, model.GameTwoTruthsLie, sess.ID)
	require.NotNil(t, got.TTL.P1Guesses[0])
	assert.True(t, got.TTL.P1Guesses[0].Correct)
}

func TestTTLCompletion(t *testing.T) {
	svc, repo, b := newTestTTL()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)
	ctx := context.Background()

	for round := 0; round < model.TTLRounds; round++ {
		_, err := svc.SubmitStatements(ctx, sess.ID, "alice", round, ttlStatements(round), 0)
		require.NoError(t, err)
		_, err = svc.SubmitStatements(ctx, sess.ID, "bob", round, ttlStatements(round), 1)
		require.NoError(t, err)
	}
	for round := 0; round < model.TTLRounds; round++ {
		_, err := svc.SubmitGuess(ctx, sess.ID, "alice", round, 1)
		require.NoError(t, err)
		_, err = svc.SubmitGuess(ctx, sess.ID, "bob", round, 0)
		require.NoError(t, err)
	}

	got, _ := repo.GetByID(ctx, model.GameTwoTruthsLie, sess.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.Results)
	// every guess correct, no double bluffs
	assert.Equal(t, 20, got.Results.CorrectGuesses)
	assert.Equal(t, 100, got.Results.CompatibilityScore)
	assert.Len(t, b.eventsNamed("ttl:game_completed"), 2)
}

func TestTTLViewHidesLiesUntilFinished(t *testing.T) {
	svc, repo, _ := newTestTTL()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitStatements(ctx, sess.ID, "bob", 0, ttlStatements(0), 2)
	require.NoError(t, err)

	view, err := svc.View(ctx, sess.ID, "alice")
	require.NoError(t, err)

	partnerRounds := view["partnerRounds"].([]map[string]interface{})
	require.NotNil(t, partnerRounds[0])
	_, exposed := partnerRounds[0]["lieIndex"]
	assert.False(t, exposed, "lie index must stay hidden while active")
	assert.NotContains(t, view, "partnerGuesses")
}
