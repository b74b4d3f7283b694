package service

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/config"
	"github.com/entwine-app/entwine/internal/model"
)

func newTestBoard() (*BoardService, *memSessionRepo, *memBroadcaster, *memQueue) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	q := &memQueue{}
	svc := NewBoardService(repo, NewInsightService(config.AIConfig{}, logrus.New()), &memUploader{}, q, logrus.New())
	svc.SetBroadcaster(b)
	return svc, repo, b, q
}

func TestBoardSubmitSelection(t *testing.T) {
	svc, repo, b, _ := newTestBoard()
	sess := seedSession(repo, model.GameDreamBoard, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitSelection(ctx, sess.ID, "alice", 1, "A", model.PriorityDream, model.TimelineSomeday)
	require.NoError(t, err)

	got, _ := repo.GetByID(ctx, model.GameDreamBoard, sess.ID)
	sel := got.Board.P1Selections[0]
	require.NotNil(t, sel)
	assert.Equal(t, "A", sel.CardID)
	assert.Equal(t, model.PriorityDream, sel.Priority)

	notified := b.eventsNamed("db:partner_selected")
	require.Len(t, notified, 1)
	assert.Equal(t, "bob", notified[0].UserID)
}

func TestBoardSelectionValidation(t *testing.T) {
	svc, repo, _, _ := newTestBoard()
	sess := seedSession(repo, model.GameDreamBoard, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitSelection(ctx, sess.ID, "alice", 0, "A", model.PriorityDream, model.TimelineSomeday)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.SubmitSelection(ctx, sess.ID, "alice", 1, "Z", model.PriorityDream, model.TimelineSomeday)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.SubmitSelection(ctx, sess.ID, "alice", 1, "A", model.Priority("whatever"), model.TimelineSomeday)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestBoardReselectionKeepsElaboration(t *testing.T) {
	svc, repo, _, q := newTestBoard()
	sess := seedSession(repo, model.GameDreamBoard, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitSelection(ctx, sess.ID, "alice", 3, "A", model.PriorityDream, model.TimelineSomeday)
	require.NoError(t, err)
	_, err = svc.AddElaboration(ctx, sess.ID, "alice", 3, "audio/ogg", strings.NewReader("voice"), 45)
	require.NoError(t, err)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, "elaboration", q.jobs[0].Kind)

	// re-pick a different card in the same category
	_, err = svc.SubmitSelection(ctx, sess.ID, "alice", 3, "B", model.PriorityFlow, model.TimelineCantWait)
	require.NoError(t, err)

	got, _ := repo.GetByID(ctx, model.GameDreamBoard, sess.ID)
	sel := got.Board.P1Selections[2]
	assert.Equal(t, "B", sel.CardID)
	require.NotNil(t, sel.Elaboration, "elaboration must survive re-selection")
	assert.Equal(t, 45, sel.Elaboration.DurationSec)
}

func TestBoardElaborationRequiresSelection(t *testing.T) {
	svc, repo, _, _ := newTestBoard()
	sess := seedSession(repo, model.GameDreamBoard, model.StatusActive)

	_, err := svc.AddElaboration(context.Background(), sess.ID, "alice", 1, "audio/ogg", strings.NewReader("voice"), 30)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestBoardDeleteElaborationOnlyWhileActive(t *testing.T) {
	svc, repo, _, _ := newTestBoard()
	sess := seedSession(repo, model.GameDreamBoard, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitSelection(ctx, sess.ID, "alice", 1, "A", model.PriorityDream, model.TimelineSomeday)
	require.NoError(t, err)
	_, err = svc.AddElaboration(ctx, sess.ID, "alice", 1, "audio/ogg", strings.NewReader("voice"), 30)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteElaboration(ctx, sess.ID, "alice", 1))

	got, _ := repo.GetByID(ctx, model.GameDreamBoard, sess.ID)
	assert.Nil(t, got.Board.P1Selections[0].Elaboration)

	// flip to completed, deletion is rejected
	got.Status = model.StatusCompleted
	err = svc.DeleteElaboration(ctx, sess.ID, "alice", 1)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestBoardCompletion(t *testing.T) {
	svc, repo, b, _ := newTestBoard()
	sess := seedSession(repo, model.GameDreamBoard, model.StatusActive)
	ctx := context.Background()

	for n := 1; n <= model.BoardCategories; n++ {
		_, err := svc.SubmitSelection(ctx, sess.ID, "alice", n, "A", model.PriorityDream, model.TimelineWhenRight)
		require.NoError(t, err)
	}
	for n := 1; n <= model.BoardCategories; n++ {
		_, err := svc.SubmitSelection(ctx, sess.ID, "bob", n, "A", model.PriorityDream, model.TimelineWhenRight)
		require.NoError(t, err)
	}

	got, _ := repo.GetByID(ctx, model.GameDreamBoard, sess.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.Results)
	assert.Equal(t, 100, got.Results.OverallAlignment)
	assert.Len(t, b.eventsNamed("db:game_completed"), 2)

	// a finished board rejects further picks
	_, err := svc.SubmitSelection(ctx, sess.ID, "alice", 1, "B", model.PriorityFlow, model.TimelineSomeday)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}
