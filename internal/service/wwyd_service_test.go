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

func newTestWWYD() (*WWYDService, *memSessionRepo, *memBroadcaster, *memQueue) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	q := &memQueue{}
	svc := NewWWYDService(repo, NewInsightService(config.AIConfig{}, logrus.New()), &memUploader{}, q, logrus.New())
	svc.SetBroadcaster(b)
	return svc, repo, b, q
}

func TestWWYDSubmitResponse(t *testing.T) {
	svc, repo, b, q := newTestWWYD()
	sess := seedSession(repo, model.GameWhatWouldYouDo, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitResponse(ctx, sess.ID, "alice", 0, "audio/ogg", strings.NewReader("voice"), 60)
	require.NoError(t, err)

	got, _ := repo.GetByID(ctx, model.GameWhatWouldYouDo, sess.ID)
	resp := got.WWYD.P1Responses[0]
	require.NotNil(t, resp)
	assert.Equal(t, model.TranscriptPending, resp.TranscriptStatus)
	assert.Contains(t, resp.BlobURL, "wwyd/"+sess.ID)

	require.Len(t, q.jobs, 1)
	assert.Equal(t, "wwyd", q.jobs[0].Kind)
	assert.Equal(t, 1, q.jobs[0].Slot)

	notified := b.eventsNamed("wwyd:partner_responded")
	require.Len(t, notified, 1)
	assert.Equal(t, "bob", notified[0].UserID)
}

func TestWWYDSubmitRejections(t *testing.T) {
	svc, repo, _, _ := newTestWWYD()
	sess := seedSession(repo, model.GameWhatWouldYouDo, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitResponse(ctx, sess.ID, "alice", model.WWYDScenarios, "audio/ogg", strings.NewReader("v"), 60)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.SubmitResponse(ctx, sess.ID, "alice", 0, "video/mp4", strings.NewReader("v"), 60)
	assert.True(t, apperr.IsCode(err, apperr.CodeMediaType))

	_, err = svc.SubmitResponse(ctx, sess.ID, "alice", 0, "audio/ogg", strings.NewReader("v"), MaxScenarioResponseSec+1)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	_, err = svc.SubmitResponse(ctx, sess.ID, "alice", 0, "audio/ogg", strings.NewReader("v"), 60)
	require.NoError(t, err)
	_, err = svc.SubmitResponse(ctx, sess.ID, "alice", 0, "audio/ogg", strings.NewReader("v"), 60)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict), "responses are immutable")
}

func TestWWYDCompletion(t *testing.T) {
	svc, repo, b, _ := newTestWWYD()
	sess := seedSession(repo, model.GameWhatWouldYouDo, model.StatusActive)
	ctx := context.Background()

	for i := 0; i < model.WWYDScenarios; i++ {
		_, err := svc.SubmitResponse(ctx, sess.ID, "alice", i, "audio/ogg", strings.NewReader("v"), 30)
		require.NoError(t, err)
		_, err = svc.SubmitResponse(ctx, sess.ID, "bob", i, "audio/ogg", strings.NewReader("v"), 30)
		require.NoError(t, err)
	}

	got, _ := repo.GetByID(ctx, model.GameWhatWouldYouDo, sess.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.Results)
	assert.Equal(t, 100, got.Results.CompatibilityScore)
	assert.Len(t, b.eventsNamed("wwyd:game_completed"), 2)
}

func TestWWYDRetryTranscription(t *testing.T) {
	svc, repo, _, q := newTestWWYD()
	sess := seedSession(repo, model.GameWhatWouldYouDo, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitResponse(ctx, sess.ID, "alice", 0, "audio/ogg", strings.NewReader("v"), 30)
	require.NoError(t, err)

	// retry requires a failed transcript
	err = svc.RetryTranscription(ctx, sess.ID, "alice", 1, 0)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))

	got, _ := repo.GetByID(ctx, model.GameWhatWouldYouDo, sess.ID)
	got.WWYD.P1Responses[0].TranscriptStatus = model.TranscriptFailed

	require.NoError(t, svc.RetryTranscription(ctx, sess.ID, "alice", 1, 0))
	assert.Equal(t, model.TranscriptPending, got.WWYD.P1Responses[0].TranscriptStatus)
	assert.Len(t, q.jobs, 2)
}

func TestWWYDViewGatesPartnerResponses(t *testing.T) {
	svc, repo, _, _ := newTestWWYD()
	sess := seedSession(repo, model.GameWhatWouldYouDo, model.StatusActive)
	ctx := context.Background()

	_, err := svc.SubmitResponse(ctx, sess.ID, "bob", 0, "audio/ogg", strings.NewReader("v"), 30)
	require.NoError(t, err)

	view, err := svc.View(ctx, sess.ID, "alice")
	require.NoError(t, err)
	scenarios := view["scenarios"].([]map[string]interface{})
	assert.NotContains(t, scenarios[0], "partner", "unanswered scenario hides partner audio")
	assert.Equal(t, true, scenarios[0]["partnerAnswered"])

	_, err = svc.SubmitResponse(ctx, sess.ID, "alice", 0, "audio/ogg", strings.NewReader("v"), 30)
	require.NoError(t, err)

	view, err = svc.View(ctx, sess.ID, "alice")
	require.NoError(t, err)
	scenarios = view["scenarios"].([]map[string]interface{})
	assert.Contains(t, scenarios[0], "partner")
}
