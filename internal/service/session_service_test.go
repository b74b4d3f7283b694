package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/model"
)

func testMatches() *MatchService {
	return NewMatchService(&memMatchRepo{matches: map[string]*model.Match{
		"m1": {MatchID: "m1", UserA: "alice", UserB: "bob", MutualLike: true},
		"m2": {MatchID: "m2", UserA: "alice", UserB: "carol", MutualLike: false},
	}})
}

func newTestSessionService() (*SessionService, *memSessionRepo, *memBroadcaster, *TimerService) {
	repo := newMemSessionRepo()
	b := &memBroadcaster{}
	timers := NewTimerService()
	svc := NewSessionService(repo, testMatches(), memIdentity{}, timers, logrus.New())
	svc.SetBroadcaster(b)
	return svc, repo, b, timers
}

// seedSession drops a two-player session straight into the repo.
func seedSession(repo *memSessionRepo, gt model.GameType, status model.Status) *model.Session {
	now := time.Now()
	sess := &model.Session{
		ID:       uuid.NewString(),
		GameType: gt,
		MatchID:  "m1",
		PairKey:  model.PairKey("alice", "bob"),
		Player1:  model.Player{UserID: "alice", DisplayName: "user-alice"},
		Player2:  model.Player{UserID: "bob", DisplayName: "user-bob"},
		Status:   status,
		InvitedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	initEnginePayload(sess, now.UnixNano())
	_ = repo.Insert(context.Background(), sess)
	return sess
}

func TestCreateInvitation(t *testing.T) {
	svc, _, b, _ := newTestSessionService()

	sess, err := svc.CreateInvitation(context.Background(), model.GameWouldYouRather, "alice", "m1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, sess.Status)
	assert.Equal(t, "alice:bob", sess.PairKey)
	assert.Equal(t, "alice", sess.Player1.UserID)
	assert.Equal(t, "bob", sess.Player2.UserID)
	assert.Len(t, sess.QuestionOrder, 50)
	assert.NotNil(t, sess.Sync)

	invites := b.eventsNamed("wyr:invited")
	require.Len(t, invites, 1)
	assert.Equal(t, "bob", invites[0].UserID)
}

func TestCreateInvitationBlockedByActiveSession(t *testing.T) {
	svc, _, _, _ := newTestSessionService()

	_, err := svc.CreateInvitation(context.Background(), model.GameWouldYouRather, "alice", "m1")
	require.NoError(t, err)

	_, err = svc.CreateInvitation(context.Background(), model.GameWouldYouRather, "bob", "m1")
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestCreateInvitationSameGameDifferentType(t *testing.T) {
	svc, _, _, _ := newTestSessionService()

	_, err := svc.CreateInvitation(context.Background(), model.GameWouldYouRather, "alice", "m1")
	require.NoError(t, err)

	// a different game type is an independent lane
	_, err = svc.CreateInvitation(context.Background(), model.GameDreamBoard, "alice", "m1")
	assert.NoError(t, err)
}

func TestCreateInvitationRequiresMutualMatch(t *testing.T) {
	svc, _, _, _ := newTestSessionService()

	_, err := svc.CreateInvitation(context.Background(), model.GameWouldYouRather, "alice", "m2")
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestCreateInvitationRejectsOutsider(t *testing.T) {
	svc, _, _, _ := newTestSessionService()

	_, err := svc.CreateInvitation(context.Background(), model.GameWouldYouRather, "mallory", "m1")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotParticipant))
}

func TestAcceptSyncGame(t *testing.T) {
	svc, repo, b, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusPending)

	out, err := svc.Accept(context.Background(), model.GameWouldYouRather, sess.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, model.StatusStarting, out.Status)
	assert.NotNil(t, out.AcceptedAt)
	assert.Len(t, b.eventsNamed("wyr:game_starting"), 2)
}

func TestAcceptAsyncGame(t *testing.T) {
	svc, repo, b, _ := newTestSessionService()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusPending)

	out, err := svc.Accept(context.Background(), model.GameTwoTruthsLie, sess.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, model.StatusActive, out.Status)
	accepted := b.eventsNamed("ttl:accepted")
	require.Len(t, accepted, 1)
	assert.Equal(t, "alice", accepted[0].UserID)
}

func TestAcceptOnlyInvitee(t *testing.T) {
	svc, repo, _, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusPending)

	_, err := svc.Accept(context.Background(), model.GameWouldYouRather, sess.ID, "alice")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotParticipant))
}

func TestAcceptExpiredInvitation(t *testing.T) {
	svc, repo, _, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusPending)
	sess.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := svc.Accept(context.Background(), model.GameWouldYouRather, sess.ID, "bob")
	assert.True(t, apperr.IsCode(err, apperr.CodeExpired))
}

func TestDeclineOnlyWhilePending(t *testing.T) {
	svc, repo, b, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusPending)

	out, err := svc.Decline(context.Background(), model.GameWouldYouRather, sess.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, out.Status)
	assert.Len(t, b.eventsNamed("wyr:declined"), 1)

	// declining again is rejected without a state change
	_, err = svc.Decline(context.Background(), model.GameWouldYouRather, sess.ID, "bob")
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	assert.Equal(t, model.StatusDeclined, out.Status)
}

func TestAbandon(t *testing.T) {
	svc, repo, b, _ := newTestSessionService()
	sess := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)

	out, err := svc.Abandon(context.Background(), model.GameTwoTruthsLie, sess.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAbandoned, out.Status)
	assert.Len(t, b.eventsNamed("session:abandoned"), 2)

	_, err = svc.Abandon(context.Background(), model.GameTwoTruthsLie, sess.ID, "bob")
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

func TestVoiceNoteFlipsCompletedToDiscussion(t *testing.T) {
	svc, repo, b, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusCompleted)

	out, err := svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "alice", "https://blobs.test/n1", 30, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusDiscussion, out.Status)
	require.Len(t, out.VoiceNotes, 1)
	assert.Equal(t, "alice", out.VoiceNotes[0].UserID)

	notes := b.eventsNamed("wyr:voice_note")
	require.Len(t, notes, 1)
	assert.Equal(t, "bob", notes[0].UserID)

	// a second note keeps discussion status
	out, err = svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "bob", "https://blobs.test/n2", 30, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDiscussion, out.Status)
}

func TestVoiceNoteCaps(t *testing.T) {
	svc, repo, _, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusDiscussion)

	for i := 0; i < model.MaxVoiceNotesPerUser; i++ {
		_, err := svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "alice", "u", 10, nil)
		require.NoError(t, err)
	}
	_, err := svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "alice", "u", 10, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeLimit))

	for i := 0; i < model.MaxVoiceNotesPerUser; i++ {
		_, err := svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "bob", "u", 10, nil)
		require.NoError(t, err)
	}
	// session-wide cap reached
	_, err = svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "bob", "u", 10, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeLimit))
}

func TestPrecheckVoiceNoteRejectsBeforeUpload(t *testing.T) {
	svc, repo, _, _ := newTestSessionService()
	ctx := context.Background()

	declined := seedSession(repo, model.GameWouldYouRather, model.StatusDeclined)
	err := svc.PrecheckVoiceNote(ctx, model.GameWouldYouRather, declined.ID, "alice", 10)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))

	full := seedSession(repo, model.GameIntimacy, model.StatusDiscussion)
	for i := 0; i < model.MaxVoiceNotesPerUser; i++ {
		_, err := svc.AppendVoiceNote(ctx, model.GameIntimacy, full.ID, "alice", "u", 10, nil)
		require.NoError(t, err)
	}
	err = svc.PrecheckVoiceNote(ctx, model.GameIntimacy, full.ID, "alice", 10)
	assert.True(t, apperr.IsCode(err, apperr.CodeLimit))

	assert.NoError(t, svc.PrecheckVoiceNote(ctx, model.GameIntimacy, full.ID, "bob", 10))

	err = svc.PrecheckVoiceNote(ctx, model.GameIntimacy, full.ID, "bob", 0)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestVoiceNoteDurationValidation(t *testing.T) {
	svc, repo, _, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusDiscussion)

	_, err := svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "alice", "u", model.MaxDiscussionNoteSec+1, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestMarkListenedIdempotent(t *testing.T) {
	svc, repo, _, _ := newTestSessionService()
	sess := seedSession(repo, model.GameWouldYouRather, model.StatusDiscussion)

	_, err := svc.AppendVoiceNote(context.Background(), model.GameWouldYouRather, sess.ID, "alice", "u", 10, nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkListened(context.Background(), model.GameWouldYouRather, sess.ID, "bob", 0))
	require.NoError(t, svc.MarkListened(context.Background(), model.GameWouldYouRather, sess.ID, "bob", 0))

	stored, err := repo.GetByID(context.Background(), model.GameWouldYouRather, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, stored.VoiceNotes[0].ListenedBy)
}

func TestExpireStale(t *testing.T) {
	svc, repo, b, _ := newTestSessionService()
	stale := seedSession(repo, model.GameWouldYouRather, model.StatusPending)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	fresh := seedSession(repo, model.GameTwoTruthsLie, model.StatusActive)

	svc.ExpireStale(context.Background())

	got, _ := repo.GetByID(context.Background(), model.GameWouldYouRather, stale.ID)
	assert.Equal(t, model.StatusExpired, got.Status)
	assert.Len(t, b.eventsNamed("session:expired"), 2)

	untouched, _ := repo.GetByID(context.Background(), model.GameTwoTruthsLie, fresh.ID)
	assert.Equal(t, model.StatusActive, untouched.Status)
}

func TestNotifyPresence(t *testing.T) {
	svc, repo, b, _ := newTestSessionService()
	live := seedSession(repo, model.GameWouldYouRather, model.StatusPlaying)
	done := seedSession(repo, model.GameTwoTruthsLie, model.StatusCompleted)
	_ = done

	svc.NotifyPresence(context.Background(), "alice", true)

	events := b.eventsNamed("partner_connected")
	require.Len(t, events, 1, "terminal sessions get no presence pushes")
	assert.Equal(t, "bob", events[0].UserID)
	payload := events[0].Payload.(map[string]interface{})
	assert.Equal(t, live.ID, payload["sessionId"])
	assert.Equal(t, true, payload["isConnected"])
}
