package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/catalog"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

// Session lifetimes. Non-terminal sessions past ExpiresAt are reaped.
const (
	PendingTTL      = 24 * time.Hour
	SyncSessionTTL  = 2 * time.Hour
	AsyncSessionTTL = 72 * time.Hour
)

// errNoChange signals a Mutate callback that decided the write is not
// needed (idempotent no-ops like a stale timeout).
var errNoChange = errors.New("no change")

// SessionService owns the shared lifecycle of all six game types:
// invitations, accept/decline/abandon, voice notes, and expiry.
type SessionService struct {
	sessions repository.SessionRepo
	matches  *MatchService
	identity Identity
	timers   *TimerService
	log      *logrus.Logger

	broadcaster Broadcaster
	startHooks  map[model.GameType]func(sessionID string)
}

func NewSessionService(
	sessions repository.SessionRepo,
	matches *MatchService,
	identity Identity,
	timers *TimerService,
	log *logrus.Logger,
) *SessionService {
	return &SessionService{
		sessions:   sessions,
		matches:    matches,
		identity:   identity,
		timers:     timers,
		log:        log,
		startHooks: make(map[model.GameType]func(sessionID string)),
	}
}

// SetBroadcaster sets the push channel for lifecycle events.
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetStartHook registers the engine callback invoked once an accepted
// session should begin its live loop. Only synchronous engines register.
func (s *SessionService) SetStartHook(gt model.GameType, hook func(sessionID string)) {
	s.startHooks[gt] = hook
}

func (s *SessionService) emit(userID, event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.EmitToUser(userID, event, payload)
	}
}

func (s *SessionService) emitBoth(sess *model.Session, event string, payload interface{}) {
	s.emit(sess.Player1.UserID, event, payload)
	s.emit(sess.Player2.UserID, event, payload)
}

// CreateInvitation atomically creates a pending session for the couple.
// The partial unique index rejects a second non-terminal session for the
// same couple and game type.
func (s *SessionService) CreateInvitation(ctx context.Context, gt model.GameType, callerID, matchID string) (*model.Session, error) {
	const op = "SessionService.CreateInvitation"

	couple, err := s.matches.ResolveEligible(ctx, matchID, callerID)
	if err != nil {
		return nil, err
	}

	inviter, err := s.identity.Profile(ctx, callerID)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "inviter profile lookup failed", err)
	}
	invitee, err := s.identity.Profile(ctx, couple.Partner(callerID))
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "invitee profile lookup failed", err)
	}

	now := time.Now()
	sess := &model.Session{
		ID:             uuid.NewString(),
		GameType:       gt,
		MatchID:        matchID,
		PairKey:        couple.PairKey,
		Player1:        inviter,
		Player2:        invitee,
		Status:         model.StatusPending,
		InvitedAt:      now,
		ExpiresAt:      now.Add(PendingTTL),
		LastActivityAt: now,
	}
	initEnginePayload(sess, now.UnixNano())

	if err := s.sessions.Insert(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrActiveSessionExists) {
			return nil, apperr.New(apperr.CodeConflict, op, "an active session for this game already exists")
		}
		return nil, apperr.E(apperr.CodeDependency, op, "failed to create session", err)
	}

	s.emit(invitee.UserID, gt.Namespace()+":invited", map[string]interface{}{
		"sessionId": sess.ID,
		"expiresAt": sess.ExpiresAt,
		"invitedBy": inviter,
	})

	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"game_type":  gt,
		"match_id":   matchID,
	}).Info("invitation created")

	return sess, nil
}

func initEnginePayload(sess *model.Session, seed int64) {
	switch sess.GameType {
	case model.GameWouldYouRather:
		sess.QuestionOrder = catalog.ShuffledOrder(catalog.WYRSize, seed)
		sess.Sync = model.NewSyncState(catalog.WYRSize)
	case model.GameIntimacy:
		sess.QuestionOrder = catalog.FixedOrder(catalog.ISSize)
		sess.Sync = model.NewSyncState(catalog.ISSize)
	case model.GameNeverHaveIEver:
		sess.QuestionOrder = catalog.ShuffledOrder(catalog.NHIESize, seed)
		sess.Sync = model.NewSyncState(catalog.NHIESize)
	case model.GameTwoTruthsLie:
		sess.TTL = model.NewTTLState()
	case model.GameWhatWouldYouDo:
		sess.QuestionOrder = catalog.FixedOrder(model.WWYDScenarios)
		sess.WWYD = model.NewWWYDState()
	case model.GameDreamBoard:
		sess.QuestionOrder = catalog.FixedOrder(model.BoardCategories)
		sess.Board = model.NewBoardState()
	}
}

// Accept moves pending → starting (sync) or active (async). Only the
// invitee may accept.
func (s *SessionService) Accept(ctx context.Context, gt model.GameType, sessionID, callerID string) (*model.Session, error) {
	const op = "SessionService.Accept"

	sess, err := s.sessions.Mutate(ctx, gt, sessionID, func(sess *model.Session) error {
		if !sess.Participant(callerID) {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if callerID != sess.Player2.UserID {
			return apperr.New(apperr.CodeNotParticipant, op, "only the invitee can accept")
		}
		if sess.Status != model.StatusPending {
			return apperr.New(apperr.CodeConflict, op, "invitation is not pending")
		}
		now := time.Now()
		if sess.ExpiresAt.Before(now) {
			return apperr.New(apperr.CodeExpired, op, "invitation has expired")
		}

		sess.AcceptedAt = &now
		if gt.Synchronous() {
			sess.Status = model.StatusStarting
			sess.ExpiresAt = now.Add(SyncSessionTTL)
		} else {
			sess.Status = model.StatusActive
			sess.ExpiresAt = now.Add(AsyncSessionTTL)
		}
		sess.Touch(now)
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	if gt.Synchronous() {
		s.emitBoth(sess, gt.Namespace()+":game_starting", map[string]interface{}{
			"sessionId": sess.ID,
			"startsIn":  3000,
			"players":   []model.Player{sess.Player1, sess.Player2},
		})
		if hook := s.startHooks[gt]; hook != nil {
			id := sess.ID
			s.timers.Arm(id, -1, 3*time.Second, func() { hook(id) })
		}
	} else {
		s.emit(sess.Player1.UserID, gt.Namespace()+":accepted", map[string]interface{}{
			"sessionId": sess.ID,
			"expiresAt": sess.ExpiresAt,
		})
	}

	return sess, nil
}

// Decline is the invitee's terminal rejection of a pending invitation.
func (s *SessionService) Decline(ctx context.Context, gt model.GameType, sessionID, callerID string) (*model.Session, error) {
	const op = "SessionService.Decline"

	sess, err := s.sessions.Mutate(ctx, gt, sessionID, func(sess *model.Session) error {
		if !sess.Participant(callerID) {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if callerID != sess.Player2.UserID {
			return apperr.New(apperr.CodeNotParticipant, op, "only the invitee can decline")
		}
		if sess.Status != model.StatusPending {
			return apperr.New(apperr.CodeConflict, op, "invitation is not pending")
		}
		sess.Status = model.StatusDeclined
		sess.Touch(time.Now())
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	s.emit(sess.Player1.UserID, gt.Namespace()+":declined", map[string]interface{}{
		"sessionId": sess.ID,
	})
	return sess, nil
}

// Abandon terminates a session from any non-terminal state and cancels
// pending timers.
func (s *SessionService) Abandon(ctx context.Context, gt model.GameType, sessionID, callerID string) (*model.Session, error) {
	const op = "SessionService.Abandon"

	sess, err := s.sessions.Mutate(ctx, gt, sessionID, func(sess *model.Session) error {
		if !sess.Participant(callerID) {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status.Terminal() {
			return apperr.New(apperr.CodeConflict, op, "session is already finished")
		}
		sess.Status = model.StatusAbandoned
		sess.Touch(time.Now())
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	s.timers.CancelAll(sessionID)
	s.emitBoth(sess, "session:abandoned", map[string]interface{}{
		"sessionId":   sess.ID,
		"abandonedBy": callerID,
	})
	return sess, nil
}

// Get returns a session after enforcing participant status.
func (s *SessionService) Get(ctx context.Context, gt model.GameType, sessionID, callerID string) (*model.Session, error) {
	const op = "SessionService.Get"

	sess, err := s.sessions.GetByID(ctx, gt, sessionID)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "session lookup failed", err)
	}
	if sess == nil {
		return nil, apperr.New(apperr.CodeNotFound, op, "session not found")
	}
	if !sess.Participant(callerID) {
		return nil, apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
	}
	return sess, nil
}

// History returns the caller's recent sessions for one game type.
func (s *SessionService) History(ctx context.Context, gt model.GameType, callerID string, limit int64) ([]*model.Session, error) {
	const op = "SessionService.History"

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	sessions, err := s.sessions.HistoryForUser(ctx, gt, callerID, limit)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "history lookup failed", err)
	}
	return sessions, nil
}

// voiceNoteChecks are the append preconditions, shared by the cheap
// pre-upload check and the authoritative CAS write.
func voiceNoteChecks(sess *model.Session, callerID string) error {
	const op = "SessionService.AppendVoiceNote"

	if !sess.Participant(callerID) {
		return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
	}
	switch sess.Status {
	case model.StatusActive, model.StatusPlaying, model.StatusCompleted, model.StatusDiscussion:
	default:
		return apperr.New(apperr.CodeConflict, op, "session does not accept voice notes")
	}
	if len(sess.VoiceNotes) >= model.MaxVoiceNotesPerSession {
		return apperr.New(apperr.CodeLimit, op, "voice note limit reached for this session")
	}
	mine := 0
	for _, n := range sess.VoiceNotes {
		if n.UserID == callerID {
			mine++
		}
	}
	if mine >= model.MaxVoiceNotesPerUser {
		return apperr.New(apperr.CodeLimit, op, "voice note limit reached for this user")
	}
	return nil
}

// PrecheckVoiceNote runs the append preconditions against current state
// so the caller can reject before uploading the audio blob.
func (s *SessionService) PrecheckVoiceNote(ctx context.Context, gt model.GameType, sessionID, callerID string, durationSec int) error {
	const op = "SessionService.AppendVoiceNote"

	if durationSec <= 0 || durationSec > model.MaxDiscussionNoteSec {
		return apperr.New(apperr.CodeValidation, op, "voice note duration out of range")
	}
	sess, err := s.sessions.GetByID(ctx, gt, sessionID)
	if err != nil {
		return apperr.E(apperr.CodeDependency, op, "session lookup failed", err)
	}
	if sess == nil {
		return apperr.New(apperr.CodeNotFound, op, "session not found")
	}
	return voiceNoteChecks(sess, callerID)
}

// AppendVoiceNote appends to the session's immutable voice log. The first
// note on a completed session flips it to discussion.
func (s *SessionService) AppendVoiceNote(ctx context.Context, gt model.GameType, sessionID, callerID, blobURL string, durationSec int, relatedQuestion *int) (*model.Session, error) {
	const op = "SessionService.AppendVoiceNote"

	if durationSec <= 0 || durationSec > model.MaxDiscussionNoteSec {
		return nil, apperr.New(apperr.CodeValidation, op, "voice note duration out of range")
	}

	sess, err := s.sessions.Mutate(ctx, gt, sessionID, func(sess *model.Session) error {
		if err := voiceNoteChecks(sess, callerID); err != nil {
			return err
		}

		now := time.Now()
		sess.VoiceNotes = append(sess.VoiceNotes, model.VoiceNote{
			UserID:          callerID,
			BlobURL:         blobURL,
			DurationSec:     durationSec,
			CreatedAt:       now,
			ListenedBy:      []string{},
			RelatedQuestion: relatedQuestion,
		})
		if sess.Status == model.StatusCompleted {
			sess.Status = model.StatusDiscussion
		}
		sess.Touch(now)
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	s.emit(sess.Partner(callerID), gt.Namespace()+":voice_note", map[string]interface{}{
		"sessionId": sess.ID,
		"noteIndex": len(sess.VoiceNotes) - 1,
		"from":      callerID,
	})
	return sess, nil
}

// MarkListened records that the caller played a note. Idempotent.
func (s *SessionService) MarkListened(ctx context.Context, gt model.GameType, sessionID, callerID string, noteIndex int) error {
	const op = "SessionService.MarkListened"

	_, err := s.sessions.Mutate(ctx, gt, sessionID, func(sess *model.Session) error {
		if !sess.Participant(callerID) {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if noteIndex < 0 || noteIndex >= len(sess.VoiceNotes) {
			return apperr.New(apperr.CodeValidation, op, "no such voice note")
		}
		note := &sess.VoiceNotes[noteIndex]
		if note.ListenedByUser(callerID) {
			return errNoChange
		}
		note.ListenedBy = append(note.ListenedBy, callerID)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return wrapMutateErr(op, err)
}

// ExpireStale is the reaper body: sweeps every collection and expires
// overdue non-terminal sessions.
func (s *SessionService) ExpireStale(ctx context.Context) {
	now := time.Now()
	for _, gt := range model.AllGameTypes {
		stale, err := s.sessions.FindStale(ctx, gt, now, 200)
		if err != nil {
			s.log.WithError(err).WithField("game_type", gt).Error("reaper sweep failed")
			continue
		}
		for _, candidate := range stale {
			sess, err := s.sessions.Mutate(ctx, gt, candidate.ID, func(sess *model.Session) error {
				if sess.Status.Terminal() || sess.ExpiresAt.After(now) {
					return errNoChange
				}
				sess.Status = model.StatusExpired
				sess.Touch(now)
				return nil
			})
			if errors.Is(err, errNoChange) {
				continue
			}
			if err != nil {
				s.log.WithError(err).WithField("session_id", candidate.ID).Error("failed to expire session")
				continue
			}

			s.timers.CancelAll(sess.ID)
			s.emitBoth(sess, "session:expired", map[string]interface{}{
				"sessionId": sess.ID,
				"gameType":  gt,
			})
			s.log.WithFields(logrus.Fields{
				"session_id": sess.ID,
				"game_type":  gt,
			}).Info("session expired")
		}
	}
}

// NotifyPresence tells the partner in every live session that the user
// connected or disconnected. Best effort, called by the socket layer.
func (s *SessionService) NotifyPresence(ctx context.Context, userID string, connected bool) {
	for _, gt := range model.AllGameTypes {
		recent, err := s.sessions.HistoryForUser(ctx, gt, userID, 10)
		if err != nil {
			s.log.WithError(err).WithField("game_type", gt).Warn("presence lookup failed")
			continue
		}
		for _, sess := range recent {
			if sess.Status.Terminal() {
				continue
			}
			s.emit(sess.Partner(userID), "partner_connected", map[string]interface{}{
				"sessionId":   sess.ID,
				"isConnected": connected,
			})
		}
	}
}

// wrapMutateErr keeps apperr codes intact and maps repo-level failures.
func wrapMutateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperr.E(apperr.CodeConcurrency, op, "write conflict, please retry", err)
	}
	if errors.Is(err, errNoChange) {
		return err
	}
	return apperr.E(apperr.CodeDependency, op, "storage operation failed", err)
}
