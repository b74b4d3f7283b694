package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

// Shared question loop timing for all three synchronous engines.
const (
	QuestionDuration = 15 * time.Second
	RevealDuration   = 3 * time.Second
	opTimeout        = 10 * time.Second
)

// AnswerInput is the client-submitted answer before schema validation.
// Exactly one of the typed fields should be set for the engine in play.
type AnswerInput struct {
	Choice   *string `json:"choice,omitempty"`
	Position *int    `json:"position,omitempty"`
	Have     *bool   `json:"have,omitempty"`
	Story    string  `json:"story,omitempty"`
}

// SyncSpec parameterizes the shared question loop with the per-engine
// pieces: catalog size, answer schema, question payloads, and scoring.
type SyncSpec struct {
	GameType model.GameType
	Size     int

	// Validate checks the input against the engine's answer schema and
	// returns the record to store, without timing fields.
	Validate func(in AnswerInput) (*model.AnswerRecord, error)
	// QuestionPayload builds the client-facing question event body for the
	// session's current index.
	QuestionPayload func(sess *model.Session) map[string]interface{}
	// RevealPayload builds the both-answers reveal for index idx.
	RevealPayload func(sess *model.Session, idx int) map[string]interface{}

	Score func(sess *model.Session) *model.GameResults
}

// SyncEngine runs the 15-second question / 3-second reveal loop shared by
// Would-You-Rather, Intimacy-Spectrum and Never-Have-I-Ever. All state
// transitions go through version-checked session writes, so a late timer
// or a double submit resolves to a no-op instead of a corrupt session.
type SyncEngine struct {
	spec     SyncSpec
	sessions repository.SessionRepo
	timers   *TimerService
	insights *InsightService
	log      *logrus.Logger

	broadcaster Broadcaster
}

func NewSyncEngine(
	spec SyncSpec,
	sessions repository.SessionRepo,
	timers *TimerService,
	insights *InsightService,
	log *logrus.Logger,
) *SyncEngine {
	return &SyncEngine{
		spec:     spec,
		sessions: sessions,
		timers:   timers,
		insights: insights,
		log:      log,
	}
}

func (e *SyncEngine) SetBroadcaster(b Broadcaster) { e.broadcaster = b }

func (e *SyncEngine) GameType() model.GameType { return e.spec.GameType }

func (e *SyncEngine) emit(userID, event string, payload interface{}) {
	if e.broadcaster != nil {
		e.broadcaster.EmitToUser(userID, event, payload)
	}
}

func (e *SyncEngine) emitBoth(sess *model.Session, event string, payload interface{}) {
	e.emit(sess.Player1.UserID, event, payload)
	e.emit(sess.Player2.UserID, event, payload)
}

func (e *SyncEngine) ns(event string) string {
	return e.spec.GameType.Namespace() + ":" + event
}

// Start flips starting → playing and pushes the first question. Invoked by
// the session service's start hook three seconds after accept.
func (e *SyncEngine) Start(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sess, err := e.sessions.Mutate(ctx, e.spec.GameType, sessionID, func(sess *model.Session) error {
		if sess.Status != model.StatusStarting {
			return errNoChange
		}
		now := time.Now()
		sess.Status = model.StatusPlaying
		sess.StartedAt = &now
		sess.Sync.CurrentIndex = 0
		sess.Sync.QuestionStartedAt = now
		sess.Sync.QuestionExpiresAt = now.Add(QuestionDuration)
		sess.Touch(now)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return
	}
	if err != nil {
		e.log.WithError(err).WithField("session_id", sessionID).Error("failed to start session")
		return
	}

	e.pushQuestion(sess)
}

// pushQuestion emits the current question and arms its timeout.
func (e *SyncEngine) pushQuestion(sess *model.Session) {
	idx := sess.Sync.CurrentIndex
	e.emitBoth(sess, e.ns("question"), e.spec.QuestionPayload(sess))

	id := sess.ID
	remaining := time.Until(sess.Sync.QuestionExpiresAt)
	if remaining < 0 {
		remaining = 0
	}
	e.timers.Arm(id, idx, remaining, func() { e.Timeout(id, idx) })
}

// RecordAnswer stores one player's answer for the current question. The
// second answer cancels the timeout, reveals both answers, and schedules
// the advance.
func (e *SyncEngine) RecordAnswer(ctx context.Context, sessionID, callerID string, index int, in AnswerInput) (*model.Session, error) {
	op := "SyncEngine.RecordAnswer"

	var bothIn bool
	sess, err := e.sessions.Mutate(ctx, e.spec.GameType, sessionID, func(sess *model.Session) error {
		slot := sess.SlotOf(callerID)
		if slot == 0 {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status != model.StatusPlaying {
			return apperr.New(apperr.CodeConflict, op, "session is not in the question loop")
		}
		if index != sess.Sync.CurrentIndex {
			return apperr.New(apperr.CodeConflict, op, "answer is for a different question")
		}
		answers := sess.Sync.AnswersOf(slot)
		if answers[index] != nil {
			return apperr.New(apperr.CodeConflict, op, "question already answered")
		}

		rec, err := e.spec.Validate(in)
		if err != nil {
			return err
		}
		now := time.Now()
		rec.AnsweredAt = now
		rec.ResponseTimeMs = now.Sub(sess.Sync.QuestionStartedAt).Milliseconds()
		answers[index] = rec

		bothIn = sess.Sync.BothRecorded(index)
		sess.Touch(now)
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	if bothIn {
		e.timers.Cancel(sessionID, index)
		e.reveal(sess, index)
	} else {
		e.emit(sess.Partner(callerID), e.ns("partner_answered"), map[string]interface{}{
			"sessionId":     sess.ID,
			"questionIndex": index,
		})
	}
	return sess, nil
}

// Timeout fires when the 15-second window closes. It records explicit
// timeout entries for whoever has not answered, then reveals. A timer that
// lost the race to the second answer sees a moved-on index and no-ops.
func (e *SyncEngine) Timeout(sessionID string, index int) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sess, err := e.sessions.Mutate(ctx, e.spec.GameType, sessionID, func(sess *model.Session) error {
		if sess.Status != model.StatusPlaying || sess.Sync.CurrentIndex != index {
			return errNoChange
		}
		if sess.Sync.BothRecorded(index) {
			return errNoChange
		}
		now := time.Now()
		for _, answers := range [][]*model.AnswerRecord{sess.Sync.P1Answers, sess.Sync.P2Answers} {
			if answers[index] == nil {
				answers[index] = &model.AnswerRecord{TimedOut: true, AnsweredAt: now}
			}
		}
		sess.Touch(now)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return
	}
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"index":      index,
		}).Error("question timeout write failed")
		return
	}

	e.reveal(sess, index)
}

// reveal pushes both answers and arms the 3-second advance. The deadline
// path reuses this event with timedOut set instead of a separate timeout
// event, so clients handle one reveal shape.
func (e *SyncEngine) reveal(sess *model.Session, index int) {
	payload := e.spec.RevealPayload(sess, index)
	p1, p2 := sess.Sync.P1Answers[index], sess.Sync.P2Answers[index]
	if (p1 != nil && p1.TimedOut) || (p2 != nil && p2.TimedOut) {
		payload["timedOut"] = true
	}
	e.emitBoth(sess, e.ns("reveal"), payload)

	id := sess.ID
	e.timers.Arm(id, index, RevealDuration, func() { e.advance(id, index) })
}

// advance moves to the next question, or into scoring after the last one.
// At most one advance happens per question index.
func (e *SyncEngine) advance(sessionID string, fromIndex int) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var finished bool
	sess, err := e.sessions.Mutate(ctx, e.spec.GameType, sessionID, func(sess *model.Session) error {
		if sess.Status != model.StatusPlaying || sess.Sync.CurrentIndex != fromIndex {
			return errNoChange
		}
		now := time.Now()
		if fromIndex == e.spec.Size-1 {
			sess.Status = model.StatusAnalyzing
			finished = true
		} else {
			finished = false
			sess.Sync.CurrentIndex = fromIndex + 1
			sess.Sync.QuestionStartedAt = now
			sess.Sync.QuestionExpiresAt = now.Add(QuestionDuration)
		}
		sess.Touch(now)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return
	}
	if err != nil {
		e.log.WithError(err).WithField("session_id", sessionID).Error("advance write failed")
		return
	}

	if finished {
		e.finish(sess.ID)
		return
	}
	e.pushQuestion(sess)
}

// finish scores the session, completes it, and kicks off async insight
// generation. Insight failure is recorded, never fatal.
func (e *SyncEngine) finish(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sess, err := e.sessions.Mutate(ctx, e.spec.GameType, sessionID, func(sess *model.Session) error {
		if sess.Status != model.StatusAnalyzing {
			return errNoChange
		}
		now := time.Now()
		sess.Results = e.spec.Score(sess)
		sess.Status = model.StatusCompleted
		sess.CompletedAt = &now
		sess.Touch(now)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return
	}
	if err != nil {
		e.log.WithError(err).WithField("session_id", sessionID).Error("failed to finalize session")
		return
	}

	e.emitBoth(sess, e.ns("game_completed"), map[string]interface{}{
		"sessionId": sess.ID,
		"results":   sess.Results,
	})
	e.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"game_type":  e.spec.GameType,
		"score":      sess.Results.CompatibilityScore,
	}).Info("session completed")

	go e.generateInsights(sess)
}

func (e *SyncEngine) generateInsights(sess *model.Session) {
	if !e.insights.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	insights, genErr := e.insights.GenerateGameInsights(ctx, sess)

	updated, err := e.sessions.Mutate(ctx, e.spec.GameType, sess.ID, func(s *model.Session) error {
		if s.Results == nil {
			return errNoChange
		}
		if genErr != nil {
			s.InsightError = genErr.Error()
		} else {
			s.Results.Insights = insights
			s.InsightError = ""
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errNoChange) {
			e.log.WithError(err).WithField("session_id", sess.ID).Error("failed to store insights")
		}
		return
	}
	if genErr != nil {
		e.log.WithError(genErr).WithField("session_id", sess.ID).Warn("insight generation failed")
		return
	}

	e.emitBoth(updated, e.ns("insights_ready"), map[string]interface{}{
		"sessionId": updated.ID,
		"insights":  insights,
	})
}

// Resume returns the live state for a reconnecting participant, including
// the current question when the loop is running.
func (e *SyncEngine) Resume(ctx context.Context, sessionID, callerID string) (map[string]interface{}, error) {
	const op = "SyncEngine.Resume"

	sess, err := e.sessions.GetByID(ctx, e.spec.GameType, sessionID)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "session lookup failed", err)
	}
	if sess == nil {
		return nil, apperr.New(apperr.CodeNotFound, op, "session not found")
	}
	slot := sess.SlotOf(callerID)
	if slot == 0 {
		return nil, apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
	}

	out := map[string]interface{}{
		"sessionId": sess.ID,
		"status":    sess.Status,
	}
	if sess.Status == model.StatusPlaying {
		out["question"] = e.spec.QuestionPayload(sess)
		out["answered"] = sess.Sync.AnswersOf(slot)[sess.Sync.CurrentIndex] != nil
	}
	if sess.Results != nil {
		out["results"] = sess.Results
	}
	return out, nil
}

// RecoverTimers re-arms question timers after a restart. Questions whose
// window already closed are timed out immediately.
func (e *SyncEngine) RecoverTimers(ctx context.Context) error {
	playing, err := e.sessions.FindPlaying(ctx, e.spec.GameType)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, sess := range playing {
		id, idx := sess.ID, sess.Sync.CurrentIndex
		if sess.Sync.QuestionExpiresAt.Before(now) {
			go e.Timeout(id, idx)
			continue
		}
		e.timers.Arm(id, idx, sess.Sync.QuestionExpiresAt.Sub(now), func() { e.Timeout(id, idx) })
	}
	if len(playing) > 0 {
		e.log.WithFields(logrus.Fields{
			"game_type": e.spec.GameType,
			"sessions":  len(playing),
		}).Info("recovered in-flight question timers")
	}
	return nil
}
