package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/catalog"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
	"github.com/entwine-app/entwine/internal/storage"
)

// MaxScenarioResponseSec caps a single recorded scenario answer.
const MaxScenarioResponseSec = 120

// WWYDService runs What-Would-You-Do: fifteen scenarios answered by voice
// at each player's own pace. A partner's recording unlocks per scenario
// once the caller has answered the same scenario.
type WWYDService struct {
	asyncCore
	uploader storage.Uploader
	queue    cache.TranscribeQueue
}

func NewWWYDService(
	sessions repository.SessionRepo,
	insights *InsightService,
	uploader storage.Uploader,
	queue cache.TranscribeQueue,
	log *logrus.Logger,
) *WWYDService {
	return &WWYDService{
		asyncCore: asyncCore{
			gameType: model.GameWhatWouldYouDo,
			sessions: sessions,
			insights: insights,
			log:      log,
		},
		uploader: uploader,
		queue:    queue,
	}
}

func validAudioType(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/")
}

// SubmitResponse uploads the recording, records it against the scenario,
// and queues transcription. Responses are immutable once stored.
func (s *WWYDService) SubmitResponse(ctx context.Context, sessionID, callerID string, index int, contentType string, audio io.Reader, durationSec int) (*model.Session, error) {
	const op = "WWYDService.SubmitResponse"

	if index < 0 || index >= model.WWYDScenarios {
		return nil, apperr.New(apperr.CodeValidation, op, "scenario index out of range")
	}
	if durationSec <= 0 || durationSec > MaxScenarioResponseSec {
		return nil, apperr.New(apperr.CodeValidation, op, "recording duration out of range")
	}
	if !validAudioType(contentType) {
		return nil, apperr.New(apperr.CodeMediaType, op, "content type must be audio")
	}

	// Cheap precheck before paying for the upload.
	pre, err := s.sessions.GetByID(ctx, s.gameType, sessionID)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "session lookup failed", err)
	}
	if pre == nil {
		return nil, apperr.New(apperr.CodeNotFound, op, "session not found")
	}
	slot := pre.SlotOf(callerID)
	if slot == 0 {
		return nil, apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
	}
	if pre.Status != model.StatusActive {
		return nil, apperr.New(apperr.CodeConflict, op, "session is not accepting responses")
	}
	if pre.WWYD.ResponsesOf(slot)[index] != nil {
		return nil, apperr.New(apperr.CodeConflict, op, "scenario already answered")
	}

	objectName := fmt.Sprintf("wwyd/%s/%s-%d", sessionID, callerID, index)
	url, err := s.uploader.Upload(ctx, objectName, contentType, io.LimitReader(audio, storage.MaxUploadBytes))
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "audio upload failed", err)
	}

	var done bool
	var partnerID string
	sess, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		slot := sess.SlotOf(callerID)
		if slot == 0 {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status != model.StatusActive {
			return apperr.New(apperr.CodeConflict, op, "session is not accepting responses")
		}
		responses := sess.WWYD.ResponsesOf(slot)
		if responses[index] != nil {
			return apperr.New(apperr.CodeConflict, op, "scenario already answered")
		}
		responses[index] = &model.VoiceResponse{
			BlobURL:          url,
			DurationSec:      durationSec,
			SubmittedAt:      time.Now(),
			TranscriptStatus: model.TranscriptPending,
		}
		if sess.WWYD.BothComplete() {
			sess.Status = model.StatusAnalyzing
			done = true
		}
		partnerID = sess.Partner(callerID)
		sess.Touch(time.Now())
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	if err := s.queue.Enqueue(ctx, cache.TranscribeJob{
		GameType:  s.gameType,
		SessionID: sessionID,
		Slot:      sess.SlotOf(callerID),
		Index:     index,
		Kind:      "wwyd",
		AudioURL:  url,
	}); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to enqueue transcription")
	}

	s.emit(partnerID, s.ns("partner_responded"), map[string]interface{}{
		"sessionId": sess.ID,
		"index":     index,
	})
	if done {
		// Insights wait for the transcribe worker to settle transcripts.
		s.finalize(sess.ID, false)
	}
	return sess, nil
}

// RetryTranscription re-queues a failed transcript. Works on active and
// finished sessions alike.
func (s *WWYDService) RetryTranscription(ctx context.Context, sessionID, callerID string, slot, index int) error {
	const op = "WWYDService.RetryTranscription"

	if slot != 1 && slot != 2 {
		return apperr.New(apperr.CodeValidation, op, "slot must be 1 or 2")
	}
	if index < 0 || index >= model.WWYDScenarios {
		return apperr.New(apperr.CodeValidation, op, "scenario index out of range")
	}

	var url string
	_, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		if !sess.Participant(callerID) {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		resp := sess.WWYD.ResponsesOf(slot)[index]
		if resp == nil {
			return apperr.New(apperr.CodeNotFound, op, "no response recorded for this scenario")
		}
		if resp.TranscriptStatus != model.TranscriptFailed {
			return apperr.New(apperr.CodeConflict, op, "transcript is not in a failed state")
		}
		resp.TranscriptStatus = model.TranscriptPending
		url = resp.BlobURL
		return nil
	})
	if err != nil {
		return wrapMutateErr(op, err)
	}

	return s.queue.Enqueue(ctx, cache.TranscribeJob{
		GameType:  s.gameType,
		SessionID: sessionID,
		Slot:      slot,
		Index:     index,
		Kind:      "wwyd",
		AudioURL:  url,
	})
}

// GenerateInsightsIfReady starts insight generation once the session is
// finished and every transcript reached a terminal state. The transcribe
// worker calls it after each write.
func (s *WWYDService) GenerateInsightsIfReady(ctx context.Context, sessionID string) {
	sess, err := s.sessions.GetByID(ctx, s.gameType, sessionID)
	if err != nil || sess == nil {
		return
	}
	if !sess.Status.Finished() || sess.Results == nil {
		return
	}
	if sess.Results.Insights != nil || sess.InsightError != "" {
		return
	}
	for _, responses := range [][]*model.VoiceResponse{sess.WWYD.P1Responses, sess.WWYD.P2Responses} {
		for _, r := range responses {
			if r != nil && r.TranscriptStatus == model.TranscriptPending {
				return
			}
		}
	}
	go s.generateInsights(sess)
}

// View renders the caller's state. A partner recording is visible for a
// scenario only after the caller answered it, or once the game finishes.
func (s *WWYDService) View(ctx context.Context, sessionID, callerID string) (map[string]interface{}, error) {
	const op = "WWYDService.View"

	sess, err := s.sessions.GetByID(ctx, s.gameType, sessionID)
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

	finished := sess.Status.Finished()
	mine := sess.WWYD.ResponsesOf(slot)
	theirs := sess.WWYD.ResponsesOf(3 - slot)

	scenarios := make([]map[string]interface{}, model.WWYDScenarios)
	for i := 0; i < model.WWYDScenarios; i++ {
		sc := catalog.WWYD(sess.QuestionOrder[i])
		entry := map[string]interface{}{
			"index":    i,
			"number":   sc.Number,
			"category": sc.Category,
			"scenario": sc.Scenario,
			"mine":     mine[i],
		}
		if finished || mine[i] != nil {
			entry["partner"] = theirs[i]
		} else if theirs[i] != nil {
			entry["partnerAnswered"] = true
		}
		scenarios[i] = entry
	}

	out := map[string]interface{}{
		"sessionId": sess.ID,
		"status":    sess.Status,
		"scenarios": scenarios,
	}
	if sess.Results != nil {
		out["results"] = sess.Results
	}
	return out, nil
}
