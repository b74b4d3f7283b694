package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/catalog"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
	"github.com/entwine-app/entwine/internal/storage"
)

// BoardService runs Dream-Board: each player picks one card per life
// category with a priority and timeline, optionally elaborating by voice.
// Picks can be revised while the session is active; the game completes on
// the write that gives both players a full board.
type BoardService struct {
	asyncCore
	uploader storage.Uploader
	queue    cache.TranscribeQueue
}

func NewBoardService(
	sessions repository.SessionRepo,
	insights *InsightService,
	uploader storage.Uploader,
	queue cache.TranscribeQueue,
	log *logrus.Logger,
) *BoardService {
	return &BoardService{
		asyncCore: asyncCore{
			gameType: model.GameDreamBoard,
			sessions: sessions,
			insights: insights,
			log:      log,
		},
		uploader: uploader,
		queue:    queue,
	}
}

func validBoardCard(categoryNumber int, cardID string) bool {
	for _, c := range catalog.Board(categoryNumber).Cards {
		if c.CardID == cardID {
			return true
		}
	}
	return false
}

// SubmitSelection records or revises the caller's pick for one category.
// Re-selecting a category keeps its existing elaboration.
func (s *BoardService) SubmitSelection(ctx context.Context, sessionID, callerID string, categoryNumber int, cardID string, priority model.Priority, timeline model.Timeline) (*model.Session, error) {
	const op = "BoardService.SubmitSelection"

	if categoryNumber < 1 || categoryNumber > model.BoardCategories {
		return nil, apperr.New(apperr.CodeValidation, op, "category number out of range")
	}
	if !validBoardCard(categoryNumber, cardID) {
		return nil, apperr.New(apperr.CodeValidation, op, "unknown card for this category")
	}
	if !priority.Valid() {
		return nil, apperr.New(apperr.CodeValidation, op, "invalid priority")
	}
	if !timeline.Valid() {
		return nil, apperr.New(apperr.CodeValidation, op, "invalid timeline")
	}

	var done bool
	var partnerID string
	sess, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		slot := sess.SlotOf(callerID)
		if slot == 0 {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status != model.StatusActive {
			return apperr.New(apperr.CodeConflict, op, "session is not accepting selections")
		}

		selections := sess.Board.SelectionsOf(slot)
		var keep *model.Elaboration
		if prev := selections[categoryNumber-1]; prev != nil {
			keep = prev.Elaboration
		}
		selections[categoryNumber-1] = &model.Selection{
			CategoryNumber: categoryNumber,
			CategoryID:     catalog.Board(categoryNumber).ID,
			CardID:         cardID,
			Priority:       priority,
			Timeline:       timeline,
			SelectedAt:     time.Now(),
			Elaboration:    keep,
		}

		if sess.Board.BothComplete() {
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

	s.emit(partnerID, s.ns("partner_selected"), map[string]interface{}{
		"sessionId":      sess.ID,
		"categoryNumber": categoryNumber,
	})
	if done {
		s.finalize(sess.ID, true)
	}
	return sess, nil
}

// AddElaboration attaches a voice clip to an existing selection and queues
// its transcription. Replacing an elaboration overwrites the old one.
func (s *BoardService) AddElaboration(ctx context.Context, sessionID, callerID string, categoryNumber int, contentType string, audio io.Reader, durationSec int) (*model.Session, error) {
	const op = "BoardService.AddElaboration"

	if categoryNumber < 1 || categoryNumber > model.BoardCategories {
		return nil, apperr.New(apperr.CodeValidation, op, "category number out of range")
	}
	if durationSec <= 0 || durationSec > model.MaxElaborationSec {
		return nil, apperr.New(apperr.CodeValidation, op, "recording duration out of range")
	}
	if !validAudioType(contentType) {
		return nil, apperr.New(apperr.CodeMediaType, op, "content type must be audio")
	}

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
		return nil, apperr.New(apperr.CodeConflict, op, "elaborations can only be added while the board is active")
	}
	if pre.Board.SelectionsOf(slot)[categoryNumber-1] == nil {
		return nil, apperr.New(apperr.CodeConflict, op, "select a card before elaborating")
	}

	objectName := fmt.Sprintf("board/%s/%s-%d", sessionID, callerID, categoryNumber)
	url, err := s.uploader.Upload(ctx, objectName, contentType, io.LimitReader(audio, storage.MaxUploadBytes))
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "audio upload failed", err)
	}

	sess, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		slot := sess.SlotOf(callerID)
		if slot == 0 {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status != model.StatusActive {
			return apperr.New(apperr.CodeConflict, op, "elaborations can only be added while the board is active")
		}
		sel := sess.Board.SelectionsOf(slot)[categoryNumber-1]
		if sel == nil {
			return apperr.New(apperr.CodeConflict, op, "select a card before elaborating")
		}
		sel.Elaboration = &model.Elaboration{
			VoiceURL:    url,
			DurationSec: durationSec,
			Status:      model.TranscriptPending,
			AddedAt:     time.Now(),
		}
		sess.Touch(time.Now())
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	if err := s.queue.Enqueue(ctx, cache.TranscribeJob{
		GameType:  s.gameType,
		SessionID: sessionID,
		Slot:      slot,
		Index:     categoryNumber,
		Kind:      "elaboration",
		AudioURL:  url,
	}); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to enqueue transcription")
	}

	s.emit(sess.Partner(callerID), s.ns("partner_elaborated"), map[string]interface{}{
		"sessionId":      sess.ID,
		"categoryNumber": categoryNumber,
	})
	return sess, nil
}

// DeleteElaboration removes a voice clip while the board is still active.
// Finished boards are immutable.
func (s *BoardService) DeleteElaboration(ctx context.Context, sessionID, callerID string, categoryNumber int) error {
	const op = "BoardService.DeleteElaboration"

	if categoryNumber < 1 || categoryNumber > model.BoardCategories {
		return apperr.New(apperr.CodeValidation, op, "category number out of range")
	}

	_, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		slot := sess.SlotOf(callerID)
		if slot == 0 {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status != model.StatusActive {
			return apperr.New(apperr.CodeConflict, op, "elaborations can only be removed while the board is active")
		}
		sel := sess.Board.SelectionsOf(slot)[categoryNumber-1]
		if sel == nil || sel.Elaboration == nil {
			return apperr.New(apperr.CodeNotFound, op, "no elaboration on this category")
		}
		sel.Elaboration = nil
		sess.Touch(time.Now())
		return nil
	})
	return wrapMutateErr(op, err)
}

// RetryTranscription re-queues a failed elaboration transcript.
func (s *BoardService) RetryTranscription(ctx context.Context, sessionID, callerID string, slot, categoryNumber int) error {
	const op = "BoardService.RetryTranscription"

	if slot != 1 && slot != 2 {
		return apperr.New(apperr.CodeValidation, op, "slot must be 1 or 2")
	}
	if categoryNumber < 1 || categoryNumber > model.BoardCategories {
		return apperr.New(apperr.CodeValidation, op, "category number out of range")
	}

	var url string
	_, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		if !sess.Participant(callerID) {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		sel := sess.Board.SelectionsOf(slot)[categoryNumber-1]
		if sel == nil || sel.Elaboration == nil {
			return apperr.New(apperr.CodeNotFound, op, "no elaboration on this category")
		}
		if sel.Elaboration.Status != model.TranscriptFailed {
			return apperr.New(apperr.CodeConflict, op, "transcript is not in a failed state")
		}
		sel.Elaboration.Status = model.TranscriptPending
		url = sel.Elaboration.VoiceURL
		return nil
	})
	if err != nil {
		return wrapMutateErr(op, err)
	}

	return s.queue.Enqueue(ctx, cache.TranscribeJob{
		GameType:  s.gameType,
		SessionID: sessionID,
		Slot:      slot,
		Index:     categoryNumber,
		Kind:      "elaboration",
		AudioURL:  url,
	})
}

// View renders the board for the caller. Partner picks are visible per
// category once the caller has picked there, or once the game finishes.
func (s *BoardService) View(ctx context.Context, sessionID, callerID string) (map[string]interface{}, error) {
	const op = "BoardService.View"

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
	mine := sess.Board.SelectionsOf(slot)
	theirs := sess.Board.SelectionsOf(3 - slot)

	categories := make([]map[string]interface{}, model.BoardCategories)
	for i := 0; i < model.BoardCategories; i++ {
		cat := catalog.Board(i + 1)
		entry := map[string]interface{}{
			"number": cat.Number,
			"id":     cat.ID,
			"title":  cat.Title,
			"cards":  cat.Cards,
			"mine":   mine[i],
		}
		if finished || mine[i] != nil {
			entry["partner"] = theirs[i]
		} else if theirs[i] != nil {
			entry["partnerSelected"] = true
		}
		categories[i] = entry
	}

	out := map[string]interface{}{
		"sessionId":  sess.ID,
		"status":     sess.Status,
		"categories": categories,
	}
	if sess.Results != nil {
		out["results"] = sess.Results
	}
	return out, nil
}
