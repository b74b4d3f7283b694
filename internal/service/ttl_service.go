package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

const maxTTLStatementLen = 200

// TTLService runs Two-Truths-&-A-Lie: each player authors ten rounds of
// three statements with one lie, and guesses the partner's lie per round.
// Lie positions and guess correctness stay hidden until both players
// finish everything.
type TTLService struct {
	asyncCore
}

func NewTTLService(sessions repository.SessionRepo, insights *InsightService, log *logrus.Logger) *TTLService {
	return &TTLService{asyncCore: asyncCore{
		gameType: model.GameTwoTruthsLie,
		sessions: sessions,
		insights: insights,
		log:      log,
	}}
}

// SubmitStatements records one authored round. Rounds can be authored in
// any order but never rewritten.
func (s *TTLService) SubmitStatements(ctx context.Context, sessionID, callerID string, round int, statements []string, lieIndex int) (*model.Session, error) {
	const op = "TTLService.SubmitStatements"

	if round < 0 || round >= model.TTLRounds {
		return nil, apperr.New(apperr.CodeValidation, op, "round out of range")
	}
	if len(statements) != 3 {
		return nil, apperr.New(apperr.CodeValidation, op, "exactly three statements required")
	}
	for _, st := range statements {
		if strings.TrimSpace(st) == "" {
			return nil, apperr.New(apperr.CodeValidation, op, "statements cannot be empty")
		}
		if len(st) > maxTTLStatementLen {
			return nil, apperr.New(apperr.CodeValidation, op, "statement is too long")
		}
	}
	if lieIndex < 0 || lieIndex > 2 {
		return nil, apperr.New(apperr.CodeValidation, op, "lie index must be 0, 1 or 2")
	}

	var partnerID string
	sess, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		slot := sess.SlotOf(callerID)
		if slot == 0 {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status != model.StatusActive {
			return apperr.New(apperr.CodeConflict, op, "session is not accepting submissions")
		}
		entries := sess.TTL.EntriesOf(slot)
		if entries[round] != nil {
			return apperr.New(apperr.CodeConflict, op, "round already submitted")
		}
		entries[round] = &model.TTLEntry{
			Statements:  append([]string(nil), statements...),
			LieIndex:    lieIndex,
			SubmittedAt: time.Now(),
		}
		partnerID = sess.Partner(callerID)
		sess.Touch(time.Now())
		return nil
	})
	if err != nil {
		return nil, wrapMutateErr(op, err)
	}

	s.emit(partnerID, s.ns("partner_submitted"), map[string]interface{}{
		"sessionId": sess.ID,
		"round":     round,
	})
	return sess, nil
}

// SubmitGuess records the caller's guess at the partner's round. Requires
// the partner's entry to exist; correctness is computed here but only
// revealed in results.
func (s *TTLService) SubmitGuess(ctx context.Context, sessionID, callerID string, round, guessIndex int) (*model.Session, error) {
	const op = "TTLService.SubmitGuess"

	if round < 0 || round >= model.TTLRounds {
		return nil, apperr.New(apperr.CodeValidation, op, "round out of range")
	}
	if guessIndex < 0 || guessIndex > 2 {
		return nil, apperr.New(apperr.CodeValidation, op, "guess index must be 0, 1 or 2")
	}

	var done bool
	var partnerID string
	sess, err := s.sessions.Mutate(ctx, s.gameType, sessionID, func(sess *model.Session) error {
		slot := sess.SlotOf(callerID)
		if slot == 0 {
			return apperr.New(apperr.CodeNotParticipant, op, "caller is not a participant")
		}
		if sess.Status != model.StatusActive {
			return apperr.New(apperr.CodeConflict, op, "session is not accepting guesses")
		}
		partnerSlot := 3 - slot
		target := sess.TTL.EntriesOf(partnerSlot)[round]
		if target == nil {
			return apperr.New(apperr.CodeConflict, op, "partner has not submitted this round yet")
		}
		guesses := sess.TTL.GuessesOf(slot)
		if guesses[round] != nil {
			return apperr.New(apperr.CodeConflict, op, "round already guessed")
		}
		guesses[round] = &model.TTLGuess{
			GuessIndex: guessIndex,
			Correct:    guessIndex == target.LieIndex,
			GuessedAt:  time.Now(),
		}

		if sess.TTL.BothComplete() {
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

	s.emit(partnerID, s.ns("partner_guessed"), map[string]interface{}{
		"sessionId": sess.ID,
		"round":     round,
	})
	if done {
		s.finalize(sess.ID, true)
	}
	return sess, nil
}

// View renders the caller's censored state: the partner's lie indices and
// the caller's own guess correctness stay hidden until the session
// finishes.
func (s *TTLService) View(ctx context.Context, sessionID, callerID string) (map[string]interface{}, error) {
	const op = "TTLService.View"

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
	partnerSlot := 3 - slot

	out := map[string]interface{}{
		"sessionId": sess.ID,
		"status":    sess.Status,
		"myRounds":  ttlEntriesView(sess.TTL.EntriesOf(slot), true),
		"myGuesses": ttlGuessesView(sess.TTL.GuessesOf(slot), finished),
	}
	out["partnerRounds"] = ttlEntriesView(sess.TTL.EntriesOf(partnerSlot), finished)
	if finished {
		out["partnerGuesses"] = ttlGuessesView(sess.TTL.GuessesOf(partnerSlot), true)
		out["results"] = sess.Results
	}
	return out, nil
}

func ttlEntriesView(entries []*model.TTLEntry, revealLie bool) []map[string]interface{} {
	views := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		if e == nil {
			continue
		}
		v := map[string]interface{}{
			"round":      i,
			"statements": e.Statements,
		}
		if revealLie {
			v["lieIndex"] = e.LieIndex
		}
		views[i] = v
	}
	return views
}

func ttlGuessesView(guesses []*model.TTLGuess, revealCorrect bool) []map[string]interface{} {
	views := make([]map[string]interface{}, len(guesses))
	for i, g := range guesses {
		if g == nil {
			continue
		}
		v := map[string]interface{}{
			"round":      i,
			"guessIndex": g.GuessIndex,
		}
		if revealCorrect {
			v["correct"] = g.Correct
		}
		views[i] = v
	}
	return views
}
