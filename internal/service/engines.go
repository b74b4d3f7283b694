package service

import (
	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/catalog"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

// NewWYREngine builds the Would-You-Rather engine: binary A/B choices over
// a shuffled 50-question deck.
func NewWYREngine(sessions repository.SessionRepo, timers *TimerService, insights *InsightService, log *logrus.Logger) *SyncEngine {
	spec := SyncSpec{
		GameType: model.GameWouldYouRather,
		Size:     catalog.WYRSize,
		Validate: func(in AnswerInput) (*model.AnswerRecord, error) {
			const op = "wyr.validate"
			if in.Choice == nil || (*in.Choice != "A" && *in.Choice != "B") {
				return nil, apperr.New(apperr.CodeValidation, op, "choice must be A or B")
			}
			return &model.AnswerRecord{Choice: in.Choice}, nil
		},
		QuestionPayload: func(sess *model.Session) map[string]interface{} {
			idx := sess.Sync.CurrentIndex
			q := catalog.WYR(sess.QuestionOrder[idx])
			return map[string]interface{}{
				"sessionId": sess.ID,
				"index":     idx,
				"total":     catalog.WYRSize,
				"expiresAt": sess.Sync.QuestionExpiresAt,
				"question": map[string]interface{}{
					"number":   q.Number,
					"category": q.Category,
					"optionA":  q.OptionA,
					"optionB":  q.OptionB,
				},
			}
		},
		RevealPayload: func(sess *model.Session, idx int) map[string]interface{} {
			p1, p2 := sess.Sync.P1Answers[idx], sess.Sync.P2Answers[idx]
			matched := p1.Answered() && p2.Answered() && *p1.Choice == *p2.Choice
			return map[string]interface{}{
				"sessionId": sess.ID,
				"index":     idx,
				"player1":   p1,
				"player2":   p2,
				"matched":   matched,
			}
		},
		Score: ScoreWYR,
	}
	return NewSyncEngine(spec, sessions, timers, insights, log)
}

// NewISEngine builds the Intimacy-Spectrum engine: 0-100 slider positions
// over 30 prompts played in fixed easy-to-spicy order.
func NewISEngine(sessions repository.SessionRepo, timers *TimerService, insights *InsightService, log *logrus.Logger) *SyncEngine {
	spec := SyncSpec{
		GameType: model.GameIntimacy,
		Size:     catalog.ISSize,
		Validate: func(in AnswerInput) (*model.AnswerRecord, error) {
			const op = "is.validate"
			if in.Position == nil || *in.Position < 0 || *in.Position > 100 {
				return nil, apperr.New(apperr.CodeValidation, op, "position must be between 0 and 100")
			}
			return &model.AnswerRecord{Position: in.Position}, nil
		},
		QuestionPayload: func(sess *model.Session) map[string]interface{} {
			idx := sess.Sync.CurrentIndex
			q := catalog.IS(sess.QuestionOrder[idx])
			return map[string]interface{}{
				"sessionId": sess.ID,
				"index":     idx,
				"total":     catalog.ISSize,
				"expiresAt": sess.Sync.QuestionExpiresAt,
				"question": map[string]interface{}{
					"number":     q.Number,
					"category":   q.Category,
					"prompt":     q.Prompt,
					"leftLabel":  q.LeftLabel,
					"rightLabel": q.RightLabel,
				},
			}
		},
		RevealPayload: func(sess *model.Session, idx int) map[string]interface{} {
			p1, p2 := sess.Sync.P1Answers[idx], sess.Sync.P2Answers[idx]
			out := map[string]interface{}{
				"sessionId": sess.ID,
				"index":     idx,
				"player1":   p1,
				"player2":   p2,
			}
			if p1.Answered() && p2.Answered() {
				gap := *p1.Position - *p2.Position
				if gap < 0 {
					gap = -gap
				}
				out["gap"] = gap
				switch {
				case gap <= isAlignedGap:
					out["alignment"] = "aligned"
				case gap <= isCloseGap:
					out["alignment"] = "close"
				default:
					out["alignment"] = "different"
				}
			}
			return out
		},
		Score: ScoreIS,
	}
	return NewSyncEngine(spec, sessions, timers, insights, log)
}

// NewNHIEEngine builds the Never-Have-I-Ever engine: have/have-not answers
// with an optional short story, over a shuffled 30-statement deck.
func NewNHIEEngine(sessions repository.SessionRepo, timers *TimerService, insights *InsightService, log *logrus.Logger) *SyncEngine {
	const maxStoryLen = 280

	spec := SyncSpec{
		GameType: model.GameNeverHaveIEver,
		Size:     catalog.NHIESize,
		Validate: func(in AnswerInput) (*model.AnswerRecord, error) {
			const op = "nhie.validate"
			if in.Have == nil {
				return nil, apperr.New(apperr.CodeValidation, op, "have must be true or false")
			}
			if len(in.Story) > maxStoryLen {
				return nil, apperr.New(apperr.CodeValidation, op, "story is too long")
			}
			return &model.AnswerRecord{Have: in.Have, Story: in.Story}, nil
		},
		QuestionPayload: func(sess *model.Session) map[string]interface{} {
			idx := sess.Sync.CurrentIndex
			q := catalog.NHIE(sess.QuestionOrder[idx])
			return map[string]interface{}{
				"sessionId": sess.ID,
				"index":     idx,
				"total":     catalog.NHIESize,
				"expiresAt": sess.Sync.QuestionExpiresAt,
				"question": map[string]interface{}{
					"number":    q.Number,
					"category":  q.Category,
					"statement": q.Statement,
				},
			}
		},
		RevealPayload: func(sess *model.Session, idx int) map[string]interface{} {
			p1, p2 := sess.Sync.P1Answers[idx], sess.Sync.P2Answers[idx]
			out := map[string]interface{}{
				"sessionId": sess.ID,
				"index":     idx,
				"player1":   p1,
				"player2":   p2,
			}
			if p1.Answered() && p2.Answered() {
				out["sharedBoth"] = *p1.Have && *p2.Have
				out["sharedNeither"] = !*p1.Have && !*p2.Have
			}
			return out
		},
		Score: ScoreNHIE,
	}
	return NewSyncEngine(spec, sessions, timers, insights, log)
}
