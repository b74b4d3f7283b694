package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entwine-app/entwine/internal/catalog"
	"github.com/entwine-app/entwine/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func answered(rec *model.AnswerRecord) *model.AnswerRecord {
	rec.AnsweredAt = time.Now()
	return rec
}

func timedOut() *model.AnswerRecord {
	return &model.AnswerRecord{TimedOut: true, AnsweredAt: time.Now()}
}

func makeSyncSession(gt model.GameType, size int) *model.Session {
	return &model.Session{
		ID:            "s1",
		GameType:      gt,
		QuestionOrder: catalog.FixedOrder(size),
		Sync:          model.NewSyncState(size),
	}
}

func TestScoreWYR(t *testing.T) {
	sess := makeSyncSession(model.GameWouldYouRather, 4)
	sess.Sync.P1Answers[0] = answered(&model.AnswerRecord{Choice: strPtr("A")})
	sess.Sync.P2Answers[0] = answered(&model.AnswerRecord{Choice: strPtr("A")})
	sess.Sync.P1Answers[1] = answered(&model.AnswerRecord{Choice: strPtr("A")})
	sess.Sync.P2Answers[1] = answered(&model.AnswerRecord{Choice: strPtr("B")})
	sess.Sync.P1Answers[2] = timedOut()
	sess.Sync.P2Answers[2] = answered(&model.AnswerRecord{Choice: strPtr("B")})
	sess.Sync.P1Answers[3] = timedOut()
	sess.Sync.P2Answers[3] = timedOut()

	res := ScoreWYR(sess)

	assert.Equal(t, 2, res.BothAnswered)
	assert.Equal(t, 1, res.MatchedAnswers)
	assert.Equal(t, 50, res.CompatibilityScore)
	assert.Equal(t, 2, res.Player1TimedOut)
	assert.Equal(t, 1, res.Player2TimedOut)
	assert.Len(t, res.Questions, 4)
	assert.True(t, res.Questions[0].Matched)
	assert.False(t, res.Questions[2].Matched)
}

func TestScoreWYRNothingAnswered(t *testing.T) {
	sess := makeSyncSession(model.GameWouldYouRather, 2)
	sess.Sync.P1Answers[0] = timedOut()
	sess.Sync.P2Answers[0] = timedOut()
	sess.Sync.P1Answers[1] = timedOut()
	sess.Sync.P2Answers[1] = timedOut()

	res := ScoreWYR(sess)

	assert.Equal(t, 0, res.BothAnswered)
	assert.Equal(t, 0, res.CompatibilityScore)
}

func TestScoreIS(t *testing.T) {
	sess := makeSyncSession(model.GameIntimacy, 3)
	sess.Sync.P1Answers[0] = answered(&model.AnswerRecord{Position: intPtr(50)})
	sess.Sync.P2Answers[0] = answered(&model.AnswerRecord{Position: intPtr(60)})
	sess.Sync.P1Answers[1] = answered(&model.AnswerRecord{Position: intPtr(10)})
	sess.Sync.P2Answers[1] = answered(&model.AnswerRecord{Position: intPtr(40)})
	sess.Sync.P1Answers[2] = answered(&model.AnswerRecord{Position: intPtr(0)})
	sess.Sync.P2Answers[2] = answered(&model.AnswerRecord{Position: intPtr(100)})

	res := ScoreIS(sess)

	assert.Equal(t, 3, res.BothAnswered)
	assert.Equal(t, 1, res.MatchedAnswers)
	assert.InDelta(t, 46.7, res.AverageGap, 0.01)
	assert.Equal(t, 53, res.CompatibilityScore)
	assert.Equal(t, "aligned", res.Questions[0].Alignment)
	assert.Equal(t, "close", res.Questions[1].Alignment)
	assert.Equal(t, "different", res.Questions[2].Alignment)
}

func TestScoreNHIE(t *testing.T) {
	sess := makeSyncSession(model.GameNeverHaveIEver, 3)
	sess.Sync.P1Answers[0] = answered(&model.AnswerRecord{Have: boolPtr(true)})
	sess.Sync.P2Answers[0] = answered(&model.AnswerRecord{Have: boolPtr(true)})
	sess.Sync.P1Answers[1] = answered(&model.AnswerRecord{Have: boolPtr(false)})
	sess.Sync.P2Answers[1] = answered(&model.AnswerRecord{Have: boolPtr(false)})
	sess.Sync.P1Answers[2] = answered(&model.AnswerRecord{Have: boolPtr(true)})
	sess.Sync.P2Answers[2] = answered(&model.AnswerRecord{Have: boolPtr(false)})

	res := ScoreNHIE(sess)

	assert.Equal(t, 1, res.SharedBoth)
	assert.Equal(t, 1, res.SharedNeither)
	assert.Equal(t, 67, res.CompatibilityScore)
}

func TestScoreTTL(t *testing.T) {
	sess := &model.Session{GameType: model.GameTwoTruthsLie, TTL: model.NewTTLState()}
	for i := 0; i < model.TTLRounds; i++ {
		correct := i < 5
		sess.TTL.P1Guesses[i] = &model.TTLGuess{GuessIndex: 0, Correct: correct, GuessedAt: time.Now()}
		sess.TTL.P2Guesses[i] = &model.TTLGuess{GuessIndex: 1, Correct: correct, GuessedAt: time.Now()}
	}

	res := ScoreTTL(sess)

	assert.Equal(t, 10, res.CorrectGuesses)
	assert.Equal(t, 20, res.GuessesMade)
	assert.Equal(t, 5, res.DoubleBluffs)
	// 50% accuracy minus 5 points per double-bluff round
	assert.Equal(t, 25, res.CompatibilityScore)
}

func TestScoreTTLFloorsAtZero(t *testing.T) {
	sess := &model.Session{GameType: model.GameTwoTruthsLie, TTL: model.NewTTLState()}
	for i := 0; i < model.TTLRounds; i++ {
		sess.TTL.P1Guesses[i] = &model.TTLGuess{GuessIndex: 0, Correct: false}
		sess.TTL.P2Guesses[i] = &model.TTLGuess{GuessIndex: 0, Correct: false}
	}

	res := ScoreTTL(sess)

	assert.Equal(t, 0, res.CompatibilityScore)
	assert.Equal(t, 10, res.DoubleBluffs)
}

func boardSelection(n int, card string, p model.Priority, tl model.Timeline) *model.Selection {
	return &model.Selection{
		CategoryNumber: n,
		CategoryID:     catalog.Board(n).ID,
		CardID:         card,
		Priority:       p,
		Timeline:       tl,
		SelectedAt:     time.Now(),
	}
}

func TestScoreBoardCategory(t *testing.T) {
	cases := []struct {
		name      string
		s1, s2    *model.Selection
		score     int
		level     string
	}{
		{
			name:  "same card full match",
			s1:    boardSelection(1, "A", model.PriorityHeartSet, model.TimelineCantWait),
			s2:    boardSelection(1, "A", model.PriorityHeartSet, model.TimelineCantWait),
			score: 100, level: "aligned",
		},
		{
			name:  "same card one axis",
			s1:    boardSelection(1, "A", model.PriorityHeartSet, model.TimelineCantWait),
			s2:    boardSelection(1, "A", model.PriorityHeartSet, model.TimelineSomeday),
			score: 90, level: "aligned",
		},
		{
			name:  "same card no axes",
			s1:    boardSelection(1, "A", model.PriorityHeartSet, model.TimelineCantWait),
			s2:    boardSelection(1, "A", model.PriorityFlow, model.TimelineSomeday),
			score: 80, level: "aligned",
		},
		{
			name:  "different cards both flexible",
			s1:    boardSelection(1, "A", model.PriorityFlow, model.TimelineCantWait),
			s2:    boardSelection(1, "B", model.PriorityFlow, model.TimelineSomeday),
			score: 70, level: "close",
		},
		{
			name:  "different cards both heart set",
			s1:    boardSelection(1, "A", model.PriorityHeartSet, model.TimelineCantWait),
			s2:    boardSelection(1, "B", model.PriorityHeartSet, model.TimelineSomeday),
			score: 25, level: "needs_conversation",
		},
		{
			name:  "different cards matching timeline bumps score",
			s1:    boardSelection(1, "A", model.PriorityHeartSet, model.TimelineCantWait),
			s2:    boardSelection(1, "B", model.PriorityDream, model.TimelineCantWait),
			score: 55, level: "close",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ca := scoreBoardCategory(tc.s1, tc.s2)
			assert.Equal(t, tc.score, ca.AlignmentScore)
			assert.Equal(t, tc.level, ca.AlignmentLevel)
		})
	}
}

func TestScoreBoard(t *testing.T) {
	sess := &model.Session{GameType: model.GameDreamBoard, Board: model.NewBoardState()}
	for i := 1; i <= model.BoardCategories; i++ {
		sess.Board.P1Selections[i-1] = boardSelection(i, "A", model.PriorityDream, model.TimelineWhenRight)
		sess.Board.P2Selections[i-1] = boardSelection(i, "A", model.PriorityDream, model.TimelineWhenRight)
	}

	res := ScoreBoard(sess)

	require.Len(t, res.CategoryAnalysis, model.BoardCategories)
	assert.Equal(t, 100, res.OverallAlignment)
	assert.Equal(t, model.BoardCategories, res.AlignedCount)
	assert.Equal(t, 100, res.CompatibilityScore)
}

func TestScoreWWYD(t *testing.T) {
	sess := &model.Session{GameType: model.GameWhatWouldYouDo, WWYD: model.NewWWYDState()}
	for i := 0; i < model.WWYDScenarios; i++ {
		sess.WWYD.P1Responses[i] = &model.VoiceResponse{BlobURL: "u", TranscriptStatus: model.TranscriptDone}
		sess.WWYD.P2Responses[i] = &model.VoiceResponse{BlobURL: "u", TranscriptStatus: model.TranscriptDone}
	}

	res := ScoreWWYD(sess)

	assert.Equal(t, model.WWYDScenarios, res.BothAnswered)
	assert.Equal(t, 100, res.CompatibilityScore)
}
