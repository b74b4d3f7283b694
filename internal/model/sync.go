package model

import "time"

// AnswerRecord is one participant's answer to one synchronous question.
// Exactly one of Choice/Position/Have is set, matching the engine's schema.
// A timed-out question is recorded with TimedOut=true and no answer fields.
type AnswerRecord struct {
	Choice   *string `json:"choice,omitempty" bson:"choice,omitempty"`     // WYR: "A" | "B"
	Position *int    `json:"position,omitempty" bson:"position,omitempty"` // IS: 0..100
	Have     *bool   `json:"have,omitempty" bson:"have,omitempty"`         // NHIE
	Story    string  `json:"story,omitempty" bson:"story,omitempty"`       // NHIE, optional

	TimedOut       bool      `json:"timedOut" bson:"timedOut"`
	AnsweredAt     time.Time `json:"answeredAt" bson:"answeredAt"`
	ResponseTimeMs int64     `json:"responseTimeMs" bson:"responseTimeMs"`
}

func (a *AnswerRecord) Answered() bool {
	return a != nil && !a.TimedOut
}

// SyncState is the live state of a synchronous engine session. The answer
// slices are sized to the question order; a nil entry means not yet
// answered, a TimedOut entry is an explicit timeout.
type SyncState struct {
	CurrentIndex      int       `json:"currentQuestionIndex" bson:"currentQuestionIndex"`
	QuestionStartedAt time.Time `json:"currentQuestionStartedAt" bson:"currentQuestionStartedAt"`
	QuestionExpiresAt time.Time `json:"currentQuestionExpiresAt" bson:"currentQuestionExpiresAt"`

	P1Answers []*AnswerRecord `json:"player1Answers" bson:"player1Answers"`
	P2Answers []*AnswerRecord `json:"player2Answers" bson:"player2Answers"`
}

func NewSyncState(size int) *SyncState {
	return &SyncState{
		P1Answers: make([]*AnswerRecord, size),
		P2Answers: make([]*AnswerRecord, size),
	}
}

// AnswersOf returns the answer slice for player slot 1 or 2.
func (s *SyncState) AnswersOf(slot int) []*AnswerRecord {
	if slot == 1 {
		return s.P1Answers
	}
	return s.P2Answers
}

// BothRecorded reports whether question idx has a record (answer or
// timeout) from both players.
func (s *SyncState) BothRecorded(idx int) bool {
	return s.P1Answers[idx] != nil && s.P2Answers[idx] != nil
}

// CategoryScore is a per-category compatibility rollup.
type CategoryScore struct {
	Category string `json:"category" bson:"category"`
	Matched  int    `json:"matched" bson:"matched"`
	Total    int    `json:"total" bson:"total"`
	Score    int    `json:"score" bson:"score"`
}

// QuestionOutcome is the per-question detail surfaced in results and in
// the aggregator's game-detail view.
type QuestionOutcome struct {
	Index          int           `json:"index" bson:"index"`
	QuestionNumber int           `json:"questionNumber" bson:"questionNumber"`
	Player1        *AnswerRecord `json:"player1,omitempty" bson:"player1,omitempty"`
	Player2        *AnswerRecord `json:"player2,omitempty" bson:"player2,omitempty"`
	Matched        bool          `json:"matched" bson:"matched"`
	Alignment      string        `json:"alignment,omitempty" bson:"alignment,omitempty"` // IS: aligned|close|different
	Gap            *int          `json:"gap,omitempty" bson:"gap,omitempty"`             // IS
}
