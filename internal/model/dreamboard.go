package model

import "time"

const BoardCategories = 10

type Priority string

const (
	PriorityHeartSet Priority = "heart_set"
	PriorityDream    Priority = "dream"
	PriorityFlow     Priority = "flow"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHeartSet, PriorityDream, PriorityFlow:
		return true
	}
	return false
}

type Timeline string

const (
	TimelineCantWait  Timeline = "cant_wait"
	TimelineWhenRight Timeline = "when_right"
	TimelineSomeday   Timeline = "someday"
)

func (t Timeline) Valid() bool {
	switch t {
	case TimelineCantWait, TimelineWhenRight, TimelineSomeday:
		return true
	}
	return false
}

// Elaboration is an optional short voice clip attached to a selection,
// preserved across re-selections of the same category.
type Elaboration struct {
	VoiceURL    string           `json:"voiceUrl" bson:"voiceUrl"`
	DurationSec int              `json:"durationSec" bson:"durationSec"`
	Transcript  *string          `json:"transcript,omitempty" bson:"transcript,omitempty"`
	Status      TranscriptStatus `json:"transcriptStatus" bson:"transcriptStatus"`
	AddedAt     time.Time        `json:"addedAt" bson:"addedAt"`
}

// Selection is one player's pick for one life category.
type Selection struct {
	CategoryNumber int          `json:"categoryNumber" bson:"categoryNumber"` // 1..10
	CategoryID     string       `json:"categoryId" bson:"categoryId"`
	CardID         string       `json:"cardId" bson:"cardId"` // A|B|C|D
	Priority       Priority     `json:"priority" bson:"priority"`
	Timeline       Timeline     `json:"timeline" bson:"timeline"`
	SelectedAt     time.Time    `json:"selectedAt" bson:"selectedAt"`
	Elaboration    *Elaboration `json:"elaboration,omitempty" bson:"elaboration,omitempty"`
}

// BoardState holds per-player selections indexed by category (number-1).
type BoardState struct {
	P1Selections []*Selection `json:"player1Selections" bson:"player1Selections"`
	P2Selections []*Selection `json:"player2Selections" bson:"player2Selections"`
}

func NewBoardState() *BoardState {
	return &BoardState{
		P1Selections: make([]*Selection, BoardCategories),
		P2Selections: make([]*Selection, BoardCategories),
	}
}

func (b *BoardState) SelectionsOf(slot int) []*Selection {
	if slot == 1 {
		return b.P1Selections
	}
	return b.P2Selections
}

func (b *BoardState) PlayerComplete(slot int) bool {
	for _, s := range b.SelectionsOf(slot) {
		if s == nil {
			return false
		}
	}
	return true
}

func (b *BoardState) BothComplete() bool {
	return b.PlayerComplete(1) && b.PlayerComplete(2)
}

// CategoryAnalysis is the scored comparison of one category's two picks.
type CategoryAnalysis struct {
	CategoryNumber int    `json:"categoryNumber" bson:"categoryNumber"`
	CategoryID     string `json:"categoryId" bson:"categoryId"`
	AlignmentScore int    `json:"alignmentScore" bson:"alignmentScore"`
	AlignmentLevel string `json:"alignmentLevel" bson:"alignmentLevel"` // aligned|close|different|needs_conversation
	SameCard       bool   `json:"sameCard" bson:"sameCard"`
}
