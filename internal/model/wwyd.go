package model

import "time"

const WWYDScenarios = 15

type TranscriptStatus string

const (
	TranscriptPending TranscriptStatus = "pending"
	TranscriptDone    TranscriptStatus = "done"
	TranscriptFailed  TranscriptStatus = "failed"
)

// VoiceResponse is one player's recorded answer to a scenario.
type VoiceResponse struct {
	BlobURL          string           `json:"blobUrl" bson:"blobUrl"`
	DurationSec      int              `json:"durationSec" bson:"durationSec"`
	SubmittedAt      time.Time        `json:"submittedAt" bson:"submittedAt"`
	Transcript       *string          `json:"transcript,omitempty" bson:"transcript,omitempty"`
	TranscriptStatus TranscriptStatus `json:"transcriptStatus" bson:"transcriptStatus"`
}

// WWYDState holds per-player voice responses indexed by scenario.
// Slices are sized WWYDScenarios; nil means not yet submitted.
type WWYDState struct {
	P1Responses []*VoiceResponse `json:"player1Responses" bson:"player1Responses"`
	P2Responses []*VoiceResponse `json:"player2Responses" bson:"player2Responses"`
}

func NewWWYDState() *WWYDState {
	return &WWYDState{
		P1Responses: make([]*VoiceResponse, WWYDScenarios),
		P2Responses: make([]*VoiceResponse, WWYDScenarios),
	}
}

func (w *WWYDState) ResponsesOf(slot int) []*VoiceResponse {
	if slot == 1 {
		return w.P1Responses
	}
	return w.P2Responses
}

func (w *WWYDState) PlayerComplete(slot int) bool {
	for _, r := range w.ResponsesOf(slot) {
		if r == nil {
			return false
		}
	}
	return true
}

func (w *WWYDState) BothComplete() bool {
	return w.PlayerComplete(1) && w.PlayerComplete(2)
}
