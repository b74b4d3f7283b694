package model

import "time"

// Voice-note caps, enforced uniformly by the shared primitives.
const (
	MaxVoiceNotesPerSession = 10
	MaxVoiceNotesPerUser    = 5
	MaxDiscussionNoteSec    = 60
	MaxElaborationSec       = 120
)

// VoiceNote is one entry of the append-only per-session voice log. Notes
// are immutable once appended; ListenedBy is the only mutable field.
type VoiceNote struct {
	UserID          string    `json:"userId" bson:"userId"`
	BlobURL         string    `json:"blobUrl" bson:"blobUrl"`
	DurationSec     int       `json:"durationSec" bson:"durationSec"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	ListenedBy      []string  `json:"listenedBy" bson:"listenedBy"`
	RelatedQuestion *int      `json:"relatedQuestion,omitempty" bson:"relatedQuestion,omitempty"`
}

func (v *VoiceNote) ListenedByUser(userID string) bool {
	for _, u := range v.ListenedBy {
		if u == userID {
			return true
		}
	}
	return false
}
