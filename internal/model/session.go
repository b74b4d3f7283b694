package model

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusStarting   Status = "starting"
	StatusActive     Status = "active"
	StatusPlaying    Status = "playing"
	StatusPaused     Status = "paused"
	StatusAnalyzing  Status = "analyzing"
	StatusCompleted  Status = "completed"
	StatusDiscussion Status = "discussion"
	StatusDeclined   Status = "declined"
	StatusExpired    Status = "expired"
	StatusAbandoned  Status = "abandoned"
)

// NonTerminalStatuses are the states that block a new invitation for the
// same couple and game type, and that the reaper may expire.
var NonTerminalStatuses = []Status{
	StatusPending, StatusStarting, StatusActive, StatusPlaying, StatusPaused, StatusAnalyzing,
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDiscussion, StatusDeclined, StatusExpired, StatusAbandoned:
		return true
	}
	return false
}

// Finished reports whether the session counts toward compatibility.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusDiscussion
}

// Player is the embedded participant profile, denormalized from
// IdentityService at invitation time.
type Player struct {
	UserID      string `json:"userId" bson:"userId"`
	DisplayName string `json:"displayName" bson:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
}

// Session is the shared envelope for all six game types. Exactly one of the
// engine payloads (Sync, TTL, WWYD, Board) is non-nil, matching GameType.
type Session struct {
	ID       string   `json:"sessionId" bson:"_id"`
	GameType GameType `json:"gameType" bson:"gameType"`
	MatchID  string   `json:"matchId" bson:"matchId"`
	PairKey  string   `json:"-" bson:"pairKey"`

	Player1 Player `json:"player1" bson:"player1"`
	Player2 Player `json:"player2" bson:"player2"`

	Status  Status `json:"status" bson:"status"`
	Version int64  `json:"-" bson:"version"`
	// Open mirrors !Status.Terminal() so the one-active-session invariant
	// can be a partial unique index on (pairKey, open).
	Open bool `json:"-" bson:"open"`

	InvitedAt      time.Time  `json:"invitedAt" bson:"invitedAt"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty" bson:"acceptedAt,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	ExpiresAt      time.Time  `json:"expiresAt" bson:"expiresAt"`
	LastActivityAt time.Time  `json:"lastActivityAt" bson:"lastActivityAt"`

	// QuestionOrder is the ordered sequence of catalog indices for this
	// session. Randomized for WYR/NHIE, fixed easy-to-spicy for IS,
	// deterministic for the async engines.
	QuestionOrder []int `json:"questionOrder,omitempty" bson:"questionOrder,omitempty"`

	Sync  *SyncState  `json:"sync,omitempty" bson:"sync,omitempty"`
	TTL   *TTLState   `json:"ttl,omitempty" bson:"ttl,omitempty"`
	WWYD  *WWYDState  `json:"wwyd,omitempty" bson:"wwyd,omitempty"`
	Board *BoardState `json:"board,omitempty" bson:"board,omitempty"`

	VoiceNotes []VoiceNote `json:"voiceNotes,omitempty" bson:"voiceNotes,omitempty"`

	Results      *GameResults `json:"results,omitempty" bson:"results,omitempty"`
	InsightError string       `json:"insightError,omitempty" bson:"insightError,omitempty"`
}

// Participant reports whether userID is one of the two players. Every
// read/write operation checks this first.
func (s *Session) Participant(userID string) bool {
	return userID == s.Player1.UserID || userID == s.Player2.UserID
}

// SlotOf returns 1 or 2 for a participant, 0 otherwise.
func (s *Session) SlotOf(userID string) int {
	switch userID {
	case s.Player1.UserID:
		return 1
	case s.Player2.UserID:
		return 2
	}
	return 0
}

func (s *Session) Partner(userID string) string {
	if userID == s.Player1.UserID {
		return s.Player2.UserID
	}
	return s.Player1.UserID
}

func (s *Session) Touch(now time.Time) {
	s.LastActivityAt = now
}
