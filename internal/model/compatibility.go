package model

import "time"

type Confidence string

const (
	ConfidenceMinimal Confidence = "minimal"
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
)

// ConfidenceFor is the fixed mapping from included-game count to
// confidence level.
func ConfidenceFor(games int) Confidence {
	switch {
	case games <= 0:
		return ConfidenceMinimal
	case games <= 2:
		return ConfidenceLow
	case games <= 4:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// MinGamesForNarrative gates AI narrative generation.
const MinGamesForNarrative = 3

// DimensionScore is one axis of the couple profile.
type DimensionScore struct {
	Score     int  `json:"score" bson:"score"`
	Available bool `json:"available" bson:"available"`
}

type OverallCompatibility struct {
	Score      int        `json:"score" bson:"score"`
	Confidence Confidence `json:"confidence" bson:"confidence"`
	Level      string     `json:"level" bson:"level"`
}

// GameSnapshot is the aggregator's frozen view of the latest completed
// session for one game type at generate time.
type GameSnapshot struct {
	Included     bool       `json:"included" bson:"included"`
	SessionID    string     `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Score        int        `json:"score" bson:"score"`
	QuickSummary string     `json:"quickSummary,omitempty" bson:"quickSummary,omitempty"`
}

// CoupleInsights is the fixed JSON schema of the cross-game AI narrative.
type CoupleInsights struct {
	ExecutiveSummary   string   `json:"executiveSummary" bson:"executiveSummary"`
	Narrative          string   `json:"narrative" bson:"narrative"`
	LongTermPotential  int      `json:"longTermPotential" bson:"longTermPotential"`
	Recommendations    []string `json:"recommendations" bson:"recommendations"`
	Verdict            string   `json:"verdict" bson:"verdict"`
}

// CoupleCompatibility is the cached cross-game profile, one row per
// canonical user pair.
type CoupleCompatibility struct {
	PairKey string `json:"-" bson:"_id"`
	MatchID string `json:"matchId" bson:"matchId"`
	UserA   string `json:"userA" bson:"userA"`
	UserB   string `json:"userB" bson:"userB"`
	Version int64  `json:"-" bson:"version"`

	DimensionScores map[Dimension]DimensionScore `json:"dimensionScores" bson:"dimensionScores"`
	Overall         OverallCompatibility         `json:"overallCompatibility" bson:"overallCompatibility"`

	GamesSnapshot      map[GameType]GameSnapshot `json:"gamesSnapshot" bson:"gamesSnapshot"`
	TotalGamesIncluded int                       `json:"totalGamesIncluded" bson:"totalGamesIncluded"`

	Strengths            []Insight `json:"strengths" bson:"strengths"`
	DiscussionAreas      []Insight `json:"discussionAreas" bson:"discussionAreas"`
	ConversationStarters []string  `json:"conversationStarters" bson:"conversationStarters"`
	RedFlags             []string  `json:"redFlags" bson:"redFlags"`
	HiddenAlignments     []string  `json:"hiddenAlignments" bson:"hiddenAlignments"`

	AIInsights      *CoupleInsights `json:"aiInsights,omitempty" bson:"aiInsights,omitempty"`
	LastGeneratedAt time.Time       `json:"lastGeneratedAt" bson:"lastGeneratedAt"`
}

// Insight is a tagged strength or discussion area.
type Insight struct {
	Dimension    Dimension `json:"dimension" bson:"dimension"`
	GameType     GameType  `json:"gameType" bson:"gameType"`
	Text         string    `json:"text" bson:"text"`
	Significance string    `json:"significance,omitempty" bson:"significance,omitempty"` // discussion areas: notable|significant
}

// Truncation caps on the aggregated lists.
const (
	MaxStrengths            = 10
	MaxDiscussionAreas      = 10
	MaxConversationStarters = 10
	MaxRedFlags             = 5
	MaxHiddenAlignments     = 5
)

// OverallLevel labels a numeric score for display.
func OverallLevel(score int) string {
	switch {
	case score >= 85:
		return "exceptional"
	case score >= 70:
		return "strong"
	case score >= 55:
		return "promising"
	case score >= 40:
		return "mixed"
	default:
		return "challenging"
	}
}

// Dashboard is the read model returned to callers: the cached profile plus
// live update detection.
type Dashboard struct {
	Compatibility    *CoupleCompatibility `json:"compatibility"`
	UpdateAvailable  bool                 `json:"updateAvailable"`
	NewGames         []GameType           `json:"newGames,omitempty"`
	GamesNeededForAI int                  `json:"gamesNeededForAI,omitempty"`
}

// GameHistoryEntry is the per-game-type summary for getGameHistory.
type GameHistoryEntry struct {
	GameType                GameType   `json:"gameType"`
	Completed               bool       `json:"completed"`
	CompletedAt             *time.Time `json:"completedAt,omitempty"`
	PlayCount               int        `json:"playCount"`
	SessionID               string     `json:"sessionId,omitempty"`
	IncludedInCompatibility bool       `json:"includedInCompatibility"`
}
