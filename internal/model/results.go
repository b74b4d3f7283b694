package model

// GameInsights is the fixed JSON schema returned by Gemini for a single
// completed session. Fields irrelevant to a game type stay empty.
type GameInsights struct {
	Summary              string   `json:"summary" bson:"summary"`
	Strengths            []string `json:"strengths" bson:"strengths"`
	DiscussionAreas      []string `json:"discussionAreas" bson:"discussionAreas"`
	ConversationStarters []string `json:"conversationStarters" bson:"conversationStarters"`
	RedFlags             []string `json:"redFlags" bson:"redFlags"`
	GreenFlags           []string `json:"greenFlags" bson:"greenFlags"`
	HiddenAlignments     []string `json:"hiddenAlignments" bson:"hiddenAlignments"`
}

// GameResults is the engine-specific outcome attached to a completed
// session. CompatibilityScore is always set; the rest varies by game type.
type GameResults struct {
	CompatibilityScore int `json:"compatibilityScore" bson:"compatibilityScore"`

	// Synchronous engines
	MatchedAnswers  int               `json:"matchedAnswers,omitempty" bson:"matchedAnswers,omitempty"`
	BothAnswered    int               `json:"bothAnswered,omitempty" bson:"bothAnswered,omitempty"`
	Player1TimedOut int               `json:"player1TimedOut,omitempty" bson:"player1TimedOut,omitempty"`
	Player2TimedOut int               `json:"player2TimedOut,omitempty" bson:"player2TimedOut,omitempty"`
	AverageGap      float64           `json:"averageGap,omitempty" bson:"averageGap,omitempty"`
	SharedBoth      int               `json:"sharedBoth,omitempty" bson:"sharedBoth,omitempty"`
	SharedNeither   int               `json:"sharedNeither,omitempty" bson:"sharedNeither,omitempty"`
	Categories      []CategoryScore   `json:"categories,omitempty" bson:"categories,omitempty"`
	Questions       []QuestionOutcome `json:"questions,omitempty" bson:"questions,omitempty"`

	// Two-Truths-&-A-Lie
	CorrectGuesses int `json:"correctGuesses,omitempty" bson:"correctGuesses,omitempty"`
	GuessesMade    int `json:"guessesMade,omitempty" bson:"guessesMade,omitempty"`
	DoubleBluffs   int `json:"doubleBluffs,omitempty" bson:"doubleBluffs,omitempty"`

	// Dream-Board
	OverallAlignment int                `json:"overallAlignment,omitempty" bson:"overallAlignment,omitempty"`
	AlignedCount     int                `json:"alignedCount,omitempty" bson:"alignedCount,omitempty"`
	CategoryAnalysis []CategoryAnalysis `json:"categoryAnalysis,omitempty" bson:"categoryAnalysis,omitempty"`

	QuickSummary string        `json:"quickSummary" bson:"quickSummary"`
	Insights     *GameInsights `json:"insights,omitempty" bson:"insights,omitempty"`
}
