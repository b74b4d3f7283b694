package model

// GameType identifies one of the six compatibility games.
type GameType string

const (
	GameWouldYouRather  GameType = "would_you_rather"
	GameIntimacy        GameType = "intimacy_spectrum"
	GameNeverHaveIEver  GameType = "never_have_i_ever"
	GameTwoTruthsLie    GameType = "two_truths_lie"
	GameWhatWouldYouDo  GameType = "what_would_you_do"
	GameDreamBoard      GameType = "dream_board"
)

// AllGameTypes is the fixed set the aggregator iterates over.
var AllGameTypes = []GameType{
	GameTwoTruthsLie,
	GameWouldYouRather,
	GameIntimacy,
	GameNeverHaveIEver,
	GameWhatWouldYouDo,
	GameDreamBoard,
}

// Dimension is one of the six compatibility axes. Each game type feeds
// exactly one dimension.
type Dimension string

const (
	DimIntuition  Dimension = "intuition"
	DimLifestyle  Dimension = "lifestyle"
	DimPhysical   Dimension = "physical"
	DimExperience Dimension = "experience"
	DimCharacter  Dimension = "character"
	DimFuture     Dimension = "future"
)

var gameDimensions = map[GameType]Dimension{
	GameTwoTruthsLie:   DimIntuition,
	GameWouldYouRather: DimLifestyle,
	GameIntimacy:       DimPhysical,
	GameNeverHaveIEver: DimExperience,
	GameWhatWouldYouDo: DimCharacter,
	GameDreamBoard:     DimFuture,
}

func (g GameType) Dimension() Dimension {
	return gameDimensions[g]
}

func (g GameType) Valid() bool {
	_, ok := gameDimensions[g]
	return ok
}

// Synchronous reports whether the game runs the server-authoritative
// 15-second question loop.
func (g GameType) Synchronous() bool {
	switch g {
	case GameWouldYouRather, GameIntimacy, GameNeverHaveIEver:
		return true
	}
	return false
}

// Namespace is the short prefix used on push events, e.g. "wyr:question".
func (g GameType) Namespace() string {
	switch g {
	case GameWouldYouRather:
		return "wyr"
	case GameIntimacy:
		return "is"
	case GameNeverHaveIEver:
		return "nhie"
	case GameTwoTruthsLie:
		return "ttl"
	case GameWhatWouldYouDo:
		return "wwyd"
	case GameDreamBoard:
		return "db"
	}
	return string(g)
}

func ParseGameType(s string) (GameType, bool) {
	g := GameType(s)
	if g.Valid() {
		return g, true
	}
	// accept the short namespace form too
	for _, gt := range AllGameTypes {
		if gt.Namespace() == s {
			return gt, true
		}
	}
	return "", false
}
