package catalog

import "math/rand"

// Catalog sizes per game type. The synchronous engines iterate exactly
// this many questions per session.
const (
	WYRSize  = 50
	ISSize   = 30
	NHIESize = 30
)

// WYRQuestion is a two-option dilemma.
type WYRQuestion struct {
	Number   int    `json:"number"`
	Category string `json:"category"`
	OptionA  string `json:"optionA"`
	OptionB  string `json:"optionB"`
}

// ISQuestion is a 0-100 slider prompt. The catalog is ordered easy to
// spicy and sessions play it in catalog order.
type ISQuestion struct {
	Number     int    `json:"number"`
	Category   string `json:"category"`
	Prompt     string `json:"prompt"`
	LeftLabel  string `json:"leftLabel"`
	RightLabel string `json:"rightLabel"`
}

// NHIEQuestion is a never-have-I-ever statement.
type NHIEQuestion struct {
	Number    int    `json:"number"`
	Category  string `json:"category"`
	Statement string `json:"statement"`
}

// WWYDScenario is a moral/practical dilemma answered by voice.
type WWYDScenario struct {
	Number   int    `json:"number"`
	Category string `json:"category"`
	Scenario string `json:"scenario"`
}

// BoardCard is one of four options in a Dream-Board life category.
type BoardCard struct {
	CardID string `json:"cardId"` // A|B|C|D
	Title  string `json:"title"`
}

// BoardCategory is a life category offering four cards.
type BoardCategory struct {
	Number int         `json:"number"` // 1..10
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Cards  []BoardCard `json:"cards"`
}

// ShuffledOrder returns a deterministic permutation of [0,size) seeded by
// the session. WYR and NHIE use it; IS plays in fixed catalog order.
func ShuffledOrder(size int, seed int64) []int {
	order := make([]int, size)
	for i := range order {
		order[i] = i
	}
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(size, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// FixedOrder returns the identity order [0,size).
func FixedOrder(size int) []int {
	order := make([]int, size)
	for i := range order {
		order[i] = i
	}
	return order
}

func WYR(idx int) WYRQuestion        { return wyrQuestions[idx] }
func IS(idx int) ISQuestion          { return isQuestions[idx] }
func NHIE(idx int) NHIEQuestion      { return nhieQuestions[idx] }
func WWYD(idx int) WWYDScenario      { return wwydScenarios[idx] }
func Board(number int) BoardCategory { return boardCategories[number-1] }

func BoardAll() []BoardCategory { return boardCategories }
func WWYDAll() []WWYDScenario   { return wwydScenarios }
