package model

import "time"

const TTLRounds = 10

// TTLEntry is one player's authored statement triple for a round, with the
// lie marked by index.
type TTLEntry struct {
	Statements  []string  `json:"statements" bson:"statements"` // exactly 3
	LieIndex    int       `json:"lieIndex" bson:"lieIndex"`     // 0..2
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// TTLGuess is a player's guess at the partner's lie for a round.
type TTLGuess struct {
	GuessIndex int       `json:"guessIndex" bson:"guessIndex"`
	Correct    bool      `json:"correct" bson:"correct"`
	GuessedAt  time.Time `json:"guessedAt" bson:"guessedAt"`
}

// TTLState tracks ten rounds of authored triples and cross-guesses.
// Slices are sized TTLRounds; nil means not yet submitted.
// P1Guesses[i] is player1's guess at player2's round-i entry.
type TTLState struct {
	P1Entries []*TTLEntry `json:"player1Entries" bson:"player1Entries"`
	P2Entries []*TTLEntry `json:"player2Entries" bson:"player2Entries"`
	P1Guesses []*TTLGuess `json:"player1Guesses" bson:"player1Guesses"`
	P2Guesses []*TTLGuess `json:"player2Guesses" bson:"player2Guesses"`
}

func NewTTLState() *TTLState {
	return &TTLState{
		P1Entries: make([]*TTLEntry, TTLRounds),
		P2Entries: make([]*TTLEntry, TTLRounds),
		P1Guesses: make([]*TTLGuess, TTLRounds),
		P2Guesses: make([]*TTLGuess, TTLRounds),
	}
}

func (t *TTLState) EntriesOf(slot int) []*TTLEntry {
	if slot == 1 {
		return t.P1Entries
	}
	return t.P2Entries
}

func (t *TTLState) GuessesOf(slot int) []*TTLGuess {
	if slot == 1 {
		return t.P1Guesses
	}
	return t.P2Guesses
}

// PlayerComplete reports whether the slot has authored and guessed all
// rounds.
func (t *TTLState) PlayerComplete(slot int) bool {
	for _, e := range t.EntriesOf(slot) {
		if e == nil {
			return false
		}
	}
	for _, g := range t.GuessesOf(slot) {
		if g == nil {
			return false
		}
	}
	return true
}

func (t *TTLState) BothComplete() bool {
	return t.PlayerComplete(1) && t.PlayerComplete(2)
}
