package model

import (
	"sort"
	"strings"
)

// Match is the external, read-only mapping of a matchId to a user pair.
// A match is eligible for games only when MutualLike is set.
type Match struct {
	MatchID    string  `json:"matchId" bson:"_id"`
	UserA      string  `json:"userA" bson:"userA"`
	UserB      string  `json:"userB" bson:"userB"`
	MutualLike bool    `json:"mutualLike" bson:"mutualLike"`
	DistanceKm float64 `json:"distanceKm" bson:"distanceKm"`
}

// Couple is a resolved canonical match: the unordered user pair plus the
// matchId the caller presented. Either user's personal matchId resolves to
// the same PairKey, so game history is shared.
type Couple struct {
	PairKey string
	MatchID string
	UserA   string
	UserB   string
}

// PairKey builds the canonical key for an unordered user pair.
func PairKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

func (c *Couple) Has(userID string) bool {
	return userID == c.UserA || userID == c.UserB
}

// Partner returns the other user of the pair.
func (c *Couple) Partner(userID string) string {
	if userID == c.UserA {
		return c.UserB
	}
	return c.UserA
}
