package models

import "time"

type RatingType string

const (
	// RatingTypeTrueSkill enables team rating adjustment on finish.
	RatingTypeTrueSkill RatingType = "trueSkill"
	// RatingTypeNone means the game keeps no skill ratings.
	RatingTypeNone RatingType = ""
)

// GameIDOther marks a free-text game outside the catalog.
const GameIDOther = "other"

type Game struct {
	ID                  string     `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	RatingType          RatingType `json:"ratingType" db:"rating_type"`
	AllowedPlayerCounts []int      `json:"allowedPlayerCounts" db:"allowed_player_counts"`
	IconURL             *string    `json:"iconUrl,omitempty" db:"icon_url"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
}

// AllowsPlayerCount reports whether maxPlayers is legal for this game.
// An empty list means any positive count is allowed.
func (g *Game) AllowsPlayerCount(maxPlayers int) bool {
	if len(g.AllowedPlayerCounts) == 0 {
		return maxPlayers > 0
	}
	for _, n := range g.AllowedPlayerCounts {
		if n == maxPlayers {
			return true
		}
	}
	return false
}
