package models

import "time"

// Default TrueSkill parameters for a player with no rating history.
const (
	DefaultRatingMu    = 25.0
	DefaultRatingSigma = 25.0 / 3.0
)

// RatingVector is the opaque per-algorithm rating shape. The lifecycle
// state machine never inspects it beyond Mu for leaderboard sums.
type RatingVector struct {
	Mu    float64 `json:"mu" db:"mu"`
	Sigma float64 `json:"sigma" db:"sigma"`
}

// Sub returns the component-wise delta v - other.
func (v RatingVector) Sub(other RatingVector) RatingVector {
	return RatingVector{Mu: v.Mu - other.Mu, Sigma: v.Sigma - other.Sigma}
}

// DefaultRating is the rating assigned before any finished session.
func DefaultRating() RatingVector {
	return RatingVector{Mu: DefaultRatingMu, Sigma: DefaultRatingSigma}
}

// Rating is one immutable rating record, appended per player per
// finished session. The most recent record for a user+game is that
// player's current rating.
type Rating struct {
	ID        string       `json:"id" db:"id"`
	UserID    string       `json:"userId" db:"user_id"`
	PugID     string       `json:"pugId" db:"pug_id"`
	GameID    string       `json:"gameId" db:"game_id"`
	Rate      RatingVector `json:"rate"`
	RateDiff  RatingVector `json:"rateDiff"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}
