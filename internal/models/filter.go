package models

import "time"

// PugFilter narrows session listings. Zero values mean "any".
type PugFilter struct {
	States          []PugState
	GameID          string
	UserID          string // only sessions the user plays in
	UpdatedSince    time.Time
	FinishedAfter   time.Time
	FinishedBefore  time.Time
	IncludeCanceled bool
}
