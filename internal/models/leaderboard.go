package models

// LeaderboardRow is one player's aggregated results for a game,
// folded from finished sessions.
type LeaderboardRow struct {
	UserID             string       `json:"userId"`
	DisplayName        string       `json:"displayName"`
	GameID             string       `json:"gameId"`
	PugCount           int          `json:"pugCount"`
	AvgStandingPercent float64      `json:"avgStandingPercent"`
	TotalMuDiff        float64      `json:"totalMuDiff"`
	Rating             RatingVector `json:"rating"`
	Form               []FormEntry  `json:"form"`
}
