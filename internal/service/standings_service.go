package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/pugmatch/pugmatch-backend/internal/models"
)

// formLength is how many recent results a player's form retains.
const formLength = 5

// StandingsService derives per-player standings from a finished
// session's scores and folds historical sessions into per-game
// leaderboards.
type StandingsService struct {
	pugStore    PugStore
	ratingStore RatingStore
}

func NewStandingsService(pugStore PugStore, ratingStore RatingStore) *StandingsService {
	return &StandingsService{
		pugStore:    pugStore,
		ratingStore: ratingStore,
	}
}

// ComputeStandings assigns Standing and StandingPercent to every player
// of a finished session. Teams tied on score share a rank; when every
// team ties the result is a draw: rank 0 for everyone and a percentile
// of 0.5.
func (s *StandingsService) ComputeStandings(pug *models.Pug) error {
	scores := pug.Scores
	if len(scores) != pug.ExpectedScoreCount() {
		return ErrScoresMismatch
	}

	groupCount := len(scores)
	distinct := distinctScoresDesc(scores)
	allTied := groupCount > 1 && len(distinct) == 1

	rankByScore := make(map[int]int, len(distinct))
	for i, score := range distinct {
		rankByScore[score] = i + 1
	}

	for i := range pug.Players {
		player := &pug.Players[i]
		teamIdx := player.Team - 1
		if teamIdx < 0 || teamIdx >= groupCount {
			return ErrScoresMismatch
		}
		score := scores[teamIdx]

		rank := rankByScore[score]
		if allTied {
			rank = 0
		}
		player.Standing = fmt.Sprintf("%d/%d", rank, groupCount)
		player.StandingPercent = standingPercent(rank, groupCount, len(distinct), allTied)
	}

	return nil
}

// standingPercent is the normalized percentile: 1 for the winning
// group, 0 for the last. Undefined with a single group; 0.5 when every
// group ties (the division would otherwise hit a zero denominator).
func standingPercent(rank, groupCount, distinctCount int, allTied bool) *float64 {
	if groupCount == 1 {
		return nil
	}
	if allTied {
		half := 0.5
		return &half
	}
	percent := 1.0 - float64(rank-1)/float64(distinctCount-1)
	return &percent
}

func distinctScoresDesc(scores []int) []int {
	seen := make(map[int]bool, len(scores))
	distinct := make([]int, 0, len(scores))
	for _, score := range scores {
		if !seen[score] {
			seen[score] = true
			distinct = append(distinct, score)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(distinct)))
	return distinct
}

// Aggregate folds finished sessions into per-game leaderboard rows.
// ratings maps pug id to that session's rating records. Source
// sessions are never mutated.
func (s *StandingsService) Aggregate(pugs []*models.Pug, ratings map[string][]*models.Rating) map[string][]*models.LeaderboardRow {
	// Oldest first, so the last write per player is their current state.
	ordered := make([]*models.Pug, len(pugs))
	copy(ordered, pugs)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].FinishedAt, ordered[j].FinishedAt
		if ti == nil || tj == nil {
			return tj == nil
		}
		return ti.Before(*tj)
	})

	type acc struct {
		row          *models.LeaderboardRow
		percentSum   float64
		percentCount int
	}
	byGame := make(map[string]map[string]*acc)

	for _, pug := range ordered {
		if pug.State != models.PugStateFinished || pug.Canceled {
			continue
		}

		ratingByUser := make(map[string]*models.Rating)
		for _, r := range ratings[pug.ID] {
			ratingByUser[r.UserID] = r
		}

		players := byGame[pug.GameID]
		if players == nil {
			players = make(map[string]*acc)
			byGame[pug.GameID] = players
		}

		for i := range pug.Players {
			player := &pug.Players[i]
			a := players[player.UserID]
			if a == nil {
				a = &acc{row: &models.LeaderboardRow{
					UserID:      player.UserID,
					DisplayName: player.DisplayName,
					GameID:      pug.GameID,
					Rating:      models.DefaultRating(),
				}}
				players[player.UserID] = a
			}

			a.row.PugCount++
			if player.StandingPercent != nil {
				a.percentSum += *player.StandingPercent
				a.percentCount++
				a.row.AvgStandingPercent = a.percentSum / float64(a.percentCount)
			}

			entry := models.FormEntry{
				PugID:           pug.ID,
				Standing:        player.Standing,
				StandingPercent: player.StandingPercent,
			}
			if pug.FinishedAt != nil {
				entry.FinishedAt = *pug.FinishedAt
			}
			if r := ratingByUser[player.UserID]; r != nil {
				a.row.TotalMuDiff += r.RateDiff.Mu
				a.row.Rating = r.Rate
				entry.MuDiff = r.RateDiff.Mu
			}

			// Most recent first, capped
			a.row.Form = append([]models.FormEntry{entry}, a.row.Form...)
			if len(a.row.Form) > formLength {
				a.row.Form = a.row.Form[:formLength]
			}
		}
	}

	tables := make(map[string][]*models.LeaderboardRow, len(byGame))
	for gameID, players := range byGame {
		rows := make([]*models.LeaderboardRow, 0, len(players))
		for _, a := range players {
			rows = append(rows, a.row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Rating.Mu != rows[j].Rating.Mu {
				return rows[i].Rating.Mu > rows[j].Rating.Mu
			}
			return rows[i].UserID < rows[j].UserID
		})
		tables[gameID] = rows
	}
	return tables
}

// Leaderboard aggregates a game's finished sessions into ranked rows.
// Zero finishedAfter/finishedBefore bounds mean an open range.
func (s *StandingsService) Leaderboard(gameID string, finishedAfter, finishedBefore time.Time, limit int) ([]*models.LeaderboardRow, error) {
	pugs, err := s.pugStore.ListPugs(models.PugFilter{
		States:         []models.PugState{models.PugStateFinished},
		GameID:         gameID,
		FinishedAfter:  finishedAfter,
		FinishedBefore: finishedBefore,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list finished pugs: %w", err)
	}

	ratings := make(map[string][]*models.Rating, len(pugs))
	for _, pug := range pugs {
		rs, err := s.ratingStore.RatingsForPug(pug.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ratings for pug %s: %w", pug.ID, err)
		}
		ratings[pug.ID] = rs
	}

	rows := s.Aggregate(pugs, ratings)[gameID]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Form returns a player's recent results for a game, most recent first.
func (s *StandingsService) Form(userID, gameID string) ([]models.FormEntry, error) {
	pugs, err := s.pugStore.ListPugs(models.PugFilter{
		States: []models.PugState{models.PugStateFinished},
		GameID: gameID,
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list finished pugs: %w", err)
	}

	ratings := make(map[string][]*models.Rating, len(pugs))
	for _, pug := range pugs {
		rs, err := s.ratingStore.RatingsForPug(pug.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ratings for pug %s: %w", pug.ID, err)
		}
		ratings[pug.ID] = rs
	}

	for _, row := range s.Aggregate(pugs, ratings)[gameID] {
		if row.UserID == userID {
			return row.Form, nil
		}
	}
	return nil, nil
}
