package service

import (
	"fmt"

	"github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/logger"
)

// RatingService converts a finished session's per-team scores into new
// skill ratings via the openskill (TrueSkill-style) algorithm. One
// immutable rating record is appended per player; existing records are
// never touched.
type RatingService struct {
	ratingStore RatingStore
	gameStore   GameStore
}

func NewRatingService(ratingStore RatingStore, gameStore GameStore) *RatingService {
	return &RatingService{
		ratingStore: ratingStore,
		gameStore:   gameStore,
	}
}

// RatingUpdate is one player's new rating and its signed delta.
type RatingUpdate struct {
	UserID   string              `json:"userId"`
	Rate     models.RatingVector `json:"rate"`
	RateDiff models.RatingVector `json:"rateDiff"`
}

// Adjust runs the rating algorithm over the session's team rosters and
// persists one rating record per player. It is a no-op for sessions
// with at most one player and for games without a rating type.
func (s *RatingService) Adjust(pug *models.Pug) ([]RatingUpdate, error) {
	if len(pug.Players) <= 1 {
		return nil, nil
	}

	rated, err := s.isRatedGame(pug.GameID)
	if err != nil {
		return nil, err
	}
	if !rated {
		return nil, nil
	}

	teams := pug.Teams()
	if len(teams) != len(pug.Scores) {
		return nil, &PugError{KindRatingError,
			fmt.Sprintf("cannot rate: %d teams but %d scores", len(teams), len(pug.Scores))}
	}
	for i, team := range teams {
		if len(team) == 0 {
			return nil, &PugError{KindRatingError,
				fmt.Sprintf("cannot rate: team %d has no players", i+1)}
		}
	}

	current, err := s.ratingStore.LatestRatings(pug.PlayerUserIDs(), pug.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest ratings: %w", err)
	}

	osTeams := make([]types.Team, len(teams))
	for i, team := range teams {
		osTeam := make(types.Team, len(team))
		for j, player := range team {
			vec, ok := current[player.UserID]
			if !ok {
				vec = models.DefaultRating()
			}
			osTeam[j] = types.Rating{Mu: vec.Mu, Sigma: vec.Sigma}
		}
		osTeams[i] = osTeam
	}

	// Rank for the algorithm is 100 - score: higher score wins.
	ranks := make([]int, len(pug.Scores))
	for i, score := range pug.Scores {
		ranks[i] = 100 - score
	}

	adjusted := rating.Rate(osTeams, &types.OpenSkillOptions{Rank: ranks})
	if len(adjusted) != len(teams) {
		return nil, &PugError{KindRatingError, "rating algorithm returned unexpected team count"}
	}

	updates := make([]RatingUpdate, 0, len(pug.Players))
	for i, team := range teams {
		for j, player := range team {
			old, ok := current[player.UserID]
			if !ok {
				old = models.DefaultRating()
			}
			next := models.RatingVector{Mu: adjusted[i][j].Mu, Sigma: adjusted[i][j].Sigma}

			update := RatingUpdate{
				UserID:   player.UserID,
				Rate:     next,
				RateDiff: next.Sub(old),
			}
			updates = append(updates, update)

			if err := s.ratingStore.StoreRating(&models.Rating{
				UserID:   player.UserID,
				PugID:    pug.ID,
				GameID:   pug.GameID,
				Rate:     update.Rate,
				RateDiff: update.RateDiff,
			}); err != nil {
				return nil, fmt.Errorf("failed to store rating for user %s: %w", player.UserID, err)
			}

			logger.Debug("Rating adjusted",
				"pugId", pug.ID,
				"userId", player.UserID,
				"mu", next.Mu,
				"muDiff", update.RateDiff.Mu,
			)
		}
	}

	return updates, nil
}

// isRatedGame reports whether the session's game keeps skill ratings.
// Free-text "other" games never do.
func (s *RatingService) isRatedGame(gameID string) (bool, error) {
	if gameID == "" || gameID == models.GameIDOther {
		return false, nil
	}
	game, err := s.gameStore.GetGame(gameID)
	if err != nil {
		return false, fmt.Errorf("failed to load game: %w", err)
	}
	if game == nil {
		return false, nil
	}
	return game.RatingType != models.RatingTypeNone, nil
}
