package service

import (
	"errors"
	"math"
	"testing"

	"github.com/pugmatch/pugmatch-backend/internal/models"
)

func ratedGameStore() *fakeGameStore {
	return newFakeGameStore(&models.Game{
		ID:         "foosball",
		Name:       "Foosball",
		RatingType: models.RatingTypeTrueSkill,
	}, &models.Game{
		ID:   "chess-casual",
		Name: "Casual Chess",
		// RatingType zero value: game keeps no ratings.
	})
}

func ratedPug(gameID string, scores []int, teams ...int) *models.Pug {
	pug := &models.Pug{
		ID:     "pug-1",
		GameID: gameID,
		State:  models.PugStateFinished,
		Settings: models.PugSettings{
			MaxPlayers: len(teams),
			TeamCount:  len(scores),
		},
		Scores: scores,
	}
	for i, team := range teams {
		pug.Players = append(pug.Players, models.PugPlayer{
			UserID: string(rune('a' + i)),
			Team:   team,
		})
	}
	return pug
}

func TestRatingService_Adjust_WinnerGainsLoserLoses(t *testing.T) {
	ratingStore := &fakeRatingStore{}
	ratingService := NewRatingService(ratingStore, ratedGameStore())

	pug := ratedPug("foosball", []int{10, 5}, 1, 1, 2, 2)

	updates, err := ratingService.Adjust(pug)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}
	if len(updates) != 4 {
		t.Fatalf("got %d updates, want 4", len(updates))
	}

	byUser := make(map[string]RatingUpdate)
	for _, u := range updates {
		byUser[u.UserID] = u
	}

	for _, winner := range []string{"a", "b"} {
		u := byUser[winner]
		if u.RateDiff.Mu <= 0 {
			t.Errorf("winner %s mu diff = %v, want > 0", winner, u.RateDiff.Mu)
		}
		if u.Rate.Mu <= models.DefaultRatingMu {
			t.Errorf("winner %s mu = %v, want > default", winner, u.Rate.Mu)
		}
	}
	for _, loser := range []string{"c", "d"} {
		u := byUser[loser]
		if u.RateDiff.Mu >= 0 {
			t.Errorf("loser %s mu diff = %v, want < 0", loser, u.RateDiff.Mu)
		}
	}

	// One immutable record per player.
	records, err := ratingStore.RatingsForPug("pug-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Errorf("stored %d rating records, want 4", len(records))
	}
}

func TestRatingService_Adjust_DrawIsSymmetric(t *testing.T) {
	ratingStore := &fakeRatingStore{}
	ratingService := NewRatingService(ratingStore, ratedGameStore())

	pug := ratedPug("foosball", []int{5, 5}, 1, 2)

	updates, err := ratingService.Adjust(pug)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}

	// Equal prior ratings plus a draw leaves both players level.
	if math.Abs(updates[0].Rate.Mu-updates[1].Rate.Mu) > 1e-9 {
		t.Errorf("draw mu = %v vs %v, want equal",
			updates[0].Rate.Mu, updates[1].Rate.Mu)
	}
}

func TestRatingService_Adjust_UsesPriorRatings(t *testing.T) {
	ratingStore := &fakeRatingStore{}
	ratingService := NewRatingService(ratingStore, ratedGameStore())

	// Player a already has history well above the default.
	if err := ratingStore.StoreRating(&models.Rating{
		UserID: "a",
		PugID:  "pug-0",
		GameID: "foosball",
		Rate:   models.RatingVector{Mu: 40, Sigma: 4},
	}); err != nil {
		t.Fatal(err)
	}

	pug := ratedPug("foosball", []int{10, 5}, 1, 2)

	updates, err := ratingService.Adjust(pug)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}

	byUser := make(map[string]RatingUpdate)
	for _, u := range updates {
		byUser[u.UserID] = u
	}

	if byUser["a"].Rate.Mu <= 40 {
		t.Errorf("a mu = %v, want growth from prior 40", byUser["a"].Rate.Mu)
	}
}

func TestRatingService_Adjust_NoOps(t *testing.T) {
	tests := []struct {
		name string
		pug  *models.Pug
	}{
		{
			name: "single player session",
			pug:  ratedPug("foosball", []int{1}, 1),
		},
		{
			name: "free-text game keeps no ratings",
			pug:  ratedPug(models.GameIDOther, []int{10, 5}, 1, 2),
		},
		{
			name: "unrated catalog game",
			pug:  ratedPug("chess-casual", []int{10, 5}, 1, 2),
		},
		{
			name: "unknown game",
			pug:  ratedPug("ping-pong", []int{10, 5}, 1, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratingStore := &fakeRatingStore{}
			ratingService := NewRatingService(ratingStore, ratedGameStore())

			updates, err := ratingService.Adjust(tt.pug)
			if err != nil {
				t.Fatalf("Adjust() error = %v", err)
			}
			if updates != nil {
				t.Errorf("got %d updates, want none", len(updates))
			}
			if len(ratingStore.records) != 0 {
				t.Errorf("stored %d records, want none", len(ratingStore.records))
			}
		})
	}
}

func TestRatingService_Adjust_ShapeErrors(t *testing.T) {
	emptyTeam := ratedPug("foosball", []int{10, 5}, 1, 1)
	mismatch := ratedPug("foosball", []int{10, 5}, 1, 2)
	mismatch.Scores = []int{10, 5, 3}

	tests := []struct {
		name string
		pug  *models.Pug
	}{
		{"team without players", emptyTeam},
		{"scores and teams disagree", mismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratingService := NewRatingService(&fakeRatingStore{}, ratedGameStore())

			_, err := ratingService.Adjust(tt.pug)
			if !errors.Is(err, ErrRatingError) {
				t.Errorf("Adjust() error = %v, want rating error kind", err)
			}
		})
	}
}
