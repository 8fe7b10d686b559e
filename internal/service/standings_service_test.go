package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/pugmatch/pugmatch-backend/internal/models"
)

func finishedPug(id, gameID string, scores []int, players ...models.PugPlayer) *models.Pug {
	finishedAt := time.Now()
	return &models.Pug{
		ID:     id,
		GameID: gameID,
		State:  models.PugStateFinished,
		Settings: models.PugSettings{
			MaxPlayers: len(players),
			TeamCount:  len(scores),
		},
		Scores:     scores,
		Players:    players,
		FinishedAt: &finishedAt,
	}
}

func TestStandingsService_ComputeStandings(t *testing.T) {
	standingsService := NewStandingsService(nil, nil)

	tests := []struct {
		name         string
		scores       []int
		teams        []int // one entry per player
		allVsAll     bool
		wantStanding []string
		wantPercent  []float64 // NaN means nil
	}{
		{
			name:         "two teams win and loss",
			scores:       []int{3, 1},
			teams:        []int{1, 1, 2, 2},
			wantStanding: []string{"1/2", "1/2", "2/2", "2/2"},
			wantPercent:  []float64{1.0, 1.0, 0.0, 0.0},
		},
		{
			name:         "three teams with a tie for first",
			scores:       []int{5, 5, 2},
			teams:        []int{1, 2, 3},
			wantStanding: []string{"1/3", "1/3", "2/3"},
			wantPercent:  []float64{1.0, 1.0, 0.0},
		},
		{
			name:         "all teams tied is a draw",
			scores:       []int{2, 2, 2},
			teams:        []int{1, 2, 3},
			wantStanding: []string{"0/3", "0/3", "0/3"},
			wantPercent:  []float64{0.5, 0.5, 0.5},
		},
		{
			name:         "all-vs-all per player scores",
			scores:       []int{10, 30, 20},
			teams:        []int{1, 2, 3},
			allVsAll:     true,
			wantStanding: []string{"3/3", "1/3", "2/3"},
			wantPercent:  []float64{0.0, 1.0, 0.5},
		},
		{
			name:         "solo session has no percentile",
			scores:       []int{7},
			teams:        []int{1},
			allVsAll:     true,
			wantStanding: []string{"1/1"},
			wantPercent:  []float64{math.NaN()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			players := make([]models.PugPlayer, len(tt.teams))
			for i, team := range tt.teams {
				players[i] = models.PugPlayer{UserID: string(rune('a' + i)), Team: team}
			}
			teamCount := len(tt.scores)
			if tt.allVsAll {
				teamCount = models.TeamCountAllVsAll
			}
			pug := &models.Pug{
				State: models.PugStateFinished,
				Settings: models.PugSettings{
					MaxPlayers: len(players),
					TeamCount:  teamCount,
				},
				Scores:  tt.scores,
				Players: players,
			}

			if err := standingsService.ComputeStandings(pug); err != nil {
				t.Fatalf("ComputeStandings() error = %v", err)
			}

			for i := range pug.Players {
				if pug.Players[i].Standing != tt.wantStanding[i] {
					t.Errorf("player %d standing = %q, want %q",
						i, pug.Players[i].Standing, tt.wantStanding[i])
				}
				percent := pug.Players[i].StandingPercent
				if math.IsNaN(tt.wantPercent[i]) {
					if percent != nil {
						t.Errorf("player %d percent = %v, want nil", i, *percent)
					}
					continue
				}
				if percent == nil {
					t.Errorf("player %d percent = nil, want %v", i, tt.wantPercent[i])
					continue
				}
				if math.Abs(*percent-tt.wantPercent[i]) > 1e-9 {
					t.Errorf("player %d percent = %v, want %v", i, *percent, tt.wantPercent[i])
				}
			}
		})
	}
}

func TestStandingsService_ComputeStandings_ScoresMismatch(t *testing.T) {
	standingsService := NewStandingsService(nil, nil)

	pug := &models.Pug{
		Settings: models.PugSettings{MaxPlayers: 4, TeamCount: 2},
		Scores:   []int{1, 2, 3},
		Players:  []models.PugPlayer{{UserID: "a", Team: 1}},
	}

	if err := standingsService.ComputeStandings(pug); !errors.Is(err, ErrScoresMismatch) {
		t.Errorf("ComputeStandings() error = %v, want ErrScoresMismatch", err)
	}
}

func TestStandingsService_Aggregate(t *testing.T) {
	standingsService := NewStandingsService(nil, nil)

	win, loss := 1.0, 0.0
	early := time.Now().Add(-2 * time.Hour)
	late := time.Now().Add(-1 * time.Hour)

	pugA := finishedPug("pug-a", "foosball", []int{10, 5},
		models.PugPlayer{UserID: "alice", Team: 1, Standing: "1/2", StandingPercent: &win},
		models.PugPlayer{UserID: "bob", Team: 2, Standing: "2/2", StandingPercent: &loss},
	)
	pugA.FinishedAt = &early

	pugB := finishedPug("pug-b", "foosball", []int{3, 8},
		models.PugPlayer{UserID: "alice", Team: 1, Standing: "2/2", StandingPercent: &loss},
		models.PugPlayer{UserID: "bob", Team: 2, Standing: "1/2", StandingPercent: &win},
	)
	pugB.FinishedAt = &late

	ratings := map[string][]*models.Rating{
		"pug-a": {
			{UserID: "alice", PugID: "pug-a", GameID: "foosball",
				Rate: models.RatingVector{Mu: 27, Sigma: 8}, RateDiff: models.RatingVector{Mu: 2}},
			{UserID: "bob", PugID: "pug-a", GameID: "foosball",
				Rate: models.RatingVector{Mu: 23, Sigma: 8}, RateDiff: models.RatingVector{Mu: -2}},
		},
		"pug-b": {
			{UserID: "alice", PugID: "pug-b", GameID: "foosball",
				Rate: models.RatingVector{Mu: 26, Sigma: 7}, RateDiff: models.RatingVector{Mu: -1}},
			{UserID: "bob", PugID: "pug-b", GameID: "foosball",
				Rate: models.RatingVector{Mu: 24, Sigma: 7}, RateDiff: models.RatingVector{Mu: 1}},
		},
	}

	// Deliberately out of order; Aggregate sorts by finish time.
	tables := standingsService.Aggregate([]*models.Pug{pugB, pugA}, ratings)

	rows := tables["foosball"]
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	// Sorted by current mu descending: alice (26) before bob (24).
	alice, bob := rows[0], rows[1]
	if alice.UserID != "alice" || bob.UserID != "bob" {
		t.Fatalf("row order = %s, %s; want alice, bob", rows[0].UserID, rows[1].UserID)
	}

	if alice.PugCount != 2 {
		t.Errorf("alice pug count = %d, want 2", alice.PugCount)
	}
	if alice.Rating.Mu != 26 {
		t.Errorf("alice rating mu = %v, want 26 (latest)", alice.Rating.Mu)
	}
	if math.Abs(alice.TotalMuDiff-1.0) > 1e-9 {
		t.Errorf("alice total mu diff = %v, want 1", alice.TotalMuDiff)
	}
	if math.Abs(alice.AvgStandingPercent-0.5) > 1e-9 {
		t.Errorf("alice avg standing percent = %v, want 0.5", alice.AvgStandingPercent)
	}

	// Form is most recent first.
	if len(alice.Form) != 2 {
		t.Fatalf("alice form length = %d, want 2", len(alice.Form))
	}
	if alice.Form[0].PugID != "pug-b" || alice.Form[1].PugID != "pug-a" {
		t.Errorf("alice form order = %s, %s; want pug-b, pug-a",
			alice.Form[0].PugID, alice.Form[1].PugID)
	}
	if alice.Form[0].MuDiff != -1 {
		t.Errorf("alice latest form mu diff = %v, want -1", alice.Form[0].MuDiff)
	}

	if bob.Rating.Mu != 24 {
		t.Errorf("bob rating mu = %v, want 24 (latest)", bob.Rating.Mu)
	}
}

func TestStandingsService_Aggregate_FormCapped(t *testing.T) {
	standingsService := NewStandingsService(nil, nil)

	win := 1.0
	var pugs []*models.Pug
	for i := 0; i < formLength+3; i++ {
		finishedAt := time.Now().Add(time.Duration(i) * time.Minute)
		pug := finishedPug(
			"pug-"+string(rune('a'+i)), "darts", []int{2, 0},
			models.PugPlayer{UserID: "alice", Team: 1, Standing: "1/2", StandingPercent: &win},
			models.PugPlayer{UserID: "bob", Team: 2, Standing: "2/2"},
		)
		pug.FinishedAt = &finishedAt
		pugs = append(pugs, pug)
	}

	rows := standingsService.Aggregate(pugs, nil)["darts"]
	for _, row := range rows {
		if len(row.Form) > formLength {
			t.Errorf("%s form length = %d, want at most %d",
				row.UserID, len(row.Form), formLength)
		}
	}

	var alice *models.LeaderboardRow
	for _, row := range rows {
		if row.UserID == "alice" {
			alice = row
		}
	}
	if alice == nil {
		t.Fatal("alice missing from leaderboard")
	}
	if alice.PugCount != formLength+3 {
		t.Errorf("alice pug count = %d, want %d", alice.PugCount, formLength+3)
	}
	// The newest session heads the form.
	if want := "pug-" + string(rune('a'+formLength+2)); alice.Form[0].PugID != want {
		t.Errorf("alice form head = %s, want %s", alice.Form[0].PugID, want)
	}
}

func TestStandingsService_Leaderboard(t *testing.T) {
	pugStore := newFakePugStore()
	ratingStore := &fakeRatingStore{}
	standingsService := NewStandingsService(pugStore, ratingStore)

	win, loss := 1.0, 0.0
	pug := finishedPug("", "foosball", []int{10, 5},
		models.PugPlayer{UserID: "alice", Team: 1, Standing: "1/2", StandingPercent: &win},
		models.PugPlayer{UserID: "bob", Team: 2, Standing: "2/2", StandingPercent: &loss},
	)
	created, err := pugStore.CreatePug(pug)
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range []*models.Rating{
		{UserID: "alice", PugID: created.ID, GameID: "foosball", Rate: models.RatingVector{Mu: 28}},
		{UserID: "bob", PugID: created.ID, GameID: "foosball", Rate: models.RatingVector{Mu: 22}},
	} {
		if err := ratingStore.StoreRating(r); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := standingsService.Leaderboard("foosball", time.Time{}, time.Time{}, 1)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (limit applied)", len(rows))
	}
	if rows[0].UserID != "alice" {
		t.Errorf("top row = %s, want alice", rows[0].UserID)
	}

	form, err := standingsService.Form("bob", "foosball")
	if err != nil {
		t.Fatalf("Form() error = %v", err)
	}
	if len(form) != 1 || form[0].Standing != "2/2" {
		t.Errorf("bob form = %+v, want one 2/2 entry", form)
	}
}

func TestStandingsService_Leaderboard_DateRange(t *testing.T) {
	pugStore := newFakePugStore()
	ratingStore := &fakeRatingStore{}
	standingsService := NewStandingsService(pugStore, ratingStore)

	win, loss := 1.0, 0.0
	lastWeek := time.Now().Add(-7 * 24 * time.Hour)
	yesterday := time.Now().Add(-24 * time.Hour)

	// bob won last week, alice yesterday.
	old := finishedPug("", "foosball", []int{2, 5},
		models.PugPlayer{UserID: "alice", Team: 1, Standing: "2/2", StandingPercent: &loss},
		models.PugPlayer{UserID: "bob", Team: 2, Standing: "1/2", StandingPercent: &win},
	)
	old.FinishedAt = &lastWeek
	recent := finishedPug("", "foosball", []int{5, 2},
		models.PugPlayer{UserID: "alice", Team: 1, Standing: "1/2", StandingPercent: &win},
		models.PugPlayer{UserID: "bob", Team: 2, Standing: "2/2", StandingPercent: &loss},
	)
	recent.FinishedAt = &yesterday

	for _, pug := range []*models.Pug{old, recent} {
		if _, err := pugStore.CreatePug(pug); err != nil {
			t.Fatal(err)
		}
	}

	// Whole history: both sessions counted.
	rows, err := standingsService.Leaderboard("foosball", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	for _, row := range rows {
		if row.PugCount != 2 {
			t.Errorf("%s pug count = %d, want 2 over the whole history", row.UserID, row.PugCount)
		}
	}

	// Bounded below: only the recent session counts.
	rows, err = standingsService.Leaderboard("foosball", time.Now().Add(-48*time.Hour), time.Time{}, 0)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	for _, row := range rows {
		if row.PugCount != 1 {
			t.Errorf("%s pug count = %d, want 1 with a lower bound", row.UserID, row.PugCount)
		}
		if row.UserID == "alice" && row.AvgStandingPercent != 1.0 {
			t.Errorf("alice avg percent = %v, want 1.0 from the recent win only", row.AvgStandingPercent)
		}
	}

	// Bounded above: only last week's session counts.
	rows, err = standingsService.Leaderboard("foosball", time.Time{}, time.Now().Add(-48*time.Hour), 0)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	for _, row := range rows {
		if row.PugCount != 1 {
			t.Errorf("%s pug count = %d, want 1 with an upper bound", row.UserID, row.PugCount)
		}
		if row.UserID == "bob" && row.AvgStandingPercent != 1.0 {
			t.Errorf("bob avg percent = %v, want 1.0 from the old win only", row.AvgStandingPercent)
		}
	}
}
