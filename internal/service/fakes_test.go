package service

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

// clonePug deep-copies the fields lifecycle operations mutate, so the
// fake store behaves like a real database round-trip.
func clonePug(pug *models.Pug) *models.Pug {
	clone := *pug
	clone.Players = append([]models.PugPlayer(nil), pug.Players...)
	clone.Scores = append([]int(nil), pug.Scores...)
	clone.Settings.Invites = append([]string(nil), pug.Settings.Invites...)
	return &clone
}

type fakePugStore struct {
	mu     sync.Mutex
	pugs   map[string]*models.Pug
	nextID int
}

func newFakePugStore() *fakePugStore {
	return &fakePugStore{pugs: make(map[string]*models.Pug)}
}

func (f *fakePugStore) GetPug(id string) (*models.Pug, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pug, ok := f.pugs[id]
	if !ok {
		return nil, nil
	}
	return clonePug(pug), nil
}

func (f *fakePugStore) ListPugs(filter models.PugFilter) ([]*models.Pug, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Pug
	for _, pug := range f.pugs {
		if pug.Canceled && !filter.IncludeCanceled {
			continue
		}
		if len(filter.States) > 0 {
			match := false
			for _, state := range filter.States {
				if pug.State == state {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if filter.GameID != "" && pug.GameID != filter.GameID {
			continue
		}
		if filter.UserID != "" && pug.Player(filter.UserID) == nil {
			continue
		}
		if !filter.FinishedAfter.IsZero() &&
			(pug.FinishedAt == nil || pug.FinishedAt.Before(filter.FinishedAfter)) {
			continue
		}
		if !filter.FinishedBefore.IsZero() &&
			(pug.FinishedAt == nil || pug.FinishedAt.After(filter.FinishedBefore)) {
			continue
		}
		out = append(out, clonePug(pug))
	}
	return out, nil
}

func (f *fakePugStore) CreatePug(pug *models.Pug) (*models.Pug, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	stored := clonePug(pug)
	stored.ID = fmt.Sprintf("pug-%d", f.nextID)
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	f.pugs[stored.ID] = stored
	return clonePug(stored), nil
}

func (f *fakePugStore) SavePug(pug *models.Pug) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.pugs[pug.ID]
	if !ok {
		return fmt.Errorf("pug %s not found", pug.ID)
	}
	next := clonePug(pug)
	next.Players = append([]models.PugPlayer(nil), stored.Players...)
	next.UpdatedAt = time.Now()
	f.pugs[pug.ID] = next
	return nil
}

func (f *fakePugStore) AddPugPlayer(pugID string, player models.PugPlayer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pug, ok := f.pugs[pugID]
	if !ok {
		return fmt.Errorf("pug %s not found", pugID)
	}
	pug.Players = append(pug.Players, player)
	pug.UpdatedAt = time.Now()
	return nil
}

func (f *fakePugStore) RemovePugPlayer(pugID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pug, ok := f.pugs[pugID]
	if !ok {
		return fmt.Errorf("pug %s not found", pugID)
	}
	players := pug.Players[:0]
	for _, p := range pug.Players {
		if p.UserID != userID {
			players = append(players, p)
		}
	}
	pug.Players = players
	pug.UpdatedAt = time.Now()
	return nil
}

func (f *fakePugStore) SavePugPlayers(pugID string, players []models.PugPlayer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pug, ok := f.pugs[pugID]
	if !ok {
		return fmt.Errorf("pug %s not found", pugID)
	}
	pug.Players = append([]models.PugPlayer(nil), players...)
	pug.UpdatedAt = time.Now()
	return nil
}

// touch backdates a stored pug, for sweep tests.
func (f *fakePugStore) touch(pugID string, updatedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pug, ok := f.pugs[pugID]; ok {
		pug.UpdatedAt = updatedAt
	}
}

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore(ids ...string) *fakeUserStore {
	users := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		users[id] = &models.User{ID: id, Username: id, DisplayName: id}
	}
	return &fakeUserStore{users: users}
}

func (f *fakeUserStore) GetUser(id string) (*models.User, error) {
	return f.users[id], nil
}

type fakeGameStore struct {
	games map[string]*models.Game
}

func newFakeGameStore(games ...*models.Game) *fakeGameStore {
	byID := make(map[string]*models.Game, len(games))
	for _, game := range games {
		byID[game.ID] = game
	}
	return &fakeGameStore{games: byID}
}

func (f *fakeGameStore) GetGame(id string) (*models.Game, error) {
	return f.games[id], nil
}

func (f *fakeGameStore) ListGames() ([]*models.Game, error) {
	out := make([]*models.Game, 0, len(f.games))
	for _, game := range f.games {
		out = append(out, game)
	}
	return out, nil
}

type fakeRatingStore struct {
	mu      sync.Mutex
	records []*models.Rating
}

func (f *fakeRatingStore) LatestRatings(userIDs []string, gameID string) (map[string]models.RatingVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	latest := make(map[string]models.RatingVector)
	for _, r := range f.records {
		if r.GameID == gameID && wanted[r.UserID] {
			latest[r.UserID] = r.Rate
		}
	}
	return latest, nil
}

func (f *fakeRatingStore) RatingsForPug(pugID string) ([]*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Rating
	for _, r := range f.records {
		if r.PugID == pugID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRatingStore) StoreRating(rating *models.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rating)
	return nil
}

type notification struct {
	event   string
	userIDs []string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (f *fakeNotifier) Notify(event string, payload interface{}, userIDs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notification{event: event, userIDs: userIDs})
}

func (f *fakeNotifier) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.event == event {
			n++
		}
	}
	return n
}
