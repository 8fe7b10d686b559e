package service

import (
	"math"
	"math/rand"
	"time"

	"github.com/pugmatch/pugmatch-backend/internal/models"
)

// SlotService assigns and validates player slot numbers and derives
// team membership from them. All methods are pure except
// AssignRandomTeams, which draws from the service's rand source.
type SlotService struct {
	rng *rand.Rand
}

func NewSlotService() *SlotService {
	return &SlotService{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSlotServiceWithSeed builds a deterministic service for tests.
func NewSlotServiceWithSeed(seed int64) *SlotService {
	return &SlotService{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// AssignSlot picks the slot for a joining player. A requested slot in
// range and unoccupied wins; otherwise the lowest free slot is used.
// Returns nil when the session is full, or when the team mode does not
// use slots at all.
func (s *SlotService) AssignSlot(pug *models.Pug, requested *int) *int {
	if pug.Settings.TeamMode != models.TeamModeAssigned {
		return nil
	}

	occupied := pug.OccupiedSlots()
	maxPlayers := pug.Settings.MaxPlayers

	if requested != nil && *requested >= 1 && *requested <= maxPlayers && !occupied[*requested] {
		slot := *requested
		return &slot
	}

	for slot := 1; slot <= maxPlayers; slot++ {
		if !occupied[slot] {
			s := slot
			return &s
		}
	}

	return nil
}

// TeamOf maps a slot to its team: ceil(slot / (maxPlayers / teamCount)).
func (s *SlotService) TeamOf(slot, maxPlayers, teamCount int) int {
	if teamCount <= 0 || maxPlayers <= 0 {
		return 0
	}
	return int(math.Ceil(float64(slot) / (float64(maxPlayers) / float64(teamCount))))
}

// TeamForPlayer derives the team of the player at index, falling back
// to join order when the player has no slot. Returns the player's own
// index-based team when the session is all-vs-all.
func (s *SlotService) TeamForPlayer(pug *models.Pug, index int) int {
	if pug.IsAllVsAll() {
		return index + 1
	}

	position := index + 1
	if pug.Players[index].Slot != nil {
		position = *pug.Players[index].Slot
	}
	return s.TeamOf(position, pug.Settings.MaxPlayers, pug.Settings.TeamCount)
}

// AssignRandomTeams deals a uniform random permutation of slots
// 1..len(players) via Fisher-Yates. Called once, at the waiting->ready
// transition of a random team mode session.
func (s *SlotService) AssignRandomTeams(players []models.PugPlayer) []models.PugPlayer {
	n := len(players)
	slots := make([]int, n)
	for i := range slots {
		slots[i] = i + 1
	}
	for i := n - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		slots[i], slots[j] = slots[j], slots[i]
	}

	assigned := make([]models.PugPlayer, n)
	copy(assigned, players)
	for i := range assigned {
		slot := slots[i]
		assigned[i].Slot = &slot
	}
	return assigned
}
