package models

import "time"

type PugState string

const (
	PugStateWaiting  PugState = "waiting"
	PugStateReady    PugState = "ready"
	PugStateFinished PugState = "finished"
)

type TeamMode string

const (
	TeamModeAssigned TeamMode = "assigned"
	TeamModeRandom   TeamMode = "random"
	TeamModeNone     TeamMode = "none"
)

// TeamCountAllVsAll means every player forms their own team (free-for-all);
// scores are then per player instead of per team.
const TeamCountAllVsAll = 1

type PugSettings struct {
	MaxPlayers int      `json:"maxPlayers" db:"max_players"`
	TeamCount  int      `json:"teamCount" db:"team_count"`
	TeamMode   TeamMode `json:"teamMode" db:"team_mode"`
	// Invites holds user ids and/or group names. Empty means open to all.
	Invites []string `json:"invites" db:"invites"`
}

type FormEntry struct {
	PugID           string    `json:"pugId"`
	Standing        string    `json:"standing"`
	StandingPercent *float64  `json:"standingPercent,omitempty"`
	MuDiff          float64   `json:"muDiff"`
	FinishedAt      time.Time `json:"finishedAt"`
}

type PugPlayer struct {
	UserID      string `json:"userId" db:"user_id"`
	DisplayName string `json:"displayName" db:"display_name"`
	// Slot is 1..MaxPlayers under assigned/random team mode, nil otherwise.
	Slot *int `json:"slot,omitempty" db:"slot"`
	// Team is derived from Slot (or join order), 1..TeamCount.
	Team            int         `json:"team" db:"team"`
	Standing        string      `json:"standing,omitempty" db:"standing"`
	StandingPercent *float64    `json:"standingPercent,omitempty" db:"standing_percent"`
	Form            []FormEntry `json:"form,omitempty" db:"-"`
	JoinedAt        time.Time   `json:"joinedAt" db:"joined_at"`
}

type Pug struct {
	ID             string      `json:"id" db:"id"`
	CreatedUserID  string      `json:"createdUserId" db:"created_user_id"`
	GameID         string      `json:"gameId" db:"game_id"`
	GameOtherTitle string      `json:"gameOtherTitle,omitempty" db:"game_other_title"`
	Message        string      `json:"message" db:"message"`
	State          PugState    `json:"state" db:"state"`
	Canceled       bool        `json:"canceled" db:"canceled"`
	CanceledBy     *string     `json:"canceledBy,omitempty" db:"canceled_by"`
	CanceledMessage string     `json:"canceledMessage,omitempty" db:"canceled_message"`
	Settings       PugSettings `json:"settings"`
	// Scores is one integer per team (per player when all-vs-all),
	// present only once finished.
	Scores         []int       `json:"scores,omitempty" db:"scores"`
	Players        []PugPlayer `json:"players"`
	FinishedUserID *string     `json:"finishedUserId,omitempty" db:"finished_user_id"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
	ReadyAt        *time.Time  `json:"readyAt,omitempty" db:"ready_at"`
	FinishedAt     *time.Time  `json:"finishedAt,omitempty" db:"finished_at"`
	CanceledAt     *time.Time  `json:"canceledAt,omitempty" db:"canceled_at"`
}

// IsAllVsAll reports whether every player forms their own team.
func (p *Pug) IsAllVsAll() bool {
	return p.Settings.TeamCount == TeamCountAllVsAll
}

// ExpectedScoreCount is the number of score entries finish must provide.
func (p *Pug) ExpectedScoreCount() int {
	if p.IsAllVsAll() {
		return p.Settings.MaxPlayers
	}
	return p.Settings.TeamCount
}

// IsFull reports whether the roster has reached MaxPlayers.
func (p *Pug) IsFull() bool {
	return len(p.Players) >= p.Settings.MaxPlayers
}

// Player returns the roster entry for userID, or nil.
func (p *Pug) Player(userID string) *PugPlayer {
	for i := range p.Players {
		if p.Players[i].UserID == userID {
			return &p.Players[i]
		}
	}
	return nil
}

// OccupiedSlots returns the set of slots currently taken.
func (p *Pug) OccupiedSlots() map[int]bool {
	occupied := make(map[int]bool, len(p.Players))
	for i := range p.Players {
		if p.Players[i].Slot != nil {
			occupied[*p.Players[i].Slot] = true
		}
	}
	return occupied
}

// Teams groups the roster by team number, ordered by team. When all-vs-all,
// each player is their own team in join order.
func (p *Pug) Teams() [][]PugPlayer {
	if p.IsAllVsAll() {
		teams := make([][]PugPlayer, 0, len(p.Players))
		for _, player := range p.Players {
			teams = append(teams, []PugPlayer{player})
		}
		return teams
	}

	teams := make([][]PugPlayer, p.Settings.TeamCount)
	for _, player := range p.Players {
		team := player.Team
		if team < 1 || team > p.Settings.TeamCount {
			continue
		}
		teams[team-1] = append(teams[team-1], player)
	}
	return teams
}

// PlayerUserIDs returns the roster's user ids in join order.
func (p *Pug) PlayerUserIDs() []string {
	ids := make([]string, len(p.Players))
	for i := range p.Players {
		ids[i] = p.Players[i].UserID
	}
	return ids
}
