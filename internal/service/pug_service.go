package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/distributed"
	"github.com/pugmatch/pugmatch-backend/pkg/logger"
)

const (
	minTeamCount = 1
	maxTeamCount = 5

	sessionLockTTL           = 10 * time.Second
	sessionLockRetries       = 40
	sessionLockRetryInterval = 50 * time.Millisecond
)

// PugService is the lifecycle state machine for pick-up game sessions:
// waiting -> ready -> finished, with cancel as an orthogonal terminal
// flag reachable from waiting and ready.
//
// Every mutation is serialized per session id: an in-process keyed
// mutex always, plus a Redis lock when a lock manager is configured,
// so two concurrent joins can never both see the last free seat.
type PugService struct {
	pugStore  PugStore
	userStore UserStore
	gameStore GameStore

	slotService      *SlotService
	ratingService    *RatingService
	standingsService *StandingsService
	notifier         Notifier

	sessionMu  *distributed.KeyedMutex
	redisLocks *distributed.SessionLockManager // nil when Redis is not configured
}

func NewPugService(
	pugStore PugStore,
	userStore UserStore,
	gameStore GameStore,
	slotService *SlotService,
	ratingService *RatingService,
	standingsService *StandingsService,
	notifier Notifier,
) *PugService {
	return &PugService{
		pugStore:         pugStore,
		userStore:        userStore,
		gameStore:        gameStore,
		slotService:      slotService,
		ratingService:    ratingService,
		standingsService: standingsService,
		notifier:         notifier,
		sessionMu:        distributed.NewKeyedMutex(),
	}
}

// SetSessionLockManager enables cross-process session locks.
func (s *PugService) SetSessionLockManager(m *distributed.SessionLockManager) {
	s.redisLocks = m
}

// lockSession serializes a lifecycle mutation on one session. The
// returned unlock must be called exactly once.
func (s *PugService) lockSession(pugID string) (func(), error) {
	s.sessionMu.Lock(pugID)

	if s.redisLocks == nil {
		return func() { s.sessionMu.Unlock(pugID) }, nil
	}

	ctx := context.Background()
	lock, err := s.redisLocks.AcquireWithRetry(ctx, pugID, sessionLockTTL, sessionLockRetries, sessionLockRetryInterval)
	if err != nil {
		s.sessionMu.Unlock(pugID)
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}

	return func() {
		if err := lock.Release(ctx); err != nil {
			logger.Warn("Failed to release session lock", "pugId", pugID, "error", err)
		}
		s.sessionMu.Unlock(pugID)
	}, nil
}

type CreatePugParams struct {
	UserID         string
	GameID         string
	GameOtherTitle string
	Message        string
	Settings       models.PugSettings
	// ReadyPlayers are joined immediately after creation, capped at
	// MaxPlayers; extras are silently dropped.
	ReadyPlayers []string
}

// Create validates settings, persists a new waiting session, seeds any
// ready players and notifies watchers. With enough ready players the
// session comes back already ready.
func (s *PugService) Create(params CreatePugParams) (*models.Pug, error) {
	user, err := s.userStore.GetUser(params.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	game, err := s.resolveGame(params.GameID, params.GameOtherTitle)
	if err != nil {
		return nil, err
	}

	settings := params.Settings
	if settings.MaxPlayers <= 0 {
		return nil, ErrIllegalMaxPlayers
	}
	if game != nil && !game.AllowsPlayerCount(settings.MaxPlayers) {
		return nil, ErrIllegalMaxPlayers
	}
	if settings.TeamCount < minTeamCount || settings.TeamCount > maxTeamCount {
		return nil, ErrIllegalTeamCount
	}
	switch settings.TeamMode {
	case models.TeamModeAssigned, models.TeamModeRandom, models.TeamModeNone:
	default:
		return nil, ErrIllegalTeamMode
	}

	pug := &models.Pug{
		CreatedUserID:  params.UserID,
		GameID:         params.GameID,
		GameOtherTitle: params.GameOtherTitle,
		Message:        params.Message,
		State:          models.PugStateWaiting,
		Settings:       settings,
	}

	pug, err = s.pugStore.CreatePug(pug)
	if err != nil {
		return nil, fmt.Errorf("failed to create pug: %w", err)
	}

	logger.Info("Pug created",
		"pugId", pug.ID,
		"userId", params.UserID,
		"gameId", params.GameID,
		"maxPlayers", settings.MaxPlayers,
	)

	s.notifier.Notify(EventPugCreated, pugPayload(pug), nil)

	readyPlayers := params.ReadyPlayers
	if len(readyPlayers) > settings.MaxPlayers {
		readyPlayers = readyPlayers[:settings.MaxPlayers]
	}
	for _, userID := range readyPlayers {
		if _, err := s.AddPlayer(pug.ID, userID, nil); err != nil {
			// Seeding is best-effort; the session itself is committed.
			logger.Warn("Failed to seed ready player",
				"pugId", pug.ID, "userId", userID, "error", err)
		}
	}

	return s.pugStore.GetPug(pug.ID)
}

// resolveGame maps create input to a catalog game. A free-text title
// (or the literal "other" id) yields nil: valid but unrated.
func (s *PugService) resolveGame(gameID, otherTitle string) (*models.Game, error) {
	if gameID == "" && otherTitle == "" {
		return nil, ErrGameNotGiven
	}
	if gameID == "" || gameID == models.GameIDOther {
		return nil, nil
	}

	game, err := s.gameStore.GetGame(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// AddPlayer joins a user into a waiting session, assigning a slot under
// assigned team mode. Filling the last seat flips the session to ready
// in the same operation.
func (s *PugService) AddPlayer(pugID, userID string, requestedSlot *int) (*models.Pug, error) {
	unlock, err := s.lockSession(pugID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pug, err := s.loadWaiting(pugID)
	if err != nil {
		return nil, err
	}

	user, err := s.userStore.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// Joining twice is a no-op.
	if pug.Player(userID) != nil {
		return pug, nil
	}

	if !s.CanUserPlay(userID, user.Groups, pug) {
		return nil, ErrUserNotInvited
	}

	if pug.IsFull() {
		return nil, ErrSessionFull
	}

	slot := s.slotService.AssignSlot(pug, requestedSlot)
	if pug.Settings.TeamMode == models.TeamModeAssigned && slot == nil {
		return nil, ErrSlotIllegal
	}

	player := models.PugPlayer{
		UserID:      userID,
		DisplayName: user.DisplayName,
		Slot:        slot,
		JoinedAt:    time.Now(),
	}
	pug.Players = append(pug.Players, player)
	idx := len(pug.Players) - 1
	pug.Players[idx].Team = s.slotService.TeamForPlayer(pug, idx)

	if err := s.pugStore.AddPugPlayer(pugID, pug.Players[idx]); err != nil {
		return nil, fmt.Errorf("failed to add player: %w", err)
	}

	logger.Info("Player joined pug", "pugId", pugID, "userId", userID, "players", len(pug.Players))

	s.notifyMembers(pug, EventPlayerJoined, playerPayload(pug, userID))

	if pug.IsFull() {
		if err := s.markReady(pug); err != nil {
			return nil, err
		}
	}

	return pug, nil
}

// markReady freezes a full roster: random team mode deals slots first,
// then teams are derived and the state advances to ready.
func (s *PugService) markReady(pug *models.Pug) error {
	if pug.Settings.TeamMode == models.TeamModeRandom {
		pug.Players = s.slotService.AssignRandomTeams(pug.Players)
	}
	for i := range pug.Players {
		pug.Players[i].Team = s.slotService.TeamForPlayer(pug, i)
	}
	if err := s.pugStore.SavePugPlayers(pug.ID, pug.Players); err != nil {
		return fmt.Errorf("failed to save players: %w", err)
	}

	now := time.Now()
	pug.State = models.PugStateReady
	pug.ReadyAt = &now
	if err := s.pugStore.SavePug(pug); err != nil {
		return fmt.Errorf("failed to save pug: %w", err)
	}

	logger.Info("Pug ready", "pugId", pug.ID, "players", len(pug.Players))

	s.notifyMembers(pug, EventPugReady, pugPayload(pug))
	return nil
}

// RemovePlayer takes a user out of a waiting session. Removing a user
// who is not in the roster is an error, not a silent success.
func (s *PugService) RemovePlayer(pugID, userID string) (*models.Pug, error) {
	unlock, err := s.lockSession(pugID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pug, err := s.loadWaiting(pugID)
	if err != nil {
		return nil, err
	}

	if pug.Player(userID) == nil {
		return nil, ErrUserNotPlayer
	}

	if err := s.pugStore.RemovePugPlayer(pugID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove player: %w", err)
	}

	players := pug.Players[:0]
	for _, p := range pug.Players {
		if p.UserID != userID {
			players = append(players, p)
		}
	}
	pug.Players = players

	logger.Info("Player left pug", "pugId", pugID, "userId", userID)

	s.notifyMembers(pug, EventPlayerLeft, playerPayload(pug, userID))

	return pug, nil
}

// Finish records the outcome of a ready session. The state transition
// commits first; rating adjustment and standings are best-effort
// afterwards, so a failed rating run leaves a finished session with
// scores but no new ratings.
func (s *PugService) Finish(pugID, userID string, scores []int) (*models.Pug, error) {
	unlock, err := s.lockSession(pugID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pug, err := s.pugStore.GetPug(pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pug: %w", err)
	}
	if pug == nil {
		return nil, ErrSessionNotFound
	}
	if pug.Canceled {
		return nil, ErrSessionCanceled
	}
	if pug.State == models.PugStateFinished {
		return nil, ErrSessionFinished
	}
	if pug.State != models.PugStateReady {
		return nil, ErrSessionNotReady
	}

	if pug.CreatedUserID != userID && pug.Player(userID) == nil {
		return nil, ErrUserCannotFinish
	}

	if len(scores) != pug.ExpectedScoreCount() {
		return nil, ErrScoresMismatch
	}

	// Teams may still be unset for none-mode rosters; derive them now.
	for i := range pug.Players {
		if pug.Players[i].Team == 0 {
			pug.Players[i].Team = s.slotService.TeamForPlayer(pug, i)
		}
	}

	now := time.Now()
	pug.State = models.PugStateFinished
	pug.Scores = append([]int(nil), scores...)
	pug.FinishedUserID = &userID
	pug.FinishedAt = &now

	if err := s.pugStore.SavePug(pug); err != nil {
		return nil, fmt.Errorf("failed to save pug: %w", err)
	}
	if err := s.pugStore.SavePugPlayers(pug.ID, pug.Players); err != nil {
		return nil, fmt.Errorf("failed to save players: %w", err)
	}

	logger.Info("Pug finished", "pugId", pugID, "userId", userID, "scores", scores)

	var updates []RatingUpdate
	if updates, err = s.ratingService.Adjust(pug); err != nil {
		logger.Error("Rating adjustment failed", "pugId", pugID, "error", err)
	}

	if err := s.standingsService.ComputeStandings(pug); err != nil {
		logger.Error("Standings computation failed", "pugId", pugID, "error", err)
	} else if err := s.pugStore.SavePugPlayers(pug.ID, pug.Players); err != nil {
		logger.Error("Failed to save standings", "pugId", pugID, "error", err)
	}

	s.notifyMembers(pug, EventPugFinished, finishedPayload(pug, updates))

	return pug, nil
}

// Cancel terminates a waiting or ready session. userID nil means a
// system-initiated cancel (timeout sweep); otherwise only the creator
// may cancel.
func (s *PugService) Cancel(pugID string, userID *string, message string) (*models.Pug, error) {
	unlock, err := s.lockSession(pugID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pug, err := s.pugStore.GetPug(pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pug: %w", err)
	}
	if pug == nil {
		return nil, ErrSessionNotFound
	}
	if pug.Canceled {
		return nil, ErrSessionCanceled
	}
	if pug.State == models.PugStateFinished {
		return nil, ErrSessionFinished
	}
	if userID != nil && *userID != pug.CreatedUserID {
		return nil, ErrUserNotCreator
	}

	now := time.Now()
	pug.Canceled = true
	pug.CanceledBy = userID
	pug.CanceledMessage = message
	pug.CanceledAt = &now

	if err := s.pugStore.SavePug(pug); err != nil {
		return nil, fmt.Errorf("failed to save pug: %w", err)
	}

	by := "system"
	if userID != nil {
		by = *userID
	}
	logger.Info("Pug canceled", "pugId", pugID, "by", by, "message", message)

	s.notifyMembers(pug, EventPugCanceled, pugPayload(pug))

	return pug, nil
}

// Invite replaces the session's invite list. The notification carries
// the prior list so recipients can detect newly granted access.
func (s *PugService) Invite(pugID, userID string, invites []string) (*models.Pug, error) {
	unlock, err := s.lockSession(pugID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pug, err := s.loadWaiting(pugID)
	if err != nil {
		return nil, err
	}
	if pug.CreatedUserID != userID {
		return nil, ErrUserNotCreator
	}

	prior := pug.Settings.Invites
	pug.Settings.Invites = append([]string(nil), invites...)

	if err := s.pugStore.SavePug(pug); err != nil {
		return nil, fmt.Errorf("failed to save pug: %w", err)
	}

	logger.Info("Pug invites updated", "pugId", pugID, "invites", len(invites))

	s.notifier.Notify(EventPugInvited, invitePayload(pug, prior), nil)

	return pug, nil
}

// CanUserPlay reports whether a user may join: open session, creator,
// invited directly or via group, or already in the roster.
func (s *PugService) CanUserPlay(userID string, userGroups []string, pug *models.Pug) bool {
	if len(pug.Settings.Invites) == 0 {
		return true
	}
	if pug.CreatedUserID == userID {
		return true
	}
	if pug.Player(userID) != nil {
		return true
	}

	groups := make(map[string]bool, len(userGroups))
	for _, g := range userGroups {
		groups[g] = true
	}
	for _, invite := range pug.Settings.Invites {
		if invite == userID || groups[invite] {
			return true
		}
	}
	return false
}

// GetPug loads a single session.
func (s *PugService) GetPug(pugID string) (*models.Pug, error) {
	pug, err := s.pugStore.GetPug(pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pug: %w", err)
	}
	if pug == nil {
		return nil, ErrSessionNotFound
	}
	return pug, nil
}

// ListPugs loads sessions matching the filter.
func (s *PugService) ListPugs(filter models.PugFilter) ([]*models.Pug, error) {
	pugs, err := s.pugStore.ListPugs(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pugs: %w", err)
	}
	return pugs, nil
}

// AttachForm decorates the roster with each player's recent results
// for the session's game. Best-effort read-side enrichment.
func (s *PugService) AttachForm(pug *models.Pug) {
	if pug.GameID == "" || pug.GameID == models.GameIDOther {
		return
	}
	for i := range pug.Players {
		form, err := s.standingsService.Form(pug.Players[i].UserID, pug.GameID)
		if err != nil {
			logger.Warn("Failed to load player form",
				"pugId", pug.ID, "userId", pug.Players[i].UserID, "error", err)
			continue
		}
		pug.Players[i].Form = form
	}
}

// loadWaiting loads a session and checks it accepts roster mutations.
func (s *PugService) loadWaiting(pugID string) (*models.Pug, error) {
	pug, err := s.pugStore.GetPug(pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pug: %w", err)
	}
	if pug == nil {
		return nil, ErrSessionNotFound
	}
	if pug.Canceled {
		return nil, ErrSessionCanceled
	}
	if pug.State != models.PugStateWaiting {
		return nil, ErrSessionNotWaiting
	}
	return pug, nil
}

// notifyMembers fans an event out to the roster and the creator.
// Delivery is fire-and-forget.
func (s *PugService) notifyMembers(pug *models.Pug, event string, payload interface{}) {
	seen := map[string]bool{pug.CreatedUserID: true}
	recipients := []string{pug.CreatedUserID}
	for _, p := range pug.Players {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			recipients = append(recipients, p.UserID)
		}
	}
	s.notifier.Notify(event, payload, recipients)
}

func pugPayload(pug *models.Pug) map[string]interface{} {
	return map[string]interface{}{"pug": pug}
}

func playerPayload(pug *models.Pug, userID string) map[string]interface{} {
	return map[string]interface{}{"pug": pug, "userId": userID}
}

func finishedPayload(pug *models.Pug, updates []RatingUpdate) map[string]interface{} {
	return map[string]interface{}{"pug": pug, "ratingUpdates": updates}
}

func invitePayload(pug *models.Pug, priorInvites []string) map[string]interface{} {
	return map[string]interface{}{"pug": pug, "priorInvites": priorInvites}
}
