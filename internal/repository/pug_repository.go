package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/database"
)

type PugRepository struct {
	db *database.DB
}

func NewPugRepository(db *database.DB) *PugRepository {
	return &PugRepository{db: db}
}

const pugColumns = `
	id, created_user_id, game_id, game_other_title, message, state,
	canceled, canceled_by, canceled_message,
	max_players, team_count, team_mode, invites, scores,
	finished_user_id, created_at, updated_at, ready_at, finished_at, canceled_at
`

// CreatePug inserts a new waiting session with an empty roster.
func (r *PugRepository) CreatePug(pug *models.Pug) (*models.Pug, error) {
	query := `
		INSERT INTO pugs (created_user_id, game_id, game_other_title, message, state,
		                  max_players, team_count, team_mode, invites)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + pugColumns

	row := r.db.QueryRow(query,
		pug.CreatedUserID,
		pug.GameID,
		pug.GameOtherTitle,
		pug.Message,
		pug.State,
		pug.Settings.MaxPlayers,
		pug.Settings.TeamCount,
		pug.Settings.TeamMode,
		pq.Array(pug.Settings.Invites),
	)

	created, err := scanPug(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create pug: %w", err)
	}

	return created, nil
}

// GetPug loads a session with its roster, or (nil, nil) when absent.
func (r *PugRepository) GetPug(id string) (*models.Pug, error) {
	query := `SELECT ` + pugColumns + ` FROM pugs WHERE id = $1`

	pug, err := scanPug(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pug: %w", err)
	}

	if err := r.loadPlayers(pug); err != nil {
		return nil, err
	}

	return pug, nil
}

// ListPugs loads sessions matching the filter, newest first. Canceled
// sessions are excluded unless the filter asks for them.
func (r *PugRepository) ListPugs(filter models.PugFilter) ([]*models.Pug, error) {
	var conditions []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeCanceled {
		conditions = append(conditions, "canceled = FALSE")
	}
	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, s := range filter.States {
			states[i] = string(s)
		}
		conditions = append(conditions, "state = ANY("+arg(pq.Array(states))+")")
	}
	if filter.GameID != "" {
		conditions = append(conditions, "game_id = "+arg(filter.GameID))
	}
	if filter.UserID != "" {
		conditions = append(conditions,
			"id IN (SELECT pug_id FROM pug_players WHERE user_id = "+arg(filter.UserID)+")")
	}
	if !filter.UpdatedSince.IsZero() {
		conditions = append(conditions, "updated_at >= "+arg(filter.UpdatedSince))
	}
	if !filter.FinishedAfter.IsZero() {
		conditions = append(conditions, "finished_at >= "+arg(filter.FinishedAfter))
	}
	if !filter.FinishedBefore.IsZero() {
		conditions = append(conditions, "finished_at <= "+arg(filter.FinishedBefore))
	}

	query := `SELECT ` + pugColumns + ` FROM pugs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pugs: %w", err)
	}
	defer rows.Close()

	var pugs []*models.Pug
	for rows.Next() {
		pug, err := scanPug(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pug: %w", err)
		}
		pugs = append(pugs, pug)
	}

	for _, pug := range pugs {
		if err := r.loadPlayers(pug); err != nil {
			return nil, err
		}
	}

	return pugs, nil
}

// SavePug updates the session row. The roster is saved separately.
func (r *PugRepository) SavePug(pug *models.Pug) error {
	query := `
		UPDATE pugs
		SET message = $1,
		    state = $2,
		    canceled = $3,
		    canceled_by = $4,
		    canceled_message = $5,
		    invites = $6,
		    scores = $7,
		    finished_user_id = $8,
		    ready_at = $9,
		    finished_at = $10,
		    canceled_at = $11,
		    updated_at = NOW()
		WHERE id = $12
	`

	_, err := r.db.Exec(query,
		pug.Message,
		pug.State,
		pug.Canceled,
		pug.CanceledBy,
		pug.CanceledMessage,
		pq.Array(pug.Settings.Invites),
		pq.Array(pug.Scores),
		pug.FinishedUserID,
		pug.ReadyAt,
		pug.FinishedAt,
		pug.CanceledAt,
		pug.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to save pug: %w", err)
	}

	return nil
}

// AddPugPlayer appends one roster row and bumps the session timestamp.
func (r *PugRepository) AddPugPlayer(pugID string, player models.PugPlayer) error {
	query := `
		INSERT INTO pug_players (pug_id, user_id, display_name, slot, team, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(query, pugID, player.UserID, player.DisplayName, player.Slot, player.Team, player.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add pug player: %w", err)
	}

	return r.touch(pugID)
}

// RemovePugPlayer deletes one roster row and bumps the session timestamp.
func (r *PugRepository) RemovePugPlayer(pugID, userID string) error {
	query := `DELETE FROM pug_players WHERE pug_id = $1 AND user_id = $2`

	_, err := r.db.Exec(query, pugID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove pug player: %w", err)
	}

	return r.touch(pugID)
}

// SavePugPlayers rewrites the roster (slots, teams, standings).
func (r *PugRepository) SavePugPlayers(pugID string, players []models.PugPlayer) error {
	query := `
		UPDATE pug_players
		SET slot = $1,
		    team = $2,
		    standing = $3,
		    standing_percent = $4
		WHERE pug_id = $5 AND user_id = $6
	`

	for _, player := range players {
		if _, err := r.db.Exec(query,
			player.Slot,
			player.Team,
			player.Standing,
			player.StandingPercent,
			pugID,
			player.UserID,
		); err != nil {
			return fmt.Errorf("failed to save pug player %s: %w", player.UserID, err)
		}
	}

	return r.touch(pugID)
}

func (r *PugRepository) touch(pugID string) error {
	if _, err := r.db.Exec(`UPDATE pugs SET updated_at = NOW() WHERE id = $1`, pugID); err != nil {
		return fmt.Errorf("failed to touch pug: %w", err)
	}
	return nil
}

func (r *PugRepository) loadPlayers(pug *models.Pug) error {
	query := `
		SELECT user_id, display_name, slot, team, standing, standing_percent, joined_at
		FROM pug_players
		WHERE pug_id = $1
		ORDER BY joined_at, user_id
	`

	rows, err := r.db.Query(query, pug.ID)
	if err != nil {
		return fmt.Errorf("failed to query pug players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		player := models.PugPlayer{}
		var standing sql.NullString
		err := rows.Scan(
			&player.UserID,
			&player.DisplayName,
			&player.Slot,
			&player.Team,
			&standing,
			&player.StandingPercent,
			&player.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan pug player: %w", err)
		}
		player.Standing = standing.String
		pug.Players = append(pug.Players, player)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPug(row rowScanner) (*models.Pug, error) {
	pug := &models.Pug{}
	var gameOtherTitle, canceledMessage sql.NullString
	var invites []string
	var scores []int64

	err := row.Scan(
		&pug.ID,
		&pug.CreatedUserID,
		&pug.GameID,
		&gameOtherTitle,
		&pug.Message,
		&pug.State,
		&pug.Canceled,
		&pug.CanceledBy,
		&canceledMessage,
		&pug.Settings.MaxPlayers,
		&pug.Settings.TeamCount,
		&pug.Settings.TeamMode,
		pq.Array(&invites),
		pq.Array(&scores),
		&pug.FinishedUserID,
		&pug.CreatedAt,
		&pug.UpdatedAt,
		&pug.ReadyAt,
		&pug.FinishedAt,
		&pug.CanceledAt,
	)
	if err != nil {
		return nil, err
	}

	pug.GameOtherTitle = gameOtherTitle.String
	pug.CanceledMessage = canceledMessage.String
	pug.Settings.Invites = invites
	if scores != nil {
		pug.Scores = make([]int, len(scores))
		for i, s := range scores {
			pug.Scores[i] = int(s)
		}
	}

	return pug, nil
}
