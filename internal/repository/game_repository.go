package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/database"
)

type GameRepository struct {
	db *database.DB
}

func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{db: db}
}

// GetGame implements service.GameStore.
func (r *GameRepository) GetGame(id string) (*models.Game, error) {
	query := `
		SELECT id, name, rating_type, allowed_player_counts, icon_url, created_at
		FROM games
		WHERE id = $1
	`

	game := &models.Game{}
	var counts []int64
	err := r.db.QueryRow(query, id).Scan(
		&game.ID,
		&game.Name,
		&game.RatingType,
		pq.Array(&counts),
		&game.IconURL,
		&game.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find game: %w", err)
	}

	game.AllowedPlayerCounts = toIntSlice(counts)
	return game, nil
}

// ListGames returns the catalog ordered by name.
func (r *GameRepository) ListGames() ([]*models.Game, error) {
	query := `
		SELECT id, name, rating_type, allowed_player_counts, icon_url, created_at
		FROM games
		ORDER BY name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game := &models.Game{}
		var counts []int64
		err := rows.Scan(
			&game.ID,
			&game.Name,
			&game.RatingType,
			pq.Array(&counts),
			&game.IconURL,
			&game.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game.AllowedPlayerCounts = toIntSlice(counts)
		games = append(games, game)
	}

	return games, nil
}

func toIntSlice(in []int64) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
