package repository

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/database"
)

// RatingRepository is append-only: rating rows are inserted once per
// player per finished session and never updated.
type RatingRepository struct {
	db *database.DB
}

func NewRatingRepository(db *database.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// StoreRating appends one immutable rating record.
func (r *RatingRepository) StoreRating(rating *models.Rating) error {
	query := `
		INSERT INTO ratings (user_id, pug_id, game_id, mu, sigma, mu_diff, sigma_diff)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(query,
		rating.UserID,
		rating.PugID,
		rating.GameID,
		rating.Rate.Mu,
		rating.Rate.Sigma,
		rating.RateDiff.Mu,
		rating.RateDiff.Sigma,
	)

	if err != nil {
		return fmt.Errorf("failed to store rating: %w", err)
	}

	return nil
}

// LatestRatings returns the most recent rating per user for a game.
// Users with no history are absent from the result.
func (r *RatingRepository) LatestRatings(userIDs []string, gameID string) (map[string]models.RatingVector, error) {
	query := `
		SELECT DISTINCT ON (user_id) user_id, mu, sigma
		FROM ratings
		WHERE user_id = ANY($1) AND game_id = $2
		ORDER BY user_id, created_at DESC
	`

	rows, err := r.db.Query(query, pq.Array(userIDs), gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest ratings: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]models.RatingVector)
	for rows.Next() {
		var userID string
		var vec models.RatingVector
		if err := rows.Scan(&userID, &vec.Mu, &vec.Sigma); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		latest[userID] = vec
	}

	return latest, nil
}

// RatingsForPug returns all rating records written for one session.
func (r *RatingRepository) RatingsForPug(pugID string) ([]*models.Rating, error) {
	query := `
		SELECT id, user_id, pug_id, game_id, mu, sigma, mu_diff, sigma_diff, created_at
		FROM ratings
		WHERE pug_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*models.Rating
	for rows.Next() {
		rating := &models.Rating{}
		err := rows.Scan(
			&rating.ID,
			&rating.UserID,
			&rating.PugID,
			&rating.GameID,
			&rating.Rate.Mu,
			&rating.Rate.Sigma,
			&rating.RateDiff.Mu,
			&rating.RateDiff.Sigma,
			&rating.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	return ratings, nil
}
