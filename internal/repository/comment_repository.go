package repository

import (
	"fmt"

	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/database"
)

type CommentRepository struct {
	db *database.DB
}

func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// CreateComment appends a comment to a session.
func (r *CommentRepository) CreateComment(pugID, userID, message string) (*models.Comment, error) {
	query := `
		INSERT INTO comments (pug_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, pug_id, user_id, message, created_at
	`

	comment := &models.Comment{}
	err := r.db.QueryRow(query, pugID, userID, message).Scan(
		&comment.ID,
		&comment.PugID,
		&comment.UserID,
		&comment.Message,
		&comment.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// ListComments returns a session's comments, oldest first.
func (r *CommentRepository) ListComments(pugID string) ([]*models.Comment, error) {
	query := `
		SELECT id, pug_id, user_id, message, created_at
		FROM comments
		WHERE pug_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(query, pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment := &models.Comment{}
		err := rows.Scan(
			&comment.ID,
			&comment.PugID,
			&comment.UserID,
			&comment.Message,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, nil
}
