package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/pkg/database"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(username, email, passwordHash, displayName string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, display_name, groups, avatar_url, created_at, updated_at
	`

	user := &models.User{}
	err := r.db.QueryRow(query, username, email, passwordHash, displayName).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.DisplayName,
		pq.Array(&user.Groups),
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByEmail looks a user up by email.
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	return r.findOne("email = $1", email)
}

// FindByUsername looks a user up by username.
func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	return r.findOne("username = $1", username)
}

// FindByID looks a user up by id.
func (r *UserRepository) FindByID(id string) (*models.User, error) {
	return r.findOne("id = $1", id)
}

// GetUser implements service.UserStore.
func (r *UserRepository) GetUser(id string) (*models.User, error) {
	return r.FindByID(id)
}

func (r *UserRepository) findOne(where string, arg interface{}) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, display_name, groups, avatar_url, created_at, updated_at
		FROM users
		WHERE ` + where

	user := &models.User{}
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		pq.Array(&user.Groups),
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Update changes display name and avatar.
func (r *UserRepository) Update(id, displayName, avatarURL string) (*models.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE(NULLIF($1, ''), display_name),
		    avatar_url = COALESCE(NULLIF($2, ''), avatar_url),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING id, username, email, display_name, groups, avatar_url, created_at, updated_at
	`

	user := &models.User{}
	err := r.db.QueryRow(query, displayName, avatarURL, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.DisplayName,
		pq.Array(&user.Groups),
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
