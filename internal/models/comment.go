package models

import "time"

type Comment struct {
	ID        string    `json:"id" db:"id"`
	PugID     string    `json:"pugId" db:"pug_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateCommentRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}
