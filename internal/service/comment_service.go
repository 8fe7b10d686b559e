package service

import (
	"fmt"

	"github.com/pugmatch/pugmatch-backend/internal/models"
)

type CommentService struct {
	commentStore CommentStore
	pugStore     PugStore
	userStore    UserStore
	notifier     Notifier
}

func NewCommentService(commentStore CommentStore, pugStore PugStore, userStore UserStore, notifier Notifier) *CommentService {
	return &CommentService{
		commentStore: commentStore,
		pugStore:     pugStore,
		userStore:    userStore,
		notifier:     notifier,
	}
}

// Create appends a comment to a session and notifies its members.
func (s *CommentService) Create(pugID, userID, message string) (*models.Comment, error) {
	pug, err := s.pugStore.GetPug(pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pug: %w", err)
	}
	if pug == nil {
		return nil, ErrSessionNotFound
	}

	user, err := s.userStore.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	comment, err := s.commentStore.CreateComment(pugID, userID, message)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	recipients := append([]string{pug.CreatedUserID}, pug.PlayerUserIDs()...)
	s.notifier.Notify(EventCommentAdded, map[string]interface{}{
		"pugId":   pugID,
		"comment": comment,
	}, recipients)

	return comment, nil
}

// List returns a session's comments, oldest first.
func (s *CommentService) List(pugID string) ([]*models.Comment, error) {
	pug, err := s.pugStore.GetPug(pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pug: %w", err)
	}
	if pug == nil {
		return nil, ErrSessionNotFound
	}

	comments, err := s.commentStore.ListComments(pugID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
