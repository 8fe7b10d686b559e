package service

import (
	"github.com/pugmatch/pugmatch-backend/internal/models"
)

// PugStore is the session persistence the lifecycle manager drives.
// Implemented by repository.PugRepository.
type PugStore interface {
	GetPug(id string) (*models.Pug, error)
	ListPugs(filter models.PugFilter) ([]*models.Pug, error)
	CreatePug(pug *models.Pug) (*models.Pug, error)
	SavePug(pug *models.Pug) error
	AddPugPlayer(pugID string, player models.PugPlayer) error
	RemovePugPlayer(pugID, userID string) error
	SavePugPlayers(pugID string, players []models.PugPlayer) error
}

type UserStore interface {
	GetUser(id string) (*models.User, error)
}

type GameStore interface {
	GetGame(id string) (*models.Game, error)
	ListGames() ([]*models.Game, error)
}

// RatingStore is append-only: rating rows are inserted, never updated.
type RatingStore interface {
	// LatestRatings returns the most recent rating per user for a game.
	// Users with no history are absent from the map.
	LatestRatings(userIDs []string, gameID string) (map[string]models.RatingVector, error)
	RatingsForPug(pugID string) ([]*models.Rating, error)
	StoreRating(rating *models.Rating) error
}

type CommentStore interface {
	CreateComment(pugID, userID, message string) (*models.Comment, error)
	ListComments(pugID string) ([]*models.Comment, error)
}

// Event kinds fanned out to session members.
const (
	EventPugCreated   = "pug-created"
	EventPugReady     = "pug-ready"
	EventPugFinished  = "pug-finished"
	EventPugCanceled  = "pug-canceled"
	EventPlayerJoined = "player-joined"
	EventPlayerLeft   = "player-left"
	EventPugInvited   = "pug-invited"
	EventCommentAdded = "comment-added"
)

// Notifier delivers events to users. Fire-and-forget: implementations
// must never block lifecycle operations, and callers ignore failures.
type Notifier interface {
	Notify(event string, payload interface{}, userIDs []string)
}
