package service

import "errors"

// ErrorKind is the stable machine-readable code attached to every
// lifecycle error. The transport layer maps kinds to status codes.
type ErrorKind string

const (
	KindSessionNotFound   ErrorKind = "SESSION_NOT_FOUND"
	KindUserNotFound      ErrorKind = "USER_NOT_FOUND"
	KindGameNotFound      ErrorKind = "GAME_NOT_FOUND"
	KindGameNotGiven      ErrorKind = "GAME_NOT_GIVEN"
	KindIllegalMaxPlayers ErrorKind = "ILLEGAL_MAX_PLAYERS"
	KindIllegalTeamCount  ErrorKind = "ILLEGAL_TEAM_COUNT"
	KindIllegalTeamMode   ErrorKind = "ILLEGAL_TEAM_MODE"
	KindSessionNotWaiting ErrorKind = "SESSION_NOT_WAITING"
	KindSessionNotReady   ErrorKind = "SESSION_NOT_READY"
	KindSessionCanceled   ErrorKind = "SESSION_CANCELED"
	KindSessionFinished   ErrorKind = "SESSION_FINISHED"
	KindSlotIllegal       ErrorKind = "SLOT_ILLEGAL"
	KindScoresMismatch    ErrorKind = "SCORES_MISMATCH"
	KindUserNotCreator    ErrorKind = "USER_NOT_CREATOR"
	KindUserCannotFinish  ErrorKind = "USER_CANNOT_FINISH"
	KindUserNotPlayer     ErrorKind = "USER_NOT_PLAYER"
	KindUserNotInvited    ErrorKind = "USER_NOT_INVITED"
	KindSessionFull       ErrorKind = "SESSION_FULL"
	KindRatingError       ErrorKind = "RATING_ERROR"
)

// PugError is a precondition failure reported synchronously to the
// caller before any state mutation.
type PugError struct {
	Kind    ErrorKind
	Message string
}

func (e *PugError) Error() string {
	return e.Message
}

// Is lets errors.Is match any PugError with the same kind.
func (e *PugError) Is(target error) bool {
	var pe *PugError
	if !errors.As(target, &pe) {
		return false
	}
	return e.Kind == pe.Kind
}

// Lifecycle precondition errors, one per kind.
var (
	ErrSessionNotFound   = &PugError{KindSessionNotFound, "pug session not found"}
	ErrUserNotFound      = &PugError{KindUserNotFound, "user not found"}
	ErrGameNotFound      = &PugError{KindGameNotFound, "game not found"}
	ErrGameNotGiven      = &PugError{KindGameNotGiven, "game id or title required"}
	ErrIllegalMaxPlayers = &PugError{KindIllegalMaxPlayers, "illegal max players for game"}
	ErrIllegalTeamCount  = &PugError{KindIllegalTeamCount, "team count must be between 1 and 5"}
	ErrIllegalTeamMode   = &PugError{KindIllegalTeamMode, "team mode must be assigned, random or none"}
	ErrSessionNotWaiting = &PugError{KindSessionNotWaiting, "pug session is no longer waiting for players"}
	ErrSessionNotReady   = &PugError{KindSessionNotReady, "pug session is not ready"}
	ErrSessionCanceled   = &PugError{KindSessionCanceled, "pug session is canceled"}
	ErrSessionFinished   = &PugError{KindSessionFinished, "pug session is already finished"}
	ErrSlotIllegal       = &PugError{KindSlotIllegal, "requested slot is illegal or occupied"}
	ErrScoresMismatch    = &PugError{KindScoresMismatch, "scores do not match the session's team layout"}
	ErrUserNotCreator    = &PugError{KindUserNotCreator, "only the session creator may do this"}
	ErrUserCannotFinish  = &PugError{KindUserCannotFinish, "only the creator or a participant may finish"}
	ErrUserNotPlayer     = &PugError{KindUserNotPlayer, "user is not a player in this session"}
	ErrUserNotInvited    = &PugError{KindUserNotInvited, "user is not invited to this session"}
	ErrSessionFull       = &PugError{KindSessionFull, "pug session is full"}
	ErrRatingError       = &PugError{KindRatingError, "rating adjustment failed"}
)
