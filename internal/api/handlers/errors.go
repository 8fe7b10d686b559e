package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pugmatch/pugmatch-backend/internal/service"
)

// respondPugError maps lifecycle error kinds to HTTP statuses. Every
// response carries the stable kind so clients can branch on it.
func respondPugError(c *gin.Context, err error) {
	var pugErr *service.PugError
	if !errors.As(err, &pugErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	status := http.StatusBadRequest
	switch pugErr.Kind {
	case service.KindSessionNotFound, service.KindUserNotFound, service.KindGameNotFound:
		status = http.StatusNotFound
	case service.KindUserNotCreator, service.KindUserCannotFinish,
		service.KindUserNotInvited:
		status = http.StatusForbidden
	case service.KindSessionNotWaiting, service.KindSessionNotReady,
		service.KindSessionCanceled, service.KindSessionFinished,
		service.KindSessionFull:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"error": pugErr.Message,
		"kind":  string(pugErr.Kind),
	})
}
