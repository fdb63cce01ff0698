package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/codehub/internal/conflict"
	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/store"
	"github.com/CageChen/codehub/internal/tabs"
	"github.com/CageChen/codehub/internal/workspace"
)

// statusFor maps workspace errors to HTTP status codes.
func statusFor(err error) int {
	var verr *pathutil.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, workspace.ErrNotFound), errors.Is(err, tabs.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, conflict.ErrNameConflict),
		errors.Is(err, workspace.ErrPathInUse),
		errors.Is(err, workspace.ErrCanceled),
		errors.Is(err, tabs.ErrUnsavedChanges):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrNotAFile),
		errors.Is(err, workspace.ErrNotAFolder),
		errors.Is(err, workspace.ErrUnknownKind),
		errors.Is(err, tabs.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, store.ErrStoreFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError sends err as JSON. Decision requests and blocked closes carry
// what the client needs to ask the user and retry.
func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}

	var decision *workspace.DecisionRequired
	var blocked *tabs.CloseBlocked
	switch {
	case errors.As(err, &decision):
		body["decision"] = decision
	case errors.As(err, &blocked):
		body["prompt"] = blocked.Prompt
		body["tabId"] = blocked.TabID
	}

	_ = c.Error(err)
	c.JSON(statusFor(err), body)
}

// confirmed attaches the client's up-front confirmation to the request
// context.
func confirmed(c *gin.Context) *gin.Context {
	if c.Query("confirm") == "true" {
		c.Request = c.Request.WithContext(workspace.WithConfirmation(c.Request.Context(), true))
	}
	return c
}
