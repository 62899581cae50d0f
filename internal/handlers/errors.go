package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/middleware"
	"homecare-app-server/internal/notify"
	"homecare-app-server/internal/pricing"
	"homecare-app-server/internal/store"
	"homecare-app-server/internal/utils"
	"homecare-app-server/internal/workflow"
)

// statusFor maps service errors onto HTTP statuses. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden),
		errors.Is(err, workflow.ErrReadOnlyRole),
		errors.Is(err, workflow.ErrProactiveDisabled),
		errors.Is(err, notify.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, workflow.ErrInvalidStatus),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNotEditable),
		errors.Is(err, workflow.ErrNoActiveCaregiver),
		errors.Is(err, pricing.ErrUnknownAddOn),
		errors.Is(err, pricing.ErrInactivePlan):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err using the standard envelope. 500s are logged and the
// client gets an opaque message.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		utils.InternalServerError(c, "Internal server error")
		return
	}
	utils.Error(c, status, err.Error())
}

// principal returns the caller or writes a 401.
func principal(c *gin.Context) (access.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return access.Principal{}, false
	}
	return p, true
}

func loggerOrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
