package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catatuang/api/internal/repository"
	"catatuang/api/internal/service"
)

// respondError maps the service error taxonomy onto HTTP responses.
// Anything outside the taxonomy is a 500 with no detail leaked.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var authErr *service.AuthenticationError
	var lockErr *service.LockoutError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	case errors.As(err, &lockErr):
		c.JSON(http.StatusLocked, gin.H{
			"error":        "account_locked",
			"retryAfterMs": lockErr.RetryAfter.Milliseconds(),
		})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_credentials",
			"remainingAttempts": authErr.Remaining,
			"retryInMs":         authErr.RetryIn.Milliseconds(),
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrRoleNotPermitted):
		c.JSON(http.StatusForbidden, gin.H{"error": "role_not_permitted"})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrAccountPending):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_pending"})
	case errors.Is(err, service.ErrAccountRejected):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_rejected"})
	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_inactive"})
	case errors.Is(err, service.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
	case errors.Is(err, service.ErrLoginSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "login_superseded"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition"})
	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, service.ErrRemoteUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}
