package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/gin-gonic/gin"
)

var errDeleteFailed = errors.New("failed to delete file")

// statusFor maps service errors to HTTP statuses. Anything unrecognised is a
// 500 with a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrNoSession),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "not signed in"
	case errors.Is(err, common.ErrPasscodeInvalid),
		errors.Is(err, common.ErrPasscodeExpired):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "something went wrong"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
