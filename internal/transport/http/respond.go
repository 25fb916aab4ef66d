package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quizforge-service/internal/domain"
)

// respondError maps domain errors onto HTTP statuses. Anything unmapped is a
// 500 with a generic body; the real cause only goes to the log.
func respondError(c *gin.Context, err error) {
	var (
		ve  domain.ValidationError
		ice *domain.InvalidCodeError
	)
	switch {
	case errors.As(err, &ice):
		c.JSON(http.StatusBadRequest, gin.H{"error": ice.Error(), "attemptsLeft": ice.Remaining})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, domain.ErrEmailRegistered),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrCodeNotFound),
		errors.Is(err, domain.ErrAttemptsExceeded),
		errors.Is(err, domain.ErrResetTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotQuizOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
