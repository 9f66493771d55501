package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/penportal-api/internal/models"
	"github.com/penportal-api/internal/service"
	"github.com/rs/zerolog"
)

// respondError maps service errors to HTTP responses. Anything unrecognised is
// logged and reported as a generic 500.
func respondError(c *gin.Context, log zerolog.Logger, err error, msg string) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Details: verrs})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrArticleNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: notFoundMessage(err)})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: service.ErrForbidden.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}

// notFoundMessage drops engine detail wrapped behind a not-found sentinel
func notFoundMessage(err error) string {
	for _, target := range []error{service.ErrArticleNotFound, service.ErrCommentNotFound, service.ErrUserNotFound} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
}
