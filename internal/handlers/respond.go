package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bitsbarter/internal/apperrors"
	"bitsbarter/internal/repositories"
)

const requestIDContextKey = "request_id"

// respondError translates repository and taxonomy errors to a status and a
// machine-readable code. Unexpected errors are logged and surfaced as a
// generic 500 that leaks nothing.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrChatNotFound),
		errors.Is(err, repositories.ErrMessageNotFound),
		errors.Is(err, repositories.ErrOfferNotFound),
		errors.Is(err, repositories.ErrListingNotFound),
		errors.Is(err, repositories.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": string(apperrors.NotFound)})
		return
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": appErr.Message, "code": string(appErr.Kind)})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "code": string(apperrors.Internal)})
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) string {
	return c.GetString("userID")
}
