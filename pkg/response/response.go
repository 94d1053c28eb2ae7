package response

import (
	"errors"
	"log/slog"
	"net/http"

	"anoa.com/forumguard/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response. Quota and spam rejections
// carry their structured payload alongside the message.
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		slog.Error("internal error", "path", c.FullPath(), "err", err)
	}

	body := gin.H{"error": err.Error()}

	var quotaErr *apperror.QuotaExceededError
	if errors.As(err, &quotaErr) {
		body["tier"] = quotaErr.Tier
		body["action"] = quotaErr.Action
		body["limit"] = quotaErr.Limit
	}
	var spamErr *apperror.SpamRejectedError
	if errors.As(err, &spamErr) {
		body["score"] = spamErr.Score
		body["reasons"] = spamErr.Reasons
	}

	c.JSON(code, body)
}
