package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/models"
)

// GetUserFromContext returns the account the auth middleware loaded for this
// request. Handlers that need the full row (role checks, profile fields) use
// this; handlers that only key queries by id use GetUserIDFromContext and skip
// the extra struct. Writes a 401 and returns false when no account is bound.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "corrupt auth context"})
		return nil, false
	}
	return user, true
}

// GetUserIDFromContext returns the caller's account id, or writes a 401 and
// returns false when the request is unauthenticated.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	userID, ok := value.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "corrupt auth context"})
		return "", false
	}
	return userID, true
}
