package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/models"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyUser is the key for the loaded user in gin context
	ContextKeyUser = "user"
)

// RequireUser validates the bearer token, loads the caller and stores both
// the user and its ID in the gin context.
func RequireUser(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperr.Respond(c, apperr.New(apperr.Unauthorized, "Not authenticated"))
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			apperr.Respond(c, apperr.New(apperr.Unauthorized, "Could not validate credentials."))
			return
		}

		user, err := svc.ResolveCurrentUser(c.Request.Context(), parts[1])
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)

		c.Next()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// CurrentUser returns the authenticated user from the gin context
func CurrentUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	return user.(*models.User), true
}
