package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rmaulana/rh-tracker-api/pkg/auth"
)

const (
	contextUserID   = "user_id"
	contextUsername = "username"
	contextRole     = "role"
)

// Auth validates the Bearer token and stores the caller's identity on the
// request context.
func Auth(tokens *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid authorization header")
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(contextUserID, claims.UserID.String())
		c.Set(contextUsername, claims.Username)
		c.Set(contextRole, string(claims.Role))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"message": message,
	})
}

// UserID returns the authenticated user's id string, empty when the route
// is unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}

// UserUUID parses the authenticated user's id. The auth middleware already
// validated it, so a parse failure means the route skipped Auth.
func UserUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(contextUserID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
