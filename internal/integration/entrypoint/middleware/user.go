// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerror "github.com/finance-tracker/insights/internal/domain/error"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/dto"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for the requesting user's ID.
	UserIDKey ContextKey = "user_id"

	// UserIDHeader carries the user ID resolved by the upstream gateway.
	UserIDHeader = "X-User-ID"
)

// UserContext returns a Gin middleware handler that requires the user ID
// header and stores the parsed ID in the context.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if raw == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: UserIDHeader + " header is required",
				Code:  string(domainerror.ErrCodeMissingUser),
			})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "Invalid " + UserIDHeader + " header",
				Code:  string(domainerror.ErrCodeInvalidIdentifier),
			})
			c.Abort()
			return
		}

		c.Set(string(UserIDKey), userID)
		c.Next()
	}
}

// GetUserIDFromContext extracts the user ID from the Gin context.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(string(UserIDKey))
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}
