package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gradeloop/gradeloop-api/internal/middleware"
	"github.com/gradeloop/gradeloop-api/internal/models"
)

// currentUserID extracts the authenticated user from the claims set by the
// JWT middleware. Empty means the middleware did not run.
func currentUserID(c *gin.Context) string {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return ""
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}
