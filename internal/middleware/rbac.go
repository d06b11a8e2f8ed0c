package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/response"
)

// RequireRoles lets the request through when the caller holds at least one of
// roles. Users carry a role set, so a LECTURER who is also DEPT_HEAD passes a
// DEPT_HEAD-only route.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !models.HasAnyRole(claims.Roles, roles...) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
