package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/workforce-management-api/internal/errors"
	"github.com/yukikurage/workforce-management-api/internal/models"
)

// RequireRole allows the request through only for members of the role's group.
// Must run after RequireAuth.
func RequireRole(role models.Role) gin.HandlerFunc {
	group := models.GroupForRole(role)
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !user.InGroup(group) {
			apierrors.InsufficientRole(c, string(role))
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireManager() gin.HandlerFunc {
	return RequireRole(models.RoleManager)
}
