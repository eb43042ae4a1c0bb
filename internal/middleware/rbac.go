package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

// RequireRoles lets the request through only for the listed roles. It reads
// the claims stored by JWT, so it must be mounted after it.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	denied := appErrors.Clone(appErrors.ErrForbidden, "requires role "+strings.Join(names, " or "))

	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		abort(c, denied)
	}
}
