package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/logger"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

const (
	// ContextUserKey holds the caller's *models.JWTClaims.
	ContextUserKey = "currentUser"
	// ContextScopeKey holds the caller's models.Scope.
	ContextScopeKey = "currentScope"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type scopeResolver interface {
	Resolve(ctx context.Context, claims *models.JWTClaims) models.Scope
}

// JWT authenticates the bearer access token and resolves the caller's
// visibility scope once per request.
func JWT(tokens tokenValidator, scopes scopeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		token, ok := bearerToken(header)
		if !ok {
			abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(logger.ContextUserIDKey, claims.UserID)
		if scopes != nil {
			c.Set(ContextScopeKey, scopes.Resolve(c.Request.Context(), claims))
		}
		c.Next()
	}
}

// bearerToken extracts the credentials of a "Bearer <token>" header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
