package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/middleware"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// currentCaller returns the claims and resolved scope, writing 401 when the
// request is not authenticated.
func currentCaller(c *gin.Context) (*models.JWTClaims, models.Scope, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, models.Scope{}, false
	}
	value, exists := c.Get(middleware.ContextScopeKey)
	scope, ok := value.(models.Scope)
	if !exists || !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, models.Scope{}, false
	}
	return claims, scope, true
}

func requestMeta(c *gin.Context) models.ClientInfo {
	return models.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Invalid(err, message))
		return false
	}
	return true
}

// queryLimit parses ?limit=; zero means the service default.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
		return 0, false
	}
	return limit, true
}

func respondWithMeta(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	response.JSON(c, status, data, pagination, middleware.ExtractMeta(c))
}
