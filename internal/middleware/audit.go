package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit appends a trail entry once the wrapped handler answered below 400.
// The :id route parameter becomes the resource id; :entity, when present,
// is kept in the recorded request summary.
func Audit(repo auditWriter, logger *zap.Logger, action models.AuditAction, resource models.AuditResource) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if repo == nil || status >= 400 {
			return
		}

		var actorID string
		if claims, ok := claimsFrom(c); ok {
			actorID = claims.UserID
		}
		summary := map[string]interface{}{
			"route":      c.FullPath(),
			"method":     c.Request.Method,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if entity := c.Param("entity"); entity != "" {
			summary["entity"] = entity
		}

		entry := models.NewAuditLog(actorID, action, resource, c.Param("id")).
			Change(nil, summary).
			From(c.ClientIP(), c.Request.UserAgent())
		if err := repo.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to record audit log",
				zap.String("action", string(action)),
				zap.String("resource", string(resource)),
				zap.Error(err),
			)
		}
	}
}

func claimsFrom(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
