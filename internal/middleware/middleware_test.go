package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/logger"
)

type stubTokens struct {
	claims *models.JWTClaims
}

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type stubScopes struct{}

func (stubScopes) Resolve(_ context.Context, claims *models.JWTClaims) models.Scope {
	return models.Scope{Kind: models.ScopeSelf, Role: claims.Role, UserID: claims.UserID}
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

type recordingRequests struct {
	paths    []string
	statuses []int
}

func (r *recordingRequests) ObserveHTTPRequest(_ string, path string, status int, _ time.Duration) {
	r.paths = append(r.paths, path)
	r.statuses = append(r.statuses, status)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(roles ...models.UserRole) *gin.Engine {
	router := gin.New()
	claims := &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}
	router.Use(JWT(stubTokens{claims: claims}, stubScopes{}))
	if len(roles) > 0 {
		router.Use(RequireRoles(roles...))
	}
	router.GET("/me", func(c *gin.Context) {
		scope, _ := c.Get(ContextScopeKey)
		c.JSON(http.StatusOK, gin.H{"scope": scope, "user": c.GetString(logger.ContextUserIDKey)})
	})
	return router
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	router := protectedRouter()

	for _, header := range []string{"", "Token good", "Bearer ", "Bearer bad"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestJWTResolvesScope(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"SELF"`)
	assert.Contains(t, rec.Body.String(), `"user":"stu-1"`)
}

func TestRequireRoles(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec := httptest.NewRecorder()
	protectedRouter(models.RoleAdmin).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	protectedRouter(models.RoleAdmin, models.RoleStudent).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	router := gin.New()
	router.GET("/open", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiterRefills(t *testing.T) {
	limiter := NewRateLimiter(2)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	now = now.Add(30 * time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	router := gin.New()
	router.POST("/login", NewRateLimiter(1).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), appErrors.ErrTooManyRequests.Code)
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	audit := &recordingAudit{err: errors.New("write failed")}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})
		c.Next()
	})
	router.GET("/export/:id", Audit(audit, nil, "EXPORT_DOWNLOAD", "report"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/fail/:id", Audit(audit, nil, "EXPORT_DOWNLOAD", "report"), func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/job-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail/job-2", nil))

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "adm-1", *audit.logs[0].UserID)
	assert.Equal(t, "job-1", *audit.logs[0].ResourceID)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingRequests{}
	router := gin.New()
	router.Use(Metrics(observer, "/metrics"))
	router.GET("/journals/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/journals/42", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, []string{"/journals/:id", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, observer.statuses)
}

func TestResponseMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	assert.Nil(t, ExtractMeta(c))

	WithResponseMeta()(c)
	assert.Nil(t, ExtractMeta(c))

	SetCacheHit(c, true)
	meta := ExtractMeta(c)
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bearer   abc.def ")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"Bearer", "Basic abc", "abc"} {
		_, ok := bearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestRequireRolesNamesAllowedRoles(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
		c.Next()
	})
	router.GET("/review", RequireRoles(models.RoleAdmin, models.RoleSupervisor), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/review", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "requires role ADMIN or SUPERVISOR")
}
