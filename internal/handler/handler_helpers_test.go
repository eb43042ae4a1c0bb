package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-tracker-api/internal/middleware"
	"github.com/noah-isme/internship-tracker-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func authenticate(c *gin.Context, userID string, role models.UserRole) models.Scope {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
	scope := models.Scope{Role: role, UserID: userID}
	switch role {
	case models.RoleAdmin:
		scope.Kind = models.ScopeAll
	case models.RoleSupervisor:
		scope.Kind = models.ScopeSupervised
		scope.SupervisorID = userID
	default:
		scope.Kind = models.ScopeSelf
	}
	c.Set(middleware.ContextScopeKey, scope)
	return scope
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
