package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestErrorEnvelope(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Clone(appErrors.ErrConflict, "already checked in"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "already checked in", body.Error.Message)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAttachment(t *testing.T) {
	c, w := newContext()
	Attachment(c, "attendance.pdf", "application/pdf", []byte("%PDF-1.3"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="attendance.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestErrorEchoesRequestIDAndFields(t *testing.T) {
	c, w := newContext()
	c.Set("request_id", "req-7")
	Error(c, appErrors.Invalid(nil, "invalid leave request").WithField("date", "yyyymmdd"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "req-7", body.Meta["request_id"])
	assert.Equal(t, map[string]string{"date": "yyyymmdd"}, body.Error.Fields)
	require.Len(t, c.Errors, 1)
}

func TestJSONOmitsEmptyMeta(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, map[string]int{"n": 1}, nil, map[string]interface{}{})

	assert.JSONEq(t, `{"data":{"n":1}}`, w.Body.String())
}

func TestNoContentFlushesStatus(t *testing.T) {
	c, w := newContext()
	NoContent(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, c.Writer.Written())
	assert.Empty(t, w.Body.String())
}
