package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
)

type fakeProfileSrv struct {
	uploaded []byte
}

func (f *fakeProfileSrv) Get(_ context.Context, userID string) (*models.Profile, error) {
	return &models.Profile{UserID: userID}, nil
}

func (f *fakeProfileSrv) Update(_ context.Context, userID string, _ dto.UpdateProfileRequest) (*models.Profile, error) {
	return &models.Profile{UserID: userID}, nil
}

func (f *fakeProfileSrv) UploadPhoto(_ context.Context, userID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.uploaded = data
	return "photos/" + userID + "/p.png", nil
}

func (f *fakeProfileSrv) Photo(context.Context, models.Scope, string) (*os.File, string, error) {
	return nil, "", nil
}

func TestProfileHandlerUploadPhoto(t *testing.T) {
	svc := &fakeProfileSrv{}
	handler := NewProfileHandler(svc)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nrest"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/profile/me/photo", body.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	authenticate(c, "stu-1", models.RoleStudent)

	handler.UploadPhoto(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "photos/stu-1/p.png")
	assert.True(t, bytes.HasPrefix(svc.uploaded, []byte("\x89PNG")))
}

func TestProfileHandlerUploadPhotoRequiresFile(t *testing.T) {
	handler := NewProfileHandler(&fakeProfileSrv{})
	c, w := newGinContext(http.MethodPost, "/profile/me/photo", nil)
	authenticate(c, "stu-1", models.RoleStudent)

	handler.UploadPhoto(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileHandlerMe(t *testing.T) {
	handler := NewProfileHandler(&fakeProfileSrv{})
	c, w := newGinContext(http.MethodGet, "/profile/me", nil)
	authenticate(c, "stu-1", models.RoleStudent)

	handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"stu-1"`)
}
