package handler

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*models.Profile, error)
	UploadPhoto(ctx context.Context, userID string, r io.Reader) (string, error)
	Photo(ctx context.Context, scope models.Scope, ownerID string) (*os.File, string, error)
}

// ProfileHandler serves the caller's profile and profile photos.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Me godoc
// @Summary Own profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profile/me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile/me [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UploadPhoto godoc
// @Summary Upload own profile photo
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "JPEG or PNG image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile/me/photo [post]
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "photo file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "failed to read photo"))
		return
	}
	defer file.Close()

	path, err := h.service.UploadPhoto(c.Request.Context(), claims.UserID, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"photo_path": path}, nil)
}

// Photo godoc
// @Summary Profile photo of a visible user
// @Tags Profile
// @Produce image/jpeg
// @Produce image/png
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /profiles/{userId}/photo [get]
func (h *ProfileHandler) Photo(c *gin.Context) {
	_, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	file, contentType, err := h.service.Photo(c.Request.Context(), scope, c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read photo"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{"Cache-Control": "private, max-age=300"})
}
