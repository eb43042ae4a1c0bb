package service

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/storage"
)

type profileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	SetPhoto(ctx context.Context, userID, path string) (*string, error)
}

type photoStorage interface {
	SaveLimited(filename string, r io.Reader, maxBytes int64) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ProfileConfig bounds photo uploads.
type ProfileConfig struct {
	MaxPhotoBytes int64
}

// ProfileService manages the extended profile of the current user.
type ProfileService struct {
	repo       profileStore
	photos     photoStorage
	authorizer scopeAuthorizer
	validator  *validator.Validate
	logger     *zap.Logger
	config     ProfileConfig
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileStore, photos photoStorage, authorizer scopeAuthorizer, validate *validator.Validate, logger *zap.Logger, cfg ProfileConfig) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cfg.MaxPhotoBytes <= 0 {
		cfg.MaxPhotoBytes = 2 << 20
	}
	return &ProfileService{repo: repo, photos: photos, authorizer: authorizer, validator: validate, logger: logger, config: cfg}
}

// Get returns the user's profile. A user without a stored profile gets an
// empty one.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Profile{UserID: userID}, nil
		}
		return nil, appErrors.Unavailable(err, "failed to load profile")
	}
	return profile, nil
}

// Update upserts the self-editable profile fields.
func (s *ProfileService) Update(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}

	profile := &models.Profile{
		UserID:     userID,
		Phone:      trimmedPtr(req.Phone),
		Address:    trimmedPtr(req.Address),
		University: trimmedPtr(req.University),
		Faculty:    trimmedPtr(req.Faculty),
		Major:      trimmedPtr(req.Major),
		CohortYear: req.CohortYear,
		GPA:        req.GPA,
		Credits:    req.Credits,
		Division:   trimmedPtr(req.Division),
	}
	var err error
	if profile.BirthDate, err = optionalDate(req.BirthDate); err != nil {
		return nil, err
	}
	if profile.StartDate, err = optionalDate(req.StartDate); err != nil {
		return nil, err
	}
	if profile.EndDate, err = optionalDate(req.EndDate); err != nil {
		return nil, err
	}
	if profile.StartDate != nil && profile.EndDate != nil && profile.EndDate.Before(*profile.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}

	stored, err := s.repo.Upsert(ctx, profile)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to save profile")
	}
	return stored, nil
}

// UploadPhoto stores a jpeg or png photo and replaces the previous one.
func (s *ProfileService) UploadPhoto(ctx context.Context, userID string, r io.Reader) (string, error) {
	reader := bufio.NewReaderSize(r, 512)
	head, err := reader.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", validationError(err, "failed to read photo")
	}
	if len(head) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "photo is empty")
	}
	ext, ok := photoExtensions[http.DetectContentType(head)]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "photo must be a jpeg or png image")
	}

	filename := path.Join("photos", userID, uuid.NewString()+ext)
	if _, err := s.photos.SaveLimited(filename, reader, s.config.MaxPhotoBytes); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", appErrors.Clone(appErrors.ErrValidation, "photo exceeds the size limit")
		}
		return "", appErrors.Unavailable(err, "failed to store photo")
	}

	previous, err := s.repo.SetPhoto(ctx, userID, filename)
	if err != nil {
		_ = s.photos.Delete(filename)
		return "", appErrors.Unavailable(err, "failed to save photo")
	}
	if previous != nil && *previous != "" && *previous != filename {
		if err := s.photos.Delete(*previous); err != nil {
			s.logger.Warn("failed to delete previous photo", zap.String("path", *previous), zap.Error(err))
		}
	}
	return filename, nil
}

// Photo opens the stored photo of ownerID when the scope may see it.
func (s *ProfileService) Photo(ctx context.Context, scope models.Scope, ownerID string) (*os.File, string, error) {
	if err := s.authorizer.Authorize(ctx, scope, ownerID); err != nil {
		return nil, "", err
	}
	profile, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, "", appErrors.Unavailable(err, "failed to load profile")
	}
	if profile.PhotoPath == nil || *profile.PhotoPath == "" {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	file, err := s.photos.Open(*profile.PhotoPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, "", appErrors.Unavailable(err, "failed to open photo")
	}
	contentType := "image/jpeg"
	if strings.HasSuffix(*profile.PhotoPath, ".png") {
		contentType = "image/png"
	}
	return file, contentType, nil
}

func optionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	date, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
