package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type journalRepository interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	FindByID(ctx context.Context, id string) (*models.JournalEntry, error)
	ListByUser(ctx context.Context, userID string) ([]models.JournalEntry, error)
	Review(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, comment *string, at time.Time) (*models.JournalEntry, error)
}

// JournalService handles journal submission and review.
type JournalService struct {
	repo       journalRepository
	authorizer scopeAuthorizer
	audit      auditRecorder
	cache      cacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewJournalService constructs a JournalService.
func NewJournalService(repo journalRepository, authorizer scopeAuthorizer, audit auditRecorder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *JournalService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalService{
		repo:       repo,
		authorizer: authorizer,
		audit:      audit,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit creates a pending journal entry for the caller.
func (s *JournalService) Submit(ctx context.Context, userID string, req dto.SubmitJournalRequest) (*models.JournalEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid journal entry")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	entry := &models.JournalEntry{
		UserID:      userID,
		Date:        date,
		Activity:    strings.TrimSpace(req.Activity),
		Description: strings.TrimSpace(req.Description),
		HoursWorked: *req.HoursWorked,
		Obstacles:   trimmedPtr(req.Obstacles),
		NextPlan:    trimmedPtr(req.NextPlan),
		Status:      models.ReviewPending,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Unavailable(err, "failed to save journal entry")
	}
	s.invalidate(ctx)
	return entry, nil
}

// Review sets the outcome of an entry. Entries can be reviewed again and the
// latest review wins.
func (s *JournalService) Review(ctx context.Context, scope models.Scope, reviewerID, entryID string, req dto.ReviewRequest) (*models.JournalEntry, error) {
	if !scope.Oversees() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and supervisors can review journals")
	}
	decision := models.ReviewStatus(strings.ToUpper(strings.TrimSpace(req.Decision)))
	if !decision.Decision() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or REJECTED")
	}

	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "journal entry not found")
		}
		return nil, appErrors.Unavailable(err, "failed to load journal entry")
	}
	if err := s.authorizer.Authorize(ctx, scope, entry.UserID); err != nil {
		return nil, err
	}

	reviewed, err := s.repo.Review(ctx, entryID, decision, reviewerID, trimmedPtr(req.Comment), s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "journal entry not found")
		}
		return nil, appErrors.Unavailable(err, "failed to review journal entry")
	}

	if s.audit != nil {
		trail := models.NewAuditLog(reviewerID, models.AuditActionJournalReview, models.AuditResourceJournal, entryID).
			Change(map[string]string{"status": string(entry.Status)}, map[string]string{"status": string(decision)})
		if err := s.audit.CreateAuditLog(ctx, trail); err != nil {
			s.logger.Warn("failed to record journal review audit log", zap.Error(err))
		}
	}
	s.invalidate(ctx)
	return reviewed, nil
}

// ListOwn returns the caller's entries, newest first.
func (s *JournalService) ListOwn(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list journal entries")
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	return entries, nil
}

// Get returns a single entry visible under scope.
func (s *JournalService) Get(ctx context.Context, scope models.Scope, entryID string) (*models.JournalEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "journal entry not found")
		}
		return nil, appErrors.Unavailable(err, "failed to load journal entry")
	}
	if err := s.authorizer.Authorize(ctx, scope, entry.UserID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *JournalService) invalidate(ctx context.Context) {
	invalidateDashboards(ctx, s.cache, s.logger)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(*value)
}
