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
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type attendanceRepository interface {
	FindByUserDate(ctx context.Context, userID string, date time.Time) (*models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	CheckOut(ctx context.Context, userID string, date, at time.Time) (*models.AttendanceRecord, error)
	History(ctx context.Context, userID string, limit int) ([]models.AttendanceRecord, error)
}

type leaveRepository interface {
	FindByUserDate(ctx context.Context, userID string, date time.Time) (*models.LeaveRequest, error)
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	Create(ctx context.Context, leave *models.LeaveRequest) error
	Review(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, comment *string, at time.Time) (*models.LeaveRequest, error)
	History(ctx context.Context, userID string, limit int) ([]models.LeaveRequest, error)
}

type scopeAuthorizer interface {
	Authorize(ctx context.Context, scope models.Scope, ownerID string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type transitionRecorder interface {
	RecordTransition(kind string)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// AttendanceConfig configures the attendance state engine.
type AttendanceConfig struct {
	LateCutoff      time.Duration
	Location        *time.Location
	HistoryLimit    int
	MaxHistoryLimit int
}

// AttendanceService implements check-in, check-out and leave requests.
type AttendanceService struct {
	attendance attendanceRepository
	leaves     leaveRepository
	authorizer scopeAuthorizer
	audit      auditRecorder
	cache      cacheInvalidator
	metrics    transitionRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	config     AttendanceConfig
	now        func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(attendance attendanceRepository, leaves leaveRepository, authorizer scopeAuthorizer, audit auditRecorder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger, cfg AttendanceConfig) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LateCutoff <= 0 {
		cfg.LateCutoff = 8 * time.Hour
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 5
	}
	if cfg.MaxHistoryLimit < cfg.HistoryLimit {
		cfg.MaxHistoryLimit = 100
	}
	return &AttendanceService{
		attendance: attendance,
		leaves:     leaves,
		authorizer: authorizer,
		audit:      audit,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		config:     cfg,
		now:        time.Now,
	}
}

// WithMetrics attaches a transition counter.
func (s *AttendanceService) WithMetrics(metrics transitionRecorder) *AttendanceService {
	s.metrics = metrics
	return s
}

// ClassifyCheckIn returns LATE when the local time of day of at is strictly
// after cutoff. A check-in exactly at the cutoff is PRESENT.
func ClassifyCheckIn(at time.Time, cutoff time.Duration, loc *time.Location) models.AttendanceStatus {
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)
	h, m, s := local.Clock()
	sinceMidnight := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(local.Nanosecond())
	if sinceMidnight > cutoff {
		return models.AttendanceLate
	}
	return models.AttendancePresent
}

// Today returns the current calendar date in the configured location.
func (s *AttendanceService) Today() time.Time {
	return calendarDate(s.now(), s.config.Location)
}

// Status resolves the day state of the user. An empty rawDate means today.
func (s *AttendanceService) Status(ctx context.Context, userID, rawDate string) (*models.DayStatus, error) {
	date := s.Today()
	if strings.TrimSpace(rawDate) != "" {
		parsed, err := parseDate(rawDate)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	status := &models.DayStatus{Date: date.Format(DateLayout), State: models.DayNotCheckedIn}

	record, err := s.attendance.FindByUserDate(ctx, userID, date)
	switch {
	case err == nil:
		status.State = models.DayCheckedIn
		status.Attendance = record
		return status, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Unavailable(err, "failed to load attendance")
	}

	leave, err := s.leaves.FindByUserDate(ctx, userID, date)
	switch {
	case err == nil:
		status.State = models.DayOnLeave
		status.Leave = leave
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Unavailable(err, "failed to load leave")
	}
	return status, nil
}

// CheckIn records the caller's arrival for today.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string) (*models.AttendanceRecord, error) {
	now := s.now()
	record := &models.AttendanceRecord{
		UserID:      userID,
		Date:        calendarDate(now, s.config.Location),
		CheckInTime: now.UTC(),
		Status:      ClassifyCheckIn(now, s.config.LateCutoff, s.config.Location),
	}

	if err := s.attendance.Create(ctx, record); err != nil {
		switch {
		case errors.Is(err, repository.ErrAttendanceExists):
			return nil, appErrors.Clone(appErrors.ErrConflict, "already checked in today")
		case errors.Is(err, repository.ErrLeaveExists):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a leave request exists for today")
		default:
			return nil, appErrors.Unavailable(err, "failed to record check-in")
		}
	}

	s.logger.Info("attendance check-in",
		zap.String("user_id", userID),
		zap.String("date", record.Date.Format(DateLayout)),
		zap.String("status", string(record.Status)),
	)
	s.recordTransition("check_in")
	s.invalidateDashboard(ctx)
	return record, nil
}

// CheckOut closes today's attendance record of the caller.
func (s *AttendanceService) CheckOut(ctx context.Context, userID string) (*models.AttendanceRecord, error) {
	now := s.now()
	date := calendarDate(now, s.config.Location)

	record, err := s.attendance.FindByUserDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no check-in recorded for today")
		}
		return nil, appErrors.Unavailable(err, "failed to load attendance")
	}
	if record.CheckOutTime != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already checked out today")
	}
	if now.Before(record.CheckInTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "check-out cannot precede check-in")
	}

	updated, err := s.attendance.CheckOut(ctx, userID, date, now.UTC())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCheckedOut) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already checked out today")
		}
		return nil, appErrors.Unavailable(err, "failed to record check-out")
	}
	s.recordTransition("check_out")
	return updated, nil
}

// RequestLeave files a pending leave for the given date.
func (s *AttendanceService) RequestLeave(ctx context.Context, userID string, req dto.LeaveRequestPayload) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid leave request")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	leave := &models.LeaveRequest{
		UserID: userID,
		Date:   date,
		Reason: strings.TrimSpace(req.Reason),
		Status: models.ReviewPending,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		switch {
		case errors.Is(err, repository.ErrAttendanceExists):
			return nil, appErrors.Clone(appErrors.ErrConflict, "already checked in on that date")
		case errors.Is(err, repository.ErrLeaveExists):
			return nil, appErrors.Clone(appErrors.ErrConflict, "leave already requested for that date")
		default:
			return nil, appErrors.Unavailable(err, "failed to record leave request")
		}
	}
	s.recordTransition("leave_request")
	s.invalidateDashboard(ctx)
	return leave, nil
}

// ReviewLeave approves or rejects a pending leave. Reviewed leaves are final.
func (s *AttendanceService) ReviewLeave(ctx context.Context, scope models.Scope, reviewerID, leaveID string, req dto.ReviewRequest) (*models.LeaveRequest, error) {
	if !scope.Oversees() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and supervisors can review leave")
	}
	decision := models.ReviewStatus(strings.ToUpper(strings.TrimSpace(req.Decision)))
	if !decision.Decision() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or REJECTED")
	}

	leave, err := s.leaves.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Unavailable(err, "failed to load leave request")
	}
	if err := s.authorizer.Authorize(ctx, scope, leave.UserID); err != nil {
		return nil, err
	}

	reviewed, err := s.leaves.Review(ctx, leaveID, decision, reviewerID, req.Comment, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrLeaveResolved) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "leave request already reviewed")
		}
		return nil, appErrors.Unavailable(err, "failed to review leave request")
	}

	s.recordAudit(ctx, reviewerID, models.AuditActionLeaveReview, models.AuditResourceLeave, leaveID, map[string]string{"status": string(decision)})
	s.invalidateDashboard(ctx)
	return reviewed, nil
}

// AttendanceHistory lists the caller's latest attendance records.
func (s *AttendanceService) AttendanceHistory(ctx context.Context, userID string, limit int) ([]models.AttendanceRecord, error) {
	records, err := s.attendance.History(ctx, userID, s.historyLimit(limit))
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load attendance history")
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	return records, nil
}

// LeaveHistory lists the caller's latest leave requests.
func (s *AttendanceService) LeaveHistory(ctx context.Context, userID string, limit int) ([]models.LeaveRequest, error) {
	leaves, err := s.leaves.History(ctx, userID, s.historyLimit(limit))
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load leave history")
	}
	if leaves == nil {
		leaves = []models.LeaveRequest{}
	}
	return leaves, nil
}

func (s *AttendanceService) historyLimit(limit int) int {
	if limit <= 0 {
		return s.config.HistoryLimit
	}
	if limit > s.config.MaxHistoryLimit {
		return s.config.MaxHistoryLimit
	}
	return limit
}

func (s *AttendanceService) recordTransition(kind string) {
	if s.metrics != nil {
		s.metrics.RecordTransition(kind)
	}
}

func (s *AttendanceService) invalidateDashboard(ctx context.Context) {
	invalidateDashboards(ctx, s.cache, s.logger)
}

func (s *AttendanceService) recordAudit(ctx context.Context, actorID string, action models.AuditAction, resource models.AuditResource, resourceID string, values interface{}) {
	if s.audit == nil {
		return
	}
	entry := models.NewAuditLog(actorID, action, resource, resourceID).Change(nil, values)
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", string(action)), zap.Error(err))
	}
}
