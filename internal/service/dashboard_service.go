package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

const dashboardCachePattern = "dash:*"

type dashboardRepository interface {
	StudentJournalStats(ctx context.Context, userID string) (*repository.JournalStats, error)
	CountStudents(ctx context.Context, scope models.Scope) (int, error)
	CountJournals(ctx context.Context, scope models.Scope, status models.ReviewStatus) (int, error)
	CountLeaves(ctx context.Context, scope models.Scope, status models.ReviewStatus) (int, error)
	CountCheckIns(ctx context.Context, scope models.Scope, date time.Time) (int, error)
	RecentJournals(ctx context.Context, scope models.Scope, status *models.ReviewStatus, limit int) ([]models.JournalSummary, error)
}

type dayStatusReader interface {
	Status(ctx context.Context, userID, rawDate string) (*models.DayStatus, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	Location       *time.Location
	LatestJournals int
	PendingReviews int
}

// DashboardService composes the role specific dashboard payloads.
type DashboardService struct {
	repo   dashboardRepository
	days   dayStatusReader
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo   dashboardRepository
	Days   dayStatusReader
	Cache  *CacheService
	Logger *zap.Logger
	Config DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LatestJournals <= 0 {
		cfg.LatestJournals = 3
	}
	if cfg.PendingReviews <= 0 {
		cfg.PendingReviews = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:   params.Repo,
		days:   params.Days,
		cache:  params.Cache,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// Dashboard dispatches on the caller's role. The boolean reports a cache hit.
func (s *DashboardService) Dashboard(ctx context.Context, scope models.Scope) (interface{}, bool, error) {
	switch scope.Role {
	case models.RoleStudent:
		return s.Student(ctx, scope.UserID)
	case models.RoleAdmin:
		return s.Admin(ctx, scope.UserID)
	case models.RoleSupervisor:
		return s.Supervisor(ctx, scope)
	default:
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "no dashboard for role")
	}
}

// Student returns the student's own summary.
func (s *DashboardService) Student(ctx context.Context, userID string) (*dto.StudentDashboardResponse, bool, error) {
	key := s.cacheKey(models.RoleStudent, userID)
	var cached dto.StudentDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	stats, err := s.repo.StudentJournalStats(ctx, userID)
	if err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to load journal statistics")
	}
	self := models.Scope{Kind: models.ScopeSelf, Role: models.RoleStudent, UserID: userID}
	latest, err := s.repo.RecentJournals(ctx, self, nil, s.cfg.LatestJournals)
	if err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to load latest journals")
	}
	summary := &dto.StudentDashboardResponse{
		TotalJournals:    stats.Total,
		ApprovedJournals: stats.Approved,
		TotalHours:       stats.TotalHours,
		LatestJournals:   nonNilSummaries(latest),
	}
	if s.days != nil {
		today, err := s.days.Status(ctx, userID, "")
		if err != nil {
			return nil, false, err
		}
		summary.Today = *today
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Admin returns program wide counters and the oldest pending reviews.
func (s *DashboardService) Admin(ctx context.Context, adminID string) (*dto.AdminDashboardResponse, bool, error) {
	key := s.cacheKey(models.RoleAdmin, adminID)
	var cached dto.AdminDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	all := models.Scope{Kind: models.ScopeAll, Role: models.RoleAdmin}
	pending := models.ReviewPending
	summary := &dto.AdminDashboardResponse{}
	var err error
	if summary.TotalStudents, err = s.repo.CountStudents(ctx, all); err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to count students")
	}
	if summary.PendingJournals, err = s.repo.CountJournals(ctx, all, pending); err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to count journals")
	}
	if summary.PendingLeaves, err = s.repo.CountLeaves(ctx, all, pending); err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to count leave requests")
	}
	if summary.PresentToday, err = s.repo.CountCheckIns(ctx, all, s.today()); err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to count check-ins")
	}
	reviews, err := s.repo.RecentJournals(ctx, all, &pending, s.cfg.PendingReviews)
	if err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to load pending reviews")
	}
	summary.PendingReviews = nonNilSummaries(reviews)

	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Supervisor returns counters restricted to the supervisor's linked students.
func (s *DashboardService) Supervisor(ctx context.Context, scope models.Scope) (*dto.SupervisorDashboardResponse, bool, error) {
	if scope.Kind != models.ScopeSupervised {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "supervisor scope required")
	}
	key := s.cacheKey(models.RoleSupervisor, scope.SupervisorID)
	var cached dto.SupervisorDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	pending := models.ReviewPending
	summary := &dto.SupervisorDashboardResponse{}
	var err error
	if summary.TotalStudents, err = s.repo.CountStudents(ctx, scope); err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to count students")
	}
	if summary.PendingJournals, err = s.repo.CountJournals(ctx, scope, pending); err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to count journals")
	}
	if summary.ApprovedJournals, err = s.repo.CountJournals(ctx, scope, models.ReviewApproved); err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to count journals")
	}
	reviews, err := s.repo.RecentJournals(ctx, scope, &pending, s.cfg.PendingReviews)
	if err != nil {
		return nil, false, appErrors.Unavailable(err, "failed to load pending reviews")
	}
	summary.PendingReviews = nonNilSummaries(reviews)

	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Invalidate drops every cached dashboard.
func (s *DashboardService) Invalidate(ctx context.Context) {
	invalidateDashboards(ctx, s.cache, s.logger)
}

func (s *DashboardService) today() time.Time {
	return calendarDate(s.now(), s.cfg.Location)
}

func (s *DashboardService) cacheKey(role models.UserRole, id string) string {
	return Key("dash", string(role), id, s.today().Format(DateLayout))
}

// tryCache treats cache failures as misses so dashboards stay available when
// Redis is not.
func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func invalidateDashboards(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, dashboardCachePattern); err != nil && logger != nil {
		logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func nonNilSummaries(items []models.JournalSummary) []models.JournalSummary {
	if items == nil {
		return []models.JournalSummary{}
	}
	return items
}
