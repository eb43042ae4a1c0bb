package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type memoryCacheStore struct {
	items  map[string][]byte
	getErr error
	gets   int
}

func newMemoryCacheStore() *memoryCacheStore {
	return &memoryCacheStore{items: map[string][]byte{}}
}

func (m *memoryCacheStore) Get(_ context.Context, key string, dest interface{}) error {
	m.gets++
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCacheStore) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

type fakeDashboardRepo struct {
	stats      repository.JournalStats
	students   int
	journals   map[models.ReviewStatus]int
	leaves     int
	checkIns   int
	recent     []models.JournalSummary
	err        error
	scopes     []models.Scope
	statsCalls int
}

func (f *fakeDashboardRepo) StudentJournalStats(context.Context, string) (*repository.JournalStats, error) {
	f.statsCalls++
	if f.err != nil {
		return nil, f.err
	}
	stats := f.stats
	return &stats, nil
}

func (f *fakeDashboardRepo) CountStudents(_ context.Context, scope models.Scope) (int, error) {
	f.scopes = append(f.scopes, scope)
	return f.students, f.err
}

func (f *fakeDashboardRepo) CountJournals(_ context.Context, _ models.Scope, status models.ReviewStatus) (int, error) {
	return f.journals[status], f.err
}

func (f *fakeDashboardRepo) CountLeaves(context.Context, models.Scope, models.ReviewStatus) (int, error) {
	return f.leaves, f.err
}

func (f *fakeDashboardRepo) CountCheckIns(context.Context, models.Scope, time.Time) (int, error) {
	return f.checkIns, f.err
}

func (f *fakeDashboardRepo) RecentJournals(_ context.Context, _ models.Scope, _ *models.ReviewStatus, limit int) ([]models.JournalSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

type stubDayStatus struct {
	state models.DayState
	err   error
}

func (s stubDayStatus) Status(context.Context, string, string) (*models.DayStatus, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.DayStatus{Date: "2026-03-02", State: s.state}, nil
}

func newDashboardFixture(repo *fakeDashboardRepo, store *memoryCacheStore) *DashboardService {
	var cache *CacheService
	if store != nil {
		cache = NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	}
	svc := NewDashboardService(DashboardServiceParams{
		Repo:   repo,
		Days:   stubDayStatus{state: models.DayCheckedIn},
		Cache:  cache,
		Logger: zap.NewNop(),
	})
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return svc
}

func journalSummaries(n int) []models.JournalSummary {
	items := make([]models.JournalSummary, n)
	for i := range items {
		items[i] = models.JournalSummary{ID: string(rune('a' + i)), Status: models.ReviewPending}
	}
	return items
}

func TestDashboardStudentCachesSummary(t *testing.T) {
	repo := &fakeDashboardRepo{
		stats:  repository.JournalStats{Total: 4, Approved: 2, TotalHours: 30.5},
		recent: journalSummaries(5),
	}
	store := newMemoryCacheStore()
	svc := newDashboardFixture(repo, store)
	scope := models.Scope{Kind: models.ScopeSelf, Role: models.RoleStudent, UserID: "stu-1"}

	payload, hit, err := svc.Dashboard(context.Background(), scope)
	require.NoError(t, err)
	assert.False(t, hit)
	summary := payload.(*dto.StudentDashboardResponse)
	assert.Equal(t, 4, summary.TotalJournals)
	assert.Equal(t, 2, summary.ApprovedJournals)
	assert.InDelta(t, 30.5, summary.TotalHours, 0.001)
	assert.Len(t, summary.LatestJournals, 3)
	assert.Equal(t, models.DayCheckedIn, summary.Today.State)
	assert.Contains(t, store.items, "dash:STUDENT:stu-1:2026-03-02")

	_, hit, err = svc.Dashboard(context.Background(), scope)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.statsCalls)
}

func TestDashboardCacheFailureDegradesToMiss(t *testing.T) {
	repo := &fakeDashboardRepo{recent: journalSummaries(1)}
	store := newMemoryCacheStore()
	store.getErr = errors.New("redis down")
	svc := newDashboardFixture(repo, store)

	_, hit, err := svc.Student(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, repo.statsCalls)
}

func TestDashboardAdminCounts(t *testing.T) {
	repo := &fakeDashboardRepo{
		students: 12,
		journals: map[models.ReviewStatus]int{models.ReviewPending: 7},
		leaves:   2,
		checkIns: 9,
		recent:   journalSummaries(8),
	}
	svc := newDashboardFixture(repo, nil)

	summary, hit, err := svc.Admin(context.Background(), "adm-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 12, summary.TotalStudents)
	assert.Equal(t, 7, summary.PendingJournals)
	assert.Equal(t, 2, summary.PendingLeaves)
	assert.Equal(t, 9, summary.PresentToday)
	assert.Len(t, summary.PendingReviews, 5)
	require.NotEmpty(t, repo.scopes)
	assert.Equal(t, models.ScopeAll, repo.scopes[0].Kind)
}

func TestDashboardSupervisorUsesScope(t *testing.T) {
	repo := &fakeDashboardRepo{
		students: 3,
		journals: map[models.ReviewStatus]int{models.ReviewPending: 1, models.ReviewApproved: 6},
	}
	svc := newDashboardFixture(repo, nil)
	scope := models.Scope{Kind: models.ScopeSupervised, Role: models.RoleSupervisor, UserID: "sup-1", SupervisorID: "sup-1"}

	payload, _, err := svc.Dashboard(context.Background(), scope)
	require.NoError(t, err)
	summary := payload.(*dto.SupervisorDashboardResponse)
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 1, summary.PendingJournals)
	assert.Equal(t, 6, summary.ApprovedJournals)
	assert.NotNil(t, summary.PendingReviews)
	assert.Equal(t, "sup-1", repo.scopes[0].SupervisorID)

	_, _, err = svc.Supervisor(context.Background(), models.Scope{Kind: models.ScopeSelf, Role: models.RoleSupervisor})
	assertAppError(t, err, appErrors.ErrForbidden)
}

func TestDashboardUnknownRole(t *testing.T) {
	svc := newDashboardFixture(&fakeDashboardRepo{}, nil)
	_, _, err := svc.Dashboard(context.Background(), models.Scope{Kind: models.ScopeSelf})
	assertAppError(t, err, appErrors.ErrForbidden)
}

func TestDashboardStorageFailure(t *testing.T) {
	svc := newDashboardFixture(&fakeDashboardRepo{err: errors.New("db down")}, nil)
	_, _, err := svc.Admin(context.Background(), "adm-1")
	assertAppError(t, err, appErrors.ErrUnavailable)
}

func TestDashboardInvalidateDropsCachedEntries(t *testing.T) {
	repo := &fakeDashboardRepo{}
	store := newMemoryCacheStore()
	svc := newDashboardFixture(repo, store)

	_, _, err := svc.Admin(context.Background(), "adm-1")
	require.NoError(t, err)
	require.Len(t, store.items, 1)

	svc.Invalidate(context.Background())
	assert.Empty(t, store.items)
}
