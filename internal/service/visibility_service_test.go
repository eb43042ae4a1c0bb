package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type stubLinks struct {
	linked   map[string]string
	err      error
	students []models.LinkedStudent
	lastName string
	names    map[string]string
	nameErr  error
}

func (s *stubLinks) IsLinked(ctx context.Context, supervisorID, legacyName, studentID string) (bool, error) {
	s.lastName = legacyName
	if s.err != nil {
		return false, s.err
	}
	return s.linked[studentID] == supervisorID, nil
}

func (s *stubLinks) LinkedStudents(ctx context.Context, supervisorID, legacyName string) ([]models.LinkedStudent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.students, nil
}

func (s *stubLinks) DisplayName(ctx context.Context, supervisorID string) (string, error) {
	if s.nameErr != nil {
		return "", s.nameErr
	}
	name, ok := s.names[supervisorID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return name, nil
}

func TestVisibilityResolve(t *testing.T) {
	links := &stubLinks{names: map[string]string{"p1": "Dr. Rina", "p2": "sup02"}}
	svc := NewVisibilityService(links, nil, VisibilityConfig{LegacyNameMatch: true})
	ctx := context.Background()

	student := svc.Resolve(ctx, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	assert.Equal(t, models.Scope{Kind: models.ScopeSelf, Role: models.RoleStudent, UserID: "s1"}, student)

	admin := svc.Resolve(ctx, &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin})
	assert.Equal(t, models.ScopeAll, admin.Kind)

	sup := svc.Resolve(ctx, &models.JWTClaims{UserID: "p1", Identifier: "sup01", FullName: "Dr. Rina", Role: models.RoleSupervisor})
	assert.Equal(t, models.ScopeSupervised, sup.Kind)
	assert.Equal(t, "p1", sup.SupervisorID)
	assert.Equal(t, "Dr. Rina", sup.LegacyName)

	unnamed := svc.Resolve(ctx, &models.JWTClaims{UserID: "p2", Identifier: "sup02", Role: models.RoleSupervisor})
	assert.Equal(t, "sup02", unnamed.LegacyName)

	strict := NewVisibilityService(links, nil, VisibilityConfig{})
	assert.Empty(t, strict.Resolve(ctx, &models.JWTClaims{UserID: "p1", FullName: "Dr. Rina", Role: models.RoleSupervisor}).LegacyName)

	unknown := svc.Resolve(ctx, &models.JWTClaims{UserID: "x", Role: "GUEST"})
	assert.Equal(t, models.ScopeSelf, unknown.Kind)
	assert.Empty(t, unknown.UserID)
}

func TestVisibilityResolveReadsCurrentSupervisorName(t *testing.T) {
	links := &stubLinks{names: map[string]string{"p1": "Dr. Rina Wulandari"}}
	svc := NewVisibilityService(links, nil, VisibilityConfig{LegacyNameMatch: true})
	ctx := context.Background()

	renamed := svc.Resolve(ctx, &models.JWTClaims{UserID: "p1", FullName: "Dr. Rina", Role: models.RoleSupervisor})
	assert.Equal(t, "Dr. Rina Wulandari", renamed.LegacyName)

	missing := svc.Resolve(ctx, &models.JWTClaims{UserID: "p9", FullName: "Dr. Rina", Role: models.RoleSupervisor})
	assert.Equal(t, models.ScopeSupervised, missing.Kind)
	assert.Empty(t, missing.LegacyName)

	links.nameErr = errors.New("db down")
	failed := svc.Resolve(ctx, &models.JWTClaims{UserID: "p1", FullName: "Dr. Rina", Role: models.RoleSupervisor})
	assert.Equal(t, "p1", failed.SupervisorID)
	assert.Empty(t, failed.LegacyName)
}

func TestVisibilityCanAccess(t *testing.T) {
	links := &stubLinks{linked: map[string]string{"s1": "p1"}}
	svc := NewVisibilityService(links, nil, VisibilityConfig{})
	ctx := context.Background()

	ok, err := svc.CanAccess(ctx, models.Scope{Kind: models.ScopeSelf, UserID: "s1"}, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccess(ctx, models.Scope{Kind: models.ScopeSelf, UserID: "s1"}, "s2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanAccess(ctx, models.Scope{Kind: models.ScopeSupervised, SupervisorID: "p1"}, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccess(ctx, models.Scope{Kind: models.ScopeSupervised, SupervisorID: "p2"}, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanAccess(ctx, models.Scope{Kind: models.ScopeAll}, "anyone")
	require.NoError(t, err)
	assert.True(t, ok)

	links.err = errors.New("db down")
	_, err = svc.CanAccess(ctx, models.Scope{Kind: models.ScopeSupervised, SupervisorID: "p1"}, "s1")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}

func TestVisibilityDenyPolicy(t *testing.T) {
	svc := NewVisibilityService(nil, nil, VisibilityConfig{})

	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(svc.Deny(models.Scope{Kind: models.ScopeSelf})).Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(svc.Deny(models.Scope{Kind: models.ScopeSupervised})).Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(svc.Deny(models.Scope{Kind: models.ScopeAll})).Code)
}

func TestVisibilityLinkedStudents(t *testing.T) {
	links := &stubLinks{students: []models.LinkedStudent{{ID: "s1", Identifier: "2201001"}}}
	svc := NewVisibilityService(links, nil, VisibilityConfig{})

	students, err := svc.LinkedStudents(context.Background(), models.Scope{Kind: models.ScopeSupervised, SupervisorID: "p1"})
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = svc.LinkedStudents(context.Background(), models.Scope{Kind: models.ScopeSelf, UserID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
