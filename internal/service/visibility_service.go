package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type supervisorLinkRepository interface {
	IsLinked(ctx context.Context, supervisorID, legacyName, studentID string) (bool, error)
	LinkedStudents(ctx context.Context, supervisorID, legacyName string) ([]models.LinkedStudent, error)
	DisplayName(ctx context.Context, supervisorID string) (string, error)
}

// VisibilityConfig toggles how supervisor linkage is resolved.
type VisibilityConfig struct {
	LegacyNameMatch bool
}

// VisibilityService turns a caller identity into a row visibility scope.
type VisibilityService struct {
	links  supervisorLinkRepository
	logger *zap.Logger
	config VisibilityConfig
}

// NewVisibilityService constructs a VisibilityService.
func NewVisibilityService(links supervisorLinkRepository, logger *zap.Logger, cfg VisibilityConfig) *VisibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityService{links: links, logger: logger, config: cfg}
}

// Resolve maps the caller's role to a scope. Unknown roles get a SELF scope
// with no user id, which matches nothing. The legacy supervisor name is read
// from the user row so renames apply before the access token expires.
func (s *VisibilityService) Resolve(ctx context.Context, claims *models.JWTClaims) models.Scope {
	if claims == nil {
		return models.Scope{Kind: models.ScopeSelf}
	}
	switch claims.Role {
	case models.RoleAdmin:
		return models.Scope{Kind: models.ScopeAll, Role: claims.Role, UserID: claims.UserID}
	case models.RoleSupervisor:
		scope := models.Scope{
			Kind:         models.ScopeSupervised,
			Role:         claims.Role,
			UserID:       claims.UserID,
			SupervisorID: claims.UserID,
		}
		if s.config.LegacyNameMatch {
			scope.LegacyName = s.legacyName(ctx, claims.UserID)
		}
		return scope
	case models.RoleStudent:
		return models.Scope{Kind: models.ScopeSelf, Role: claims.Role, UserID: claims.UserID}
	default:
		return models.Scope{Kind: models.ScopeSelf, Role: claims.Role}
	}
}

// legacyName loads the supervisor's stored display name. A failed lookup
// leaves linkage by id only.
func (s *VisibilityService) legacyName(ctx context.Context, supervisorID string) string {
	if s.links == nil {
		return ""
	}
	name, err := s.links.DisplayName(ctx, supervisorID)
	if err != nil {
		s.logger.Warn("legacy supervisor name lookup failed", zap.String("supervisor_id", supervisorID), zap.Error(err))
		return ""
	}
	return name
}

// CanAccess reports whether a row owned by ownerID is visible under scope.
func (s *VisibilityService) CanAccess(ctx context.Context, scope models.Scope, ownerID string) (bool, error) {
	switch scope.Kind {
	case models.ScopeAll:
		return true, nil
	case models.ScopeSelf:
		return scope.UserID != "" && scope.UserID == ownerID, nil
	case models.ScopeSupervised:
		if s.links == nil {
			return false, nil
		}
		linked, err := s.links.IsLinked(ctx, scope.SupervisorID, scope.LegacyName, ownerID)
		if err != nil {
			return false, appErrors.Unavailable(err, "failed to resolve supervisor linkage")
		}
		return linked, nil
	default:
		return false, nil
	}
}

// Deny returns the error for a row outside scope. Students see NotFound so
// other users' rows are not revealed; reviewers see Forbidden.
func (s *VisibilityService) Deny(scope models.Scope) error {
	if scope.Kind == models.ScopeSelf {
		return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}
	return appErrors.Clone(appErrors.ErrForbidden, "resource is outside your scope")
}

// Authorize combines CanAccess and Deny.
func (s *VisibilityService) Authorize(ctx context.Context, scope models.Scope, ownerID string) error {
	ok, err := s.CanAccess(ctx, scope, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return s.Deny(scope)
	}
	return nil
}

// LinkedStudents lists the students supervised by the scope's supervisor.
func (s *VisibilityService) LinkedStudents(ctx context.Context, scope models.Scope) ([]models.LinkedStudent, error) {
	if scope.Kind != models.ScopeSupervised {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only supervisors have linked students")
	}
	students, err := s.links.LinkedStudents(ctx, scope.SupervisorID, scope.LegacyName)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load linked students")
	}
	if students == nil {
		students = []models.LinkedStudent{}
	}
	return students, nil
}
