package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type studentProfileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	AssignSupervisor(ctx context.Context, studentID string, supervisorID *string) error
}

type supervisorDirectory interface {
	ListSupervisors(ctx context.Context, legacyNameMatch bool) ([]models.SupervisorOverview, error)
	Summary(ctx context.Context, supervisorID, legacyName string) (*models.SupervisorSummary, error)
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Identifier string          `json:"identifier" validate:"required,max=64"`
	FullName   string          `json:"full_name" validate:"required,max=255"`
	Email      string          `json:"email" validate:"omitempty,email"`
	Role       models.UserRole `json:"role" validate:"required,oneof=STUDENT ADMIN SUPERVISOR"`
	Password   string          `json:"password" validate:"required,min=6"`
	Active     *bool           `json:"active"`
}

// UpdateUserStatusRequest toggles account activation.
type UpdateUserStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AssignSupervisorRequest links a student to a supervisor. A null id clears the link.
type AssignSupervisorRequest struct {
	SupervisorID *string `json:"supervisor_id"`
}

// UserService handles user management workflows.
type UserService struct {
	repo        userRepository
	profiles    studentProfileStore
	supervisors supervisorDirectory
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	legacyMatch bool
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, profiles studentProfileStore, supervisors supervisorDirectory, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger, scope VisibilityConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{
		repo:        repo,
		profiles:    profiles,
		supervisors: supervisors,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		legacyMatch: scope.LegacyNameMatch,
	}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Unavailable(err, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}

	filter = filter.Normalize()
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Unavailable(err, "failed to load user")
	}
	return user, nil
}

// Create adds a user of any role.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string, meta models.ClientInfo) (*models.User, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.Role, _ = models.ParseRole(string(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Identifier:   req.Identifier,
		Email:        optionalString(strings.ToLower(req.Email)),
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       active,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapUserWriteError(err, "failed to create user")
	}

	s.recordAudit(ctx, actorID, models.AuditActionUserCreate, user.ID, nil, user, meta)
	invalidateDashboards(ctx, s.cache, s.logger)
	return user, nil
}

// SetActive activates or deactivates an account.
func (s *UserService) SetActive(ctx context.Context, id string, req UpdateUserStatusRequest, actorID string, meta models.ClientInfo) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	return s.setActive(ctx, id, *req.Active, actorID, models.AuditActionUserStatus, meta)
}

// Deactivate is the soft delete used by DELETE /admin/users/:id.
func (s *UserService) Deactivate(ctx context.Context, id string, actorID string, meta models.ClientInfo) (*models.User, error) {
	if id == actorID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot deactivate your own account")
	}
	return s.setActive(ctx, id, false, actorID, models.AuditActionUserDelete, meta)
}

func (s *UserService) setActive(ctx context.Context, id string, active bool, actorID string, action models.AuditAction, meta models.ClientInfo) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *user
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Unavailable(err, "failed to update user status")
	}
	user.Active = active

	s.recordAudit(ctx, actorID, action, id, before, user, meta)
	invalidateDashboards(ctx, s.cache, s.logger)
	return user, nil
}

// StudentByIdentifier returns a student with profile and supervisor attached.
func (s *UserService) StudentByIdentifier(ctx context.Context, identifier string) (*models.StudentDetail, error) {
	user, err := s.repo.FindByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Unavailable(err, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	detail := &models.StudentDetail{User: *user}
	profile, err := s.profiles.Get(ctx, user.ID)
	switch {
	case err == nil:
		detail.Profile = profile
	case errors.Is(err, sql.ErrNoRows):
		return detail, nil
	default:
		return nil, appErrors.Unavailable(err, "failed to load profile")
	}

	if profile.SupervisorID != nil {
		supervisor, err := s.repo.FindByID(ctx, *profile.SupervisorID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Unavailable(err, "failed to load supervisor")
		}
		detail.Supervisor = supervisor
	}
	return detail, nil
}

// AssignSupervisor links or unlinks a student's supervisor.
func (s *UserService) AssignSupervisor(ctx context.Context, studentID string, req AssignSupervisorRequest, actorID string, meta models.ClientInfo) error {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return err
	}
	if student.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}

	var supervisorID *string
	if req.SupervisorID != nil && strings.TrimSpace(*req.SupervisorID) != "" {
		id := strings.TrimSpace(*req.SupervisorID)
		supervisor, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
			}
			return appErrors.Unavailable(err, "failed to load supervisor")
		}
		if supervisor.Role != models.RoleSupervisor || !supervisor.Active {
			return appErrors.Clone(appErrors.ErrValidation, "target must be an active supervisor")
		}
		supervisorID = &supervisor.ID
	}

	if err := s.profiles.AssignSupervisor(ctx, studentID, supervisorID); err != nil {
		return appErrors.Unavailable(err, "failed to assign supervisor")
	}

	s.recordAudit(ctx, actorID, models.AuditActionSupervisorLink, studentID, nil, map[string]*string{"supervisor_id": supervisorID}, meta)
	invalidateDashboards(ctx, s.cache, s.logger)
	return nil
}

// ListSupervisors returns every supervisor with linked student counts.
func (s *UserService) ListSupervisors(ctx context.Context) ([]models.SupervisorOverview, error) {
	supervisors, err := s.supervisors.ListSupervisors(ctx, s.legacyMatch)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list supervisors")
	}
	if supervisors == nil {
		supervisors = []models.SupervisorOverview{}
	}
	return supervisors, nil
}

// SupervisorSummary returns the review counters of one supervisor.
func (s *UserService) SupervisorSummary(ctx context.Context, supervisorID string) (*models.SupervisorSummary, error) {
	supervisor, err := s.Get(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	if supervisor.Role != models.RoleSupervisor {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
	}
	legacyName := ""
	if s.legacyMatch {
		legacyName = supervisor.DisplayName()
	}
	summary, err := s.supervisors.Summary(ctx, supervisor.ID, legacyName)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load supervisor summary")
	}
	return summary, nil
}

// EnsureAdmin creates the ADMIN account or refreshes its password, name and
// role when it already exists. It reports whether a new row was created.
func (s *UserService) EnsureAdmin(ctx context.Context, identifier, password, fullName string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	fullName = strings.TrimSpace(fullName)
	if identifier == "" || len(password) < 6 {
		return false, appErrors.Clone(appErrors.ErrValidation, "admin identifier and a password of at least 6 characters are required")
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}

	existing, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Unavailable(err, "failed to look up admin")
	}
	if existing == nil {
		user := &models.User{
			ID:           uuid.NewString(),
			Identifier:   identifier,
			PasswordHash: hash,
			FullName:     fullName,
			Role:         models.RoleAdmin,
			Active:       true,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return false, mapUserWriteError(err, "failed to create admin")
		}
		return true, nil
	}

	existing.FullName = fullName
	existing.Role = models.RoleAdmin
	existing.Active = true
	if err := s.repo.Update(ctx, existing); err != nil {
		return false, mapUserWriteError(err, "failed to update admin")
	}
	if err := s.repo.UpdatePassword(ctx, existing.ID, hash, time.Now().UTC()); err != nil {
		return false, appErrors.Unavailable(err, "failed to update admin password")
	}
	return false, nil
}

func (s *UserService) recordAudit(ctx context.Context, actorID string, action models.AuditAction, resourceID string, oldValues, newValues interface{}, meta models.ClientInfo) {
	entry := models.NewAuditLog(actorID, action, models.AuditResourceUser, resourceID).
		Change(oldValues, newValues).
		From(meta.IP, meta.UserAgent)
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", string(action)), zap.Error(err))
	}
}
