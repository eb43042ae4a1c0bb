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
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type authUserRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	PurgeRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type profileReader interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           []string
	SingleSession      bool
	AllowRegistration  bool
}

// AuthService handles registration, sessions and credentials.
type AuthService struct {
	repo      authUserRepository
	profiles  profileReader
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, profiles profileReader, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 4 * time.Hour
	}
	if config.RefreshTokenExpiry <= 0 {
		config.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		profiles:  profiles,
		validator: validate,
		logger:    logger.With(zap.String("component", "auth")),
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an active STUDENT account.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	if !s.config.AllowRegistration {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "self registration is disabled")
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Identifier:   req.Identifier,
		Email:        optionalString(strings.ToLower(req.Email)),
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         models.RoleStudent,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapUserWriteError(err, "failed to register user")
	}

	s.audit(ctx, models.NewAuditLog(user.ID, models.AuditActionRegister, models.AuditResourceSession, user.ID).
		From(req.IP, req.UserAgent))
	info := userInfo(user)
	return &info, nil
}

// Login checks the identifier and password and opens a session. Unknown
// identifiers and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	user, err := s.repo.FindByIdentifier(ctx, req.Identifier)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	case err != nil:
		return nil, appErrors.Unavailable(err, "failed to fetch user")
	}
	if !passwordMatches(user.PasswordHash, req.Password) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if s.config.SingleSession {
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke previous sessions", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	sess, err := s.startSession(ctx, user, req.ClientInfo)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, sess.issuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.audit(ctx, models.NewAuditLog(user.ID, models.AuditActionLogin, models.AuditResourceSession, user.ID).
		Change(nil, map[string]string{"status": "success"}).
		From(req.IP, req.UserAgent))

	return &models.LoginResponse{
		AccessToken:  sess.access,
		RefreshToken: sess.refresh.Token,
		ExpiresIn:    s.expiresIn(),
		IssuedAt:     sess.issuedAt,
		User:         userInfo(user),
	}, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a
// new pair is issued.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid refresh payload")
	}
	stored, err := s.lookupRefresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !stored.Usable(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	user, err := s.repo.FindByID(ctx, stored.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
	case err != nil:
		return nil, appErrors.Unavailable(err, "failed to load user")
	case !user.Active:
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil {
		s.logger.Warn("failed to revoke used refresh token", zap.String("token_id", stored.ID), zap.Error(err))
	}
	sess, err := s.startSession(ctx, user, req.ClientInfo)
	if err != nil {
		return nil, err
	}
	return &models.RefreshTokenResponse{
		AccessToken:  sess.access,
		RefreshToken: sess.refresh.Token,
		ExpiresIn:    s.expiresIn(),
		IssuedAt:     sess.issuedAt,
	}, nil
}

// Logout revokes one of the caller's refresh tokens.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, userID string, meta models.ClientInfo) error {
	stored, err := s.lookupRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if stored.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}
	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil {
		return appErrors.Unavailable(err, "failed to revoke refresh token")
	}
	s.audit(ctx, models.NewAuditLog(userID, models.AuditActionLogout, models.AuditResourceSession, userID).
		From(meta.IP, meta.UserAgent))
	return nil
}

// ChangePassword replaces the caller's password and ends every open session.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !passwordMatches(user.PasswordHash, req.OldPassword) {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
		return appErrors.Unavailable(err, "failed to update password")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to end sessions after password change", zap.String("user_id", userID), zap.Error(err))
	}
	s.audit(ctx, models.NewAuditLog(userID, models.AuditActionPasswordChange, models.AuditResourceSession, userID))
	return nil
}

// Me reloads the caller from storage so role and active changes apply
// immediately, and attaches the profile when one exists.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.CurrentUser, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := &models.CurrentUser{UserInfo: userInfo(user), Active: user.Active}
	if s.profiles == nil {
		return current, nil
	}
	profile, err := s.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		current.Profile = profile
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Unavailable(err, "failed to load profile")
	}
	return current, nil
}

// SweepSessions deletes refresh tokens that expired or were revoked more
// than one refresh lifetime ago.
func (s *AuthService) SweepSessions(ctx context.Context) (int64, error) {
	purged, err := s.repo.PurgeRefreshTokens(ctx, s.now().Add(-s.config.RefreshTokenExpiry))
	if err != nil {
		return 0, appErrors.Unavailable(err, "failed to purge sessions")
	}
	if purged > 0 {
		s.logger.Info("purged stale sessions", zap.Int64("count", purged))
	}
	return purged, nil
}

// StartSessionSweep runs SweepSessions every interval until ctx is done.
func (s *AuthService) StartSessionSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepSessions(ctx); err != nil {
					s.logger.Warn("session sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *AuthService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	case err != nil:
		return nil, appErrors.Unavailable(err, "failed to load user")
	}
	return user, nil
}

func (s *AuthService) lookupRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, err := s.repo.FindRefreshToken(ctx, token)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
	case err != nil:
		return nil, appErrors.Unavailable(err, "failed to load refresh token")
	}
	return stored, nil
}

// audit records an entry; a failed write is logged and never fails the call.
func (s *AuthService) audit(ctx context.Context, entry *models.AuditLog) {
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", string(entry.Action)), zap.Error(err))
	}
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}

func passwordMatches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{
		ID:         user.ID,
		Identifier: user.Identifier,
		Email:      user.EmailValue(),
		FullName:   user.FullName,
		Role:       user.Role,
	}
}

// mapUserWriteError translates user insert/update failures.
func mapUserWriteError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateIdentifier):
		return appErrors.Clone(appErrors.ErrConflict, "identifier already registered")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	default:
		return appErrors.Unavailable(err, message)
	}
}
