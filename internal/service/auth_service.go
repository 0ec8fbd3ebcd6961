package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// RegisterInput carries fields for self-service registration.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

// AuthResult is a successful login or registration outcome.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
}

// AuthServiceDependencies bundles collaborators for AuthService.
type AuthServiceDependencies struct {
	Store      repository.Store
	Tokens     *auth.TokenManager
	BcryptCost int
	Logger     *zap.Logger
}

// AuthService handles registration, login, and password changes for both
// end-users and staff.
type AuthService struct {
	store      repository.Store
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService creates the service.
func NewAuthService(deps AuthServiceDependencies) *AuthService {
	return &AuthService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
		logger:     deps.Logger,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// RegisterUser creates a PARENT or TUTOR account and issues a token.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*domain.User, *AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role := domain.UserRole(strings.ToUpper(strings.TrimSpace(input.Role)))

	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if email == "" {
		details["email"] = "required"
	}
	if len(input.Password) < 8 {
		details["password"] = "must be at least 8 characters"
	}
	if role != domain.UserRoleParent && role != domain.UserRoleTutor {
		details["role"] = "must be PARENT or TUTOR"
	}
	if len(details) > 0 {
		return nil, nil, apperrors.NewValidationError("invalid registration", details)
	}

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	result, err := s.issueToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return user, result, nil
}

// LoginUser authenticates a parent or tutor.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, *AuthResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, apperrors.NewUnauthorized("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	result, err := s.issueToken(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, err
	}
	return user, result, nil
}

// LoginStaff authenticates a staff member. Deactivated accounts are rejected.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, *AuthResult, error) {
	staff, err := s.store.Staff().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !staff.Active {
		return nil, nil, apperrors.NewUnauthorized("account deactivated")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	result, err := s.issueToken(staff.ID, domain.SubjectTypeStaff, &staff.Role)
	if err != nil {
		return nil, nil, err
	}
	return staff, result, nil
}

// ChangeUserPassword rotates a user's password after verifying the current one.
func (s *AuthService) ChangeUserPassword(ctx context.Context, user *domain.User, current, next string) error {
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.store.Users().Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangeStaffPassword rotates a staff member's password.
func (s *AuthService) ChangeStaffPassword(ctx context.Context, staff *domain.StaffMember, current, next string) error {
	if err := auth.ComparePassword(staff.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	staff.PasswordHash = hash
	if err := s.store.Staff().Update(ctx, staff); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) issueToken(subjectID string, subject domain.SubjectType, role *domain.StaffRole) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(subjectID, subject, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt}, nil
}
