package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

const workloadOverviewKey = "workload:overview"

// StaffProvisionInput carries fields for creating a staff account.
type StaffProvisionInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Department string
}

// StaffUpdateInput carries mutable staff fields; nil means keep current.
type StaffUpdateInput struct {
	Name       *string
	Department *string
	Role       *string
	Active     *bool
	Available  *bool
}

// WorkloadEntry is one row of the workload overview.
type WorkloadEntry struct {
	StaffID         string            `json:"staff_id"`
	Name            string            `json:"name"`
	Department      domain.Department `json:"department"`
	Available       bool              `json:"available"`
	PendingJobCount int               `json:"pending_job_count"`
	PendingKYCCount int               `json:"pending_kyc_count"`
}

// StaffServiceDependencies bundles collaborators for StaffService.
type StaffServiceDependencies struct {
	Store      repository.Store
	Redis      *redis.Client
	CacheTTL   time.Duration
	BcryptCost int
	Logger     *zap.Logger
}

// StaffService manages staff accounts, availability, and the workload
// overview. The overview is cached in Redis for a short TTL since it backs a
// frequently polled dashboard; mutations invalidate the cache eagerly.
type StaffService struct {
	store      repository.Store
	redis      *redis.Client
	cacheTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
}

// NewStaffService creates the service.
func NewStaffService(deps StaffServiceDependencies) *StaffService {
	return &StaffService{
		store:      deps.Store,
		redis:      deps.Redis,
		cacheTTL:   deps.CacheTTL,
		bcryptCost: deps.BcryptCost,
		logger:     deps.Logger,
	}
}

// Provision creates a staff account. ADMIN-only at the route layer.
func (s *StaffService) Provision(ctx context.Context, input StaffProvisionInput) (*domain.StaffMember, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	department := domain.Department(strings.ToUpper(strings.TrimSpace(input.Department)))
	role := domain.StaffRole(strings.ToUpper(strings.TrimSpace(input.Role)))

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
	if !validDepartment(department) {
		details["department"] = "must be PARENT_OPS, TUTOR_OPS or SUPERADMIN"
	}
	if role != domain.StaffRoleAgent && role != domain.StaffRoleAdmin {
		details["role"] = "must be AGENT or ADMIN"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid staff member", details)
	}

	if _, err := s.store.Staff().GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Department:   department,
		Available:    true,
		Active:       true,
	}
	if err := s.store.Staff().Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.invalidateOverview(ctx)
	s.logger.Info("staff member provisioned",
		zap.String("staff_id", staff.ID),
		zap.String("department", string(staff.Department)),
		zap.String("role", string(staff.Role)))
	return staff, nil
}

// Update applies partial changes to a staff account.
func (s *StaffService) Update(ctx context.Context, staffID string, input StaffUpdateInput) (*domain.StaffMember, error) {
	staff, err := s.store.Staff().GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		staff.Name = strings.TrimSpace(*input.Name)
	}
	if input.Department != nil {
		department := domain.Department(strings.ToUpper(strings.TrimSpace(*input.Department)))
		if !validDepartment(department) {
			return nil, apperrors.NewValidationError("invalid department", nil)
		}
		staff.Department = department
	}
	if input.Role != nil {
		role := domain.StaffRole(strings.ToUpper(strings.TrimSpace(*input.Role)))
		if role != domain.StaffRoleAgent && role != domain.StaffRoleAdmin {
			return nil, apperrors.NewValidationError("invalid role", nil)
		}
		staff.Role = role
	}
	if input.Active != nil {
		staff.Active = *input.Active
	}
	if input.Available != nil {
		staff.Available = *input.Available
	}

	if err := s.store.Staff().Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateOverview(ctx)
	return staff, nil
}

// SetAvailability toggles whether the staff member receives new assignments.
// Existing pending work stays assigned.
func (s *StaffService) SetAvailability(ctx context.Context, staffID string, available bool) error {
	if err := s.store.Staff().SetAvailability(ctx, staffID, available); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidateOverview(ctx)
	s.logger.Info("staff availability changed",
		zap.String("staff_id", staffID),
		zap.Bool("available", available))
	return nil
}

// Get returns one staff member.
func (s *StaffService) Get(ctx context.Context, staffID string) (*domain.StaffMember, error) {
	staff, err := s.store.Staff().GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// List returns staff members matching the filter.
func (s *StaffService) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	staff, err := s.store.Staff().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// WorkloadOverview returns per-staff pending counters for active staff,
// served from the Redis cache when fresh.
func (s *StaffService) WorkloadOverview(ctx context.Context) ([]WorkloadEntry, error) {
	if cached := s.cachedOverview(ctx); cached != nil {
		return cached, nil
	}

	active := true
	staff, err := s.store.Staff().List(ctx, repository.StaffFilter{Active: &active, Limit: 500})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries := make([]WorkloadEntry, 0, len(staff))
	for _, member := range staff {
		entries = append(entries, WorkloadEntry{
			StaffID:         member.ID,
			Name:            member.Name,
			Department:      member.Department,
			Available:       member.Available,
			PendingJobCount: member.PendingJobCount,
			PendingKYCCount: member.PendingKYCCount,
		})
	}

	s.cacheOverview(ctx, entries)
	return entries, nil
}

func (s *StaffService) cachedOverview(ctx context.Context) []WorkloadEntry {
	if s.redis == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.redis.Get(ctx, workloadOverviewKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("workload overview cache read failed", zap.Error(err))
		}
		return nil
	}
	var entries []WorkloadEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("workload overview cache corrupt", zap.Error(err))
		return nil
	}
	return entries
}

func (s *StaffService) cacheOverview(ctx context.Context, entries []WorkloadEntry) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, workloadOverviewKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("workload overview cache write failed", zap.Error(err))
	}
}

func (s *StaffService) invalidateOverview(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, workloadOverviewKey).Err(); err != nil {
		s.logger.Warn("workload overview cache invalidation failed", zap.Error(err))
	}
}

func validDepartment(department domain.Department) bool {
	switch department {
	case domain.DepartmentParentOps, domain.DepartmentTutorOps, domain.DepartmentSuperAdmin:
		return true
	}
	return false
}
