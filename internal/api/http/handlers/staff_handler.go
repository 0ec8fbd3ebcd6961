package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tutorlane/tutor-marketplace/internal/api/dto"
	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	"github.com/tutorlane/tutor-marketplace/internal/service"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// StaffHandler manages staff auth, account, availability, workload, and
// task endpoints.
type StaffHandler struct {
	authService  *service.AuthService
	staffService *service.StaffService
	taskService  *service.TaskService
	store        repository.Store
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, staffService *service.StaffService, taskService *service.TaskService, store repository.Store) *StaffHandler {
	return &StaffHandler{
		authService:  authService,
		staffService: staffService,
		taskService:  taskService,
		store:        store,
	}
}

// Login POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	staff, result, err := h.authService.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"staff": staffResponse(staff),
		"auth":  dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
	}})
}

// Provision POST /staff. ADMIN only.
func (h *StaffHandler) Provision(c *fiber.Ctx) error {
	var req dto.ProvisionStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	staff, err := h.staffService.Provision(c.UserContext(), service.StaffProvisionInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff)})
}

// Update PATCH /staff/:id. ADMIN only.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	staff, err := h.staffService.Update(c.UserContext(), c.Params("id"), service.StaffUpdateInput{
		Name:       req.Name,
		Department: req.Department,
		Role:       req.Role,
		Active:     req.Active,
		Available:  req.Available,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff)})
}

// SetAvailability PUT /staff/me/availability.
func (h *StaffHandler) SetAvailability(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.SetAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.staffService.SetAvailability(c.UserContext(), principal.Staff.ID, req.Available); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"available": req.Available}})
}

// List GET /staff. ADMIN only.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	filter := repository.StaffFilter{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if departmentStr := c.Query("department"); departmentStr != "" {
		department := domain.Department(strings.ToUpper(departmentStr))
		filter.Department = &department
	}
	if availableStr := c.Query("available"); availableStr != "" {
		available := availableStr == "true"
		filter.Available = &available
	}

	staff, err := h.staffService.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(staff))
	for i := range staff {
		items = append(items, staffResponse(&staff[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// WorkloadOverview GET /staff/workload.
func (h *StaffHandler) WorkloadOverview(c *fiber.Ctx) error {
	entries, err := h.staffService.WorkloadOverview(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.WorkloadEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.WorkloadEntryResponse{
			StaffID:         entry.StaffID,
			Name:            entry.Name,
			Department:      entry.Department,
			Available:       entry.Available,
			PendingJobCount: entry.PendingJobCount,
			PendingKYCCount: entry.PendingKYCCount,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListTasks GET /staff/me/tasks.
func (h *StaffHandler) ListTasks(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}

	var statuses []domain.TaskStatus
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			statuses = append(statuses, domain.TaskStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	offset := (parseInt(c.Query("page"), 1) - 1) * pageSize

	tasks, err := h.taskService.ListForStaff(c.UserContext(), h.store, principal.Staff.ID, statuses, pageSize, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ChangePassword POST /staff/password/change.
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.authService.ChangeStaffPassword(c.UserContext(), principal.Staff, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}

func staffResponse(staff *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:              staff.ID,
		Name:            staff.Name,
		Email:           staff.Email,
		Role:            staff.Role,
		Department:      staff.Department,
		Available:       staff.Available,
		Active:          staff.Active,
		PendingJobCount: staff.PendingJobCount,
		PendingKYCCount: staff.PendingKYCCount,
		CreatedAt:       staff.CreatedAt,
	}
}

func taskResponse(task *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          task.ID,
		StaffID:     task.StaffID,
		Category:    task.Category,
		JobID:       task.JobID,
		KYCID:       task.KYCID,
		Status:      task.Status,
		AssignedAt:  task.AssignedAt,
		CompletedAt: task.CompletedAt,
		Notes:       task.Notes,
	}
}
