package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/tutorlane/tutor-marketplace/internal/api/dto"
	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/service"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// JobsHandler manages parent job-posting endpoints and staff review endpoints.
type JobsHandler struct {
	service *service.JobService
}

// NewJobsHandler constructs handler.
func NewJobsHandler(jobService *service.JobService) *JobsHandler {
	return &JobsHandler{service: jobService}
}

// Submit POST /jobs.
func (h *JobsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitJobRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	job, err := h.service.Submit(c.UserContext(), principal.User, jobInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": jobResponse(job)})
}

// List GET /jobs.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	offset := (parseInt(c.Query("page"), 1) - 1) * pageSize

	jobs, err := h.service.ListForParent(c.UserContext(), principal.User.ID, pageSize, offset)
	if err != nil {
		return err
	}
	items := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, jobResponse(&jobs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /jobs/:id.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	job, err := h.service.Get(c.UserContext(), c.Params("id"), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobResponse(job)})
}

// Resubmit PUT /jobs/:id/resubmit.
func (h *JobsHandler) Resubmit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitJobRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	job, err := h.service.Resubmit(c.UserContext(), principal.User, c.Params("id"), jobInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobResponse(job)})
}

// Withdraw POST /jobs/:id/withdraw.
func (h *JobsHandler) Withdraw(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	job, err := h.service.Withdraw(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobResponse(job)})
}

// ReviewQueue GET /staff/jobs.
func (h *JobsHandler) ReviewQueue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	offset := (parseInt(c.Query("page"), 1) - 1) * pageSize

	jobs, err := h.service.ReviewQueue(c.UserContext(), principal.Staff, pageSize, offset)
	if err != nil {
		return err
	}
	items := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, jobResponse(&jobs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Decide POST /staff/jobs/:id/decision.
func (h *JobsHandler) Decide(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.DecideJobRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	job, err := h.service.Decide(c.UserContext(), principal.Staff, c.Params("id"), service.JobDecideInput{
		Decision: req.Decision,
		Reason:   req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobResponse(job)})
}

func jobInput(req dto.SubmitJobRequest) service.JobSubmitInput {
	return service.JobSubmitInput{
		StudentName:   req.StudentName,
		StudentGender: req.StudentGender,
		ClassGrade:    req.ClassGrade,
		Board:         req.Board,
		Subjects:      req.Subjects,
		Locality:      req.Locality,
		PreferredTime: req.PreferredTime,
		BudgetRange:   req.BudgetRange,
	}
}

func jobResponse(job *domain.JobPosting) dto.JobResponse {
	return dto.JobResponse{
		ID:                   job.ID,
		ParentID:             job.ParentID,
		StudentName:          job.StudentName,
		StudentGender:        job.StudentGender,
		ClassGrade:           job.ClassGrade,
		Board:                job.Board,
		Subjects:             job.Subjects,
		Locality:             job.Locality,
		PreferredTime:        job.PreferredTime,
		BudgetRange:          job.BudgetRange,
		Status:               job.Status,
		AssignedAdminID:      job.AssignedAdminID,
		RejectionReason:      job.RejectionReason,
		ModificationFeedback: job.ModificationFeedback,
		CreatedAt:            job.CreatedAt,
		UpdatedAt:            job.UpdatedAt,
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
