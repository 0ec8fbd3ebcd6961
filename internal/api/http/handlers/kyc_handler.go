package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tutorlane/tutor-marketplace/internal/api/dto"
	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/service"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// KYCHandler manages tutor verification endpoints and staff review endpoints.
type KYCHandler struct {
	service *service.KYCService
}

// NewKYCHandler constructs handler.
func NewKYCHandler(kycService *service.KYCService) *KYCHandler {
	return &KYCHandler{service: kycService}
}

// Submit POST /kyc.
func (h *KYCHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitKYCRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.service.Submit(c.UserContext(), principal.User, service.KYCSubmitInput{
		AadhaarKey:              req.AadhaarKey,
		EducationCertificateKey: req.EducationCertificateKey,
		PhotoKey:                req.PhotoKey,
		PANKey:                  req.PANKey,
		PoliceVerificationKey:   req.PoliceVerificationKey,
		TeachingCertificateKey:  req.TeachingCertificateKey,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": kycResponse(record)})
}

// Status GET /kyc/status.
func (h *KYCHandler) Status(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	record, err := h.service.Status(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": kycResponse(record)})
}

// ReviewQueue GET /staff/kyc.
func (h *KYCHandler) ReviewQueue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	records, err := h.service.ReviewQueue(c.UserContext(), principal.Staff)
	if err != nil {
		return err
	}
	items := make([]dto.KYCResponse, 0, len(records))
	for i := range records {
		items = append(items, kycResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /staff/kyc/:id.
func (h *KYCHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	record, err := h.service.Get(c.UserContext(), c.Params("id"), nil)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": kycResponse(record)})
}

// Decide POST /staff/kyc/:id/decision.
func (h *KYCHandler) Decide(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.DecideKYCRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	record, err := h.service.Decide(c.UserContext(), principal.Staff, c.Params("id"), service.KYCDecideInput{
		Action:              req.Action,
		Reason:              req.Reason,
		Feedback:            req.Feedback,
		DocumentsToResubmit: req.DocumentsToResubmit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": kycResponse(record)})
}

func kycResponse(record *domain.KYCRecord) dto.KYCResponse {
	return dto.KYCResponse{
		ID:                  record.ID,
		TutorID:             record.TutorID,
		Status:              record.Status,
		SubmissionCount:     record.SubmissionCount,
		AadhaarVerified:     record.AadhaarVerified,
		EducationVerified:   record.EducationVerified,
		PhotoVerified:       record.PhotoVerified,
		PANVerified:         record.PANVerified,
		DocumentsToResubmit: record.DocumentsToResubmit,
		AdminFeedback:       record.AdminFeedback,
		RejectionReason:     record.RejectionReason,
		AssignedAdminID:     record.AssignedAdminID,
		AssignedAt:          record.AssignedAt,
		ReviewedAt:          record.ReviewedAt,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}
