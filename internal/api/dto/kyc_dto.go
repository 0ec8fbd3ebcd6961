package dto

import (
	"time"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// SubmitKYCRequest payload of document storage keys. On resubmission,
// omitted keys keep the previously uploaded document.
type SubmitKYCRequest struct {
	AadhaarKey              string `json:"aadhaar_key"`
	EducationCertificateKey string `json:"education_certificate_key"`
	PhotoKey                string `json:"photo_key"`
	PANKey                  string `json:"pan_key"`
	PoliceVerificationKey   string `json:"police_verification_key"`
	TeachingCertificateKey  string `json:"teaching_certificate_key"`
}

// DecideKYCRequest payload for staff decisions.
type DecideKYCRequest struct {
	Action              string   `json:"action"`
	Reason              string   `json:"reason"`
	Feedback            string   `json:"feedback"`
	DocumentsToResubmit []string `json:"documents_to_resubmit"`
}

// KYCResponse represents a verification record.
type KYCResponse struct {
	ID                  string           `json:"id"`
	TutorID             string           `json:"tutor_id"`
	Status              domain.KYCStatus `json:"status"`
	SubmissionCount     int              `json:"submission_count"`
	AadhaarVerified     bool             `json:"aadhaar_verified"`
	EducationVerified   bool             `json:"education_verified"`
	PhotoVerified       bool             `json:"photo_verified"`
	PANVerified         bool             `json:"pan_verified"`
	DocumentsToResubmit []string         `json:"documents_to_resubmit,omitempty"`
	AdminFeedback       string           `json:"admin_feedback,omitempty"`
	RejectionReason     string           `json:"rejection_reason,omitempty"`
	AssignedAdminID     *string          `json:"assigned_admin_id,omitempty"`
	AssignedAt          *time.Time       `json:"assigned_at,omitempty"`
	ReviewedAt          *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
