package domain

import "time"

// KYCStatus enumerates lifecycle states for KYC records.
type KYCStatus string

const (
	KYCStatusDraft       KYCStatus = "DRAFT"
	KYCStatusSubmitted   KYCStatus = "SUBMITTED"
	KYCStatusUnderReview KYCStatus = "UNDER_REVIEW"
	KYCStatusVerified    KYCStatus = "VERIFIED"
	KYCStatusRejected    KYCStatus = "REJECTED"
)

// KYCAction enumerates staff actions on a KYC record under review.
type KYCAction string

const (
	KYCActionApprove  KYCAction = "approve"
	KYCActionReject   KYCAction = "reject"
	KYCActionResubmit KYCAction = "resubmit"
)

// MaxKYCSubmissions caps resubmission attempts per tutor.
const MaxKYCSubmissions = 3

// KYCDocuments holds storage keys for the uploaded document pack.
type KYCDocuments struct {
	AadhaarKey              string
	EducationCertificateKey string
	PhotoKey                string
	PANKey                  string
	PoliceVerificationKey   string
	TeachingCertificateKey  string
}

// KYCRecord tracks one verification attempt for a tutor.
type KYCRecord struct {
	ID      string
	TutorID string

	Documents KYCDocuments

	AadhaarVerified   bool
	EducationVerified bool
	PhotoVerified     bool
	PANVerified       bool

	DocumentsToResubmit []string
	AdminFeedback       string

	AssignedAdminID *string
	AssignedAt      *time.Time
	ReviewedAt      *time.Time

	Status          KYCStatus
	RejectionReason string
	SubmissionCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decided reports whether the record reached a terminal review outcome.
func (k *KYCRecord) Decided() bool {
	return k.Status == KYCStatusVerified || k.Status == KYCStatusRejected
}
