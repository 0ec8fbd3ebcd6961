package events

import (
	"time"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventJobAssigned  EventType = "job_assigned"
	EventJobDecided   EventType = "job_decided"
	EventKYCSubmitted EventType = "kyc_submitted"
	EventKYCAssigned  EventType = "kyc_assigned"
	EventKYCDecided   EventType = "kyc_decided"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// JobAssignedPayload carries what staff need to see about a new assignment.
type JobAssignedPayload struct {
	JobID      string   `json:"job_id"`
	StaffID    string   `json:"staff_id"`
	ClassGrade string   `json:"class_grade"`
	Subjects   []string `json:"subjects"`
	Locality   string   `json:"locality"`
}

// JobDecidedPayload carries a job decision toward the submitting parent.
type JobDecidedPayload struct {
	JobID      string             `json:"job_id"`
	ParentID   string             `json:"parent_id"`
	ClassGrade string             `json:"class_grade"`
	Decision   domain.JobDecision `json:"decision"`
	NewStatus  domain.JobStatus   `json:"new_status"`
	Reason     string             `json:"reason,omitempty"`
}

// KYCSubmittedPayload acknowledges a tutor's submission.
type KYCSubmittedPayload struct {
	KYCID   string `json:"kyc_id"`
	TutorID string `json:"tutor_id"`
}

// KYCAssignedPayload carries a KYC assignment toward staff.
type KYCAssignedPayload struct {
	KYCID     string `json:"kyc_id"`
	StaffID   string `json:"staff_id"`
	TutorName string `json:"tutor_name"`
}

// KYCDecidedPayload carries a KYC decision toward the tutor.
type KYCDecidedPayload struct {
	KYCID               string           `json:"kyc_id"`
	TutorID             string           `json:"tutor_id"`
	Action              domain.KYCAction `json:"action"`
	NewStatus           domain.KYCStatus `json:"new_status"`
	Reason              string           `json:"reason,omitempty"`
	Feedback            string           `json:"feedback,omitempty"`
	DocumentsToResubmit []string         `json:"documents_to_resubmit,omitempty"`
}
