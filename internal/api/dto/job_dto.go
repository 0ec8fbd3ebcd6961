package dto

import (
	"time"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// SubmitJobRequest payload, shared by submission and resubmission.
type SubmitJobRequest struct {
	StudentName   string   `json:"student_name"`
	StudentGender string   `json:"student_gender"`
	ClassGrade    string   `json:"class_grade"`
	Board         string   `json:"board"`
	Subjects      []string `json:"subjects"`
	Locality      string   `json:"locality"`
	PreferredTime string   `json:"preferred_time"`
	BudgetRange   string   `json:"budget_range"`
}

// DecideJobRequest payload for staff decisions.
type DecideJobRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// JobResponse represents a job posting.
type JobResponse struct {
	ID                   string           `json:"id"`
	ParentID             string           `json:"parent_id"`
	StudentName          string           `json:"student_name"`
	StudentGender        string           `json:"student_gender,omitempty"`
	ClassGrade           string           `json:"class_grade"`
	Board                string           `json:"board"`
	Subjects             []string         `json:"subjects"`
	Locality             string           `json:"locality"`
	PreferredTime        string           `json:"preferred_time,omitempty"`
	BudgetRange          string           `json:"budget_range,omitempty"`
	Status               domain.JobStatus `json:"status"`
	AssignedAdminID      *string          `json:"assigned_admin_id,omitempty"`
	RejectionReason      string           `json:"rejection_reason,omitempty"`
	ModificationFeedback string           `json:"modification_feedback,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}
