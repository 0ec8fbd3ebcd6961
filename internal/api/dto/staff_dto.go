package dto

import (
	"time"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// ProvisionStaffRequest payload.
type ProvisionStaffRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// UpdateStaffRequest payload; omitted fields keep their current value.
type UpdateStaffRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Role       *string `json:"role"`
	Active     *bool   `json:"active"`
	Available  *bool   `json:"available"`
}

// SetAvailabilityRequest payload.
type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

// StaffResponse represents a staff member.
type StaffResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Role            domain.StaffRole  `json:"role"`
	Department      domain.Department `json:"department"`
	Available       bool              `json:"available"`
	Active          bool              `json:"active"`
	PendingJobCount int               `json:"pending_job_count"`
	PendingKYCCount int               `json:"pending_kyc_count"`
	CreatedAt       time.Time         `json:"created_at"`
}

// WorkloadEntryResponse is one row of the workload overview.
type WorkloadEntryResponse struct {
	StaffID         string            `json:"staff_id"`
	Name            string            `json:"name"`
	Department      domain.Department `json:"department"`
	Available       bool              `json:"available"`
	PendingJobCount int               `json:"pending_job_count"`
	PendingKYCCount int               `json:"pending_kyc_count"`
}

// TaskResponse represents an assigned unit of review work.
type TaskResponse struct {
	ID          string                `json:"id"`
	StaffID     string                `json:"staff_id"`
	Category    domain.TaskCategory   `json:"category"`
	JobID       *string               `json:"job_id,omitempty"`
	KYCID       *string               `json:"kyc_id,omitempty"`
	Status      domain.TaskStatus     `json:"status"`
	AssignedAt  time.Time             `json:"assigned_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Notes       string                `json:"notes,omitempty"`
}
