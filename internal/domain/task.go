package domain

import "time"

// TaskCategory enumerates the kinds of review work routed to staff.
type TaskCategory string

const (
	TaskCategoryJobApproval     TaskCategory = "JOB_APPROVAL"
	TaskCategoryKYCVerification TaskCategory = "KYC_VERIFICATION"
)

// Departments returns the preferred department pool for this category.
func (c TaskCategory) Departments() []Department {
	if c == TaskCategoryKYCVerification {
		return []Department{DepartmentTutorOps, DepartmentSuperAdmin}
	}
	return []Department{DepartmentParentOps, DepartmentSuperAdmin}
}

// TaskStatus enumerates lifecycle states for assigned work.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Task records that a specific staff member owns review responsibility for
// a specific unit of work. At most one PENDING task exists per unit.
type Task struct {
	ID          string
	StaffID     string
	Category    TaskCategory
	JobID       *string
	KYCID       *string
	Status      TaskStatus
	AssignedAt  time.Time
	CompletedAt *time.Time
	Notes       string
}

// WorkItem is the closed union identifying one unit of reviewable work:
// either a job posting awaiting approval or a KYC record awaiting
// verification. Notes carries free text copied onto the created task.
type WorkItem struct {
	Category TaskCategory
	JobID    *string
	KYCID    *string
	Notes    string
}

// JobWork builds the work item for a job posting awaiting approval.
func JobWork(jobID string) WorkItem {
	return WorkItem{Category: TaskCategoryJobApproval, JobID: &jobID}
}

// KYCWork builds the work item for a KYC record awaiting verification.
func KYCWork(kycID, notes string) WorkItem {
	return WorkItem{Category: TaskCategoryKYCVerification, KYCID: &kycID, Notes: notes}
}
