package domain

import "time"

// JobStatus enumerates lifecycle states for job postings.
type JobStatus string

const (
	JobStatusPendingApproval     JobStatus = "PENDING_APPROVAL"
	JobStatusApproved            JobStatus = "APPROVED"
	JobStatusRejected            JobStatus = "REJECTED"
	JobStatusModificationsNeeded JobStatus = "MODIFICATIONS_NEEDED"
	JobStatusAssigned            JobStatus = "ASSIGNED"
	JobStatusClosed              JobStatus = "CLOSED"
	JobStatusCancelled           JobStatus = "CANCELLED"
)

// JobDecision enumerates staff actions on a pending job posting.
type JobDecision string

const (
	JobDecisionApprove        JobDecision = "approve"
	JobDecisionReject         JobDecision = "reject"
	JobDecisionRequestChanges JobDecision = "request_changes"
)

// StatusAfter maps a decision onto the resulting job status.
func (d JobDecision) StatusAfter() (JobStatus, bool) {
	switch d {
	case JobDecisionApprove:
		return JobStatusApproved, true
	case JobDecisionReject:
		return JobStatusRejected, true
	case JobDecisionRequestChanges:
		return JobStatusModificationsNeeded, true
	}
	return "", false
}

// JobPosting is the aggregate for a parent's tuition request.
type JobPosting struct {
	ID                   string
	ParentID             string
	StudentName          string
	StudentGender        string
	ClassGrade           string
	Board                string
	Subjects             []string
	Locality             string
	PreferredTime        string
	BudgetRange          string
	Status               JobStatus
	AssignedAdminID      *string
	RejectionReason      string
	ModificationFeedback string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
