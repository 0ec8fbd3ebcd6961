package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent StaffRole = "AGENT"
	StaffRoleAdmin StaffRole = "ADMIN"
)

// Department is the category of review work a staff member is eligible for.
type Department string

const (
	DepartmentParentOps  Department = "PARENT_OPS" // job-posting approvals
	DepartmentTutorOps   Department = "TUTOR_OPS"  // KYC verification
	DepartmentSuperAdmin Department = "SUPERADMIN" // eligible for any category
)

// StaffMember models a review operator together with their workload counters.
// Invariant: each pending counter equals the number of PENDING tasks of the
// matching category currently assigned to this staff member.
type StaffMember struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            StaffRole
	Department      Department
	Available       bool
	Active          bool
	PendingJobCount int
	PendingKYCCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PendingCount returns the workload counter for the given category.
func (s *StaffMember) PendingCount(category TaskCategory) int {
	if category == TaskCategoryKYCVerification {
		return s.PendingKYCCount
	}
	return s.PendingJobCount
}

// CanReview reports whether this staff member may decide on a unit of work:
// the assigned admin, or anyone in the SUPERADMIN department.
func (s *StaffMember) CanReview(assignedAdminID *string) bool {
	if s.Department == DepartmentSuperAdmin {
		return true
	}
	return assignedAdminID != nil && *assignedAdminID == s.ID
}
