package domain

import "time"

// NotificationCategory enumerates supported in-app notification kinds.
type NotificationCategory string

const (
	NotificationJobAssigned            NotificationCategory = "JOB_ASSIGNED"
	NotificationJobApproved            NotificationCategory = "JOB_APPROVED"
	NotificationJobRejected            NotificationCategory = "JOB_REJECTED"
	NotificationJobModificationsNeeded NotificationCategory = "JOB_MODIFICATIONS_NEEDED"
	NotificationKYCAssigned            NotificationCategory = "KYC_ASSIGNED"
	NotificationKYCApproved            NotificationCategory = "KYC_APPROVED"
	NotificationKYCRejected            NotificationCategory = "KYC_REJECTED"
	NotificationKYCResubmit            NotificationCategory = "KYC_RESUBMIT"
	NotificationSystem                 NotificationCategory = "SYSTEM"
)

// Notification is a fire-and-forget in-app message. Rows are written once
// and mutated only by the recipient marking them read.
type Notification struct {
	ID            string
	RecipientType SubjectType
	RecipientID   string
	Title         string
	Body          string
	Category      NotificationCategory
	JobID         *string
	KYCID         *string
	Read          bool
	CreatedAt     time.Time
}
