package dto

import (
	"time"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// NotificationResponse represents an in-app notification.
type NotificationResponse struct {
	ID        string                      `json:"id"`
	Title     string                      `json:"title"`
	Body      string                      `json:"body"`
	Category  domain.NotificationCategory `json:"category"`
	JobID     *string                     `json:"job_id,omitempty"`
	KYCID     *string                     `json:"kyc_id,omitempty"`
	Read      bool                        `json:"read"`
	CreatedAt time.Time                   `json:"created_at"`
}

// UnreadCountResponse wraps the unread badge count.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}
