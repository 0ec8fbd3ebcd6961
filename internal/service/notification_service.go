package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/events"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// NotificationService turns domain events into in-app notification rows.
// Emission is best-effort everywhere: a failed insert is logged and
// swallowed, never surfaced to the triggering workflow.
type NotificationService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the events that produce notifications.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventJobAssigned, n.handleJobAssigned)
	n.dispatcher.Subscribe(events.EventJobDecided, n.handleJobDecided)
	n.dispatcher.Subscribe(events.EventKYCSubmitted, n.handleKYCSubmitted)
	n.dispatcher.Subscribe(events.EventKYCAssigned, n.handleKYCAssigned)
	n.dispatcher.Subscribe(events.EventKYCDecided, n.handleKYCDecided)
}

func (n *NotificationService) handleJobAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.JobAssignedPayload)
	if !ok {
		return nil
	}
	n.emit(ctx, &domain.Notification{
		RecipientType: domain.SubjectTypeStaff,
		RecipientID:   payload.StaffID,
		Title:         "New Job Approval Request",
		Body: fmt.Sprintf("A new job posting requires your approval: %s %s in %s",
			payload.ClassGrade, strings.Join(payload.Subjects, ", "), payload.Locality),
		Category: domain.NotificationJobAssigned,
		JobID:    &payload.JobID,
	})
	return nil
}

func (n *NotificationService) handleJobDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.JobDecidedPayload)
	if !ok {
		return nil
	}

	notification := &domain.Notification{
		RecipientType: domain.SubjectTypeUser,
		RecipientID:   payload.ParentID,
		JobID:         &payload.JobID,
	}
	switch payload.Decision {
	case domain.JobDecisionApprove:
		notification.Category = domain.NotificationJobApproved
		notification.Title = "Job Approved"
		notification.Body = fmt.Sprintf("Your job posting for %s has been approved and is now visible to tutors.", payload.ClassGrade)
	case domain.JobDecisionReject:
		notification.Category = domain.NotificationJobRejected
		notification.Title = "Job Rejected"
		notification.Body = fmt.Sprintf("Your job posting for %s has been rejected. Reason: %s", payload.ClassGrade, payload.Reason)
	case domain.JobDecisionRequestChanges:
		notification.Category = domain.NotificationJobModificationsNeeded
		notification.Title = "Job Modifications Needed"
		notification.Body = fmt.Sprintf("Your job posting for %s needs changes before approval. Feedback: %s", payload.ClassGrade, payload.Reason)
	default:
		return nil
	}

	n.emit(ctx, notification)
	return nil
}

func (n *NotificationService) handleKYCSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.KYCSubmittedPayload)
	if !ok {
		return nil
	}
	n.emit(ctx, &domain.Notification{
		RecipientType: domain.SubjectTypeUser,
		RecipientID:   payload.TutorID,
		Title:         "KYC Submitted Successfully",
		Body:          "Your KYC documents have been submitted and are under review. You'll be notified once verified.",
		Category:      domain.NotificationSystem,
		KYCID:         &payload.KYCID,
	})
	return nil
}

func (n *NotificationService) handleKYCAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.KYCAssignedPayload)
	if !ok {
		return nil
	}
	n.emit(ctx, &domain.Notification{
		RecipientType: domain.SubjectTypeStaff,
		RecipientID:   payload.StaffID,
		Title:         "New KYC Verification Request",
		Body:          fmt.Sprintf("KYC verification assigned for tutor: %s", payload.TutorName),
		Category:      domain.NotificationKYCAssigned,
		KYCID:         &payload.KYCID,
	})
	return nil
}

func (n *NotificationService) handleKYCDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.KYCDecidedPayload)
	if !ok {
		return nil
	}

	notification := &domain.Notification{
		RecipientType: domain.SubjectTypeUser,
		RecipientID:   payload.TutorID,
		KYCID:         &payload.KYCID,
	}
	switch payload.Action {
	case domain.KYCActionApprove:
		notification.Category = domain.NotificationKYCApproved
		notification.Title = "KYC Approved!"
		notification.Body = "Congratulations! Your KYC has been verified. You can now post job opportunities and appear in parent searches."
	case domain.KYCActionReject:
		notification.Category = domain.NotificationKYCRejected
		notification.Title = "KYC Rejected"
		notification.Body = fmt.Sprintf("Your KYC has been rejected. Reason: %s", payload.Reason)
	case domain.KYCActionResubmit:
		notification.Category = domain.NotificationKYCResubmit
		notification.Title = "KYC Re-submission Required"
		notification.Body = fmt.Sprintf("Please re-upload the following documents: %s. Feedback: %s",
			strings.Join(payload.DocumentsToResubmit, ", "), payload.Feedback)
	default:
		return nil
	}

	n.emit(ctx, notification)
	return nil
}

func (n *NotificationService) emit(ctx context.Context, notification *domain.Notification) {
	if err := n.store.Notifications().Create(ctx, notification); err != nil {
		n.logger.Error("failed to create notification",
			zap.String("category", string(notification.Category)),
			zap.String("recipient_id", notification.RecipientID),
			zap.Error(err))
		return
	}
	n.logger.Info("notification created",
		zap.String("category", string(notification.Category)),
		zap.String("recipient_id", notification.RecipientID),
		zap.String("title", notification.Title))
}

// ListForRecipient returns the recipient's notifications, newest first.
func (n *NotificationService) ListForRecipient(ctx context.Context, recipientType domain.SubjectType, recipientID string, limit, offset int) ([]domain.Notification, error) {
	result, err := n.store.Notifications().ListByRecipient(ctx, recipientType, recipientID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// CountUnread returns the recipient's unread notification count.
func (n *NotificationService) CountUnread(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int, error) {
	count, err := n.store.Notifications().CountUnread(ctx, recipientType, recipientID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// MarkRead flips the read flag on one of the recipient's notifications.
func (n *NotificationService) MarkRead(ctx context.Context, recipientType domain.SubjectType, recipientID, notificationID string) error {
	if err := n.store.Notifications().MarkRead(ctx, notificationID, recipientType, recipientID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
