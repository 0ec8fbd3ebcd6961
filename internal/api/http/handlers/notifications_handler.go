package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tutorlane/tutor-marketplace/internal/api/dto"
	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/service"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// NotificationsHandler serves in-app notifications for users and staff.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	recipientType, recipientID, err := recipient(c)
	if err != nil {
		return err
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	offset := (parseInt(c.Query("page"), 1) - 1) * pageSize

	notifications, err := h.service.ListForRecipient(c.UserContext(), recipientType, recipientID, pageSize, offset)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, notificationResponse(&notifications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UnreadCount GET /notifications/unread.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	recipientType, recipientID, err := recipient(c)
	if err != nil {
		return err
	}
	count, err := h.service.CountUnread(c.UserContext(), recipientType, recipientID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Unread: count}})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	recipientType, recipientID, err := recipient(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.UserContext(), recipientType, recipientID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}

func recipient(c *fiber.Ctx) (domain.SubjectType, string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", "", apperrors.NewUnauthorized("authentication required")
	}
	switch {
	case principal.User != nil:
		return domain.SubjectTypeUser, principal.User.ID, nil
	case principal.Staff != nil:
		return domain.SubjectTypeStaff, principal.Staff.ID, nil
	}
	return "", "", apperrors.NewUnauthorized("authentication required")
}

func notificationResponse(notification *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        notification.ID,
		Title:     notification.Title,
		Body:      notification.Body,
		Category:  notification.Category,
		JobID:     notification.JobID,
		KYCID:     notification.KYCID,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}
