package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// NotificationRepository persists in-app notifications. Rows are written by
// the notification emitter and mutated only by the recipient marking them read.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientType domain.SubjectType, recipientID string, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int, error)
	// MarkRead flips the read flag; the recipient filter prevents one
	// user from acknowledging another's notifications.
	MarkRead(ctx context.Context, id string, recipientType domain.SubjectType, recipientID string) error
}

type notificationRepository struct {
	db Querier
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(db Querier) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_type, recipient_id, title, body, category, job_id, kyc_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, read_flag, created_at`

	return r.db.QueryRow(ctx, query,
		notification.RecipientType,
		notification.RecipientID,
		notification.Title,
		notification.Body,
		notification.Category,
		notification.JobID,
		notification.KYCID,
	).Scan(&notification.ID, &notification.Read, &notification.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientType domain.SubjectType, recipientID string, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, recipient_type, recipient_id, title, body, category, job_id, kyc_id, read_flag, created_at
        FROM notifications
        WHERE recipient_type=$1 AND recipient_id=$2
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.Query(ctx, query, recipientType, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientType,
			&n.RecipientID,
			&n.Title,
			&n.Body,
			&n.Category,
			&n.JobID,
			&n.KYCID,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM notifications
        WHERE recipient_type=$1 AND recipient_id=$2 AND NOT read_flag`
	var count int
	err := r.db.QueryRow(ctx, query, recipientType, recipientID).Scan(&count)
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, recipientType domain.SubjectType, recipientID string) error {
	const query = `
        UPDATE notifications SET read_flag=TRUE
        WHERE id=$1 AND recipient_type=$2 AND recipient_id=$3`
	cmd, err := r.db.Exec(ctx, query, id, recipientType, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
