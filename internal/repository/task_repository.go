package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

const taskColumns = `id, staff_id, category, job_id, kyc_id, status, assigned_at, completed_at, notes`

// TaskRepository encapsulates persistence of assigned review work.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	// FindPendingForUpdate locates the unique PENDING task for the given
	// unit of work and staff member, locking the row. Returns
	// pgx.ErrNoRows when no such task exists.
	FindPendingForUpdate(ctx context.Context, work domain.WorkItem, staffID string) (*domain.Task, error)
	// FindPendingByUnit locates the PENDING task for a unit of work
	// regardless of assignee, locking the row.
	FindPendingByUnit(ctx context.Context, work domain.WorkItem) (*domain.Task, error)
	MarkCompleted(ctx context.Context, id, notes string, at time.Time) error
	MarkCancelled(ctx context.Context, id string) error
	ListByStaff(ctx context.Context, staffID string, statuses []domain.TaskStatus, limit, offset int) ([]domain.Task, error)
	CountPending(ctx context.Context, staffID string, category domain.TaskCategory) (int, error)
}

type taskRepository struct {
	db Querier
}

// NewTaskRepository instantiates the repository.
func NewTaskRepository(db Querier) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO admin_tasks (staff_id, category, job_id, kyc_id, status, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, assigned_at`

	return r.db.QueryRow(ctx, query,
		task.StaffID,
		task.Category,
		task.JobID,
		task.KYCID,
		task.Status,
		task.Notes,
	).Scan(&task.ID, &task.AssignedAt)
}

func (r *taskRepository) FindPendingForUpdate(ctx context.Context, work domain.WorkItem, staffID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM admin_tasks WHERE staff_id=$1 AND status=$2 AND ` + unitClause(work, 3) + ` FOR UPDATE`
	return r.fetchSingle(ctx, query, staffID, domain.TaskStatusPending, unitArg(work))
}

func (r *taskRepository) FindPendingByUnit(ctx context.Context, work domain.WorkItem) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM admin_tasks WHERE status=$1 AND ` + unitClause(work, 2) + ` FOR UPDATE`
	return r.fetchSingle(ctx, query, domain.TaskStatusPending, unitArg(work))
}

func (r *taskRepository) MarkCompleted(ctx context.Context, id, notes string, at time.Time) error {
	const query = `UPDATE admin_tasks SET status=$1, completed_at=$2, notes=$3 WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query, domain.TaskStatusCompleted, at, notes, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) MarkCancelled(ctx context.Context, id string) error {
	const query = `UPDATE admin_tasks SET status=$1 WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, domain.TaskStatusCancelled, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) ListByStaff(ctx context.Context, staffID string, statuses []domain.TaskStatus, limit, offset int) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM admin_tasks`
	args := []any{staffID}
	clauses := []string{"staff_id=$1"}

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" WHERE %s ORDER BY assigned_at DESC LIMIT %d OFFSET %d",
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := scanTask(rows, &task); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

func (r *taskRepository) CountPending(ctx context.Context, staffID string, category domain.TaskCategory) (int, error) {
	const query = `SELECT COUNT(*) FROM admin_tasks WHERE staff_id=$1 AND category=$2 AND status=$3`
	var count int
	err := r.db.QueryRow(ctx, query, staffID, category, domain.TaskStatusPending).Scan(&count)
	return count, err
}

func (r *taskRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Task, error) {
	var task domain.Task
	if err := scanTask(r.db.QueryRow(ctx, query, args...), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func unitClause(work domain.WorkItem, pos int) string {
	if work.Category == domain.TaskCategoryKYCVerification {
		return fmt.Sprintf("kyc_id=$%d", pos)
	}
	return fmt.Sprintf("job_id=$%d", pos)
}

func unitArg(work domain.WorkItem) any {
	if work.Category == domain.TaskCategoryKYCVerification {
		return work.KYCID
	}
	return work.JobID
}

func scanTask(row rowScanner, task *domain.Task) error {
	return row.Scan(
		&task.ID,
		&task.StaffID,
		&task.Category,
		&task.JobID,
		&task.KYCID,
		&task.Status,
		&task.AssignedAt,
		&task.CompletedAt,
		&task.Notes,
	)
}
