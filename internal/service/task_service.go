package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// TaskService is the task lifecycle manager: it closes assigned review work
// exactly once per decision and keeps the workload counters consistent with
// task state.
type TaskService struct {
	logger *zap.Logger
}

// NewTaskService creates the service.
func NewTaskService(logger *zap.Logger) *TaskService {
	return &TaskService{logger: logger}
}

// CompletePending closes the unique PENDING task for (unit of work, staff)
// and decrements the staff member's pending counter in the same transaction.
// A missing task is tolerated: the decision proceeds, a warning is logged,
// and closed=false lets callers distinguish the orphan case.
func (s *TaskService) CompletePending(ctx context.Context, tx repository.Store, work domain.WorkItem, staffID, notes string) (bool, error) {
	task, err := tx.Tasks().FindPendingForUpdate(ctx, work, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("no pending task for decision",
				zap.String("category", string(work.Category)),
				zap.String("staff_id", staffID))
			return false, nil
		}
		return false, apperrors.MapError(err)
	}

	if err := tx.Tasks().MarkCompleted(ctx, task.ID, notes, now()); err != nil {
		return false, apperrors.MapError(err)
	}
	if err := tx.Workload().Decrement(ctx, task.StaffID, task.Category); err != nil {
		return false, apperrors.MapError(err)
	}
	return true, nil
}

// CancelPending cancels the PENDING task for a withdrawn unit of work,
// regardless of assignee, and releases the workload it held. Tolerates a
// missing task the same way CompletePending does.
func (s *TaskService) CancelPending(ctx context.Context, tx repository.Store, work domain.WorkItem) (bool, error) {
	task, err := tx.Tasks().FindPendingByUnit(ctx, work)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("no pending task to cancel",
				zap.String("category", string(work.Category)))
			return false, nil
		}
		return false, apperrors.MapError(err)
	}

	if err := tx.Tasks().MarkCancelled(ctx, task.ID); err != nil {
		return false, apperrors.MapError(err)
	}
	if err := tx.Workload().Decrement(ctx, task.StaffID, task.Category); err != nil {
		return false, apperrors.MapError(err)
	}
	return true, nil
}

// ListForStaff returns a staff member's tasks, optionally filtered by status.
func (s *TaskService) ListForStaff(ctx context.Context, store repository.Store, staffID string, statuses []domain.TaskStatus, limit, offset int) ([]domain.Task, error) {
	tasks, err := store.Tasks().ListByStaff(ctx, staffID, statuses, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tasks, nil
}
