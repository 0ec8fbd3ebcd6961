package repository

import (
	"context"
	"fmt"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// WorkloadRepository is the workload ledger: per-staff pending-work counters
// partitioned by task category, plus the candidate selection queries used by
// the assignment engine. The ForUpdate variants lock the returned staff rows
// so that concurrent read-select-increment sequences serialize; callers must
// run them inside Store.InTx.
type WorkloadRepository interface {
	CandidatesForReview(ctx context.Context, category domain.TaskCategory) ([]domain.StaffMember, error)
	FallbackCandidates(ctx context.Context, category domain.TaskCategory) ([]domain.StaffMember, error)
	Increment(ctx context.Context, staffID string, category domain.TaskCategory) error
	Decrement(ctx context.Context, staffID string, category domain.TaskCategory) error
}

type workloadRepository struct {
	db Querier
}

// NewWorkloadRepository instantiates the repository.
func NewWorkloadRepository(db Querier) WorkloadRepository {
	return &workloadRepository{db: db}
}

func counterColumn(category domain.TaskCategory) string {
	if category == domain.TaskCategoryKYCVerification {
		return "pending_kyc_count"
	}
	return "pending_job_count"
}

// CandidatesForReview returns available, active staff in the category's
// preferred departments ordered by ascending pending count, rows locked.
func (r *workloadRepository) CandidatesForReview(ctx context.Context, category domain.TaskCategory) ([]domain.StaffMember, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM staff_members
        WHERE department = ANY($1) AND available_flag AND active_flag
        ORDER BY %s ASC
        FOR UPDATE`, staffColumns, counterColumn(category))

	departments := category.Departments()
	names := make([]string, 0, len(departments))
	for _, d := range departments {
		names = append(names, string(d))
	}

	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStaffRows(rows)
}

// FallbackCandidates broadens selection to every active staff member
// regardless of department or availability, rows locked.
func (r *workloadRepository) FallbackCandidates(ctx context.Context, category domain.TaskCategory) ([]domain.StaffMember, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM staff_members
        WHERE active_flag
        ORDER BY %s ASC
        FOR UPDATE`, staffColumns, counterColumn(category))

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStaffRows(rows)
}

func (r *workloadRepository) Increment(ctx context.Context, staffID string, category domain.TaskCategory) error {
	column := counterColumn(category)
	query := fmt.Sprintf(`UPDATE staff_members SET %s = %s + 1, updated_at=NOW() WHERE id=$1`, column, column)
	_, err := r.db.Exec(ctx, query, staffID)
	return err
}

// Decrement floors at zero so an orphan completion can never drive a
// counter negative.
func (r *workloadRepository) Decrement(ctx context.Context, staffID string, category domain.TaskCategory) error {
	column := counterColumn(category)
	query := fmt.Sprintf(`UPDATE staff_members SET %s = GREATEST(%s - 1, 0), updated_at=NOW() WHERE id=$1`, column, column)
	_, err := r.db.Exec(ctx, query, staffID)
	return err
}
