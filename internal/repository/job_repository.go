package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

const jobColumns = `id, parent_user_id, student_name, student_gender, class_grade, board, subjects,
               locality, preferred_time, budget_range, status, assigned_admin_id,
               rejection_reason, modification_feedback, created_at, updated_at`

// JobFilter captures staff search parameters for job listings.
type JobFilter struct {
	ParentID        *string
	AssignedAdminID *string
	Statuses        []domain.JobStatus
	Locality        *string
	Limit           int
	Offset          int
}

// JobRepository encapsulates job-posting persistence.
type JobRepository interface {
	Create(ctx context.Context, job *domain.JobPosting) error
	Update(ctx context.Context, job *domain.JobPosting) error
	GetByID(ctx context.Context, id string) (*domain.JobPosting, error)
	// GetByIDForUpdate locks the row so that concurrent decisions on the
	// same posting serialize. Must run inside Store.InTx.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.JobPosting, error)
	SetAssignment(ctx context.Context, jobID, staffID string) error
	ListWithFilter(ctx context.Context, filter JobFilter) ([]domain.JobPosting, error)
}

type jobRepository struct {
	db Querier
}

// NewJobRepository instantiates the repository.
func NewJobRepository(db Querier) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *domain.JobPosting) error {
	const query = `
        INSERT INTO job_postings (parent_user_id, student_name, student_gender, class_grade, board,
            subjects, locality, preferred_time, budget_range, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		job.ParentID,
		job.StudentName,
		job.StudentGender,
		job.ClassGrade,
		job.Board,
		job.Subjects,
		job.Locality,
		job.PreferredTime,
		job.BudgetRange,
		job.Status,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (r *jobRepository) Update(ctx context.Context, job *domain.JobPosting) error {
	const query = `
        UPDATE job_postings
        SET student_name=$1, student_gender=$2, class_grade=$3, board=$4, subjects=$5, locality=$6,
            preferred_time=$7, budget_range=$8, status=$9, assigned_admin_id=$10,
            rejection_reason=$11, modification_feedback=$12, updated_at=NOW()
        WHERE id=$13`

	cmd, err := r.db.Exec(ctx, query,
		job.StudentName,
		job.StudentGender,
		job.ClassGrade,
		job.Board,
		job.Subjects,
		job.Locality,
		job.PreferredTime,
		job.BudgetRange,
		job.Status,
		job.AssignedAdminID,
		job.RejectionReason,
		job.ModificationFeedback,
		job.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	query := `SELECT ` + jobColumns + ` FROM job_postings WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *jobRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.JobPosting, error) {
	query := `SELECT ` + jobColumns + ` FROM job_postings WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *jobRepository) SetAssignment(ctx context.Context, jobID, staffID string) error {
	const query = `UPDATE job_postings SET assigned_admin_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, staffID, jobID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *jobRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.JobPosting, error) {
	var job domain.JobPosting
	if err := scanJob(r.db.QueryRow(ctx, query, arg), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListWithFilter(ctx context.Context, filter JobFilter) ([]domain.JobPosting, error) {
	query := `SELECT ` + jobColumns + ` FROM job_postings`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ParentID != nil {
		args = append(args, *filter.ParentID)
		clauses = append(clauses, fmt.Sprintf("parent_user_id=$%d", len(args)))
	}
	if filter.AssignedAdminID != nil {
		args = append(args, *filter.AssignedAdminID)
		clauses = append(clauses, fmt.Sprintf("assigned_admin_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Locality != nil && strings.TrimSpace(*filter.Locality) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Locality))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(locality) LIKE $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query = fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		query, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.JobPosting
	for rows.Next() {
		var job domain.JobPosting
		if err := scanJob(rows, &job); err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

func scanJob(row rowScanner, job *domain.JobPosting) error {
	return row.Scan(
		&job.ID,
		&job.ParentID,
		&job.StudentName,
		&job.StudentGender,
		&job.ClassGrade,
		&job.Board,
		&job.Subjects,
		&job.Locality,
		&job.PreferredTime,
		&job.BudgetRange,
		&job.Status,
		&job.AssignedAdminID,
		&job.RejectionReason,
		&job.ModificationFeedback,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}
