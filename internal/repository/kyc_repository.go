package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

const kycColumns = `id, tutor_user_id, aadhaar_key, education_certificate_key, photo_key, pan_key,
               police_verification_key, teaching_certificate_key,
               aadhaar_verified, education_verified, photo_verified, pan_verified,
               documents_to_resubmit, admin_feedback, assigned_admin_id, assigned_at, reviewed_at,
               status, rejection_reason, submission_count, created_at, updated_at`

// KYCRepository encapsulates KYC record persistence.
type KYCRepository interface {
	Create(ctx context.Context, record *domain.KYCRecord) error
	Update(ctx context.Context, record *domain.KYCRecord) error
	GetByID(ctx context.Context, id string) (*domain.KYCRecord, error)
	// GetByIDForUpdate locks the row so concurrent decisions serialize.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.KYCRecord, error)
	// LatestByTutor returns the most recent record, or pgx.ErrNoRows.
	LatestByTutor(ctx context.Context, tutorID string) (*domain.KYCRecord, error)
	// MarkUnderReview records the assignment made by the assignment engine.
	MarkUnderReview(ctx context.Context, id, staffID string, at time.Time) error
	ListAssigned(ctx context.Context, staffID string, status domain.KYCStatus) ([]domain.KYCRecord, error)
}

type kycRepository struct {
	db Querier
}

// NewKYCRepository instantiates the repository.
func NewKYCRepository(db Querier) KYCRepository {
	return &kycRepository{db: db}
}

func (r *kycRepository) Create(ctx context.Context, record *domain.KYCRecord) error {
	const query = `
        INSERT INTO kyc_records (tutor_user_id, aadhaar_key, education_certificate_key, photo_key,
            pan_key, police_verification_key, teaching_certificate_key, status, submission_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		record.TutorID,
		record.Documents.AadhaarKey,
		record.Documents.EducationCertificateKey,
		record.Documents.PhotoKey,
		record.Documents.PANKey,
		record.Documents.PoliceVerificationKey,
		record.Documents.TeachingCertificateKey,
		record.Status,
		record.SubmissionCount,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

func (r *kycRepository) Update(ctx context.Context, record *domain.KYCRecord) error {
	const query = `
        UPDATE kyc_records
        SET aadhaar_key=$1, education_certificate_key=$2, photo_key=$3, pan_key=$4,
            police_verification_key=$5, teaching_certificate_key=$6,
            aadhaar_verified=$7, education_verified=$8, photo_verified=$9, pan_verified=$10,
            documents_to_resubmit=$11, admin_feedback=$12, assigned_admin_id=$13, assigned_at=$14,
            reviewed_at=$15, status=$16, rejection_reason=$17, submission_count=$18, updated_at=NOW()
        WHERE id=$19`

	cmd, err := r.db.Exec(ctx, query,
		record.Documents.AadhaarKey,
		record.Documents.EducationCertificateKey,
		record.Documents.PhotoKey,
		record.Documents.PANKey,
		record.Documents.PoliceVerificationKey,
		record.Documents.TeachingCertificateKey,
		record.AadhaarVerified,
		record.EducationVerified,
		record.PhotoVerified,
		record.PANVerified,
		record.DocumentsToResubmit,
		record.AdminFeedback,
		record.AssignedAdminID,
		record.AssignedAt,
		record.ReviewedAt,
		record.Status,
		record.RejectionReason,
		record.SubmissionCount,
		record.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *kycRepository) GetByID(ctx context.Context, id string) (*domain.KYCRecord, error) {
	query := `SELECT ` + kycColumns + ` FROM kyc_records WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *kycRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.KYCRecord, error) {
	query := `SELECT ` + kycColumns + ` FROM kyc_records WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *kycRepository) LatestByTutor(ctx context.Context, tutorID string) (*domain.KYCRecord, error) {
	query := `SELECT ` + kycColumns + ` FROM kyc_records WHERE tutor_user_id=$1 ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, tutorID)
}

func (r *kycRepository) MarkUnderReview(ctx context.Context, id, staffID string, at time.Time) error {
	const query = `
        UPDATE kyc_records
        SET status=$1, assigned_admin_id=$2, assigned_at=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query, domain.KYCStatusUnderReview, staffID, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *kycRepository) ListAssigned(ctx context.Context, staffID string, status domain.KYCStatus) ([]domain.KYCRecord, error) {
	query := `SELECT ` + kycColumns + ` FROM kyc_records WHERE assigned_admin_id=$1 AND status=$2 ORDER BY assigned_at DESC`

	rows, err := r.db.Query(ctx, query, staffID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.KYCRecord
	for rows.Next() {
		var record domain.KYCRecord
		if err := scanKYC(rows, &record); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *kycRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.KYCRecord, error) {
	var record domain.KYCRecord
	if err := scanKYC(r.db.QueryRow(ctx, query, arg), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func scanKYC(row rowScanner, record *domain.KYCRecord) error {
	return row.Scan(
		&record.ID,
		&record.TutorID,
		&record.Documents.AadhaarKey,
		&record.Documents.EducationCertificateKey,
		&record.Documents.PhotoKey,
		&record.Documents.PANKey,
		&record.Documents.PoliceVerificationKey,
		&record.Documents.TeachingCertificateKey,
		&record.AadhaarVerified,
		&record.EducationVerified,
		&record.PhotoVerified,
		&record.PANVerified,
		&record.DocumentsToResubmit,
		&record.AdminFeedback,
		&record.AssignedAdminID,
		&record.AssignedAt,
		&record.ReviewedAt,
		&record.Status,
		&record.RejectionReason,
		&record.SubmissionCount,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
}
