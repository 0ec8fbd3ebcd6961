package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/events"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// KYCSubmitInput carries storage keys for a tutor's document pack. On a
// resubmission, empty keys keep the previously uploaded document.
type KYCSubmitInput struct {
	AadhaarKey              string
	EducationCertificateKey string
	PhotoKey                string
	PANKey                  string
	PoliceVerificationKey   string
	TeachingCertificateKey  string
}

// KYCDecideInput carries a staff decision on a record under review.
type KYCDecideInput struct {
	Action              string
	Reason              string
	Feedback            string
	DocumentsToResubmit []string
}

// KYCServiceDependencies bundles collaborators for KYCService.
type KYCServiceDependencies struct {
	Store      repository.Store
	Assignment *AssignmentService
	Tasks      *TaskService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// KYCService owns tutor identity verification: document submission with
// immediate staff assignment, the three-attempt cap, and staff decisions.
type KYCService struct {
	store      repository.Store
	assignment *AssignmentService
	tasks      *TaskService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewKYCService creates the service.
func NewKYCService(deps KYCServiceDependencies) *KYCService {
	return &KYCService{
		store:      deps.Store,
		assignment: deps.Assignment,
		tasks:      deps.Tasks,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Submit records a tutor's document pack and routes it to a staff member in
// one transaction. A DRAFT left by a resubmission request is updated in
// place; otherwise a fresh record is created. Each tutor gets at most
// MaxKYCSubmissions attempts.
func (s *KYCService) Submit(ctx context.Context, tutor *domain.User, input KYCSubmitInput) (*domain.KYCRecord, error) {
	var (
		record   *domain.KYCRecord
		assignee *domain.StaffMember
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		latest, err := tx.KYC().LatestByTutor(ctx, tutor.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}

		record, err = s.prepareSubmission(latest, tutor.ID, input)
		if err != nil {
			return err
		}

		if record.ID == "" {
			if err := tx.KYC().Create(ctx, record); err != nil {
				return apperrors.MapError(err)
			}
		} else if err := tx.KYC().Update(ctx, record); err != nil {
			return apperrors.MapError(err)
		}

		notes := fmt.Sprintf("KYC verification for %s", tutor.Name)
		chosen, err := s.assignment.Assign(ctx, tx, domain.KYCWork(record.ID, notes))
		if err != nil {
			return err
		}
		assignee = chosen
		record.Status = domain.KYCStatusUnderReview
		record.AssignedAdminID = &chosen.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishSubmitted(ctx, record, tutor)
	s.publishAssigned(ctx, record, assignee.ID, tutor.Name)
	return record, nil
}

// prepareSubmission applies the attempt rules to the tutor's latest record
// and returns the record to persist. A record with an empty ID is new.
func (s *KYCService) prepareSubmission(latest *domain.KYCRecord, tutorID string, input KYCSubmitInput) (*domain.KYCRecord, error) {
	if latest != nil {
		switch latest.Status {
		case domain.KYCStatusVerified:
			return nil, apperrors.NewConflict("KYC is already verified", nil)
		case domain.KYCStatusSubmitted, domain.KYCStatusUnderReview:
			return nil, apperrors.NewConflict("KYC is already under review", nil)
		}
	}

	attempt := 1
	if latest != nil {
		attempt = latest.SubmissionCount + 1
	}
	if attempt > domain.MaxKYCSubmissions {
		return nil, apperrors.NewConflict("maximum KYC submission attempts reached", map[string]any{
			"max_attempts": domain.MaxKYCSubmissions,
		})
	}

	if latest != nil && latest.Status == domain.KYCStatusDraft {
		mergeDocuments(&latest.Documents, input)
		if err := validateDocuments(latest.Documents); err != nil {
			return nil, err
		}
		latest.Status = domain.KYCStatusSubmitted
		latest.SubmissionCount = attempt
		latest.DocumentsToResubmit = nil
		latest.AdminFeedback = ""
		latest.AssignedAdminID = nil
		latest.AssignedAt = nil
		latest.ReviewedAt = nil
		return latest, nil
	}

	record := &domain.KYCRecord{
		TutorID:         tutorID,
		Status:          domain.KYCStatusSubmitted,
		SubmissionCount: attempt,
	}
	mergeDocuments(&record.Documents, input)
	if err := validateDocuments(record.Documents); err != nil {
		return nil, err
	}
	return record, nil
}

// Decide applies a staff decision to a record under review. Only the assigned
// admin or a SUPERADMIN may decide. The decision, the task completion, and the
// counter decrement commit atomically.
func (s *KYCService) Decide(ctx context.Context, staff *domain.StaffMember, kycID string, input KYCDecideInput) (*domain.KYCRecord, error) {
	action := domain.KYCAction(strings.ToLower(strings.TrimSpace(input.Action)))
	if action != domain.KYCActionApprove && action != domain.KYCActionReject && action != domain.KYCActionResubmit {
		return nil, apperrors.NewInvalidDecision(input.Action, []string{
			string(domain.KYCActionApprove),
			string(domain.KYCActionReject),
			string(domain.KYCActionResubmit),
		})
	}

	reason := strings.TrimSpace(input.Reason)
	feedback := strings.TrimSpace(input.Feedback)
	if action == domain.KYCActionReject && reason == "" {
		return nil, apperrors.NewValidationError("reason is required to reject KYC", nil)
	}
	if action == domain.KYCActionResubmit && (len(input.DocumentsToResubmit) == 0 || feedback == "") {
		return nil, apperrors.NewValidationError("documents_to_resubmit and feedback are required to request resubmission", nil)
	}

	var record *domain.KYCRecord
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		record, err = tx.KYC().GetByIDForUpdate(ctx, kycID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if record.Status != domain.KYCStatusUnderReview && record.Status != domain.KYCStatusSubmitted {
			return apperrors.NewInvalidTransition("KYC record", string(record.Status))
		}
		if !staff.CanReview(record.AssignedAdminID) {
			return apperrors.NewForbidden("KYC record is assigned to another staff member")
		}

		reviewedAt := now()
		record.ReviewedAt = &reviewedAt
		switch action {
		case domain.KYCActionApprove:
			record.Status = domain.KYCStatusVerified
			record.AadhaarVerified = true
			record.EducationVerified = true
			record.PhotoVerified = true
			record.PANVerified = true
		case domain.KYCActionReject:
			record.Status = domain.KYCStatusRejected
			record.RejectionReason = reason
		case domain.KYCActionResubmit:
			record.Status = domain.KYCStatusDraft
			record.DocumentsToResubmit = input.DocumentsToResubmit
			record.AdminFeedback = feedback
		}
		if err := tx.KYC().Update(ctx, record); err != nil {
			return apperrors.MapError(err)
		}

		assigneeID := staff.ID
		if record.AssignedAdminID != nil {
			assigneeID = *record.AssignedAdminID
		}
		_, err = s.tasks.CompletePending(ctx, tx, domain.KYCWork(record.ID, ""), assigneeID, string(action))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishDecided(ctx, record, staff.ID, action, reason, feedback)
	s.logger.Info("kyc decision applied",
		zap.String("kyc_id", record.ID),
		zap.String("staff_id", staff.ID),
		zap.String("action", string(action)),
		zap.String("new_status", string(record.Status)))
	return record, nil
}

// Status returns the tutor's latest KYC record.
func (s *KYCService) Status(ctx context.Context, tutorID string) (*domain.KYCRecord, error) {
	record, err := s.store.KYC().LatestByTutor(ctx, tutorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("KYC record", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// ReviewQueue returns KYC records awaiting this staff member's decision.
func (s *KYCService) ReviewQueue(ctx context.Context, staff *domain.StaffMember) ([]domain.KYCRecord, error) {
	records, err := s.store.KYC().ListAssigned(ctx, staff.ID, domain.KYCStatusUnderReview)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// Get returns one KYC record, restricted to its owner for tutor callers.
func (s *KYCService) Get(ctx context.Context, kycID string, tutor *domain.User) (*domain.KYCRecord, error) {
	record, err := s.store.KYC().GetByID(ctx, kycID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tutor != nil && record.TutorID != tutor.ID {
		return nil, apperrors.NewForbidden("KYC record belongs to another tutor")
	}
	return record, nil
}

func (s *KYCService) publishSubmitted(ctx context.Context, record *domain.KYCRecord, tutor *domain.User) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventKYCSubmitted,
		Actor:     events.Actor{Type: domain.SubjectTypeUser, UserID: &tutor.ID},
		Timestamp: now(),
		Payload: events.KYCSubmittedPayload{
			KYCID:   record.ID,
			TutorID: tutor.ID,
		},
	})
}

func (s *KYCService) publishAssigned(ctx context.Context, record *domain.KYCRecord, staffID, tutorName string) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventKYCAssigned,
		Actor:     events.Actor{Type: domain.SubjectTypeUser, UserID: &record.TutorID},
		Timestamp: now(),
		Payload: events.KYCAssignedPayload{
			KYCID:     record.ID,
			StaffID:   staffID,
			TutorName: tutorName,
		},
	})
}

func (s *KYCService) publishDecided(ctx context.Context, record *domain.KYCRecord, staffID string, action domain.KYCAction, reason, feedback string) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventKYCDecided,
		Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID},
		Timestamp: now(),
		Payload: events.KYCDecidedPayload{
			KYCID:               record.ID,
			TutorID:             record.TutorID,
			Action:              action,
			NewStatus:           record.Status,
			Reason:              reason,
			Feedback:            feedback,
			DocumentsToResubmit: record.DocumentsToResubmit,
		},
	})
}

func mergeDocuments(docs *domain.KYCDocuments, input KYCSubmitInput) {
	if key := strings.TrimSpace(input.AadhaarKey); key != "" {
		docs.AadhaarKey = key
	}
	if key := strings.TrimSpace(input.EducationCertificateKey); key != "" {
		docs.EducationCertificateKey = key
	}
	if key := strings.TrimSpace(input.PhotoKey); key != "" {
		docs.PhotoKey = key
	}
	if key := strings.TrimSpace(input.PANKey); key != "" {
		docs.PANKey = key
	}
	if key := strings.TrimSpace(input.PoliceVerificationKey); key != "" {
		docs.PoliceVerificationKey = key
	}
	if key := strings.TrimSpace(input.TeachingCertificateKey); key != "" {
		docs.TeachingCertificateKey = key
	}
}

func validateDocuments(docs domain.KYCDocuments) error {
	details := map[string]any{}
	if docs.AadhaarKey == "" {
		details["aadhaar"] = "required"
	}
	if docs.EducationCertificateKey == "" {
		details["education_certificate"] = "required"
	}
	if docs.PhotoKey == "" {
		details["photo"] = "required"
	}
	if docs.PANKey == "" {
		details["pan"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("missing required KYC documents", details)
	}
	return nil
}
