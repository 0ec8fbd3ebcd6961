package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/events"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// JobSubmitInput carries a parent's job-posting fields.
type JobSubmitInput struct {
	StudentName   string
	StudentGender string
	ClassGrade    string
	Board         string
	Subjects      []string
	Locality      string
	PreferredTime string
	BudgetRange   string
}

// JobDecideInput carries a staff decision on a pending posting.
type JobDecideInput struct {
	Decision string
	Reason   string
}

// JobServiceDependencies bundles collaborators for JobService.
type JobServiceDependencies struct {
	Store      repository.Store
	Assignment *AssignmentService
	Tasks      *TaskService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// JobService owns the job-posting workflow: submission with immediate
// staff assignment, staff decisions, resubmission after requested changes,
// and withdrawal.
type JobService struct {
	store      repository.Store
	assignment *AssignmentService
	tasks      *TaskService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewJobService creates the service.
func NewJobService(deps JobServiceDependencies) *JobService {
	return &JobService{
		store:      deps.Store,
		assignment: deps.Assignment,
		tasks:      deps.Tasks,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Submit creates a PENDING_APPROVAL posting and routes it to a staff member
// in one transaction. If no staff member can take the work, the whole
// submission rolls back and the parent gets NO_ASSIGNEE_AVAILABLE.
func (s *JobService) Submit(ctx context.Context, parent *domain.User, input JobSubmitInput) (*domain.JobPosting, error) {
	if err := validateJobInput(input); err != nil {
		return nil, err
	}

	job := &domain.JobPosting{
		ParentID:      parent.ID,
		StudentName:   strings.TrimSpace(input.StudentName),
		StudentGender: input.StudentGender,
		ClassGrade:    strings.TrimSpace(input.ClassGrade),
		Board:         strings.TrimSpace(input.Board),
		Subjects:      input.Subjects,
		Locality:      strings.TrimSpace(input.Locality),
		PreferredTime: input.PreferredTime,
		BudgetRange:   input.BudgetRange,
		Status:        domain.JobStatusPendingApproval,
	}

	var assignee *domain.StaffMember
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Jobs().Create(ctx, job); err != nil {
			return apperrors.MapError(err)
		}
		chosen, err := s.assignment.Assign(ctx, tx, domain.JobWork(job.ID))
		if err != nil {
			return err
		}
		assignee = chosen
		job.AssignedAdminID = &chosen.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishJobAssigned(ctx, job, assignee.ID)
	return job, nil
}

// Decide applies a staff decision to a posting awaiting approval. Only the
// assigned admin or a SUPERADMIN may decide; a posting that already left
// PENDING_APPROVAL yields INVALID_TRANSITION. The decision, the task
// completion, and the counter decrement commit atomically.
func (s *JobService) Decide(ctx context.Context, staff *domain.StaffMember, jobID string, input JobDecideInput) (*domain.JobPosting, error) {
	decision := domain.JobDecision(strings.ToLower(strings.TrimSpace(input.Decision)))
	newStatus, ok := decision.StatusAfter()
	if !ok {
		return nil, apperrors.NewInvalidDecision(input.Decision, []string{
			string(domain.JobDecisionApprove),
			string(domain.JobDecisionReject),
			string(domain.JobDecisionRequestChanges),
		})
	}

	reason := strings.TrimSpace(input.Reason)
	if decision != domain.JobDecisionApprove && reason == "" {
		return nil, apperrors.NewValidationError("reason is required for this decision", map[string]any{
			"decision": string(decision),
		})
	}

	var job *domain.JobPosting
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		job, err = tx.Jobs().GetByIDForUpdate(ctx, jobID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if job.Status != domain.JobStatusPendingApproval {
			return apperrors.NewInvalidTransition("job posting", string(job.Status))
		}
		if !staff.CanReview(job.AssignedAdminID) {
			return apperrors.NewForbidden("job posting is assigned to another staff member")
		}

		job.Status = newStatus
		switch decision {
		case domain.JobDecisionReject:
			job.RejectionReason = reason
		case domain.JobDecisionRequestChanges:
			job.ModificationFeedback = reason
		}
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return apperrors.MapError(err)
		}

		assigneeID := staff.ID
		if job.AssignedAdminID != nil {
			assigneeID = *job.AssignedAdminID
		}
		_, err = s.tasks.CompletePending(ctx, tx, domain.JobWork(job.ID), assigneeID, string(decision))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishJobDecided(ctx, job, staff.ID, decision, reason)
	s.logger.Info("job decision applied",
		zap.String("job_id", job.ID),
		zap.String("staff_id", staff.ID),
		zap.String("decision", string(decision)),
		zap.String("new_status", string(job.Status)))
	return job, nil
}

// Resubmit lets the owning parent revise a MODIFICATIONS_NEEDED posting and
// sends it back through assignment as fresh review work.
func (s *JobService) Resubmit(ctx context.Context, parent *domain.User, jobID string, input JobSubmitInput) (*domain.JobPosting, error) {
	if err := validateJobInput(input); err != nil {
		return nil, err
	}

	var (
		job      *domain.JobPosting
		assignee *domain.StaffMember
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		job, err = tx.Jobs().GetByIDForUpdate(ctx, jobID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if job.ParentID != parent.ID {
			return apperrors.NewForbidden("job posting belongs to another parent")
		}
		if job.Status != domain.JobStatusModificationsNeeded {
			return apperrors.NewInvalidTransition("job posting", string(job.Status))
		}

		job.StudentName = strings.TrimSpace(input.StudentName)
		job.StudentGender = input.StudentGender
		job.ClassGrade = strings.TrimSpace(input.ClassGrade)
		job.Board = strings.TrimSpace(input.Board)
		job.Subjects = input.Subjects
		job.Locality = strings.TrimSpace(input.Locality)
		job.PreferredTime = input.PreferredTime
		job.BudgetRange = input.BudgetRange
		job.Status = domain.JobStatusPendingApproval
		job.ModificationFeedback = ""
		job.AssignedAdminID = nil
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return apperrors.MapError(err)
		}

		chosen, err := s.assignment.Assign(ctx, tx, domain.JobWork(job.ID))
		if err != nil {
			return err
		}
		assignee = chosen
		job.AssignedAdminID = &chosen.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishJobAssigned(ctx, job, assignee.ID)
	return job, nil
}

// Withdraw cancels the parent's posting before a decision lands and releases
// the workload the pending task was holding.
func (s *JobService) Withdraw(ctx context.Context, parent *domain.User, jobID string) (*domain.JobPosting, error) {
	var job *domain.JobPosting
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		job, err = tx.Jobs().GetByIDForUpdate(ctx, jobID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if job.ParentID != parent.ID {
			return apperrors.NewForbidden("job posting belongs to another parent")
		}
		if job.Status != domain.JobStatusPendingApproval && job.Status != domain.JobStatusModificationsNeeded {
			return apperrors.NewInvalidTransition("job posting", string(job.Status))
		}

		job.Status = domain.JobStatusCancelled
		if err := tx.Jobs().Update(ctx, job); err != nil {
			return apperrors.MapError(err)
		}

		_, err = s.tasks.CancelPending(ctx, tx, domain.JobWork(job.ID))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("job withdrawn",
		zap.String("job_id", job.ID),
		zap.String("parent_id", parent.ID))
	return job, nil
}

// Get returns one posting, restricted to its owner for parent callers.
func (s *JobService) Get(ctx context.Context, jobID string, parent *domain.User) (*domain.JobPosting, error) {
	job, err := s.store.Jobs().GetByID(ctx, jobID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if parent != nil && job.ParentID != parent.ID {
		return nil, apperrors.NewForbidden("job posting belongs to another parent")
	}
	return job, nil
}

// ListForParent returns the parent's own postings, newest first.
func (s *JobService) ListForParent(ctx context.Context, parentID string, limit, offset int) ([]domain.JobPosting, error) {
	jobs, err := s.store.Jobs().ListWithFilter(ctx, repository.JobFilter{
		ParentID: &parentID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return jobs, nil
}

// ReviewQueue returns postings awaiting this staff member's decision.
// SUPERADMIN staff see the whole pending pool.
func (s *JobService) ReviewQueue(ctx context.Context, staff *domain.StaffMember, limit, offset int) ([]domain.JobPosting, error) {
	filter := repository.JobFilter{
		Statuses: []domain.JobStatus{domain.JobStatusPendingApproval},
		Limit:    limit,
		Offset:   offset,
	}
	if staff.Department != domain.DepartmentSuperAdmin {
		filter.AssignedAdminID = &staff.ID
	}
	jobs, err := s.store.Jobs().ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return jobs, nil
}

func (s *JobService) publishJobAssigned(ctx context.Context, job *domain.JobPosting, staffID string) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventJobAssigned,
		Actor:     events.Actor{Type: domain.SubjectTypeUser, UserID: &job.ParentID},
		Timestamp: now(),
		Payload: events.JobAssignedPayload{
			JobID:      job.ID,
			StaffID:    staffID,
			ClassGrade: job.ClassGrade,
			Subjects:   job.Subjects,
			Locality:   job.Locality,
		},
	})
}

func (s *JobService) publishJobDecided(ctx context.Context, job *domain.JobPosting, staffID string, decision domain.JobDecision, reason string) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventJobDecided,
		Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID},
		Timestamp: now(),
		Payload: events.JobDecidedPayload{
			JobID:      job.ID,
			ParentID:   job.ParentID,
			ClassGrade: job.ClassGrade,
			Decision:   decision,
			NewStatus:  job.Status,
			Reason:     reason,
		},
	})
}

func validateJobInput(input JobSubmitInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.StudentName) == "" {
		details["student_name"] = "required"
	}
	if strings.TrimSpace(input.ClassGrade) == "" {
		details["class_grade"] = "required"
	}
	if strings.TrimSpace(input.Board) == "" {
		details["board"] = "required"
	}
	if len(input.Subjects) == 0 {
		details["subjects"] = "at least one subject is required"
	}
	if strings.TrimSpace(input.Locality) == "" {
		details["locality"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid job posting", details)
	}
	return nil
}
