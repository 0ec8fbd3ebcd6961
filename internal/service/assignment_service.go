package service

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

// AssignmentService routes newly created units of work to the least-loaded
// available staff member and records a PENDING task for the assignment.
type AssignmentService struct {
	logger *zap.Logger
	// pick selects an index in [0,n); uniform random by default,
	// injectable for deterministic tests.
	pick func(n int) int
}

// NewAssignmentService creates the service.
func NewAssignmentService(logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		logger: logger,
		pick:   rand.Intn,
	}
}

// Assign selects a staff member for the given unit of work, increments their
// workload counter, creates the PENDING task, and stamps the unit of work
// with the assignment. The whole sequence mutates state through tx, which
// must be a transaction-scoped Store: the candidate query locks the staff
// rows, so concurrent submissions serialize on the counter read-increment.
//
// Selection: candidates come from the category's preferred departments,
// restricted to available and active staff, ordered by ascending pending
// count. Ties at the minimum are broken uniformly at random. If the
// department pool is empty, selection broadens to any active staff member
// with a logged warning; if that is also empty the submission fails with
// NO_ASSIGNEE_AVAILABLE and the caller's transaction rolls back.
func (s *AssignmentService) Assign(ctx context.Context, tx repository.Store, work domain.WorkItem) (*domain.StaffMember, error) {
	candidates, err := tx.Workload().CandidatesForReview(ctx, work.Category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(candidates) == 0 {
		s.logger.Warn("no department staff available, broadening to all active staff",
			zap.String("category", string(work.Category)))
		candidates, err = tx.Workload().FallbackCandidates(ctx, work.Category)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if len(candidates) == 0 {
		s.logger.Error("no active staff available for assignment",
			zap.String("category", string(work.Category)))
		return nil, apperrors.NewNoAssigneeAvailable(string(work.Category))
	}

	chosen := s.choose(candidates, work.Category)

	if err := tx.Workload().Increment(ctx, chosen.ID, work.Category); err != nil {
		return nil, apperrors.MapError(err)
	}

	task := &domain.Task{
		StaffID:  chosen.ID,
		Category: work.Category,
		JobID:    work.JobID,
		KYCID:    work.KYCID,
		Status:   domain.TaskStatusPending,
		Notes:    work.Notes,
	}
	if err := tx.Tasks().Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.stampUnitOfWork(ctx, tx, work, chosen.ID); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("unit of work assigned",
		zap.String("category", string(work.Category)),
		zap.String("staff_id", chosen.ID),
		zap.Int("pending_before", chosen.PendingCount(work.Category)))
	return chosen, nil
}

// choose returns a uniformly random member of the minimum-pending-count tie
// set. Candidates arrive ordered ascending, so the tie set is a prefix.
func (s *AssignmentService) choose(candidates []domain.StaffMember, category domain.TaskCategory) *domain.StaffMember {
	minCount := candidates[0].PendingCount(category)
	tied := 1
	for tied < len(candidates) && candidates[tied].PendingCount(category) == minCount {
		tied++
	}
	return &candidates[s.pick(tied)]
}

func (s *AssignmentService) stampUnitOfWork(ctx context.Context, tx repository.Store, work domain.WorkItem, staffID string) error {
	switch work.Category {
	case domain.TaskCategoryKYCVerification:
		return tx.KYC().MarkUnderReview(ctx, *work.KYCID, staffID, now())
	default:
		return tx.Jobs().SetAssignment(ctx, *work.JobID, staffID)
	}
}
