package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/events"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

func newJobServiceForTest(f *fakeStore) (*JobService, *NotificationService) {
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()
	notifications := NewNotificationService(f, dispatcher, logger)
	notifications.RegisterHandlers()
	return NewJobService(JobServiceDependencies{
		Store:      f,
		Assignment: NewAssignmentService(logger),
		Tasks:      NewTaskService(logger),
		Dispatcher: dispatcher,
		Logger:     logger,
	}), notifications
}

func validJobInput() JobSubmitInput {
	return JobSubmitInput{
		StudentName: "Asha",
		ClassGrade:  "Class 8",
		Board:       "CBSE",
		Subjects:    []string{"Maths", "Science"},
		Locality:    "Indiranagar",
	}
}

func TestJobSubmitAssignsAndNotifies(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)

	job, err := svc.Submit(context.Background(), parent, validJobInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != domain.JobStatusPendingApproval {
		t.Fatalf("unexpected status %s", job.Status)
	}
	if job.AssignedAdminID == nil || *job.AssignedAdminID != staffID {
		t.Fatal("job not assigned")
	}
	if f.staff[staffID].PendingJobCount != 1 {
		t.Fatal("workload counter not incremented")
	}

	notifications, _ := f.Notifications().ListByRecipient(context.Background(), domain.SubjectTypeStaff, staffID, 10, 0)
	if len(notifications) != 1 {
		t.Fatalf("expected 1 staff notification, got %d", len(notifications))
	}
	if notifications[0].Title != "New Job Approval Request" {
		t.Fatalf("unexpected title %q", notifications[0].Title)
	}
	if notifications[0].Body != "A new job posting requires your approval: Class 8 Maths, Science in Indiranagar" {
		t.Fatalf("unexpected body %q", notifications[0].Body)
	}
}

func TestJobSubmitRollsBackWhenNoStaff(t *testing.T) {
	f := newFakeStore()
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)

	_, err := svc.Submit(context.Background(), parent, validJobInput())
	if !apperrors.IsCode(err, "NO_ASSIGNEE_AVAILABLE") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.jobs) != 0 {
		t.Fatal("job row must roll back with the failed assignment")
	}
	if len(f.tasks) != 0 {
		t.Fatal("no task may survive the rollback")
	}
}

func TestJobSubmitValidation(t *testing.T) {
	f := newFakeStore()
	f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)

	input := validJobInput()
	input.Subjects = nil
	input.Locality = " "
	_, err := svc.Submit(context.Background(), parent, input)
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJobDecideApprove(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)

	job, err := svc.Submit(context.Background(), parent, validJobInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	reviewer := f.staff[staffID]
	decided, err := svc.Decide(context.Background(), reviewer, job.ID, JobDecideInput{Decision: "approve"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != domain.JobStatusApproved {
		t.Fatalf("expected APPROVED, got %s", decided.Status)
	}
	if f.staff[staffID].PendingJobCount != 0 {
		t.Fatalf("counter should return to 0, got %d", f.staff[staffID].PendingJobCount)
	}

	task, _ := f.Tasks().ListByStaff(context.Background(), staffID, []domain.TaskStatus{domain.TaskStatusCompleted}, 10, 0)
	if len(task) != 1 {
		t.Fatalf("expected 1 completed task, got %d", len(task))
	}
	if task[0].CompletedAt == nil {
		t.Fatal("completed task needs completed_at")
	}

	notifications, _ := f.Notifications().ListByRecipient(context.Background(), domain.SubjectTypeUser, parent.ID, 10, 0)
	if len(notifications) != 1 {
		t.Fatalf("expected 1 parent notification, got %d", len(notifications))
	}
	if notifications[0].Category != domain.NotificationJobApproved {
		t.Fatalf("unexpected category %s", notifications[0].Category)
	}
}

func TestJobDecideRejectRequiresReasonAndKeepsItVerbatim(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)
	job, _ := svc.Submit(context.Background(), parent, validJobInput())
	reviewer := f.staff[staffID]

	if _, err := svc.Decide(context.Background(), reviewer, job.ID, JobDecideInput{Decision: "reject"}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("reject without reason must fail validation, got %v", err)
	}

	const reason = "Duplicate of an existing posting; budget range unrealistic."
	decided, err := svc.Decide(context.Background(), reviewer, job.ID, JobDecideInput{Decision: "reject", Reason: reason})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.RejectionReason != reason {
		t.Fatalf("reason must be stored verbatim, got %q", decided.RejectionReason)
	}
}

func TestJobDecideTwiceIsConflict(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)
	job, _ := svc.Submit(context.Background(), parent, validJobInput())
	reviewer := f.staff[staffID]

	if _, err := svc.Decide(context.Background(), reviewer, job.ID, JobDecideInput{Decision: "approve"}); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	_, err := svc.Decide(context.Background(), reviewer, job.ID, JobDecideInput{Decision: "approve"})
	if !apperrors.IsCode(err, "INVALID_TRANSITION") {
		t.Fatalf("second decision must be INVALID_TRANSITION, got %v", err)
	}
	if f.staff[staffID].PendingJobCount != 0 {
		t.Fatal("counter must not be decremented twice")
	}
}

func TestJobDecideUnknownDecision(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)
	job, _ := svc.Submit(context.Background(), parent, validJobInput())

	_, err := svc.Decide(context.Background(), f.staff[staffID], job.ID, JobDecideInput{Decision: "escalate"})
	if !apperrors.IsCode(err, "INVALID_DECISION") {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.jobs[job.ID].Status != domain.JobStatusPendingApproval {
		t.Fatal("invalid decision must not mutate the posting")
	}
}

func TestJobDecideAuthorization(t *testing.T) {
	f := newFakeStore()
	assignee := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	outsider := f.addStaff(domain.DepartmentParentOps, true, 5, 0)
	super := f.addStaff(domain.DepartmentSuperAdmin, true, 9, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)
	job, _ := svc.Submit(context.Background(), parent, validJobInput())

	if job.AssignedAdminID == nil || *job.AssignedAdminID != assignee {
		t.Fatalf("precondition: job should go to the idle assignee")
	}

	if _, err := svc.Decide(context.Background(), f.staff[outsider], job.ID, JobDecideInput{Decision: "approve"}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("non-assignee must be forbidden, got %v", err)
	}

	// SUPERADMIN may decide work assigned to someone else; the assignee's
	// counter is the one released.
	if _, err := svc.Decide(context.Background(), f.staff[super], job.ID, JobDecideInput{Decision: "approve"}); err != nil {
		t.Fatalf("superadmin decision: %v", err)
	}
	if f.staff[assignee].PendingJobCount != 0 {
		t.Fatalf("assignee counter should be released, got %d", f.staff[assignee].PendingJobCount)
	}
	if f.staff[super].PendingJobCount != 9 {
		t.Fatal("superadmin counter must not change")
	}
}

func TestJobDecideToleratesMissingTask(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)
	job, _ := svc.Submit(context.Background(), parent, validJobInput())

	// Simulate drift: the task row vanished but the posting is still pending.
	for id := range f.tasks {
		delete(f.tasks, id)
	}

	decided, err := svc.Decide(context.Background(), f.staff[staffID], job.ID, JobDecideInput{Decision: "approve"})
	if err != nil {
		t.Fatalf("decision must proceed without a task: %v", err)
	}
	if decided.Status != domain.JobStatusApproved {
		t.Fatalf("unexpected status %s", decided.Status)
	}
}

func TestJobResubmitAfterRequestedChanges(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)
	job, _ := svc.Submit(context.Background(), parent, validJobInput())

	if _, err := svc.Decide(context.Background(), f.staff[staffID], job.ID, JobDecideInput{
		Decision: "request_changes",
		Reason:   "Please narrow the preferred time window.",
	}); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if f.jobs[job.ID].Status != domain.JobStatusModificationsNeeded {
		t.Fatal("expected MODIFICATIONS_NEEDED")
	}

	input := validJobInput()
	input.PreferredTime = "Weekdays 5-7pm"
	resubmitted, err := svc.Resubmit(context.Background(), parent, job.ID, input)
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if resubmitted.Status != domain.JobStatusPendingApproval {
		t.Fatalf("unexpected status %s", resubmitted.Status)
	}
	if resubmitted.ModificationFeedback != "" {
		t.Fatal("feedback must be cleared on resubmission")
	}
	if f.staff[staffID].PendingJobCount != 1 {
		t.Fatalf("resubmission must create fresh workload, got %d", f.staff[staffID].PendingJobCount)
	}

	other := f.addUser(domain.UserRoleParent)
	if _, err := svc.Resubmit(context.Background(), other, job.ID, input); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("foreign parent must be forbidden, got %v", err)
	}
}

func TestJobWithdrawReleasesWorkload(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)
	job, _ := svc.Submit(context.Background(), parent, validJobInput())

	withdrawn, err := svc.Withdraw(context.Background(), parent, job.ID)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if withdrawn.Status != domain.JobStatusCancelled {
		t.Fatalf("unexpected status %s", withdrawn.Status)
	}
	if f.staff[staffID].PendingJobCount != 0 {
		t.Fatal("withdrawal must release the workload counter")
	}

	cancelled, _ := f.Tasks().ListByStaff(context.Background(), staffID, []domain.TaskStatus{domain.TaskStatusCancelled}, 10, 0)
	if len(cancelled) != 1 {
		t.Fatalf("expected 1 cancelled task, got %d", len(cancelled))
	}

	if _, err := svc.Withdraw(context.Background(), parent, job.ID); !apperrors.IsCode(err, "INVALID_TRANSITION") {
		t.Fatalf("second withdrawal must conflict, got %v", err)
	}
}

func TestJobReviewQueueScoping(t *testing.T) {
	f := newFakeStore()
	a := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	super := f.addStaff(domain.DepartmentSuperAdmin, true, 10, 0)
	parent := f.addUser(domain.UserRoleParent)
	svc, _ := newJobServiceForTest(f)

	if _, err := svc.Submit(context.Background(), parent, validJobInput()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	own, err := svc.ReviewQueue(context.Background(), f.staff[a], 10, 0)
	if err != nil {
		t.Fatalf("ReviewQueue: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("assignee should see their queue, got %d", len(own))
	}

	all, err := svc.ReviewQueue(context.Background(), f.staff[super], 10, 0)
	if err != nil {
		t.Fatalf("ReviewQueue: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("superadmin should see the whole pending pool, got %d", len(all))
	}
}
