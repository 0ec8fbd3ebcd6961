package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
)

// fakeStore is an in-memory repository.Store. InTx snapshots all state before
// running fn and restores it when fn fails, mimicking transaction rollback.
type fakeStore struct {
	users         map[string]*domain.User
	staff         map[string]*domain.StaffMember
	jobs          map[string]*domain.JobPosting
	kyc           map[string]*domain.KYCRecord
	tasks         map[string]*domain.Task
	notifications []*domain.Notification

	seq         int
	kycOrder    map[string]int
	notifyErr   error
	currentTime time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*domain.User),
		staff:       make(map[string]*domain.StaffMember),
		jobs:        make(map[string]*domain.JobPosting),
		kyc:         make(map[string]*domain.KYCRecord),
		tasks:       make(map[string]*domain.Task),
		kycOrder:    make(map[string]int),
		currentTime: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) Users() repository.UserRepository                 { return fakeUserRepo{f} }
func (f *fakeStore) Staff() repository.StaffRepository               { return fakeStaffRepo{f} }
func (f *fakeStore) Workload() repository.WorkloadRepository         { return fakeWorkloadRepo{f} }
func (f *fakeStore) Jobs() repository.JobRepository                  { return fakeJobRepo{f} }
func (f *fakeStore) KYC() repository.KYCRepository                   { return fakeKYCRepo{f} }
func (f *fakeStore) Tasks() repository.TaskRepository                { return fakeTaskRepo{f} }
func (f *fakeStore) Notifications() repository.NotificationRepository { return fakeNotificationRepo{f} }

func (f *fakeStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	snapshot := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snapshot)
		return err
	}
	return nil
}

type fakeSnapshot struct {
	users         map[string]*domain.User
	staff         map[string]*domain.StaffMember
	jobs          map[string]*domain.JobPosting
	kyc           map[string]*domain.KYCRecord
	tasks         map[string]*domain.Task
	notifications []*domain.Notification
	seq           int
	kycOrder      map[string]int
}

func (f *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		users:    make(map[string]*domain.User, len(f.users)),
		staff:    make(map[string]*domain.StaffMember, len(f.staff)),
		jobs:     make(map[string]*domain.JobPosting, len(f.jobs)),
		kyc:      make(map[string]*domain.KYCRecord, len(f.kyc)),
		tasks:    make(map[string]*domain.Task, len(f.tasks)),
		seq:      f.seq,
		kycOrder: make(map[string]int, len(f.kycOrder)),
	}
	for id, u := range f.users {
		cp := *u
		snap.users[id] = &cp
	}
	for id, s := range f.staff {
		cp := *s
		snap.staff[id] = &cp
	}
	for id, j := range f.jobs {
		cp := *j
		snap.jobs[id] = &cp
	}
	for id, k := range f.kyc {
		cp := *k
		snap.kyc[id] = &cp
	}
	for id, t := range f.tasks {
		cp := *t
		snap.tasks[id] = &cp
	}
	snap.notifications = append(snap.notifications, f.notifications...)
	for id, n := range f.kycOrder {
		snap.kycOrder[id] = n
	}
	return snap
}

func (f *fakeStore) restore(snap fakeSnapshot) {
	f.users = snap.users
	f.staff = snap.staff
	f.jobs = snap.jobs
	f.kyc = snap.kyc
	f.tasks = snap.tasks
	f.notifications = snap.notifications
	f.seq = snap.seq
	f.kycOrder = snap.kycOrder
}

// addStaff seeds a staff member and returns its ID.
func (f *fakeStore) addStaff(department domain.Department, available bool, pendingJobs, pendingKYC int) string {
	id := f.nextID("staff")
	f.staff[id] = &domain.StaffMember{
		ID:              id,
		Name:            "Staff " + id,
		Email:           id + "@example.test",
		Role:            domain.StaffRoleAgent,
		Department:      department,
		Available:       available,
		Active:          true,
		PendingJobCount: pendingJobs,
		PendingKYCCount: pendingKYC,
		CreatedAt:       f.currentTime,
		UpdatedAt:       f.currentTime,
	}
	return id
}

func (f *fakeStore) addUser(role domain.UserRole) *domain.User {
	id := f.nextID("user")
	user := &domain.User{
		ID:        id,
		Name:      "User " + id,
		Email:     id + "@example.test",
		Role:      role,
		Status:    domain.UserStatusActive,
		CreatedAt: f.currentTime,
	}
	f.users[id] = user
	return user
}

type fakeUserRepo struct{ f *fakeStore }

func (r fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.f.nextID("user")
	user.CreatedAt = r.f.currentTime
	user.UpdatedAt = r.f.currentTime
	cp := *user
	r.f.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *user
	r.f.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.f.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeStaffRepo struct{ f *fakeStore }

func (r fakeStaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	staff.ID = r.f.nextID("staff")
	staff.CreatedAt = r.f.currentTime
	staff.UpdatedAt = r.f.currentTime
	cp := *staff
	r.f.staff[staff.ID] = &cp
	return nil
}

func (r fakeStaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	if _, ok := r.f.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *staff
	r.f.staff[staff.ID] = &cp
	return nil
}

func (r fakeStaffRepo) SetAvailability(_ context.Context, id string, available bool) error {
	staff, ok := r.f.staff[id]
	if !ok {
		return pgx.ErrNoRows
	}
	staff.Available = available
	return nil
}

func (r fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	staff, ok := r.f.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *staff
	return &cp, nil
}

func (r fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	for _, staff := range r.f.staff {
		if staff.Email == email {
			cp := *staff
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	var result []domain.StaffMember
	for _, staff := range r.f.staff {
		if filter.Department != nil && staff.Department != *filter.Department {
			continue
		}
		if filter.Available != nil && staff.Available != *filter.Available {
			continue
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		result = append(result, *staff)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeWorkloadRepo struct{ f *fakeStore }

func (r fakeWorkloadRepo) candidates(category domain.TaskCategory, include func(*domain.StaffMember) bool) []domain.StaffMember {
	var result []domain.StaffMember
	for _, staff := range r.f.staff {
		if include(staff) {
			result = append(result, *staff)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ci, cj := result[i].PendingCount(category), result[j].PendingCount(category)
		if ci != cj {
			return ci < cj
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r fakeWorkloadRepo) CandidatesForReview(_ context.Context, category domain.TaskCategory) ([]domain.StaffMember, error) {
	departments := make(map[domain.Department]struct{})
	for _, d := range category.Departments() {
		departments[d] = struct{}{}
	}
	return r.candidates(category, func(s *domain.StaffMember) bool {
		_, ok := departments[s.Department]
		return ok && s.Available && s.Active
	}), nil
}

func (r fakeWorkloadRepo) FallbackCandidates(_ context.Context, category domain.TaskCategory) ([]domain.StaffMember, error) {
	return r.candidates(category, func(s *domain.StaffMember) bool { return s.Active }), nil
}

func (r fakeWorkloadRepo) Increment(_ context.Context, staffID string, category domain.TaskCategory) error {
	staff, ok := r.f.staff[staffID]
	if !ok {
		return pgx.ErrNoRows
	}
	if category == domain.TaskCategoryKYCVerification {
		staff.PendingKYCCount++
	} else {
		staff.PendingJobCount++
	}
	return nil
}

func (r fakeWorkloadRepo) Decrement(_ context.Context, staffID string, category domain.TaskCategory) error {
	staff, ok := r.f.staff[staffID]
	if !ok {
		return pgx.ErrNoRows
	}
	if category == domain.TaskCategoryKYCVerification {
		if staff.PendingKYCCount > 0 {
			staff.PendingKYCCount--
		}
	} else if staff.PendingJobCount > 0 {
		staff.PendingJobCount--
	}
	return nil
}

type fakeJobRepo struct{ f *fakeStore }

func (r fakeJobRepo) Create(_ context.Context, job *domain.JobPosting) error {
	job.ID = r.f.nextID("job")
	job.CreatedAt = r.f.currentTime
	job.UpdatedAt = r.f.currentTime
	cp := *job
	r.f.jobs[job.ID] = &cp
	return nil
}

func (r fakeJobRepo) Update(_ context.Context, job *domain.JobPosting) error {
	if _, ok := r.f.jobs[job.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *job
	r.f.jobs[job.ID] = &cp
	return nil
}

func (r fakeJobRepo) GetByID(_ context.Context, id string) (*domain.JobPosting, error) {
	job, ok := r.f.jobs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (r fakeJobRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.JobPosting, error) {
	return r.GetByID(ctx, id)
}

func (r fakeJobRepo) SetAssignment(_ context.Context, jobID, staffID string) error {
	job, ok := r.f.jobs[jobID]
	if !ok {
		return pgx.ErrNoRows
	}
	id := staffID
	job.AssignedAdminID = &id
	return nil
}

func (r fakeJobRepo) ListWithFilter(_ context.Context, filter repository.JobFilter) ([]domain.JobPosting, error) {
	var result []domain.JobPosting
	for _, job := range r.f.jobs {
		if filter.ParentID != nil && job.ParentID != *filter.ParentID {
			continue
		}
		if filter.AssignedAdminID != nil {
			if job.AssignedAdminID == nil || *job.AssignedAdminID != *filter.AssignedAdminID {
				continue
			}
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if job.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.Locality != nil && !strings.Contains(strings.ToLower(job.Locality), strings.ToLower(*filter.Locality)) {
			continue
		}
		result = append(result, *job)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeKYCRepo struct{ f *fakeStore }

func (r fakeKYCRepo) Create(_ context.Context, record *domain.KYCRecord) error {
	record.ID = r.f.nextID("kyc")
	record.CreatedAt = r.f.currentTime
	record.UpdatedAt = r.f.currentTime
	r.f.kycOrder[record.ID] = r.f.seq
	cp := *record
	r.f.kyc[record.ID] = &cp
	return nil
}

func (r fakeKYCRepo) Update(_ context.Context, record *domain.KYCRecord) error {
	if _, ok := r.f.kyc[record.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *record
	r.f.kyc[record.ID] = &cp
	return nil
}

func (r fakeKYCRepo) GetByID(_ context.Context, id string) (*domain.KYCRecord, error) {
	record, ok := r.f.kyc[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *record
	return &cp, nil
}

func (r fakeKYCRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.KYCRecord, error) {
	return r.GetByID(ctx, id)
}

func (r fakeKYCRepo) LatestByTutor(_ context.Context, tutorID string) (*domain.KYCRecord, error) {
	var latest *domain.KYCRecord
	best := -1
	for id, record := range r.f.kyc {
		if record.TutorID != tutorID {
			continue
		}
		if order := r.f.kycOrder[id]; order > best {
			best = order
			latest = record
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (r fakeKYCRepo) MarkUnderReview(_ context.Context, id, staffID string, at time.Time) error {
	record, ok := r.f.kyc[id]
	if !ok {
		return pgx.ErrNoRows
	}
	record.Status = domain.KYCStatusUnderReview
	sid := staffID
	record.AssignedAdminID = &sid
	assignedAt := at
	record.AssignedAt = &assignedAt
	return nil
}

func (r fakeKYCRepo) ListAssigned(_ context.Context, staffID string, status domain.KYCStatus) ([]domain.KYCRecord, error) {
	var result []domain.KYCRecord
	for _, record := range r.f.kyc {
		if record.AssignedAdminID != nil && *record.AssignedAdminID == staffID && record.Status == status {
			result = append(result, *record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeTaskRepo struct{ f *fakeStore }

func (r fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	task.ID = r.f.nextID("task")
	task.AssignedAt = r.f.currentTime
	cp := *task
	r.f.tasks[task.ID] = &cp
	return nil
}

func taskMatchesUnit(task *domain.Task, work domain.WorkItem) bool {
	if work.Category == domain.TaskCategoryKYCVerification {
		return task.KYCID != nil && work.KYCID != nil && *task.KYCID == *work.KYCID
	}
	return task.JobID != nil && work.JobID != nil && *task.JobID == *work.JobID
}

func (r fakeTaskRepo) FindPendingForUpdate(_ context.Context, work domain.WorkItem, staffID string) (*domain.Task, error) {
	for _, task := range r.f.tasks {
		if task.Status == domain.TaskStatusPending && task.StaffID == staffID && taskMatchesUnit(task, work) {
			cp := *task
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeTaskRepo) FindPendingByUnit(_ context.Context, work domain.WorkItem) (*domain.Task, error) {
	for _, task := range r.f.tasks {
		if task.Status == domain.TaskStatusPending && taskMatchesUnit(task, work) {
			cp := *task
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeTaskRepo) MarkCompleted(_ context.Context, id, notes string, at time.Time) error {
	task, ok := r.f.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	task.Status = domain.TaskStatusCompleted
	task.Notes = notes
	completedAt := at
	task.CompletedAt = &completedAt
	return nil
}

func (r fakeTaskRepo) MarkCancelled(_ context.Context, id string) error {
	task, ok := r.f.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	task.Status = domain.TaskStatusCancelled
	return nil
}

func (r fakeTaskRepo) ListByStaff(_ context.Context, staffID string, statuses []domain.TaskStatus, _, _ int) ([]domain.Task, error) {
	var result []domain.Task
	for _, task := range r.f.tasks {
		if task.StaffID != staffID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, status := range statuses {
				if task.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *task)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r fakeTaskRepo) CountPending(_ context.Context, staffID string, category domain.TaskCategory) (int, error) {
	count := 0
	for _, task := range r.f.tasks {
		if task.StaffID == staffID && task.Category == category && task.Status == domain.TaskStatusPending {
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct{ f *fakeStore }

func (r fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	if r.f.notifyErr != nil {
		return r.f.notifyErr
	}
	notification.ID = r.f.nextID("notification")
	notification.CreatedAt = r.f.currentTime
	cp := *notification
	r.f.notifications = append(r.f.notifications, &cp)
	return nil
}

func (r fakeNotificationRepo) ListByRecipient(_ context.Context, recipientType domain.SubjectType, recipientID string, _, _ int) ([]domain.Notification, error) {
	var result []domain.Notification
	for _, n := range r.f.notifications {
		if n.RecipientType == recipientType && n.RecipientID == recipientID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (r fakeNotificationRepo) CountUnread(_ context.Context, recipientType domain.SubjectType, recipientID string) (int, error) {
	count := 0
	for _, n := range r.f.notifications {
		if n.RecipientType == recipientType && n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r fakeNotificationRepo) MarkRead(_ context.Context, id string, recipientType domain.SubjectType, recipientID string) error {
	for _, n := range r.f.notifications {
		if n.ID == id && n.RecipientType == recipientType && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

var errNotifyDown = errors.New("notification table unavailable")
