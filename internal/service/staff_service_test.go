package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/domain"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

func newStaffServiceForTest(t *testing.T, f *fakeStore, ttl time.Duration) (*StaffService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStaffService(StaffServiceDependencies{
		Store:      f,
		Redis:      client,
		CacheTTL:   ttl,
		BcryptCost: 4,
		Logger:     zap.NewNop(),
	}), mr
}

func TestStaffProvisionValidatesAndRejectsDuplicates(t *testing.T) {
	f := newFakeStore()
	svc, _ := newStaffServiceForTest(t, f, time.Minute)

	_, err := svc.Provision(context.Background(), StaffProvisionInput{
		Name: "Priya", Email: "priya@example.test", Password: "short", Role: "AGENT", Department: "PARENT_OPS",
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("unexpected error: %v", err)
	}

	staff, err := svc.Provision(context.Background(), StaffProvisionInput{
		Name: "Priya", Email: "Priya@Example.Test", Password: "correct horse", Role: "agent", Department: "parent_ops",
	})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if staff.Email != "priya@example.test" {
		t.Fatalf("email not normalized: %q", staff.Email)
	}
	if staff.Department != domain.DepartmentParentOps || staff.Role != domain.StaffRoleAgent {
		t.Fatalf("inputs not normalized: %s %s", staff.Department, staff.Role)
	}
	if !staff.Available || !staff.Active {
		t.Fatal("new staff start available and active")
	}

	_, err = svc.Provision(context.Background(), StaffProvisionInput{
		Name: "Priya Again", Email: "priya@example.test", Password: "correct horse", Role: "AGENT", Department: "PARENT_OPS",
	})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("duplicate email must conflict, got %v", err)
	}
}

func TestWorkloadOverviewCaching(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 2, 1)
	svc, mr := newStaffServiceForTest(t, f, time.Minute)

	entries, err := svc.WorkloadOverview(context.Background())
	if err != nil {
		t.Fatalf("WorkloadOverview: %v", err)
	}
	if len(entries) != 1 || entries[0].PendingJobCount != 2 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	// A counter change invisible to the cache: the stale value is served
	// until the TTL lapses.
	f.staff[staffID].PendingJobCount = 7
	entries, _ = svc.WorkloadOverview(context.Background())
	if entries[0].PendingJobCount != 2 {
		t.Fatalf("expected cached value 2, got %d", entries[0].PendingJobCount)
	}

	mr.FastForward(2 * time.Minute)
	entries, _ = svc.WorkloadOverview(context.Background())
	if entries[0].PendingJobCount != 7 {
		t.Fatalf("expected fresh value 7 after TTL, got %d", entries[0].PendingJobCount)
	}
}

func TestStaffMutationsInvalidateOverviewCache(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	svc, _ := newStaffServiceForTest(t, f, time.Hour)

	if _, err := svc.WorkloadOverview(context.Background()); err != nil {
		t.Fatalf("WorkloadOverview: %v", err)
	}

	if err := svc.SetAvailability(context.Background(), staffID, false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}

	entries, err := svc.WorkloadOverview(context.Background())
	if err != nil {
		t.Fatalf("WorkloadOverview: %v", err)
	}
	if entries[0].Available {
		t.Fatal("availability change must invalidate the cache")
	}
}

func TestStaffUpdatePartialFields(t *testing.T) {
	f := newFakeStore()
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	svc, _ := newStaffServiceForTest(t, f, 0)

	department := "SUPERADMIN"
	active := false
	updated, err := svc.Update(context.Background(), staffID, StaffUpdateInput{
		Department: &department,
		Active:     &active,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Department != domain.DepartmentSuperAdmin {
		t.Fatalf("department not updated: %s", updated.Department)
	}
	if updated.Active {
		t.Fatal("active not updated")
	}
	if updated.Name == "" {
		t.Fatal("untouched fields must survive")
	}

	bogus := "SALES"
	if _, err := svc.Update(context.Background(), staffID, StaffUpdateInput{Department: &bogus}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("unexpected error: %v", err)
	}
}
