package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
	apperrors "github.com/tutorlane/tutor-marketplace/pkg/util"
)

func newAuthServiceForTest(f *fakeStore) *AuthService {
	return NewAuthService(AuthServiceDependencies{
		Store:      f,
		Tokens:     auth.NewTokenManager("test-secret", 30),
		BcryptCost: 4,
		Logger:     zap.NewNop(),
	})
}

func TestRegisterAndLoginUser(t *testing.T) {
	f := newFakeStore()
	svc := newAuthServiceForTest(f)

	user, result, err := svc.RegisterUser(context.Background(), RegisterInput{
		Name:     "Ravi",
		Email:    "Ravi@Example.Test",
		Password: "correct horse",
		Role:     "tutor",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.Role != domain.UserRoleTutor {
		t.Fatalf("unexpected role %s", user.Role)
	}
	if user.Email != "ravi@example.test" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if result.Token == "" {
		t.Fatal("registration must issue a token")
	}
	if user.PasswordHash == "correct horse" {
		t.Fatal("password must be hashed")
	}

	if _, _, err := svc.LoginUser(context.Background(), "ravi@example.test", "wrong"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := svc.LoginUser(context.Background(), "nobody@example.test", "whatever"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("unknown email: %v", err)
	}

	loggedIn, result, err := svc.LoginUser(context.Background(), "ravi@example.test", "correct horse")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if loggedIn.ID != user.ID || result.Token == "" {
		t.Fatal("login must return the user and a token")
	}

	claims, err := svc.TokenManager().ParseToken(result.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != user.ID || claims.Subject != domain.SubjectTypeUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestRegisterUserRejectsInvalidInput(t *testing.T) {
	f := newFakeStore()
	svc := newAuthServiceForTest(f)

	if _, _, err := svc.RegisterUser(context.Background(), RegisterInput{
		Name: "X", Email: "x@example.test", Password: "correct horse", Role: "ADMIN",
	}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("staff roles must be rejected: %v", err)
	}

	if _, _, err := svc.RegisterUser(context.Background(), RegisterInput{
		Name: "X", Email: "x@example.test", Password: "short", Role: "PARENT",
	}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("short password must be rejected: %v", err)
	}

	if _, _, err := svc.RegisterUser(context.Background(), RegisterInput{
		Name: "X", Email: "x@example.test", Password: "correct horse", Role: "PARENT",
	}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, _, err := svc.RegisterUser(context.Background(), RegisterInput{
		Name: "Y", Email: "x@example.test", Password: "correct horse", Role: "PARENT",
	}); !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("duplicate email must conflict: %v", err)
	}
}

func TestLoginStaffRejectsDeactivated(t *testing.T) {
	f := newFakeStore()
	svc := newAuthServiceForTest(f)

	hash, err := auth.HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	staffID := f.addStaff(domain.DepartmentParentOps, true, 0, 0)
	f.staff[staffID].PasswordHash = hash
	email := f.staff[staffID].Email

	staff, result, err := svc.LoginStaff(context.Background(), email, "correct horse")
	if err != nil {
		t.Fatalf("LoginStaff: %v", err)
	}
	if staff.ID != staffID {
		t.Fatal("unexpected staff")
	}
	claims, err := svc.TokenManager().ParseToken(result.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != domain.SubjectTypeStaff || claims.Role == nil || *claims.Role != domain.StaffRoleAgent {
		t.Fatalf("unexpected claims %+v", claims)
	}

	f.staff[staffID].Active = false
	if _, _, err := svc.LoginStaff(context.Background(), email, "correct horse"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("deactivated staff must not log in: %v", err)
	}
}

func TestChangeUserPassword(t *testing.T) {
	f := newFakeStore()
	svc := newAuthServiceForTest(f)

	user, _, err := svc.RegisterUser(context.Background(), RegisterInput{
		Name: "Ravi", Email: "ravi@example.test", Password: "correct horse", Role: "PARENT",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if err := svc.ChangeUserPassword(context.Background(), user, "wrong", "battery staple"); !apperrors.IsCode(err, "UNAUTHORIZED") {
		t.Fatalf("wrong current password: %v", err)
	}
	if err := svc.ChangeUserPassword(context.Background(), user, "correct horse", "battery staple"); err != nil {
		t.Fatalf("ChangeUserPassword: %v", err)
	}
	if _, _, err := svc.LoginUser(context.Background(), "ravi@example.test", "battery staple"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
