package domain

import "time"

// UserRole distinguishes the two kinds of marketplace end-users.
type UserRole string

const (
	UserRoleParent UserRole = "PARENT"
	UserRoleTutor  UserRole = "TUTOR"
)

// UserStatus represents lifecycle states for an end-user.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for parents and tutors.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
