package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tutorlane/tutor-marketplace/internal/api/http/handlers"
	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Jobs           *handlers.JobsHandler
	KYC            *handlers.KYCHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireUser())
	users.Get("/me", cfg.Users.Me)
	users.Post("/password/change", cfg.Users.ChangePassword)

	jobs := app.Group("/jobs", cfg.AuthMiddleware.Handle, auth.RequireUser(domain.UserRoleParent))
	jobs.Post("/", cfg.Jobs.Submit)
	jobs.Get("/", cfg.Jobs.List)
	jobs.Get("/:id", cfg.Jobs.Get)
	jobs.Put("/:id/resubmit", cfg.Jobs.Resubmit)
	jobs.Post("/:id/withdraw", cfg.Jobs.Withdraw)

	kyc := app.Group("/kyc", cfg.AuthMiddleware.Handle, auth.RequireUser(domain.UserRoleTutor))
	kyc.Post("/", cfg.KYC.Submit)
	kyc.Get("/status", cfg.KYC.Status)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("/jobs", cfg.Jobs.ReviewQueue)
	staff.Post("/jobs/:id/decision", cfg.Jobs.Decide)
	staff.Get("/kyc", cfg.KYC.ReviewQueue)
	staff.Get("/kyc/:id", cfg.KYC.Get)
	staff.Post("/kyc/:id/decision", cfg.KYC.Decide)
	staff.Get("/workload", cfg.Staff.WorkloadOverview)
	staff.Put("/me/availability", cfg.Staff.SetAvailability)
	staff.Get("/me/tasks", cfg.Staff.ListTasks)
	staff.Post("/password/change", cfg.Staff.ChangePassword)

	admin := staff.Group("", auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("/", cfg.Staff.Provision)
	admin.Get("/", cfg.Staff.List)
	admin.Patch("/:id", cfg.Staff.Update)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread", cfg.Notifications.UnreadCount)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
}
