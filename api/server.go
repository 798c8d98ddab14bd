/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:   Unique ID per request for tracing
  2. RealIP:      Client address behind the proxy
  3. Logger:      Request logging
  4. Recoverer:   Panic recovery (500 instead of crash)
  5. CORS:        Cross-origin requests for frontend
  6. RequireUser: X-User-ID header -> user identity (all /api routes)

ROUTE GROUPS:
  /api/workspaces               Create / list / join
  /api/workspaces/{id}/*        Everything workspace-scoped; the
                                WorkspaceContext middleware resolves
                                membership, then per-route permission
                                gates apply
  /api/assist/status            Assistant availability
  /api/scenarios/*              Demo scenarios

AUTHORIZATION:
  Identity comes from the upstream proxy's X-User-ID header; this
  service does no credential handling. Workspace routes 403 for
  non-members and for members whose role lacks the route's permission.

SEE ALSO:
  - middleware.go: RequireUser, WorkspaceContext, RequirePermission
  - handlers.go, projects.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lntconnect/connect/rbac"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", h.CreateWorkspace)
			r.Get("/", h.ListWorkspaces)
			r.Post("/join", h.JoinWorkspace)

			// Everything below runs with a resolved membership.
			r.Route("/{workspaceID}", func(r chi.Router) {
				r.Use(h.WorkspaceContext)

				r.Get("/", h.GetWorkspace)
				r.With(RequirePermission(rbac.PermEditWorkspace)).Put("/", h.UpdateWorkspace)
				r.With(RequirePermission(rbac.PermDeleteWorkspace)).Delete("/", h.DeleteWorkspace)
				r.With(RequirePermission(rbac.PermManageWorkspaceSettings)).Post("/invite/rotate", h.RotateInviteCode)

				// Member routes
				r.Route("/members", func(r chi.Router) {
					r.With(RequirePermission(rbac.PermViewMembers)).Get("/", h.ListMembers)
					r.With(RequirePermission(rbac.PermChangeMemberRole)).Put("/{memberID}/role", h.ChangeMemberRole)
					r.With(RequirePermission(rbac.PermRemoveMember)).Delete("/{memberID}", h.RemoveMember)
				})

				// Leave routes
				r.Route("/leave", func(r chi.Router) {
					r.With(RequirePermission(rbac.PermRequestLeave)).Post("/requests", h.SubmitLeave)
					r.With(RequirePermission(rbac.PermViewAllLeaves)).Get("/requests", h.ListWorkspaceLeave)
					r.With(RequirePermission(rbac.PermViewOwnLeave)).Get("/requests/mine", h.ListMyLeave)
					r.With(RequirePermission(rbac.PermApproveLeave)).Post("/requests/{requestID}/approve", h.ApproveLeave)
					r.With(RequirePermission(rbac.PermApproveLeave)).Post("/requests/{requestID}/reject", h.RejectLeave)
					r.With(RequirePermission(rbac.PermRequestLeave)).Post("/requests/{requestID}/cancel", h.CancelLeave)
					r.With(RequirePermission(rbac.PermViewOwnLeave)).Get("/balance", h.GetMyBalance)
					r.With(RequirePermission(rbac.PermManageLeaveBalance)).Get("/balances/{memberID}", h.GetMemberBalance)
					r.With(RequirePermission(rbac.PermManageLeaveBalance)).Post("/balances/{memberID}/adjust", h.AdjustBalance)
				})

				// Attendance routes
				r.Route("/attendance", func(r chi.Router) {
					r.Post("/check-in", h.CheckIn)
					r.Post("/check-out", h.CheckOut)
					r.Get("/mine", h.ListMyAttendance)
					r.With(RequirePermission(rbac.PermViewMembers)).Get("/day", h.GetDayAttendance)
				})

				// Project routes
				r.Route("/projects", func(r chi.Router) {
					r.With(RequirePermission(rbac.PermCreateProject)).Post("/", h.CreateProject)
					r.With(RequirePermission(rbac.PermViewProject)).Get("/", h.ListProjects)

					r.Route("/{projectID}", func(r chi.Router) {
						r.With(RequirePermission(rbac.PermViewProject)).Get("/", h.GetProject)
						r.With(RequirePermission(rbac.PermEditProject)).Put("/", h.UpdateProject)
						r.With(RequirePermission(rbac.PermArchiveProject)).Post("/archive", h.ArchiveProject)
						r.With(RequirePermission(rbac.PermDeleteProject)).Delete("/", h.DeleteProject)

						// Requirement tree
						r.With(RequirePermission(rbac.PermCreateEpic)).Post("/nodes", h.CreateNode)
						r.With(RequirePermission(rbac.PermViewEpic)).Get("/tree", h.GetTree)
						r.With(RequirePermission(rbac.PermEditEpic)).Put("/nodes/{nodeID}", h.RenameNode)
						r.With(RequirePermission(rbac.PermDeleteEpic)).Delete("/nodes/{nodeID}", h.DeleteNode)

						// Sprints
						r.Route("/sprints", func(r chi.Router) {
							r.With(RequirePermission(rbac.PermCreateSprint)).Post("/", h.CreateSprint)
							r.With(RequirePermission(rbac.PermViewSprint)).Get("/", h.ListSprints)
							r.With(RequirePermission(rbac.PermEditSprint)).Put("/{sprintID}", h.UpdateSprint)
							r.With(RequirePermission(rbac.PermDeleteSprint)).Delete("/{sprintID}", h.DeleteSprint)
						})

						// Tasks
						r.Route("/tasks", func(r chi.Router) {
							r.With(RequirePermission(rbac.PermCreateTask)).Post("/", h.CreateTask)
							r.With(RequirePermission(rbac.PermViewTask)).Get("/", h.ListTasks)
							r.With(RequirePermission(rbac.PermViewTask)).Get("/{taskID}", h.GetTask)
							r.With(RequirePermission(rbac.PermEditTask)).Put("/{taskID}", h.UpdateTask)
							r.With(RequirePermission(rbac.PermDeleteTask)).Delete("/{taskID}", h.DeleteTask)
							r.With(RequirePermission(rbac.PermChangeTaskStatus)).Put("/{taskID}/status", h.ChangeTaskStatus)
							r.With(RequirePermission(rbac.PermAssignTask)).Put("/{taskID}/assign", h.AssignTask)
						})

						// Health
						r.With(RequirePermission(rbac.PermViewAnalytics)).Get("/health", h.GetProjectHealth)
						r.With(RequirePermission(rbac.PermViewAnalytics)).Get("/health/history", h.GetHealthHistory)

						// Assist
						r.With(RequirePermission(rbac.PermCreateEpic)).Post("/assist/draft", h.DraftRequirements)
					})
				})
			})
		})

		// Assistant availability, not workspace-scoped
		r.Get("/assist/status", h.AssistStatus)

		// Scenario routes (dev/demo only)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
