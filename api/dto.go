/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Workspace:   WorkspaceDTO, CreateWorkspaceRequest, JoinWorkspaceRequest
  Member:      MemberDTO, ChangeRoleRequest
  Project:     ProjectDTO, SaveProjectRequest
  Tree:        NodeDTO, CreateNodeRequest, RenameNodeRequest
  Sprint/Task: SprintDTO, TaskDTO and their request types
  Leave:       LedgerDTO, LeaveRequestDTO, SubmitLeaveRequest, ReviewRequest
  Attendance:  AttendanceDTO
  Health:      HealthReportDTO, HealthSnapshotDTO
  Scenarios:   ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go, projects.go: Use these types
*/
package api

import (
	"time"

	"github.com/lntconnect/connect/attendance"
	"github.com/lntconnect/connect/health"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/store/sqlite"
)

// =============================================================================
// WORKSPACES AND MEMBERS
// =============================================================================

// WorkspaceDTO represents a workspace in API responses. The invite code
// appears only in creation and rotation responses, never on reads.
type WorkspaceDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	LeavePolicy any    `json:"leave_policy,omitempty"`
	InviteCode  string `json:"invite_code,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateWorkspaceRequest creates a workspace with the caller as MANAGER.
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// UpdateWorkspaceRequest renames a workspace and/or replaces its leave
// policy JSON.
type UpdateWorkspaceRequest struct {
	Name        *string `json:"name,omitempty"`
	LeavePolicy *string `json:"leave_policy,omitempty"`
}

// JoinWorkspaceRequest joins a workspace by invite code.
type JoinWorkspaceRequest struct {
	WorkspaceID string `json:"workspace_id"`
	InviteCode  string `json:"invite_code"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// MemberDTO represents a workspace member.
type MemberDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	JoinedAt    string `json:"joined_at,omitempty"`
}

// ChangeRoleRequest changes a member's role.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// =============================================================================
// PROJECTS AND THE REQUIREMENT TREE
// =============================================================================

// ProjectDTO represents a project.
type ProjectDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Archived    bool   `json:"archived"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// SaveProjectRequest creates or updates a project. Code is optional; an
// empty code is derived from the name.
type SaveProjectRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// NodeDTO represents one requirement-tree node.
type NodeDTO struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	ParentID    *string `json:"parent_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Seq         int     `json:"seq"`
	HierarchyID string  `json:"hierarchy_id"`
}

// TreeDTO groups a project's nodes by kind.
type TreeDTO struct {
	Requirements           []NodeDTO `json:"requirements"`
	Epics                  []NodeDTO `json:"epics"`
	FunctionalRequirements []NodeDTO `json:"functional_requirements"`
}

// CreateNodeRequest creates a requirement-tree node.
type CreateNodeRequest struct {
	Kind        string  `json:"kind"`
	ParentID    *string `json:"parent_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
}

// RenameNodeRequest updates name/description; the hierarchy id is
// immutable.
type RenameNodeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SprintDTO represents a sprint.
type SprintDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	HierarchyID string  `json:"hierarchy_id"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	Goal        string  `json:"goal,omitempty"`
}

// SaveSprintRequest creates or updates a sprint.
type SaveSprintRequest struct {
	Name      string  `json:"name"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Goal      string  `json:"goal,omitempty"`
}

// TaskDTO represents a task.
type TaskDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Status          string   `json:"status"`
	Priority        string   `json:"priority"`
	FunctionalReqID *string  `json:"functional_req_id,omitempty"`
	SprintID        *string  `json:"sprint_id,omitempty"`
	DueDate         *string  `json:"due_date,omitempty"`
	AssigneeID      *string  `json:"assignee_id,omitempty"`
	BlockedBy       []string `json:"blocked_by,omitempty"`
	HierarchyID     string   `json:"hierarchy_id"`
}

// SaveTaskRequest creates or updates a task.
type SaveTaskRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Status          string   `json:"status,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	FunctionalReqID *string  `json:"functional_req_id,omitempty"`
	SprintID        *string  `json:"sprint_id,omitempty"`
	DueDate         *string  `json:"due_date,omitempty"`
	AssigneeID      *string  `json:"assignee_id,omitempty"`
	BlockedBy       []string `json:"blocked_by,omitempty"`
}

// ChangeStatusRequest moves a task through its lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// AssignTaskRequest assigns or unassigns a task.
type AssignTaskRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// =============================================================================
// LEAVE
// =============================================================================

// LedgerDTO represents a member's leave balances. Decimals are rendered
// as strings so 0.5-day amounts survive exactly.
type LedgerDTO struct {
	MemberID    string `json:"member_id"`
	PaidLeave   string `json:"paid_leave"`
	UnpaidLeave string `json:"unpaid_leave"`
	HalfDay     string `json:"half_day"`
	CompOff     string `json:"comp_off"`
}

// LeaveRequestDTO represents one leave request.
type LeaveRequestDTO struct {
	ID         string `json:"id"`
	MemberID   string `json:"member_id"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	HalfDay    bool   `json:"half_day"`
	Days       string `json:"days"`
	Reason     string `json:"reason,omitempty"`
	Status     string `json:"status"`
	ReviewerID string `json:"reviewer_id,omitempty"`
	ReviewNote string `json:"review_note,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// SubmitLeaveRequest submits a leave request. Dates are YYYY-MM-DD.
type SubmitLeaveRequest struct {
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	HalfDay   bool   `json:"half_day,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ReviewRequest carries the optional note on approve/reject.
type ReviewRequest struct {
	Note string `json:"note,omitempty"`
}

// AdjustBalanceRequest moves one ledger counter by a signed delta.
type AdjustBalanceRequest struct {
	Field string `json:"field"`
	Delta string `json:"delta"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// AttendanceDTO represents one day record.
type AttendanceDTO struct {
	ID              string  `json:"id"`
	MemberID        string  `json:"member_id"`
	Date            string  `json:"date"`
	CheckIn         string  `json:"check_in"`
	CheckOut        *string `json:"check_out,omitempty"`
	Status          string  `json:"status"`
	WorkedMinutes   int     `json:"worked_minutes"`
	CompOffCredited bool    `json:"comp_off_credited"`
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthReportDTO is the live health evaluation of a project.
type HealthReportDTO struct {
	ProjectID            string   `json:"project_id"`
	Score                int      `json:"score"`
	Status               string   `json:"status"`
	CompletionRate       float64  `json:"completion_rate"`
	OverdueRate          float64  `json:"overdue_rate"`
	BlockedRate          float64  `json:"blocked_rate"`
	TotalTasks           int      `json:"total_tasks"`
	CompletedTasks       int      `json:"completed_tasks"`
	OverdueTasks         int      `json:"overdue_tasks"`
	BlockedTasks         int      `json:"blocked_tasks"`
	ActiveTasks          int      `json:"active_tasks"`
	CriticalOverdueTasks int      `json:"critical_overdue_tasks"`
	Recommendations      []string `json:"recommendations"`
	EvaluatedAt          string   `json:"evaluated_at"`
}

// HealthSnapshotDTO is one persisted health data point.
type HealthSnapshotDTO struct {
	Score          int     `json:"score"`
	Status         string  `json:"status"`
	CompletionRate float64 `json:"completion_rate"`
	OverdueRate    float64 `json:"overdue_rate"`
	BlockedRate    float64 `json:"blocked_rate"`
	TotalTasks     int     `json:"total_tasks"`
	TakenAt        string  `json:"taken_at"`
}

// =============================================================================
// ASSIST AND SCENARIOS
// =============================================================================

// DraftRequest asks the assistant for a requirement breakdown.
type DraftRequest struct {
	Description string `json:"description"`
}

// AssistStatusDTO reports assistant configuration and reachability.
type AssistStatusDTO struct {
	Enabled   bool `json:"enabled"`
	Available bool `json:"available"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toMemberDTO(m sqlite.Member) MemberDTO {
	return MemberDTO{
		ID:          m.ID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Role:        string(m.Role),
		JoinedAt:    m.JoinedAt.Format(time.RFC3339),
	}
}

func toProjectDTO(p sqlite.Project) ProjectDTO {
	return ProjectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Code:        p.Code,
		Description: p.Description,
		Archived:    p.Archived,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func toNodeDTO(n sqlite.RequirementNode) NodeDTO {
	return NodeDTO{
		ID:          n.ID,
		Kind:        n.Kind,
		ParentID:    n.ParentID,
		Name:        n.Name,
		Description: n.Description,
		Seq:         n.Seq,
		HierarchyID: n.HierarchyID,
	}
}

func toSprintDTO(s sqlite.Sprint) SprintDTO {
	dto := SprintDTO{
		ID:          s.ID,
		Name:        s.Name,
		HierarchyID: s.HierarchyID,
		Goal:        s.Goal,
	}
	if s.StartDate != nil {
		d := s.StartDate.Format(leave.DateLayout)
		dto.StartDate = &d
	}
	if s.EndDate != nil {
		d := s.EndDate.Format(leave.DateLayout)
		dto.EndDate = &d
	}
	return dto
}

func toTaskDTO(t sqlite.Task) TaskDTO {
	dto := TaskDTO{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		FunctionalReqID: t.FunctionalReqID,
		SprintID:        t.SprintID,
		AssigneeID:      t.AssigneeID,
		BlockedBy:       t.BlockedBy,
		HierarchyID:     t.HierarchyID,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(leave.DateLayout)
		dto.DueDate = &d
	}
	return dto
}

func toLedgerDTO(l leave.Ledger) LedgerDTO {
	return LedgerDTO{
		MemberID:    l.MemberID,
		PaidLeave:   l.PaidLeave.String(),
		UnpaidLeave: l.UnpaidLeave.String(),
		HalfDay:     l.HalfDay.String(),
		CompOff:     l.CompOff.String(),
	}
}

func toLeaveRequestDTO(r sqlite.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:         r.ID,
		MemberID:   r.MemberID,
		Type:       string(r.Type),
		StartDate:  r.StartDate.Format(leave.DateLayout),
		EndDate:    r.EndDate.Format(leave.DateLayout),
		HalfDay:    r.HalfDay,
		Days:       r.Days.String(),
		Reason:     r.Reason,
		Status:     string(r.Status),
		ReviewerID: r.ReviewerID,
		ReviewNote: r.ReviewNote,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}

func toAttendanceDTO(r attendance.Record) AttendanceDTO {
	dto := AttendanceDTO{
		ID:              r.ID,
		MemberID:        r.MemberID,
		Date:            r.Date.Format(attendance.DateLayout),
		CheckIn:         r.CheckIn.Format(time.RFC3339),
		Status:          string(r.Status),
		WorkedMinutes:   r.WorkedMinutes,
		CompOffCredited: r.CompOffCredited,
	}
	if r.CheckOut != nil {
		out := r.CheckOut.Format(time.RFC3339)
		dto.CheckOut = &out
	}
	return dto
}

func toHealthReportDTO(rep health.Report) HealthReportDTO {
	return HealthReportDTO{
		ProjectID:            rep.ProjectID,
		Score:                rep.Score,
		Status:               string(rep.Status),
		CompletionRate:       rep.CompletionRate,
		OverdueRate:          rep.OverdueRate,
		BlockedRate:          rep.BlockedRate,
		TotalTasks:           rep.TotalTasks,
		CompletedTasks:       rep.CompletedTasks,
		OverdueTasks:         rep.OverdueTasks,
		BlockedTasks:         rep.BlockedTasks,
		ActiveTasks:          rep.ActiveTasks,
		CriticalOverdueTasks: rep.CriticalOverdueTasks,
		Recommendations:      rep.Recommendations,
		EvaluatedAt:          rep.EvaluatedAt.Format(time.RFC3339),
	}
}

func toHealthSnapshotDTO(s sqlite.HealthSnapshot) HealthSnapshotDTO {
	return HealthSnapshotDTO{
		Score:          s.Score,
		Status:         string(s.Status),
		CompletionRate: s.CompletionRate,
		OverdueRate:    s.OverdueRate,
		BlockedRate:    s.BlockedRate,
		TotalTasks:     s.TotalTasks,
		TakenAt:        s.TakenAt.Format(time.RFC3339),
	}
}
