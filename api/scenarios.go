/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a workspace with
	members, then layers on projects, leave, or attendance data that
	demonstrates specific features.

AVAILABLE SCENARIOS:

	delivery:        Project with a requirement tree, a sprint, and tasks
	                 in every state so the health score is interesting
	leave-season:    Ledgers plus leave requests in all four states
	attendance-week: A week of attendance including weekend overtime and
	                 a record left open for the day-close job

DEMO IDENTITIES:

	Every scenario uses the same three users, so clients can switch roles
	by changing the X-User-ID header:
	  user-asha   MANAGER
	  user-rohan  TEAM_LEAD
	  user-meera  MEMBER
	The invite code for the demo workspace is always DEMO-CODE-01.

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - server.go: /api/scenarios routes
  - store/sqlite/sqlite.go: Reset
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/lntconnect/connect/attendance"
	"github.com/lntconnect/connect/health"
	"github.com/lntconnect/connect/hierarchy"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/rbac"
	"github.com/lntconnect/connect/store/sqlite"
)

// demoInviteCode is the plaintext invite code every scenario workspace
// accepts.
const demoInviteCode = "DEMO-CODE-01"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "delivery",
		Name:        "Delivery Board",
		Description: "Project with requirement tree, sprint, and tasks in every state",
	},
	{
		ID:          "leave-season",
		Name:        "Leave Season",
		Description: "Leave ledgers plus requests in pending, approved, rejected, and cancelled states",
	},
	{
		ID:          "attendance-week",
		Name:        "Attendance Week",
		Description: "A week of attendance including weekend overtime and an unclosed day",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario resets the database and loads one predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Cache.Clear()
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "delivery":
		err = h.loadDeliveryScenario(ctx)
	case "leave-season":
		err = h.loadLeaveSeasonScenario(ctx)
	case "attendance-week":
		err = h.loadAttendanceWeekScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// ResetDatabase clears everything without loading a scenario.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Cache.Clear()
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SHARED SEED DATA
// =============================================================================

// demoWorkspace is the common base: one workspace, three members with
// distinct roles, opening ledgers from the default policy.
type demoWorkspace struct {
	WorkspaceID string
	ManagerID   string
	LeadID      string
	MemberID    string
}

func (h *Handler) seedDemoWorkspace(ctx context.Context, name string) (*demoWorkspace, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoInviteCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	policy := leave.DefaultPolicy()
	ws := sqlite.Workspace{
		ID:              uuid.NewString(),
		Name:            name,
		InviteCodeHash:  string(hash),
		LeavePolicyJSON: policy.JSON(),
	}
	if err := h.Store.SaveWorkspace(ctx, ws); err != nil {
		return nil, err
	}

	seed := &demoWorkspace{WorkspaceID: ws.ID}
	members := []struct {
		target      *string
		userID      string
		displayName string
		role        rbac.Role
	}{
		{&seed.ManagerID, "user-asha", "Asha Nair", rbac.RoleManager},
		{&seed.LeadID, "user-rohan", "Rohan Iyer", rbac.RoleTeamLead},
		{&seed.MemberID, "user-meera", "Meera Pillai", rbac.RoleMember},
	}
	for _, m := range members {
		member := sqlite.Member{
			ID:          uuid.NewString(),
			WorkspaceID: ws.ID,
			UserID:      m.userID,
			DisplayName: m.displayName,
			Email:       m.userID + "@example.com",
			Role:        m.role,
		}
		if err := h.Store.CreateMember(ctx, member); err != nil {
			return nil, err
		}
		if err := h.Store.SaveLedger(ctx, ws.ID, policy.OpenLedger(member.ID)); err != nil {
			return nil, err
		}
		*m.target = member.ID
	}
	return seed, nil
}

// =============================================================================
// DELIVERY SCENARIO
// =============================================================================

func (h *Handler) loadDeliveryScenario(ctx context.Context) error {
	seed, err := h.seedDemoWorkspace(ctx, "Metro Line Delivery")
	if err != nil {
		return err
	}

	project := sqlite.Project{
		ID:          uuid.NewString(),
		WorkspaceID: seed.WorkspaceID,
		Name:        "Signalling Upgrade",
		Code:        hierarchy.ProjectCode("", "Signalling Upgrade"),
		Description: "Upgrade the line signalling control software",
	}
	if err := h.Store.SaveProject(ctx, project); err != nil {
		return err
	}

	// Requirement tree: one client requirement, one epic, one FR.
	reqSeq, err := h.Store.NextSeq(ctx, "project:"+project.ID+":requirements")
	if err != nil {
		return err
	}
	requirement := sqlite.RequirementNode{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Kind:        sqlite.NodeClientRequirement,
		Name:        "Automatic Train Supervision",
		Seq:         reqSeq,
		HierarchyID: hierarchy.RequirementID(project.Code, project.Name, "Automatic Train Supervision", reqSeq),
	}
	if err := h.Store.SaveNode(ctx, requirement); err != nil {
		return err
	}

	epicSeq, err := h.Store.NextSeq(ctx, "node:"+requirement.ID+":epics")
	if err != nil {
		return err
	}
	epic := sqlite.RequirementNode{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Kind:        sqlite.NodeEpic,
		ParentID:    &requirement.ID,
		Name:        "Timetable Engine",
		Seq:         epicSeq,
		HierarchyID: hierarchy.EpicID(project.Code, project.Name, requirement.Name, "Timetable Engine", epicSeq),
	}
	if err := h.Store.SaveNode(ctx, epic); err != nil {
		return err
	}

	frSeq, err := h.Store.NextSeq(ctx, "node:"+epic.ID+":frs")
	if err != nil {
		return err
	}
	fr := sqlite.RequirementNode{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Kind:        sqlite.NodeFunctionalRequirement,
		ParentID:    &epic.ID,
		Name:        "Conflict Detection",
		Seq:         frSeq,
		HierarchyID: hierarchy.FRID(project.Code, project.Name, requirement.Name, epic.Name, "Conflict Detection", frSeq),
	}
	if err := h.Store.SaveNode(ctx, fr); err != nil {
		return err
	}

	now := time.Now().UTC()
	sprintStart := now.AddDate(0, 0, -7)
	sprintEnd := now.AddDate(0, 0, 7)
	sprint := sqlite.Sprint{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Name:        "Sprint 4",
		HierarchyID: hierarchy.SprintID(project.Code, project.Name, "Sprint 4"),
		StartDate:   &sprintStart,
		EndDate:     &sprintEnd,
		Goal:        "Conflict detection happy path",
	}
	if err := h.Store.SaveSprint(ctx, sprint); err != nil {
		return err
	}

	// Tasks in every state: done, in progress, overdue, blocked.
	overdue := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 5)
	taskSpecs := []struct {
		name     string
		status   health.TaskStatus
		priority health.TaskPriority
		due      *time.Time
		assignee *string
	}{
		{"Parse timetable feed", health.TaskDone, health.PriorityMedium, nil, &seed.LeadID},
		{"Detect platform conflicts", health.TaskInProgress, health.PriorityHigh, &future, &seed.MemberID},
		{"Alert dispatch console", health.TaskTodo, health.PriorityCritical, &overdue, nil},
		{"Replay historical incidents", health.TaskReview, health.PriorityLow, &future, &seed.LeadID},
	}

	var previousID string
	for _, spec := range taskSpecs {
		seq, err := h.Store.NextSeq(ctx, "node:"+fr.ID+":tasks")
		if err != nil {
			return err
		}
		task := sqlite.Task{
			ID:              uuid.NewString(),
			ProjectID:       project.ID,
			FunctionalReqID: &fr.ID,
			SprintID:        &sprint.ID,
			Name:            spec.name,
			Status:          spec.status,
			Priority:        spec.priority,
			DueDate:         spec.due,
			AssigneeID:      spec.assignee,
			Seq:             seq,
			HierarchyID:     hierarchy.TaskID(fr.HierarchyID, spec.name, seq),
		}
		// Last task is blocked by the one before it.
		if spec.name == "Replay historical incidents" && previousID != "" {
			task.BlockedBy = []string{previousID}
		}
		if err := h.Store.SaveTask(ctx, task); err != nil {
			return err
		}
		previousID = task.ID
	}

	return nil
}

// =============================================================================
// LEAVE SEASON SCENARIO
// =============================================================================

func (h *Handler) loadLeaveSeasonScenario(ctx context.Context) error {
	seed, err := h.seedDemoWorkspace(ctx, "People Operations")
	if err != nil {
		return err
	}

	// The member has already spent some paid leave.
	ledger, err := h.Store.GetLedger(ctx, seed.MemberID)
	if err != nil {
		return err
	}
	ledger.PaidLeave = ledger.PaidLeave.Sub(decimal.NewFromInt(4))
	if err := h.Store.SaveLedger(ctx, seed.WorkspaceID, *ledger); err != nil {
		return err
	}

	now := time.Now().UTC()
	nextMonday := now.AddDate(0, 0, (8-int(now.Weekday()))%7+7)
	requests := []sqlite.LeaveRequest{
		{
			ID:          uuid.NewString(),
			WorkspaceID: seed.WorkspaceID,
			MemberID:    seed.MemberID,
			Type:        leave.TypeCasual,
			StartDate:   nextMonday,
			EndDate:     nextMonday.AddDate(0, 0, 2),
			Days:        decimal.NewFromInt(3),
			Reason:      "Family visit",
			Status:      leave.StatusPending,
		},
		{
			ID:          uuid.NewString(),
			WorkspaceID: seed.WorkspaceID,
			MemberID:    seed.LeadID,
			Type:        leave.TypeSick,
			StartDate:   nextMonday.AddDate(0, 0, 14),
			EndDate:     nextMonday.AddDate(0, 0, 15),
			Days:        decimal.NewFromInt(2),
			Reason:      "Dental surgery",
			Status:      leave.StatusApproved,
			ReviewerID:  seed.ManagerID,
			ReviewNote:  "Get well soon",
		},
		{
			ID:          uuid.NewString(),
			WorkspaceID: seed.WorkspaceID,
			MemberID:    seed.MemberID,
			Type:        leave.TypeAnnual,
			StartDate:   nextMonday.AddDate(0, 1, 0),
			EndDate:     nextMonday.AddDate(0, 1, 10),
			Days:        decimal.NewFromInt(9),
			Reason:      "Extended trip",
			Status:      leave.StatusRejected,
			ReviewerID:  seed.ManagerID,
			ReviewNote:  "Release window, please resubmit after",
		},
		{
			ID:          uuid.NewString(),
			WorkspaceID: seed.WorkspaceID,
			MemberID:    seed.LeadID,
			Type:        leave.TypeHalfDay,
			StartDate:   nextMonday.AddDate(0, 0, 21),
			EndDate:     nextMonday.AddDate(0, 0, 21),
			HalfDay:     true,
			Days:        decimal.NewFromInt(1),
			Reason:      "School event",
			Status:      leave.StatusCancelled,
		},
	}
	for _, req := range requests {
		if err := h.Store.SaveLeaveRequest(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// ATTENDANCE WEEK SCENARIO
// =============================================================================

func (h *Handler) loadAttendanceWeekScenario(ctx context.Context) error {
	seed, err := h.seedDemoWorkspace(ctx, "Site Office")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	// Walk back to the most recent Monday, then lay out a full week.
	monday := now.AddDate(0, 0, -((int(now.Weekday())+6)%7)-7)
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)

	for day := 0; day < 7; day++ {
		date := monday.AddDate(0, 0, day)
		checkIn := date.Add(9 * time.Hour)

		rec := attendance.Record{
			ID:          uuid.NewString(),
			WorkspaceID: seed.WorkspaceID,
			MemberID:    seed.MemberID,
			Date:        date,
			CheckIn:     checkIn,
			Status:      attendance.StatusPresent,
		}

		switch date.Weekday() {
		case time.Saturday:
			// Five weekend hours, enough to earn a comp-off on the next
			// day-close pass.
			out := checkIn.Add(5 * time.Hour)
			rec.CheckOut = &out
			rec.WorkedMinutes = attendance.WorkedMinutes(rec.CheckIn, out)
		case time.Sunday:
			// Forgot to check out; the day-close job will auto-close it.
		default:
			out := checkIn.Add(8 * time.Hour)
			rec.CheckOut = &out
			rec.WorkedMinutes = attendance.WorkedMinutes(rec.CheckIn, out)
		}

		if err := h.Store.CreateAttendance(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
