package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lntconnect/connect/attendance"
	"github.com/lntconnect/connect/health"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/rbac"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedWorkspace(t *testing.T, store *Store, id string) {
	t.Helper()
	require.NoError(t, store.SaveWorkspace(context.Background(), Workspace{
		ID:              id,
		Name:            "Acme Delivery",
		InviteCodeHash:  "hash",
		LeavePolicyJSON: leave.DefaultPolicy().JSON(),
	}))
}

func strPtr(s string) *string { return &s }

func TestWorkspaceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN a saved workspace
	seedWorkspace(t, store, "ws-1")

	// WHEN it is read back
	ws, err := store.GetWorkspace(ctx, "ws-1")
	require.NoError(t, err)

	// THEN the fields survive
	assert.Equal(t, "Acme Delivery", ws.Name)
	assert.Equal(t, "hash", ws.InviteCodeHash)
	assert.NotEmpty(t, ws.LeavePolicyJSON)

	// AND an unknown id answers ErrNotFound
	_, err = store.GetWorkspace(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemberUniquePerWorkspace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")
	seedWorkspace(t, store, "ws-2")

	m := Member{ID: "m-1", WorkspaceID: "ws-1", UserID: "user-a", DisplayName: "Asha", Role: rbac.RoleManager}
	require.NoError(t, store.CreateMember(ctx, m))

	// Same user in the same workspace is a duplicate.
	dup := Member{ID: "m-2", WorkspaceID: "ws-1", UserID: "user-a", DisplayName: "Asha", Role: rbac.RoleMember}
	err := store.CreateMember(ctx, dup)
	if !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("expected ErrDuplicateMember, got %v", err)
	}

	// Same user in another workspace is fine.
	other := Member{ID: "m-3", WorkspaceID: "ws-2", UserID: "user-a", DisplayName: "Asha", Role: rbac.RoleMember}
	assert.NoError(t, store.CreateMember(ctx, other))

	got, err := store.GetMemberByUser(ctx, "ws-1", "user-a")
	require.NoError(t, err)
	assert.Equal(t, "m-1", got.ID)
	assert.Equal(t, rbac.RoleManager, got.Role)
}

func TestUpdateMemberRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")
	require.NoError(t, store.CreateMember(ctx, Member{
		ID: "m-1", WorkspaceID: "ws-1", UserID: "u-1", DisplayName: "Ravi", Role: rbac.RoleMember,
	}))

	require.NoError(t, store.UpdateMemberRole(ctx, "m-1", rbac.RoleTeamLead))

	got, err := store.GetMember(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleTeamLead, got.Role)

	err = store.UpdateMemberRole(ctx, "missing", rbac.RoleMember)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProjectListing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")

	require.NoError(t, store.SaveProject(ctx, Project{ID: "p-1", WorkspaceID: "ws-1", Name: "Billing", Code: "BI"}))
	require.NoError(t, store.SaveProject(ctx, Project{ID: "p-2", WorkspaceID: "ws-1", Name: "Archive Me", Code: "AR", Archived: true}))

	active, err := store.ListProjects(ctx, "ws-1", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p-1", active[0].ID)

	all, err := store.ListProjects(ctx, "ws-1", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// ListActiveProjects spans workspaces but still skips archived.
	global, err := store.ListActiveProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, global, 1)
}

func TestRequirementNodeTreeDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")
	require.NoError(t, store.SaveProject(ctx, Project{ID: "p-1", WorkspaceID: "ws-1", Name: "Billing", Code: "BI"}))

	// GIVEN requirement -> epic -> FR, and a task on the FR
	req := RequirementNode{ID: "n-1", ProjectID: "p-1", Kind: NodeClientRequirement, Name: "Invoicing", Seq: 1, HierarchyID: "BI-INV-01"}
	epic := RequirementNode{ID: "n-2", ProjectID: "p-1", Kind: NodeEpic, ParentID: strPtr("n-1"), Name: "PDF Export", Seq: 1, HierarchyID: "BI-INV-PDF-01"}
	fr := RequirementNode{ID: "n-3", ProjectID: "p-1", Kind: NodeFunctionalRequirement, ParentID: strPtr("n-2"), Name: "Layout", Seq: 1, HierarchyID: "BI-INV-PDF-LAY-01"}
	for _, n := range []RequirementNode{req, epic, fr} {
		require.NoError(t, store.SaveNode(ctx, n))
	}
	require.NoError(t, store.SaveTask(ctx, Task{
		ID: "t-1", ProjectID: "p-1", FunctionalReqID: strPtr("n-3"), Name: "Build layout",
		Status: health.TaskTodo, Priority: health.PriorityMedium, Seq: 1, HierarchyID: "BI-INV-PDF-LAY-T01",
	}))

	// WHEN the requirement root is deleted
	require.NoError(t, store.DeleteNodeTree(ctx, "n-1"))

	// THEN the whole subtree is gone
	nodes, err := store.ListNodes(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	// AND the task survives, detached from the FR
	task, err := store.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Nil(t, task.FunctionalReqID)
}

func TestTaskRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")
	require.NoError(t, store.SaveProject(ctx, Project{ID: "p-1", WorkspaceID: "ws-1", Name: "Billing", Code: "BI"}))

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	task := Task{
		ID: "t-1", ProjectID: "p-1", Name: "Wire webhook",
		Status: health.TaskInProgress, Priority: health.PriorityHigh,
		DueDate: &due, BlockedBy: []string{"t-0"},
		AssigneeID: strPtr("m-1"), Seq: 1, HierarchyID: "BI-T01",
	}
	require.NoError(t, store.SaveTask(ctx, task))

	got, err := store.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, health.TaskInProgress, got.Status)
	assert.Equal(t, health.PriorityHigh, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-09-15", got.DueDate.Format("2006-01-02"))
	assert.Equal(t, []string{"t-0"}, got.BlockedBy)

	// Update flows through the upsert.
	task.Status = health.TaskDone
	task.BlockedBy = nil
	require.NoError(t, store.SaveTask(ctx, task))

	got, err = store.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, health.TaskDone, got.Status)
	assert.Empty(t, got.BlockedBy)
}

func TestSprintDeleteDetachesTasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")
	require.NoError(t, store.SaveProject(ctx, Project{ID: "p-1", WorkspaceID: "ws-1", Name: "Billing", Code: "BI"}))
	require.NoError(t, store.SaveSprint(ctx, Sprint{ID: "s-1", ProjectID: "p-1", Name: "Sprint 1", HierarchyID: "BI-S01"}))
	require.NoError(t, store.SaveTask(ctx, Task{
		ID: "t-1", ProjectID: "p-1", SprintID: strPtr("s-1"), Name: "Task",
		Status: health.TaskTodo, Priority: health.PriorityLow, Seq: 1, HierarchyID: "BI-T01",
	}))

	require.NoError(t, store.DeleteSprint(ctx, "s-1"))

	task, err := store.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Nil(t, task.SprintID)

	_, err = store.GetSprint(ctx, "s-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLedgerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	l := leave.DefaultPolicy().OpenLedger("m-1")
	require.NoError(t, store.SaveLedger(ctx, "ws-1", l))

	got, err := store.GetLedger(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, got.PaidLeave.Equal(decimal.NewFromInt(18)), "paid leave = %s", got.PaidLeave)
	assert.True(t, got.HalfDay.Equal(decimal.NewFromInt(6)))
	assert.True(t, got.UnpaidLeave.IsZero())

	// Fractional balances survive the TEXT column.
	got.PaidLeave = decimal.RequireFromString("15.5")
	require.NoError(t, store.SaveLedger(ctx, "ws-1", *got))

	again, err := store.GetLedger(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, again.PaidLeave.Equal(decimal.RequireFromString("15.5")))

	ledgers, err := store.ListLedgers(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, ledgers, 1)
}

func TestApproveLeaveIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ledger := leave.DefaultPolicy().OpenLedger("m-1")
	require.NoError(t, store.SaveLedger(ctx, "ws-1", ledger))

	req := LeaveRequest{
		ID: "lr-1", WorkspaceID: "ws-1", MemberID: "m-1",
		Type:      leave.TypeAnnual,
		StartDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		Days:      decimal.NewFromInt(3),
		Status:    leave.StatusPending,
	}
	require.NoError(t, store.SaveLeaveRequest(ctx, req))

	// WHEN the request is approved with the deducted ledger
	require.NoError(t, leave.ApplyDeduction(&ledger, req.Type, req.Days))
	req.Status = leave.StatusApproved
	req.ReviewerID = "m-boss"
	require.NoError(t, store.ApproveLeave(ctx, req, "ws-1", ledger))

	// THEN both the status and the balance landed
	got, err := store.GetLeaveRequest(ctx, "lr-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, "m-boss", got.ReviewerID)

	balance, err := store.GetLedger(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, balance.PaidLeave.Equal(decimal.NewFromInt(15)), "paid leave = %s", balance.PaidLeave)
}

func TestLeaveRequestFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := LeaveRequest{
		WorkspaceID: "ws-1", MemberID: "m-1", Type: leave.TypeCasual,
		StartDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		Days:      decimal.NewFromInt(1),
	}

	pending := base
	pending.ID, pending.Status = "lr-1", leave.StatusPending
	approved := base
	approved.ID, approved.Status = "lr-2", leave.StatusApproved
	require.NoError(t, store.SaveLeaveRequest(ctx, pending))
	require.NoError(t, store.SaveLeaveRequest(ctx, approved))

	all, err := store.ListLeaveRequestsByWorkspace(ctx, "ws-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPending, err := store.ListLeaveRequestsByWorkspace(ctx, "ws-1", leave.StatusPending)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, "lr-1", onlyPending[0].ID)

	mine, err := store.ListLeaveRequestsByMember(ctx, "m-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestAttendanceOneRowPerDay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rec := attendance.Record{
		ID: "a-1", WorkspaceID: "ws-1", MemberID: "m-1",
		Date: day, CheckIn: day.Add(9 * time.Hour), Status: attendance.StatusPresent,
	}
	require.NoError(t, store.CreateAttendance(ctx, rec))

	dup := rec
	dup.ID = "a-2"
	err := store.CreateAttendance(ctx, dup)
	if !errors.Is(err, ErrDuplicateAttendance) {
		t.Errorf("expected ErrDuplicateAttendance, got %v", err)
	}

	got, err := store.GetAttendanceForDay(ctx, "m-1", day)
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
	assert.Nil(t, got.CheckOut)
}

func TestAttendanceDayCloseQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	open := attendance.Record{
		ID: "a-1", WorkspaceID: "ws-1", MemberID: "m-1",
		Date: saturday, CheckIn: saturday.Add(9 * time.Hour), Status: attendance.StatusPresent,
	}
	require.NoError(t, store.CreateAttendance(ctx, open))

	closedOut := saturday.Add(14 * time.Hour)
	closed := attendance.Record{
		ID: "a-2", WorkspaceID: "ws-1", MemberID: "m-2",
		Date: saturday, CheckIn: saturday.Add(9 * time.Hour), CheckOut: &closedOut,
		Status: attendance.StatusPresent, WorkedMinutes: 300,
	}
	require.NoError(t, store.CreateAttendance(ctx, closed))

	// Open records strictly before Monday: only the dangling one.
	dangling, err := store.ListOpenAttendance(ctx, monday)
	require.NoError(t, err)
	require.Len(t, dangling, 1)
	assert.Equal(t, "a-1", dangling[0].ID)

	// Close it and verify the update path.
	attendance.AutoClose(&dangling[0], 18)
	require.NoError(t, store.UpdateAttendance(ctx, dangling[0]))

	got, err := store.GetAttendanceForDay(ctx, "m-1", saturday)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAutoClosed, got.Status)
	require.NotNil(t, got.CheckOut)

	// Both rows are now closed and uncredited.
	uncredited, err := store.ListUncreditedAttendance(ctx)
	require.NoError(t, err)
	assert.Len(t, uncredited, 2)
}

func TestAttendanceRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, day := 0, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC); i < 3; i, day = i+1, day.AddDate(0, 0, 1) {
		require.NoError(t, store.CreateAttendance(ctx, attendance.Record{
			ID: "a-" + day.Format("02"), WorkspaceID: "ws-1", MemberID: "m-1",
			Date: day, CheckIn: day.Add(9 * time.Hour), Status: attendance.StatusPresent,
		}))
	}

	records, err := store.ListAttendanceRange(ctx, "m-1",
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHealthSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveHealthSnapshot(ctx, HealthSnapshot{
			ID: string(rune('a'+i)), ProjectID: "p-1", Score: 70 + i, Status: health.BandGood,
			TakenAt: time.Date(2026, 9, 7, i, 0, 0, 0, time.UTC),
		}))
	}

	snaps, err := store.ListHealthSnapshots(ctx, "p-1", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	// Newest first.
	assert.Equal(t, 72, snaps[0].Score)
	assert.Equal(t, 71, snaps[1].Score)
}

func TestNextSeq(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := store.NextSeq(ctx, "project:p-1:requirements")
		require.NoError(t, err)
		if got != want {
			t.Errorf("NextSeq = %d, want %d", got, want)
		}
	}

	// Scopes are independent.
	got, err := store.NextSeq(ctx, "project:p-2:requirements")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWorkspace(t, store, "ws-1")

	_, err := store.NextSeq(ctx, "scope")
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	_, err = store.GetWorkspace(ctx, "ws-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Sequences restart after reset.
	n, err := store.NextSeq(ctx, "scope")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
