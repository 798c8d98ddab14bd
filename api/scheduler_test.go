package api

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lntconnect/connect/attendance"
	"github.com/lntconnect/connect/health"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/rbac"
	"github.com/lntconnect/connect/store/sqlite"
)

func newTestScheduler(t *testing.T) (*Scheduler, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sched := NewScheduler(store, SchedulerConfig{
		DayCloseSpec:       "55 23 * * *",
		HealthSnapshotSpec: "0 * * * *",
		DayEndHour:         18,
		WeekendMinMinutes:  240,
	})
	return sched, store
}

// seedSchedulerWorkspace creates a workspace with the default policy and
// one member with an opening ledger.
func seedSchedulerWorkspace(t *testing.T, store *sqlite.Store) (string, string) {
	t.Helper()
	ctx := context.Background()

	policy := leave.DefaultPolicy()
	ws := sqlite.Workspace{
		ID:              uuid.NewString(),
		Name:            "Site Office",
		InviteCodeHash:  "unused",
		LeavePolicyJSON: policy.JSON(),
	}
	require.NoError(t, store.SaveWorkspace(ctx, ws))

	member := sqlite.Member{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		UserID:      "user-site",
		DisplayName: "Site Engineer",
		Role:        rbac.RoleMember,
	}
	require.NoError(t, store.CreateMember(ctx, member))
	require.NoError(t, store.SaveLedger(ctx, ws.ID, policy.OpenLedger(member.ID)))
	return ws.ID, member.ID
}

// lastSaturday returns the most recent Saturday strictly before today.
func lastSaturday() time.Time {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(now.Weekday()) - int(time.Saturday) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return today.AddDate(0, 0, -offset)
}

func TestDayCloseAutoClosesAndCreditsCompOff(t *testing.T) {
	// GIVEN a Saturday record the member forgot to close
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	wsID, memberID := seedSchedulerWorkspace(t, store)

	saturday := lastSaturday()
	rec := attendance.Record{
		ID:          uuid.NewString(),
		WorkspaceID: wsID,
		MemberID:    memberID,
		Date:        saturday,
		CheckIn:     saturday.Add(9 * time.Hour),
		Status:      attendance.StatusPresent,
	}
	require.NoError(t, store.CreateAttendance(ctx, rec))

	// WHEN the day-close job runs
	sched.RunDayClose(ctx)

	// THEN the record is auto-closed with worked time capped at 18:00
	closed, err := store.GetAttendanceForDay(ctx, memberID, saturday)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAutoClosed, closed.Status)
	require.NotNil(t, closed.CheckOut)
	assert.Equal(t, 9*60, closed.WorkedMinutes)
	assert.True(t, closed.CompOffCredited)

	// AND the weekend work earned exactly one comp-off
	ledger, err := store.GetLedger(ctx, memberID)
	require.NoError(t, err)
	assert.Equal(t, "1", ledger.CompOff.String())
}

func TestDayCloseCreditsOnlyOnce(t *testing.T) {
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	wsID, memberID := seedSchedulerWorkspace(t, store)

	saturday := lastSaturday()
	rec := attendance.Record{
		ID:          uuid.NewString(),
		WorkspaceID: wsID,
		MemberID:    memberID,
		Date:        saturday,
		CheckIn:     saturday.Add(9 * time.Hour),
		Status:      attendance.StatusPresent,
	}
	require.NoError(t, store.CreateAttendance(ctx, rec))

	// Two passes must not double-credit.
	sched.RunDayClose(ctx)
	sched.RunDayClose(ctx)

	ledger, err := store.GetLedger(ctx, memberID)
	require.NoError(t, err)
	assert.Equal(t, "1", ledger.CompOff.String())
}

func TestDayCloseSkipsShortWeekendWork(t *testing.T) {
	// GIVEN a closed Saturday record under the minute threshold
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	wsID, memberID := seedSchedulerWorkspace(t, store)

	saturday := lastSaturday()
	out := saturday.Add(11 * time.Hour) // two hours
	rec := attendance.Record{
		ID:            uuid.NewString(),
		WorkspaceID:   wsID,
		MemberID:      memberID,
		Date:          saturday,
		CheckIn:       saturday.Add(9 * time.Hour),
		CheckOut:      &out,
		Status:        attendance.StatusPresent,
		WorkedMinutes: attendance.WorkedMinutes(saturday.Add(9*time.Hour), out),
	}
	require.NoError(t, store.CreateAttendance(ctx, rec))

	sched.RunDayClose(ctx)

	ledger, err := store.GetLedger(ctx, memberID)
	require.NoError(t, err)
	assert.Equal(t, "0", ledger.CompOff.String())
}

func TestHealthSnapshotJobRecordsActiveProjects(t *testing.T) {
	// GIVEN one active and one archived project
	sched, store := newTestScheduler(t)
	ctx := context.Background()
	wsID, _ := seedSchedulerWorkspace(t, store)

	active := sqlite.Project{ID: uuid.NewString(), WorkspaceID: wsID, Name: "Active", Code: "AC"}
	archived := sqlite.Project{ID: uuid.NewString(), WorkspaceID: wsID, Name: "Old", Code: "OL", Archived: true}
	require.NoError(t, store.SaveProject(ctx, active))
	require.NoError(t, store.SaveProject(ctx, archived))

	require.NoError(t, store.SaveTask(ctx, sqlite.Task{
		ID:          uuid.NewString(),
		ProjectID:   active.ID,
		Name:        "Only task",
		Status:      health.TaskDone,
		Priority:    health.PriorityMedium,
		Seq:         1,
		HierarchyID: "AC-ONL-T001",
	}))

	// WHEN the snapshot job runs
	sched.RunHealthSnapshots(ctx)

	// THEN the active project has a data point and the archived one does not
	snaps, err := store.ListHealthSnapshots(ctx, active.ID, 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 100, snaps[0].Score)

	snaps, err = store.ListHealthSnapshots(ctx, archived.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

// Start/Stop sanity: double stop must not hang or panic.
func TestSchedulerStopIsIdempotent(t *testing.T) {
	sched, _ := newTestScheduler(t)
	require.NoError(t, sched.Start())
	sched.Stop()
	sched.Stop()
}
