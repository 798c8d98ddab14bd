package health_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/lntconnect/connect/health"
)

var evalTime = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func due(t time.Time) *time.Time { return &t }

func task(id string, status health.TaskStatus) health.Task {
	return health.Task{
		ID:        id,
		ProjectID: "proj-1",
		Status:    status,
		Priority:  health.PriorityMedium,
	}
}

func TestEvaluate_NoTasks(t *testing.T) {
	// GIVEN: a project with no tasks
	// THEN: perfect score, excellent band, and a single onboarding hint

	report := health.Evaluate("proj-1", nil, evalTime)

	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
	if report.Status != health.BandExcellent {
		t.Errorf("status = %s, want excellent", report.Status)
	}
	if len(report.Recommendations) != 1 {
		t.Errorf("recommendations = %v, want exactly one", report.Recommendations)
	}
}

func TestEvaluate_AllDone(t *testing.T) {
	// GIVEN: every task DONE, nothing overdue or blocked
	// THEN: completion 100, score 100

	tasks := []health.Task{
		task("t1", health.TaskDone),
		task("t2", health.TaskDone),
		task("t3", health.TaskDone),
	}

	report := health.Evaluate("proj-1", tasks, evalTime)

	if report.CompletionRate != 100 {
		t.Errorf("completion rate = %v, want 100", report.CompletionRate)
	}
	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
	if report.Status != health.BandExcellent {
		t.Errorf("status = %s, want excellent", report.Status)
	}
}

func TestEvaluate_EveryTaskOverdueCritical(t *testing.T) {
	// GIVEN: every task overdue at CRITICAL priority
	// THEN: the penalties drive the score to the floor

	past := evalTime.AddDate(0, 0, -5)
	var tasks []health.Task
	for i := 0; i < 4; i++ {
		tk := task(fmt.Sprintf("t%d", i), health.TaskTodo)
		tk.Priority = health.PriorityCritical
		tk.DueDate = due(past)
		tasks = append(tasks, tk)
	}

	report := health.Evaluate("proj-1", tasks, evalTime)

	if report.Score != 0 {
		t.Errorf("score = %d, want 0", report.Score)
	}
	if report.Status != health.BandCritical {
		t.Errorf("status = %s, want critical", report.Status)
	}
	if report.CriticalOverdueTasks != 4 {
		t.Errorf("critical overdue = %d, want 4", report.CriticalOverdueTasks)
	}
}

func TestEvaluate_WeightedPenalties(t *testing.T) {
	// GIVEN: 10 tasks; 5 done, 2 overdue (1 critical), 1 blocked, 2 clean
	// THEN: score = 100 - 50*0.4 - 20*0.6 - 10*0.4 - 10*1.0 = 54

	past := evalTime.AddDate(0, 0, -1)

	tasks := []health.Task{
		task("d1", health.TaskDone),
		task("d2", health.TaskDone),
		task("d3", health.TaskDone),
		task("d4", health.TaskDone),
		task("d5", health.TaskDone),
		{ID: "o1", ProjectID: "proj-1", Status: health.TaskTodo, Priority: health.PriorityCritical, DueDate: due(past)},
		{ID: "o2", ProjectID: "proj-1", Status: health.TaskInProgress, Priority: health.PriorityLow, DueDate: due(past)},
		{ID: "b1", ProjectID: "proj-1", Status: health.TaskTodo, Priority: health.PriorityMedium, BlockedBy: []string{"a1"}},
		{ID: "a1", ProjectID: "proj-1", Status: health.TaskInProgress, Priority: health.PriorityMedium},
		{ID: "a2", ProjectID: "proj-1", Status: health.TaskReview, Priority: health.PriorityMedium},
	}

	report := health.Evaluate("proj-1", tasks, evalTime)

	if report.Score != 54 {
		t.Errorf("score = %d, want 54", report.Score)
	}
	if report.Status != health.BandWarning {
		t.Errorf("status = %s, want warning", report.Status)
	}
	if report.OverdueTasks != 2 || report.BlockedTasks != 1 || report.CriticalOverdueTasks != 1 {
		t.Errorf("counts = overdue %d blocked %d critical %d, want 2/1/1",
			report.OverdueTasks, report.BlockedTasks, report.CriticalOverdueTasks)
	}
	// Overdue, blocked, and critical-overdue hints all fire.
	if len(report.Recommendations) != 3 {
		t.Errorf("recommendations = %v, want 3", report.Recommendations)
	}
}

func TestEvaluate_BlockedResolution(t *testing.T) {
	cases := []struct {
		name        string
		blocker     *health.Task
		wantBlocked int
	}{
		{
			name:        "unfinished blocker blocks",
			blocker:     &health.Task{ID: "blk", ProjectID: "proj-1", Status: health.TaskInProgress, Priority: health.PriorityLow},
			wantBlocked: 1,
		},
		{
			name:        "done blocker does not block",
			blocker:     &health.Task{ID: "blk", ProjectID: "proj-1", Status: health.TaskDone, Priority: health.PriorityLow},
			wantBlocked: 0,
		},
		{
			name:        "unknown blocker id does not block",
			blocker:     nil,
			wantBlocked: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blocked := task("t1", health.TaskTodo)
			blocked.BlockedBy = []string{"blk"}
			tasks := []health.Task{blocked}
			if tc.blocker != nil {
				tasks = append(tasks, *tc.blocker)
			}

			report := health.Evaluate("proj-1", tasks, evalTime)
			if report.BlockedTasks != tc.wantBlocked {
				t.Errorf("blocked = %d, want %d", report.BlockedTasks, tc.wantBlocked)
			}
		})
	}
}

func TestEvaluate_DueTodayIsNotOverdue(t *testing.T) {
	tk := task("t1", health.TaskTodo)
	tk.DueDate = due(evalTime)

	report := health.Evaluate("proj-1", []health.Task{tk}, evalTime)
	if report.OverdueTasks != 0 {
		t.Errorf("task due exactly now counted overdue")
	}

	tk.DueDate = due(evalTime.Add(time.Hour))
	report = health.Evaluate("proj-1", []health.Task{tk}, evalTime)
	if report.OverdueTasks != 0 {
		t.Errorf("future due date counted overdue")
	}
}

func TestEvaluate_IgnoresOtherProjects(t *testing.T) {
	other := task("x1", health.TaskTodo)
	other.ProjectID = "proj-2"

	report := health.Evaluate("proj-1", []health.Task{other, task("t1", health.TaskDone)}, evalTime)
	if report.TotalTasks != 1 {
		t.Errorf("total = %d, want 1", report.TotalTasks)
	}
	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
}

func TestEvaluate_Banding(t *testing.T) {
	// Half done, nothing overdue or blocked: 100 - 50*0.4 = 80 -> good.
	tasks := []health.Task{
		task("t1", health.TaskDone),
		task("t2", health.TaskTodo),
	}
	report := health.Evaluate("proj-1", tasks, evalTime)
	if report.Score != 80 || report.Status != health.BandGood {
		t.Errorf("got %d/%s, want 80/good", report.Score, report.Status)
	}

	// Nothing done: 100 - 100*0.4 = 60 -> warning.
	tasks = []health.Task{
		task("t1", health.TaskTodo),
		task("t2", health.TaskInProgress),
	}
	report = health.Evaluate("proj-1", tasks, evalTime)
	if report.Score != 60 || report.Status != health.BandWarning {
		t.Errorf("got %d/%s, want 60/warning", report.Score, report.Status)
	}
}

func TestEvaluate_LowCompletionHint(t *testing.T) {
	// GIVEN: 6 tasks with one done (completion ~16.7%)
	// THEN: the low-completion hint fires (requires more than 5 tasks)

	tasks := []health.Task{task("t1", health.TaskDone)}
	for i := 2; i <= 6; i++ {
		tasks = append(tasks, task(fmt.Sprintf("t%d", i), health.TaskTodo))
	}

	report := health.Evaluate("proj-1", tasks, evalTime)
	found := false
	for _, rec := range report.Recommendations {
		if rec == "Less than 30% of tasks are complete. Break work into smaller deliverables." {
			found = true
		}
	}
	if !found {
		t.Errorf("low-completion hint missing from %v", report.Recommendations)
	}

	// Same completion over 5 tasks total: hint must not fire.
	report = health.Evaluate("proj-1", tasks[:5], evalTime)
	for _, rec := range report.Recommendations {
		if rec == "Less than 30% of tasks are complete. Break work into smaller deliverables." {
			t.Errorf("low-completion hint fired with only 5 tasks")
		}
	}
}

func TestEvaluate_TooManyActiveHint(t *testing.T) {
	var tasks []health.Task
	for i := 0; i < 21; i++ {
		tasks = append(tasks, task(fmt.Sprintf("t%d", i), health.TaskInProgress))
	}
	// Plenty done so only the active-count hint fires.
	for i := 21; i < 100; i++ {
		tasks = append(tasks, task(fmt.Sprintf("t%d", i), health.TaskDone))
	}

	report := health.Evaluate("proj-1", tasks, evalTime)
	if report.ActiveTasks != 21 {
		t.Fatalf("active = %d, want 21", report.ActiveTasks)
	}
	found := false
	for _, rec := range report.Recommendations {
		if rec == "Over 20 tasks are in flight at once. Narrow the current focus." {
			found = true
		}
	}
	if !found {
		t.Errorf("active-count hint missing from %v", report.Recommendations)
	}
}

func TestParseTaskEnums(t *testing.T) {
	if _, ok := health.ParseTaskStatus("IN_PROGRESS"); !ok {
		t.Error("IN_PROGRESS should parse")
	}
	if _, ok := health.ParseTaskStatus("SHIPPED"); ok {
		t.Error("SHIPPED should not parse")
	}
	if _, ok := health.ParseTaskPriority("CRITICAL"); !ok {
		t.Error("CRITICAL should parse")
	}
	if _, ok := health.ParseTaskPriority("urgent"); ok {
		t.Error("urgent should not parse")
	}
}
