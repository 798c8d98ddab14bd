// Package health scores a project 0-100 from a snapshot of its tasks and
// produces recommendation strings for the dashboard. Scoring is a pure
// function of the snapshot and the evaluation time; it never fails, and an
// empty project scores a perfect 100.
package health

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// TASK SNAPSHOT TYPES
// =============================================================================

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskReview     TaskStatus = "REVIEW"
	TaskDone       TaskStatus = "DONE"
)

// TaskPriority orders tasks by urgency. CRITICAL overdue tasks carry the
// heaviest score penalty.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

// ParseTaskStatus validates a wire value.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskTodo, TaskInProgress, TaskReview, TaskDone:
		return TaskStatus(s), true
	}
	return "", false
}

// ParseTaskPriority validates a wire value.
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return TaskPriority(s), true
	}
	return "", false
}

// Task is the slice of task state the scorer needs. The snapshot passed to
// Evaluate should contain every task that blocked-by references may point
// at; ids that resolve to nothing are treated as not blocking.
type Task struct {
	ID        string
	ProjectID string
	Status    TaskStatus
	Priority  TaskPriority
	DueDate   *time.Time
	BlockedBy []string
}

// =============================================================================
// REPORT
// =============================================================================

// Band is the coarse health classification shown on project cards.
type Band string

const (
	BandCritical  Band = "critical"
	BandWarning   Band = "warning"
	BandGood      Band = "good"
	BandExcellent Band = "excellent"
)

// Scoring weights. Overdue work hurts more than incompleteness; critical
// overdue work hurts most of all.
const (
	weightIncomplete      = 0.4
	weightOverdue         = 0.6
	weightBlocked         = 0.4
	weightCriticalOverdue = 1.0
)

// Report is the scored snapshot for one project.
type Report struct {
	ProjectID            string
	Score                int
	Status               Band
	CompletionRate       float64
	OverdueRate          float64
	BlockedRate          float64
	TotalTasks           int
	CompletedTasks       int
	OverdueTasks         int
	BlockedTasks         int
	ActiveTasks          int
	CriticalOverdueTasks int
	Recommendations      []string
	EvaluatedAt          time.Time
}

// =============================================================================
// SCORING
// =============================================================================

// Evaluate scores one project from a task snapshot at the given time.
func Evaluate(projectID string, tasks []Task, now time.Time) Report {
	// Blocked-by ids resolve against the whole snapshot, not just the
	// project's own tasks.
	byID := make(map[string]Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	var projectTasks []Task
	for _, task := range tasks {
		if task.ProjectID == projectID {
			projectTasks = append(projectTasks, task)
		}
	}

	report := Report{
		ProjectID:   projectID,
		EvaluatedAt: now,
	}

	total := len(projectTasks)
	if total == 0 {
		report.Score = 100
		report.Status = BandExcellent
		report.CompletionRate = 100
		report.Recommendations = []string{
			"No tasks have been created yet. Add tasks to start tracking project health.",
		}
		return report
	}

	var done, overdue, blocked, active, criticalOverdue int
	for _, task := range projectTasks {
		if task.Status == TaskDone {
			done++
			continue
		}

		isOverdue := task.DueDate != nil && task.DueDate.Before(now)
		if isOverdue {
			overdue++
			if task.Priority == PriorityCritical {
				criticalOverdue++
			}
		}

		isBlocked := false
		for _, blockerID := range task.BlockedBy {
			if blocker, ok := byID[blockerID]; ok && blocker.Status != TaskDone {
				isBlocked = true
				break
			}
		}
		if isBlocked {
			blocked++
		} else {
			active++
		}
	}

	completionRate := 100 * float64(done) / float64(total)
	overdueRate := 100 * float64(overdue) / float64(total)
	blockedRate := 100 * float64(blocked) / float64(total)
	criticalOverdueRate := 100 * float64(criticalOverdue) / float64(total)

	score := 100.0
	score -= (100 - completionRate) * weightIncomplete
	score -= overdueRate * weightOverdue
	score -= blockedRate * weightBlocked
	score -= criticalOverdueRate * weightCriticalOverdue
	score = math.Max(0, math.Min(100, score))

	report.Score = int(math.Round(score))
	report.Status = bandFor(report.Score)
	report.CompletionRate = completionRate
	report.OverdueRate = overdueRate
	report.BlockedRate = blockedRate
	report.TotalTasks = total
	report.CompletedTasks = done
	report.OverdueTasks = overdue
	report.BlockedTasks = blocked
	report.ActiveTasks = active
	report.CriticalOverdueTasks = criticalOverdue
	report.Recommendations = recommendations(report)
	return report
}

func bandFor(score int) Band {
	switch {
	case score < 40:
		return BandCritical
	case score < 70:
		return BandWarning
	case score < 90:
		return BandGood
	default:
		return BandExcellent
	}
}

func recommendations(r Report) []string {
	var recs []string

	if r.OverdueTasks > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d task(s) are past their due date. Clear the overdue backlog first.", r.OverdueTasks))
	}
	if r.BlockedTasks > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d task(s) are waiting on unfinished blockers. Unblock or reorder them.", r.BlockedTasks))
	}
	if r.CompletionRate < 30 && r.TotalTasks > 5 {
		recs = append(recs, "Less than 30% of tasks are complete. Break work into smaller deliverables.")
	}
	if r.CriticalOverdueTasks > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d critical-priority task(s) are overdue. Address these immediately.", r.CriticalOverdueTasks))
	}
	if r.ActiveTasks > 20 {
		recs = append(recs, "Over 20 tasks are in flight at once. Narrow the current focus.")
	}

	if len(recs) > 0 {
		return recs
	}
	switch r.Status {
	case BandExcellent:
		return []string{"Project is on track. Keep the momentum going."}
	case BandGood:
		return []string{"Project is in good shape. Watch upcoming due dates to stay ahead."}
	}
	return nil
}
