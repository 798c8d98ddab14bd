/*
scheduler.go - Background jobs: attendance day-close and health snapshots

PURPOSE:
  Runs the two recurring jobs on cron schedules:
  - Day close: attendance records left open past the working day are
    closed as AUTO_CLOSED with worked time capped at the configured
    end-of-day hour; qualifying weekend records earn a comp-off credit.
  - Health snapshots: every active project's health is evaluated and
    persisted so the history endpoint has data points.

DESIGN:
  - robfig/cron drives the schedules; specs come from configuration
  - Jobs are also callable directly (RunDayClose / RunHealthSnapshots)
    so tests and admin tooling can trigger a pass without waiting
  - A snapshot pass runs once at startup so a fresh deployment has a
    data point immediately

CONFIGURATION:
  - DayCloseSpec:      cron spec for the day-close job (default nightly)
  - HealthSnapshotSpec: cron spec for snapshots (default hourly)
  - DayEndHour:        hour used to cap auto-closed work time
  - WeekendMinMinutes: minimum weekend minutes that earn a comp-off

USAGE:
  sched := NewScheduler(store, SchedulerConfig{...})
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - attendance/attendance.go: AutoClose and comp-off eligibility
  - health/health.go: Evaluate
  - config/config.go: Schedule specs and thresholds
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/lntconnect/connect/attendance"
	"github.com/lntconnect/connect/health"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/store/sqlite"
)

// SchedulerConfig carries the job schedules and thresholds.
type SchedulerConfig struct {
	DayCloseSpec       string
	HealthSnapshotSpec string
	DayEndHour         int
	WeekendMinMinutes  int
}

// Scheduler runs the recurring background jobs.
type Scheduler struct {
	Store  *sqlite.Store
	Config SchedulerConfig

	cron    *cron.Cron
	mu      sync.Mutex
	started bool
}

// NewScheduler creates a scheduler; Start registers and runs the jobs.
func NewScheduler(store *sqlite.Store, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		Store:  store,
		Config: cfg,
		cron:   cron.New(),
	}
}

// Start registers the cron entries and begins running. An initial
// snapshot pass runs right away.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.Config.DayCloseSpec, func() { s.RunDayClose(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.Config.HealthSnapshotSpec, func() { s.RunHealthSnapshots(context.Background()) }); err != nil {
		return err
	}

	s.cron.Start()
	s.started = true
	log.Printf("[Scheduler] Started: day-close %q, health-snapshots %q", s.Config.DayCloseSpec, s.Config.HealthSnapshotSpec)

	go s.RunHealthSnapshots(context.Background())
	return nil
}

// Stop halts the cron loop and waits for running jobs. Safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	log.Println("[Scheduler] Stopped")
}

// RunDayClose closes stale open attendance records and credits comp-off
// for qualifying weekend work.
func (s *Scheduler) RunDayClose(ctx context.Context) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// Phase 1: records from previous days still open get auto-closed
	// with worked time capped at the end-of-day hour.
	open, err := s.Store.ListOpenAttendance(ctx, today)
	if err != nil {
		log.Printf("[Scheduler] Day close: listing open records failed: %v", err)
		return
	}
	closed := 0
	for i := range open {
		rec := open[i]
		attendance.AutoClose(&rec, s.Config.DayEndHour)
		if err := s.Store.UpdateAttendance(ctx, rec); err != nil {
			log.Printf("[Scheduler] Day close: updating %s failed: %v", rec.ID, err)
			continue
		}
		closed++
	}

	// Phase 2: closed weekend records over the minute threshold earn one
	// comp-off, once, when the workspace policy allows it.
	uncredited, err := s.Store.ListUncreditedAttendance(ctx)
	if err != nil {
		log.Printf("[Scheduler] Day close: listing uncredited records failed: %v", err)
		return
	}
	credited := 0
	for i := range uncredited {
		rec := uncredited[i]
		if !attendance.EarnsCompOff(rec, s.Config.WeekendMinMinutes) {
			continue
		}

		ws, err := s.Store.GetWorkspace(ctx, rec.WorkspaceID)
		if err != nil {
			log.Printf("[Scheduler] Day close: workspace %s lookup failed: %v", rec.WorkspaceID, err)
			continue
		}
		if !leave.ParsePolicy(ws.LeavePolicyJSON).WeekendCompOff {
			continue
		}

		ledger, err := s.Store.GetLedger(ctx, rec.MemberID)
		if err != nil {
			log.Printf("[Scheduler] Day close: ledger for %s failed: %v", rec.MemberID, err)
			continue
		}
		leave.CreditCompOff(ledger, 1)
		if err := s.Store.SaveLedger(ctx, rec.WorkspaceID, *ledger); err != nil {
			log.Printf("[Scheduler] Day close: saving ledger for %s failed: %v", rec.MemberID, err)
			continue
		}

		rec.CompOffCredited = true
		if err := s.Store.UpdateAttendance(ctx, rec); err != nil {
			log.Printf("[Scheduler] Day close: marking %s credited failed: %v", rec.ID, err)
			continue
		}
		credited++
	}

	if closed > 0 || credited > 0 {
		log.Printf("[Scheduler] Day close: %d auto-closed, %d comp-offs credited", closed, credited)
	}
}

// RunHealthSnapshots evaluates and persists health for every active
// project.
func (s *Scheduler) RunHealthSnapshots(ctx context.Context) {
	projects, err := s.Store.ListActiveProjects(ctx)
	if err != nil {
		log.Printf("[Scheduler] Snapshots: listing projects failed: %v", err)
		return
	}

	now := time.Now().UTC()
	taken := 0
	for _, p := range projects {
		tasks, err := s.Store.ListTasks(ctx, p.ID)
		if err != nil {
			log.Printf("[Scheduler] Snapshots: tasks for %s failed: %v", p.ID, err)
			continue
		}

		report := health.Evaluate(p.ID, sqlite.HealthTasks(tasks), now)
		snap := sqlite.HealthSnapshot{
			ID:             uuid.NewString(),
			ProjectID:      p.ID,
			Score:          report.Score,
			Status:         report.Status,
			CompletionRate: report.CompletionRate,
			OverdueRate:    report.OverdueRate,
			BlockedRate:    report.BlockedRate,
			TotalTasks:     report.TotalTasks,
			CompletedTasks: report.CompletedTasks,
			OverdueTasks:   report.OverdueTasks,
			BlockedTasks:   report.BlockedTasks,
			TakenAt:        now,
		}
		if err := s.Store.SaveHealthSnapshot(ctx, snap); err != nil {
			log.Printf("[Scheduler] Snapshots: saving for %s failed: %v", p.ID, err)
			continue
		}
		taken++
	}

	if taken > 0 {
		log.Printf("[Scheduler] Snapshots: %d projects recorded", taken)
	}
}
