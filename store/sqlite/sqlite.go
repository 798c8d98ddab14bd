/*
Package sqlite provides the SQLite-backed store for all aggregates.

PURPOSE:
  Single persistence layer for workspaces, members, projects, the
  requirement tree, sprints, tasks, leave ledgers and requests,
  attendance records, health snapshots, and the per-scope sequence
  counters behind hierarchy-id allocation.

KEY TABLES:
  workspaces:         Tenant records (invite-code hash, leave policy JSON)
  members:            Workspace membership, unique per (workspace, user)
  projects:           Projects with hierarchy-id prefix codes
  requirement_nodes:  Client requirements / epics / functional requirements
  sprints, tasks:     Delivery tree leaves
  leave_ledgers:      Four-counter balances, decimals stored as TEXT
  leave_requests:     Request workflow rows
  attendance_records: One row per (member, date), enforced by unique index
  health_snapshots:   Periodic project-health scores
  sequences:          Atomic per-scope counters

CONVENTIONS:
  Timestamps are RFC3339 TEXT; date-only columns use YYYY-MM-DD.
  Decimal counters are stored as TEXT and parsed with shopspring/decimal.
  Unique-constraint violations are translated to typed errors so the API
  can answer 409 instead of 500.

CONCURRENCY:
  Uses sync.RWMutex plus WAL mode: multiple readers don't block, a single
  writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/connect.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  Use ":memory:" for tests.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/ledger.go: Balance arithmetic over the four counters
  - health/health.go: Scorer fed by HealthTasks
  - api/handlers.go: HTTP layer mapping sentinel errors to status codes
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/lntconnect/connect/attendance"
	"github.com/lntconnect/connect/health"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/rbac"
)

const dateLayout = "2006-01-02"

// Sentinel errors. The API layer maps these to 404 and 409.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateMember     = errors.New("user is already a member of this workspace")
	ErrDuplicateAttendance = errors.New("attendance already recorded for this day")
)

// Store implements persistence for every aggregate over one SQLite
// database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		invite_code_hash TEXT NOT NULL,
		leave_policy_json TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		joined_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_members_workspace_user
		ON members(workspace_id, user_id);
	CREATE INDEX IF NOT EXISTS idx_members_workspace
		ON members(workspace_id);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		archived INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_workspace
		ON projects(workspace_id);

	CREATE TABLE IF NOT EXISTS requirement_nodes (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		parent_id TEXT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		seq INTEGER NOT NULL,
		hierarchy_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_project
		ON requirement_nodes(project_id);
	CREATE INDEX IF NOT EXISTS idx_nodes_parent
		ON requirement_nodes(parent_id) WHERE parent_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS sprints (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		hierarchy_id TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		goal TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sprints_project
		ON sprints(project_id);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		functional_req_id TEXT,
		sprint_id TEXT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		due_date TEXT,
		assignee_id TEXT,
		blocked_by_json TEXT NOT NULL DEFAULT '[]',
		seq INTEGER NOT NULL,
		hierarchy_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project
		ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_fr
		ON tasks(functional_req_id) WHERE functional_req_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS leave_ledgers (
		member_id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		paid_leave TEXT NOT NULL,
		unpaid_leave TEXT NOT NULL,
		half_day TEXT NOT NULL,
		comp_off TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledgers_workspace
		ON leave_ledgers(workspace_id);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		half_day INTEGER NOT NULL DEFAULT 0,
		days TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		reviewer_id TEXT NOT NULL DEFAULT '',
		review_note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_member
		ON leave_requests(member_id);
	CREATE INDEX IF NOT EXISTS idx_leave_requests_workspace_status
		ON leave_requests(workspace_id, status);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		date TEXT NOT NULL,
		check_in TEXT NOT NULL,
		check_out TEXT,
		status TEXT NOT NULL,
		worked_minutes INTEGER NOT NULL DEFAULT 0,
		comp_off_credited INTEGER NOT NULL DEFAULT 0
	);

	-- One attendance row per member per calendar day.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_member_date
		ON attendance_records(member_id, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_workspace_date
		ON attendance_records(workspace_id, date);

	CREATE TABLE IF NOT EXISTS health_snapshots (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		status TEXT NOT NULL,
		completion_rate REAL NOT NULL,
		overdue_rate REAL NOT NULL,
		blocked_rate REAL NOT NULL,
		total_tasks INTEGER NOT NULL,
		completed_tasks INTEGER NOT NULL,
		overdue_tasks INTEGER NOT NULL,
		blocked_tasks INTEGER NOT NULL,
		taken_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_project
		ON health_snapshots(project_id, taken_at DESC);

	CREATE TABLE IF NOT EXISTS sequences (
		scope TEXT PRIMARY KEY,
		last_seq INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// Workspace is a tenant record.
type Workspace struct {
	ID              string
	Name            string
	InviteCodeHash  string
	LeavePolicyJSON string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Member links a user to a workspace with a role.
type Member struct {
	ID          string
	WorkspaceID string
	UserID      string
	DisplayName string
	Email       string
	Role        rbac.Role
	JoinedAt    time.Time
}

// Project is a delivery project inside a workspace.
type Project struct {
	ID          string
	WorkspaceID string
	Name        string
	Code        string
	Description string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Requirement-tree node kinds.
const (
	NodeClientRequirement     = "CLIENT_REQUIREMENT"
	NodeEpic                  = "EPIC"
	NodeFunctionalRequirement = "FUNCTIONAL_REQUIREMENT"
)

// RequirementNode is one node of the requirement tree. The hierarchy id
// is assigned at creation and never changes afterwards.
type RequirementNode struct {
	ID          string
	ProjectID   string
	Kind        string
	ParentID    *string
	Name        string
	Description string
	Seq         int
	HierarchyID string
	CreatedAt   time.Time
}

// Sprint is a time-boxed iteration within a project.
type Sprint struct {
	ID          string
	ProjectID   string
	Name        string
	HierarchyID string
	StartDate   *time.Time
	EndDate     *time.Time
	Goal        string
	CreatedAt   time.Time
}

// Task is a work item, optionally attached to a functional requirement
// and a sprint.
type Task struct {
	ID              string
	ProjectID       string
	FunctionalReqID *string
	SprintID        *string
	Name            string
	Description     string
	Status          health.TaskStatus
	Priority        health.TaskPriority
	DueDate         *time.Time
	AssigneeID      *string
	BlockedBy       []string
	Seq             int
	HierarchyID     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LeaveRequest is one row of the leave workflow.
type LeaveRequest struct {
	ID          string
	WorkspaceID string
	MemberID    string
	Type        leave.Type
	StartDate   time.Time
	EndDate     time.Time
	HalfDay     bool
	Days        decimal.Decimal
	Reason      string
	Status      leave.RequestStatus
	ReviewerID  string
	ReviewNote  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HealthSnapshot is one persisted health evaluation.
type HealthSnapshot struct {
	ID             string
	ProjectID      string
	Score          int
	Status         health.Band
	CompletionRate float64
	OverdueRate    float64
	BlockedRate    float64
	TotalTasks     int
	CompletedTasks int
	OverdueTasks   int
	BlockedTasks   int
	TakenAt        time.Time
}

// =============================================================================
// WORKSPACES
// =============================================================================

// SaveWorkspace inserts or updates a workspace.
func (s *Store) SaveWorkspace(ctx context.Context, w Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO workspaces (id, name, invite_code_hash, leave_policy_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			invite_code_hash = excluded.invite_code_hash,
			leave_policy_json = excluded.leave_policy_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !w.CreatedAt.IsZero() {
		createdAt = w.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, query,
		w.ID, w.Name, w.InviteCodeHash, w.LeavePolicyJSON, createdAt, now)
	return err
}

// GetWorkspace retrieves a workspace by id.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w Workspace
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, invite_code_hash, leave_policy_json, created_at, updated_at FROM workspaces WHERE id = ?",
		id,
	).Scan(&w.ID, &w.Name, &w.InviteCodeHash, &w.LeavePolicyJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)
	return &w, nil
}

// DeleteWorkspace removes a workspace. Members, projects, and the tree
// below them go with it via foreign keys.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM workspaces WHERE id = ?", id)
	return err
}

// ListWorkspacesForUser returns every workspace the user is a member of.
func (s *Store) ListWorkspacesForUser(ctx context.Context, userID string) ([]Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT w.id, w.name, w.invite_code_hash, w.leave_policy_json, w.created_at, w.updated_at
		FROM workspaces w
		JOIN members m ON m.workspace_id = w.id
		WHERE m.user_id = ?
		ORDER BY w.name
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []Workspace
	for rows.Next() {
		var w Workspace
		var createdAt, updatedAt string
		if err := rows.Scan(&w.ID, &w.Name, &w.InviteCodeHash, &w.LeavePolicyJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		w.CreatedAt = parseTime(createdAt)
		w.UpdatedAt = parseTime(updatedAt)
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}

// =============================================================================
// MEMBERS
// =============================================================================

// CreateMember inserts a membership row. Returns ErrDuplicateMember when
// the user already belongs to the workspace.
func (s *Store) CreateMember(ctx context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO members (id, workspace_id, user_id, display_name, email, role, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	joinedAt := m.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.WorkspaceID, m.UserID, m.DisplayName, m.Email, string(m.Role),
		joinedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateMember
		}
		return err
	}
	return nil
}

// GetMember retrieves a member by id.
func (s *Store) GetMember(ctx context.Context, id string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMember(ctx,
		"SELECT id, workspace_id, user_id, display_name, email, role, joined_at FROM members WHERE id = ?", id)
}

// GetMemberByUser retrieves a user's membership in a workspace.
func (s *Store) GetMemberByUser(ctx context.Context, workspaceID, userID string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMember(ctx,
		"SELECT id, workspace_id, user_id, display_name, email, role, joined_at FROM members WHERE workspace_id = ? AND user_id = ?",
		workspaceID, userID)
}

func (s *Store) queryMember(ctx context.Context, query string, args ...any) (*Member, error) {
	var m Member
	var role, joinedAt string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&m.ID, &m.WorkspaceID, &m.UserID, &m.DisplayName, &m.Email, &role, &joinedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	m.Role = rbac.Role(role)
	m.JoinedAt = parseTime(joinedAt)
	return &m, nil
}

// ListMembers returns a workspace's members ordered by join time.
func (s *Store) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, workspace_id, user_id, display_name, email, role, joined_at FROM members WHERE workspace_id = ? ORDER BY joined_at",
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var role, joinedAt string
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.DisplayName, &m.Email, &role, &joinedAt); err != nil {
			return nil, err
		}
		m.Role = rbac.Role(role)
		m.JoinedAt = parseTime(joinedAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateMemberRole changes a member's role.
func (s *Store) UpdateMemberRole(ctx context.Context, memberID string, role rbac.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET role = ? WHERE id = ?", string(role), memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	return nil
}

// DeleteMember removes a membership row.
func (s *Store) DeleteMember(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", memberID)
	return err
}

// =============================================================================
// PROJECTS
// =============================================================================

// SaveProject inserts or updates a project.
func (s *Store) SaveProject(ctx context.Context, p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO projects (id, workspace_id, name, code, description, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			description = excluded.description,
			archived = excluded.archived,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.WorkspaceID, p.Name, p.Code, p.Description, boolToInt(p.Archived), createdAt, now)
	return err
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Project
	var archived int
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, workspace_id, name, code, description, archived, created_at, updated_at FROM projects WHERE id = ?",
		id,
	).Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Code, &p.Description, &archived, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	p.Archived = archived != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// ListProjects returns a workspace's projects; archived ones only when
// asked for.
func (s *Store) ListProjects(ctx context.Context, workspaceID string, includeArchived bool) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, workspace_id, name, code, description, archived, created_at, updated_at FROM projects WHERE workspace_id = ?"
	if !includeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY name"

	return s.queryProjects(ctx, query, workspaceID)
}

// ListActiveProjects returns every non-archived project across all
// workspaces. The health-snapshot job feeds on this.
func (s *Store) ListActiveProjects(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryProjects(ctx,
		"SELECT id, workspace_id, name, code, description, archived, created_at, updated_at FROM projects WHERE archived = 0 ORDER BY workspace_id, name")
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var archived int
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Code, &p.Description, &archived, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.Archived = archived != 0
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and everything beneath it.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

// =============================================================================
// REQUIREMENT NODES
// =============================================================================

// SaveNode inserts or updates a requirement-tree node. Only name and
// description change on update; the hierarchy id is immutable.
func (s *Store) SaveNode(ctx context.Context, n RequirementNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO requirement_nodes (id, project_id, kind, parent_id, name, description, seq, hierarchy_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.ProjectID, n.Kind, n.ParentID, n.Name, n.Description,
		n.Seq, n.HierarchyID, createdAt.UTC().Format(time.RFC3339))
	return err
}

// GetNode retrieves one node.
func (s *Store) GetNode(ctx context.Context, id string) (*RequirementNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n RequirementNode
	var parentID sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, project_id, kind, parent_id, name, description, seq, hierarchy_id, created_at FROM requirement_nodes WHERE id = ?",
		id,
	).Scan(&n.ID, &n.ProjectID, &n.Kind, &parentID, &n.Name, &n.Description, &n.Seq, &n.HierarchyID, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("requirement node %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	n.CreatedAt = parseTime(createdAt)
	return &n, nil
}

// ListNodes returns every node of a project's tree in creation order.
func (s *Store) ListNodes(ctx context.Context, projectID string) ([]RequirementNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project_id, kind, parent_id, name, description, seq, hierarchy_id, created_at FROM requirement_nodes WHERE project_id = ? ORDER BY created_at, seq",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []RequirementNode
	for rows.Next() {
		var n RequirementNode
		var parentID sql.NullString
		var createdAt string
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Kind, &parentID, &n.Name, &n.Description, &n.Seq, &n.HierarchyID, &createdAt); err != nil {
			return nil, err
		}
		if parentID.Valid {
			n.ParentID = &parentID.String
		}
		n.CreatedAt = parseTime(createdAt)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// DeleteNodeTree removes a node and every descendant, detaching tasks
// that pointed at deleted functional requirements. One transaction.
func (s *Store) DeleteNodeTree(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	subtree := `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM requirement_nodes WHERE id = ?
			UNION ALL
			SELECT n.id FROM requirement_nodes n JOIN subtree s ON n.parent_id = s.id
		)
	`

	if _, err := tx.ExecContext(ctx,
		subtree+"UPDATE tasks SET functional_req_id = NULL WHERE functional_req_id IN (SELECT id FROM subtree)",
		nodeID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		subtree+"DELETE FROM requirement_nodes WHERE id IN (SELECT id FROM subtree)",
		nodeID); err != nil {
		return err
	}

	return tx.Commit()
}

// =============================================================================
// SPRINTS
// =============================================================================

// SaveSprint inserts or updates a sprint.
func (s *Store) SaveSprint(ctx context.Context, sp Sprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sprints (id, project_id, name, hierarchy_id, start_date, end_date, goal, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			goal = excluded.goal
	`

	createdAt := sp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		sp.ID, sp.ProjectID, sp.Name, sp.HierarchyID,
		nullDate(sp.StartDate), nullDate(sp.EndDate), sp.Goal,
		createdAt.UTC().Format(time.RFC3339))
	return err
}

// GetSprint retrieves a sprint by id.
func (s *Store) GetSprint(ctx context.Context, id string) (*Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sp Sprint
	var startDate, endDate sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, project_id, name, hierarchy_id, start_date, end_date, goal, created_at FROM sprints WHERE id = ?",
		id,
	).Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.HierarchyID, &startDate, &endDate, &sp.Goal, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sprint %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	sp.StartDate = parseNullDate(startDate)
	sp.EndDate = parseNullDate(endDate)
	sp.CreatedAt = parseTime(createdAt)
	return &sp, nil
}

// ListSprints returns a project's sprints in creation order.
func (s *Store) ListSprints(ctx context.Context, projectID string) ([]Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project_id, name, hierarchy_id, start_date, end_date, goal, created_at FROM sprints WHERE project_id = ? ORDER BY created_at",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sprints []Sprint
	for rows.Next() {
		var sp Sprint
		var startDate, endDate sql.NullString
		var createdAt string
		if err := rows.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.HierarchyID, &startDate, &endDate, &sp.Goal, &createdAt); err != nil {
			return nil, err
		}
		sp.StartDate = parseNullDate(startDate)
		sp.EndDate = parseNullDate(endDate)
		sp.CreatedAt = parseTime(createdAt)
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

// DeleteSprint removes a sprint. Its tasks survive with the sprint link
// cleared.
func (s *Store) DeleteSprint(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE tasks SET sprint_id = NULL WHERE sprint_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sprints WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// TASKS
// =============================================================================

// SaveTask inserts or updates a task.
func (s *Store) SaveTask(ctx context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blockedBy := []byte("[]")
	if len(t.BlockedBy) > 0 {
		blockedBy, _ = json.Marshal(t.BlockedBy)
	}

	query := `
		INSERT INTO tasks (id, project_id, functional_req_id, sprint_id, name, description,
			status, priority, due_date, assignee_id, blocked_by_json, seq, hierarchy_id,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			functional_req_id = excluded.functional_req_id,
			sprint_id = excluded.sprint_id,
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			due_date = excluded.due_date,
			assignee_id = excluded.assignee_id,
			blocked_by_json = excluded.blocked_by_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !t.CreatedAt.IsZero() {
		createdAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.ProjectID, t.FunctionalReqID, t.SprintID, t.Name, t.Description,
		string(t.Status), string(t.Priority), nullDate(t.DueDate), t.AssigneeID,
		string(blockedBy), t.Seq, t.HierarchyID, createdAt, now)
	return err
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, project_id, functional_req_id, sprint_id, name, description, status, priority, due_date, assignee_id, blocked_by_json, seq, hierarchy_id, created_at, updated_at FROM tasks WHERE id = ?",
		id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks returns a project's tasks in creation order.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project_id, functional_req_id, sprint_id, name, description, status, priority, due_date, assignee_id, blocked_by_json, seq, hierarchy_id, created_at, updated_at FROM tasks WHERE project_id = ? ORDER BY created_at, seq",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var frID, sprintID, dueDate, assigneeID sql.NullString
	var status, priority, blockedBy, createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.ProjectID, &frID, &sprintID, &t.Name, &t.Description,
		&status, &priority, &dueDate, &assigneeID, &blockedBy, &t.Seq, &t.HierarchyID,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if frID.Valid {
		t.FunctionalReqID = &frID.String
	}
	if sprintID.Valid {
		t.SprintID = &sprintID.String
	}
	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.String
	}
	t.Status = health.TaskStatus(status)
	t.Priority = health.TaskPriority(priority)
	t.DueDate = parseNullDate(dueDate)
	json.Unmarshal([]byte(blockedBy), &t.BlockedBy)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

// HealthTasks converts stored tasks into scorer input.
func HealthTasks(tasks []Task) []health.Task {
	out := make([]health.Task, len(tasks))
	for i, t := range tasks {
		out[i] = health.Task{
			ID:        t.ID,
			ProjectID: t.ProjectID,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   t.DueDate,
			BlockedBy: t.BlockedBy,
		}
	}
	return out
}

// =============================================================================
// LEAVE LEDGERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveLedger inserts or updates a member's ledger.
func (s *Store) SaveLedger(ctx context.Context, workspaceID string, l leave.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveLedgerTx(ctx, s.db, workspaceID, l)
}

func saveLedgerTx(ctx context.Context, db execer, workspaceID string, l leave.Ledger) error {
	query := `
		INSERT INTO leave_ledgers (member_id, workspace_id, paid_leave, unpaid_leave, half_day, comp_off, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			paid_leave = excluded.paid_leave,
			unpaid_leave = excluded.unpaid_leave,
			half_day = excluded.half_day,
			comp_off = excluded.comp_off,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		l.MemberID, workspaceID,
		l.PaidLeave.String(), l.UnpaidLeave.String(), l.HalfDay.String(), l.CompOff.String(),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetLedger retrieves a member's ledger.
func (s *Store) GetLedger(ctx context.Context, memberID string) (*leave.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id, paid, unpaid, half, comp string
	err := s.db.QueryRowContext(ctx,
		"SELECT member_id, paid_leave, unpaid_leave, half_day, comp_off FROM leave_ledgers WHERE member_id = ?",
		memberID,
	).Scan(&id, &paid, &unpaid, &half, &comp)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ledger for member %s: %w", memberID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &leave.Ledger{
		MemberID:    id,
		PaidLeave:   parseDecimal(paid),
		UnpaidLeave: parseDecimal(unpaid),
		HalfDay:     parseDecimal(half),
		CompOff:     parseDecimal(comp),
	}, nil
}

// ListLedgers returns every ledger in a workspace keyed by member id.
func (s *Store) ListLedgers(ctx context.Context, workspaceID string) (map[string]leave.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, paid_leave, unpaid_leave, half_day, comp_off FROM leave_ledgers WHERE workspace_id = ?",
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ledgers := make(map[string]leave.Ledger)
	for rows.Next() {
		var id, paid, unpaid, half, comp string
		if err := rows.Scan(&id, &paid, &unpaid, &half, &comp); err != nil {
			return nil, err
		}
		ledgers[id] = leave.Ledger{
			MemberID:    id,
			PaidLeave:   parseDecimal(paid),
			UnpaidLeave: parseDecimal(unpaid),
			HalfDay:     parseDecimal(half),
			CompOff:     parseDecimal(comp),
		}
	}
	return ledgers, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SaveLeaveRequest inserts or updates a leave request.
func (s *Store) SaveLeaveRequest(ctx context.Context, r LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveLeaveRequestTx(ctx, s.db, r)
}

func saveLeaveRequestTx(ctx context.Context, db execer, r LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (id, workspace_id, member_id, leave_type, start_date, end_date,
			half_day, days, reason, status, reviewer_id, review_note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			reviewer_id = excluded.reviewer_id,
			review_note = excluded.review_note,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !r.CreatedAt.IsZero() {
		createdAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}

	_, err := db.ExecContext(ctx, query,
		r.ID, r.WorkspaceID, r.MemberID, string(r.Type),
		r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout),
		boolToInt(r.HalfDay), r.Days.String(), r.Reason, string(r.Status),
		r.ReviewerID, r.ReviewNote, createdAt, now)
	return err
}

// GetLeaveRequest retrieves a request by id.
func (s *Store) GetLeaveRequest(ctx context.Context, id string) (*LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, workspace_id, member_id, leave_type, start_date, end_date, half_day, days, reason, status, reviewer_id, review_note, created_at, updated_at FROM leave_requests WHERE id = ?",
		id)

	r, err := scanLeaveRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("leave request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListLeaveRequestsByMember returns a member's requests, newest first.
func (s *Store) ListLeaveRequestsByMember(ctx context.Context, memberID string) ([]LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLeaveRequests(ctx,
		"SELECT id, workspace_id, member_id, leave_type, start_date, end_date, half_day, days, reason, status, reviewer_id, review_note, created_at, updated_at FROM leave_requests WHERE member_id = ? ORDER BY created_at DESC",
		memberID)
}

// ListLeaveRequestsByWorkspace returns a workspace's requests, optionally
// filtered by status.
func (s *Store) ListLeaveRequestsByWorkspace(ctx context.Context, workspaceID string, status leave.RequestStatus) ([]LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status != "" {
		return s.queryLeaveRequests(ctx,
			"SELECT id, workspace_id, member_id, leave_type, start_date, end_date, half_day, days, reason, status, reviewer_id, review_note, created_at, updated_at FROM leave_requests WHERE workspace_id = ? AND status = ? ORDER BY created_at DESC",
			workspaceID, string(status))
	}
	return s.queryLeaveRequests(ctx,
		"SELECT id, workspace_id, member_id, leave_type, start_date, end_date, half_day, days, reason, status, reviewer_id, review_note, created_at, updated_at FROM leave_requests WHERE workspace_id = ? ORDER BY created_at DESC",
		workspaceID)
}

func (s *Store) queryLeaveRequests(ctx context.Context, query string, args ...any) ([]LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []LeaveRequest
	for rows.Next() {
		r, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func scanLeaveRequest(row rowScanner) (*LeaveRequest, error) {
	var r LeaveRequest
	var leaveType, startDate, endDate, days, status, createdAt, updatedAt string
	var halfDay int

	err := row.Scan(&r.ID, &r.WorkspaceID, &r.MemberID, &leaveType, &startDate, &endDate,
		&halfDay, &days, &r.Reason, &status, &r.ReviewerID, &r.ReviewNote, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	r.Type = leave.Type(leaveType)
	r.StartDate, _ = time.Parse(dateLayout, startDate)
	r.EndDate, _ = time.Parse(dateLayout, endDate)
	r.HalfDay = halfDay != 0
	r.Days = parseDecimal(days)
	r.Status = leave.RequestStatus(status)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// ApproveLeave writes the approved request and the deducted ledger in a
// single transaction. Either both land or neither does.
func (s *Store) ApproveLeave(ctx context.Context, r LeaveRequest, workspaceID string, l leave.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveLeaveRequestTx(ctx, tx, r); err != nil {
		return err
	}
	if err := saveLedgerTx(ctx, tx, workspaceID, l); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// CreateAttendance inserts a new day record. Returns
// ErrDuplicateAttendance when the member already checked in for the date.
func (s *Store) CreateAttendance(ctx context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance_records (id, workspace_id, member_id, date, check_in, check_out, status, worked_minutes, comp_off_credited)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.WorkspaceID, r.MemberID,
		r.Date.Format(dateLayout),
		r.CheckIn.UTC().Format(time.RFC3339),
		nullTime(r.CheckOut),
		string(r.Status), r.WorkedMinutes, boolToInt(r.CompOffCredited))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateAttendance
		}
		return err
	}
	return nil
}

// UpdateAttendance rewrites the mutable part of a day record (check-out,
// status, comp-off flag).
func (s *Store) UpdateAttendance(ctx context.Context, r attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE attendance_records
		SET check_out = ?, status = ?, worked_minutes = ?, comp_off_credited = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		nullTime(r.CheckOut), string(r.Status), r.WorkedMinutes, boolToInt(r.CompOffCredited), r.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attendance record %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// GetAttendanceForDay returns a member's record for a date.
func (s *Store) GetAttendanceForDay(ctx context.Context, memberID string, date time.Time) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, workspace_id, member_id, date, check_in, check_out, status, worked_minutes, comp_off_credited FROM attendance_records WHERE member_id = ? AND date = ?",
		memberID, date.Format(dateLayout))

	r, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attendance for %s on %s: %w", memberID, date.Format(dateLayout), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListAttendanceRange returns a member's records between two dates,
// inclusive.
func (s *Store) ListAttendanceRange(ctx context.Context, memberID string, from, to time.Time) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAttendance(ctx,
		"SELECT id, workspace_id, member_id, date, check_in, check_out, status, worked_minutes, comp_off_credited FROM attendance_records WHERE member_id = ? AND date >= ? AND date <= ? ORDER BY date",
		memberID, from.Format(dateLayout), to.Format(dateLayout))
}

// ListWorkspaceAttendance returns every record in a workspace for one
// date.
func (s *Store) ListWorkspaceAttendance(ctx context.Context, workspaceID string, date time.Time) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAttendance(ctx,
		"SELECT id, workspace_id, member_id, date, check_in, check_out, status, worked_minutes, comp_off_credited FROM attendance_records WHERE workspace_id = ? AND date = ? ORDER BY check_in",
		workspaceID, date.Format(dateLayout))
}

// ListOpenAttendance returns records with no check-out dated strictly
// before the cutoff. The day-close job feeds on this.
func (s *Store) ListOpenAttendance(ctx context.Context, before time.Time) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAttendance(ctx,
		"SELECT id, workspace_id, member_id, date, check_in, check_out, status, worked_minutes, comp_off_credited FROM attendance_records WHERE check_out IS NULL AND date < ? ORDER BY date",
		before.Format(dateLayout))
}

// ListUncreditedAttendance returns closed records that have not been
// considered for a weekend comp-off yet. The caller applies the weekend
// and minimum-minutes rules.
func (s *Store) ListUncreditedAttendance(ctx context.Context) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAttendance(ctx,
		"SELECT id, workspace_id, member_id, date, check_in, check_out, status, worked_minutes, comp_off_credited FROM attendance_records WHERE check_out IS NOT NULL AND comp_off_credited = 0 ORDER BY date")
}

func (s *Store) queryAttendance(ctx context.Context, query string, args ...any) ([]attendance.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func scanAttendance(row rowScanner) (*attendance.Record, error) {
	var r attendance.Record
	var date, checkIn, status string
	var checkOut sql.NullString
	var credited int

	err := row.Scan(&r.ID, &r.WorkspaceID, &r.MemberID, &date, &checkIn, &checkOut,
		&status, &r.WorkedMinutes, &credited)
	if err != nil {
		return nil, err
	}

	r.Date, _ = time.Parse(dateLayout, date)
	r.CheckIn = parseTime(checkIn)
	if checkOut.Valid {
		t := parseTime(checkOut.String)
		r.CheckOut = &t
	}
	r.Status = attendance.Status(status)
	r.CompOffCredited = credited != 0
	return &r, nil
}

// =============================================================================
// HEALTH SNAPSHOTS
// =============================================================================

// SaveHealthSnapshot persists one health evaluation.
func (s *Store) SaveHealthSnapshot(ctx context.Context, snap HealthSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO health_snapshots (id, project_id, score, status, completion_rate, overdue_rate,
			blocked_rate, total_tasks, completed_tasks, overdue_tasks, blocked_tasks, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		snap.ID, snap.ProjectID, snap.Score, string(snap.Status),
		snap.CompletionRate, snap.OverdueRate, snap.BlockedRate,
		snap.TotalTasks, snap.CompletedTasks, snap.OverdueTasks, snap.BlockedTasks,
		snap.TakenAt.UTC().Format(time.RFC3339))
	return err
}

// ListHealthSnapshots returns a project's snapshots, newest first.
func (s *Store) ListHealthSnapshots(ctx context.Context, projectID string, limit int) ([]HealthSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project_id, score, status, completion_rate, overdue_rate, blocked_rate, total_tasks, completed_tasks, overdue_tasks, blocked_tasks, taken_at FROM health_snapshots WHERE project_id = ? ORDER BY taken_at DESC LIMIT ?",
		projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []HealthSnapshot
	for rows.Next() {
		var snap HealthSnapshot
		var status, takenAt string
		if err := rows.Scan(&snap.ID, &snap.ProjectID, &snap.Score, &status,
			&snap.CompletionRate, &snap.OverdueRate, &snap.BlockedRate,
			&snap.TotalTasks, &snap.CompletedTasks, &snap.OverdueTasks, &snap.BlockedTasks,
			&takenAt); err != nil {
			return nil, err
		}
		snap.Status = health.Band(status)
		snap.TakenAt = parseTime(takenAt)
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// =============================================================================
// SEQUENCES
// =============================================================================

// NextSeq atomically allocates the next sequence number for a scope,
// e.g. "project:{id}:requirements". Numbering starts at 1. The seed
// insert plus UPDATE ... RETURNING pair is atomic under SQLite's single
// writer.
func (s *Store) NextSeq(ctx context.Context, scope string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sequences (scope, last_seq) VALUES (?, 0)", scope); err != nil {
		return 0, fmt.Errorf("seeding sequence %s: %w", scope, err)
	}

	var next int
	err := s.db.QueryRowContext(ctx,
		"UPDATE sequences SET last_seq = last_seq + 1 WHERE scope = ? RETURNING last_seq",
		scope).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocating sequence %s: %w", scope, err)
	}
	return next, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data. Used by demo scenarios and tests.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"health_snapshots", "attendance_records", "leave_requests", "leave_ledgers",
		"tasks", "sprints", "requirement_nodes", "projects", "members", "workspaces",
		"sequences",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullDate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
