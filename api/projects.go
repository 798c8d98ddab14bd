/*
projects.go - HTTP handlers for projects, requirement trees, sprints,
tasks, health, and assisted drafting

PURPOSE:
  The delivery side of the API. Projects own a requirement tree
  (CLIENT_REQUIREMENT -> EPIC -> FUNCTIONAL_REQUIREMENT), sprints, and
  tasks; every node gets a human-readable hierarchy id minted at
  creation and never changed afterwards.

ENDPOINTS:
  Projects:
    POST   /api/workspaces/{id}/projects
    GET    /api/workspaces/{id}/projects?include_archived=
    GET    /api/workspaces/{id}/projects/{pid}
    PUT    /api/workspaces/{id}/projects/{pid}
    POST   /api/workspaces/{id}/projects/{pid}/archive
    DELETE /api/workspaces/{id}/projects/{pid}

  Requirement tree:
    POST   .../projects/{pid}/nodes
    GET    .../projects/{pid}/tree
    PUT    .../projects/{pid}/nodes/{nid}
    DELETE .../projects/{pid}/nodes/{nid}     (cascades to the subtree)

  Sprints:
    POST/GET .../projects/{pid}/sprints
    PUT/DELETE .../projects/{pid}/sprints/{sid}

  Tasks:
    POST/GET .../projects/{pid}/tasks
    GET/PUT/DELETE .../projects/{pid}/tasks/{tid}
    PUT .../projects/{pid}/tasks/{tid}/status
    PUT .../projects/{pid}/tasks/{tid}/assign

  Health:
    GET .../projects/{pid}/health            (computed live)
    GET .../projects/{pid}/health/history    (persisted snapshots)

  Assist:
    POST .../projects/{pid}/assist/draft

HIERARCHY IDS:
  Minted here, from the project code/name and the creation-order
  sequence of the parent scope. Renaming a node later does not change
  the id.

SEE ALSO:
  - hierarchy/hierarchy.go: Id derivation rules
  - health/health.go: Scoring model
  - assist/draft.go: LLM-backed requirement drafting
*/
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lntconnect/connect/assist"
	"github.com/lntconnect/connect/health"
	"github.com/lntconnect/connect/hierarchy"
	"github.com/lntconnect/connect/leave"
	"github.com/lntconnect/connect/store/sqlite"
)

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// CreateProject creates a project. An explicit code wins; otherwise the
// code is derived from the name.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	var req SaveProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	project := sqlite.Project{
		ID:          uuid.NewString(),
		WorkspaceID: sess.WorkspaceID,
		Name:        req.Name,
		Code:        hierarchy.ProjectCode(req.Code, req.Name),
		Description: req.Description,
	}
	if err := h.Store.SaveProject(ctx, project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(project))
}

// ListProjects returns the workspace's projects. Archived ones are
// hidden unless ?include_archived=true.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	includeArchived := r.URL.Query().Get("include_archived") == "true"
	projects, err := h.Store.ListProjects(ctx, sess.WorkspaceID, includeArchived)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns one project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*project))
}

// UpdateProject renames a project or edits its description. The code is
// fixed at creation; task and node ids already embed it.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	var req SaveProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) != "" {
		project.Name = req.Name
	}
	project.Description = req.Description

	if err := h.Store.SaveProject(ctx, *project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*project))
}

// ArchiveProject hides a project from default listings and from the
// health-snapshot job.
func (h *Handler) ArchiveProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	project.Archived = true
	if err := h.Store.SaveProject(ctx, *project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to archive project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*project))
}

// DeleteProject removes a project and everything under it.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteProject(ctx, project.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REQUIREMENT TREE HANDLERS
// =============================================================================

// CreateNode creates a requirement-tree node and mints its hierarchy
// id. Sequence numbers count per parent scope, so siblings number from
// 1 upward in creation order.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	var req CreateNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	var parent *sqlite.RequirementNode
	if req.ParentID != nil {
		p, err := h.Store.GetNode(ctx, *req.ParentID)
		if err != nil || p.ProjectID != project.ID {
			writeError(w, http.StatusNotFound, "Parent node not found", nil)
			return
		}
		parent = p
	}

	node := sqlite.RequirementNode{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Kind:        req.Kind,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
	}

	switch req.Kind {
	case sqlite.NodeClientRequirement:
		if parent != nil {
			writeError(w, http.StatusBadRequest, "A client requirement cannot have a parent", nil)
			return
		}
		seq, err := h.Store.NextSeq(ctx, "project:"+project.ID+":requirements")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to allocate sequence", err)
			return
		}
		node.Seq = seq
		node.HierarchyID = hierarchy.RequirementID(project.Code, project.Name, req.Name, seq)

	case sqlite.NodeEpic:
		if parent != nil && parent.Kind != sqlite.NodeClientRequirement {
			writeError(w, http.StatusBadRequest, "An epic's parent must be a client requirement", nil)
			return
		}
		scope := "project:" + project.ID + ":epics"
		if parent != nil {
			scope = "node:" + parent.ID + ":epics"
		}
		seq, err := h.Store.NextSeq(ctx, scope)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to allocate sequence", err)
			return
		}
		node.Seq = seq
		if parent != nil {
			node.HierarchyID = hierarchy.EpicID(project.Code, project.Name, parent.Name, req.Name, seq)
		} else {
			node.HierarchyID = hierarchy.EpicIDWithoutRequirement(project.Code, project.Name, req.Name, seq)
		}

	case sqlite.NodeFunctionalRequirement:
		if parent == nil {
			writeError(w, http.StatusBadRequest, "A functional requirement needs a parent", nil)
			return
		}
		seq, err := h.Store.NextSeq(ctx, "node:"+parent.ID+":frs")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to allocate sequence", err)
			return
		}
		node.Seq = seq

		switch parent.Kind {
		case sqlite.NodeEpic:
			if parent.ParentID != nil {
				grand, err := h.Store.GetNode(ctx, *parent.ParentID)
				if err != nil {
					writeError(w, http.StatusInternalServerError, "Failed to resolve epic parent", err)
					return
				}
				node.HierarchyID = hierarchy.FRID(project.Code, project.Name, grand.Name, parent.Name, req.Name, seq)
			} else {
				node.HierarchyID = hierarchy.FRIDWithoutEpic(project.Code, project.Name, parent.Name, req.Name, seq)
			}
		case sqlite.NodeClientRequirement:
			node.HierarchyID = hierarchy.FRIDWithoutEpic(project.Code, project.Name, parent.Name, req.Name, seq)
		default:
			writeError(w, http.StatusBadRequest, "A functional requirement's parent must be an epic or a client requirement", nil)
			return
		}

	default:
		writeError(w, http.StatusBadRequest, "Unknown node kind: "+req.Kind, nil)
		return
	}

	if err := h.Store.SaveNode(ctx, node); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save node", err)
		return
	}
	writeJSON(w, http.StatusCreated, toNodeDTO(node))
}

// GetTree returns the project's requirement tree grouped by kind.
func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	nodes, err := h.Store.ListNodes(ctx, project.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list nodes", err)
		return
	}

	tree := TreeDTO{
		Requirements:           []NodeDTO{},
		Epics:                  []NodeDTO{},
		FunctionalRequirements: []NodeDTO{},
	}
	for _, n := range nodes {
		dto := toNodeDTO(n)
		switch n.Kind {
		case sqlite.NodeClientRequirement:
			tree.Requirements = append(tree.Requirements, dto)
		case sqlite.NodeEpic:
			tree.Epics = append(tree.Epics, dto)
		case sqlite.NodeFunctionalRequirement:
			tree.FunctionalRequirements = append(tree.FunctionalRequirements, dto)
		}
	}
	writeJSON(w, http.StatusOK, tree)
}

// RenameNode updates a node's name and description. The hierarchy id
// keeps the name it was minted with.
func (h *Handler) RenameNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	var req RenameNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	node, err := h.Store.GetNode(ctx, chi.URLParam(r, "nodeID"))
	if err != nil || node.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "Node not found", nil)
		return
	}

	node.Name = req.Name
	node.Description = req.Description
	if err := h.Store.SaveNode(ctx, *node); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update node", err)
		return
	}
	writeJSON(w, http.StatusOK, toNodeDTO(*node))
}

// DeleteNode removes a node and its whole subtree. Tasks that pointed at
// deleted functional requirements survive, detached.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	node, err := h.Store.GetNode(ctx, chi.URLParam(r, "nodeID"))
	if err != nil || node.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "Node not found", nil)
		return
	}

	if err := h.Store.DeleteNodeTree(ctx, node.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SPRINT HANDLERS
// =============================================================================

// CreateSprint creates a sprint. Sprint ids carry no sequence; two
// sprints named the same produce the same id on purpose.
func (h *Handler) CreateSprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	var req SaveSprintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	start, end, err := parseSprintDates(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sprint dates", err)
		return
	}

	sprint := sqlite.Sprint{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Name:        req.Name,
		HierarchyID: hierarchy.SprintID(project.Code, project.Name, req.Name),
		StartDate:   start,
		EndDate:     end,
		Goal:        req.Goal,
	}
	if err := h.Store.SaveSprint(ctx, sprint); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create sprint", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSprintDTO(sprint))
}

// ListSprints returns the project's sprints.
func (h *Handler) ListSprints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	sprints, err := h.Store.ListSprints(ctx, project.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sprints", err)
		return
	}

	dtos := make([]SprintDTO, len(sprints))
	for i, s := range sprints {
		dtos[i] = toSprintDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateSprint edits a sprint's name, dates, or goal. The hierarchy id
// stays as minted.
func (h *Handler) UpdateSprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	sprint, err := h.Store.GetSprint(ctx, chi.URLParam(r, "sprintID"))
	if err != nil || sprint.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "Sprint not found", nil)
		return
	}

	var req SaveSprintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, end, err := parseSprintDates(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sprint dates", err)
		return
	}

	if strings.TrimSpace(req.Name) != "" {
		sprint.Name = req.Name
	}
	sprint.StartDate = start
	sprint.EndDate = end
	sprint.Goal = req.Goal

	if err := h.Store.SaveSprint(ctx, *sprint); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update sprint", err)
		return
	}
	writeJSON(w, http.StatusOK, toSprintDTO(*sprint))
}

// DeleteSprint removes a sprint; its tasks go back to the backlog.
func (h *Handler) DeleteSprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	sprint, err := h.Store.GetSprint(ctx, chi.URLParam(r, "sprintID"))
	if err != nil || sprint.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "Sprint not found", nil)
		return
	}

	if err := h.Store.DeleteSprint(ctx, sprint.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete sprint", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseSprintDates(req SaveSprintRequest) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if req.StartDate != nil {
		t, err := time.Parse(leave.DateLayout, *req.StartDate)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(leave.DateLayout, *req.EndDate)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, errors.New("end_date is before start_date")
	}
	return start, end, nil
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

// CreateTask creates a task, optionally attached to a functional
// requirement and a sprint.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	var req SaveTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	task := sqlite.Task{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Name:      req.Name,
		Status:    health.TaskTodo,
		Priority:  health.PriorityMedium,
	}
	if !h.applyTaskRequest(w, r, project, &task, req) {
		return
	}

	// Hierarchy id: under the functional requirement when attached,
	// otherwise directly under the project.
	if task.FunctionalReqID != nil {
		fr, err := h.Store.GetNode(ctx, *task.FunctionalReqID)
		if err != nil || fr.ProjectID != project.ID || fr.Kind != sqlite.NodeFunctionalRequirement {
			writeError(w, http.StatusNotFound, "Functional requirement not found", nil)
			return
		}
		seq, err := h.Store.NextSeq(ctx, "node:"+fr.ID+":tasks")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to allocate sequence", err)
			return
		}
		task.Seq = seq
		task.HierarchyID = hierarchy.TaskID(fr.HierarchyID, req.Name, seq)
	} else {
		seq, err := h.Store.NextSeq(ctx, "project:"+project.ID+":tasks")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to allocate sequence", err)
			return
		}
		task.Seq = seq
		task.HierarchyID = hierarchy.TaskIDWithoutFR(project.Code, project.Name, req.Name, seq)
	}

	if err := h.Store.SaveTask(ctx, task); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

// ListTasks returns the project's tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	tasks, err := h.Store.ListTasks(ctx, project.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = toTaskDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTask returns one task.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, _, ok := h.taskFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(*task))
}

// UpdateTask edits a task. The hierarchy id and sequence stay as
// minted even if the task is renamed or re-attached.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	task, project, ok := h.taskFor(w, r)
	if !ok {
		return
	}

	var req SaveTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.Name) != "" {
		task.Name = req.Name
	}
	task.Description = req.Description
	if !h.applyTaskRequest(w, r, project, task, req) {
		return
	}

	if err := h.Store.SaveTask(ctx, *task); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(*task))
}

// DeleteTask removes a task.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	task, _, ok := h.taskFor(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteTask(ctx, task.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeTaskStatus moves a task through its lifecycle.
func (h *Handler) ChangeTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	task, _, ok := h.taskFor(w, r)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status, valid := health.ParseTaskStatus(req.Status)
	if !valid {
		writeError(w, http.StatusBadRequest, "Unknown status: "+req.Status, nil)
		return
	}

	task.Status = status
	if err := h.Store.SaveTask(ctx, *task); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to change status", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(*task))
}

// AssignTask assigns the task to a workspace member, or clears the
// assignment with a null assignee_id.
func (h *Handler) AssignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := mustSession(r)

	task, _, ok := h.taskFor(w, r)
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.AssigneeID != nil {
		member, err := h.Store.GetMember(ctx, *req.AssigneeID)
		if err != nil || member.WorkspaceID != sess.WorkspaceID {
			writeError(w, http.StatusNotFound, "Assignee is not a member of this workspace", nil)
			return
		}
	}

	task.AssigneeID = req.AssigneeID
	if err := h.Store.SaveTask(ctx, *task); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assign task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(*task))
}

// applyTaskRequest validates and applies the mutable task fields shared
// by create and update. Writes the error response itself and returns
// false when the request is rejected.
func (h *Handler) applyTaskRequest(w http.ResponseWriter, r *http.Request, project *sqlite.Project, task *sqlite.Task, req SaveTaskRequest) bool {
	ctx := r.Context()

	if req.Status != "" {
		status, valid := health.ParseTaskStatus(req.Status)
		if !valid {
			writeError(w, http.StatusBadRequest, "Unknown status: "+req.Status, nil)
			return false
		}
		task.Status = status
	}
	if req.Priority != "" {
		priority, valid := health.ParseTaskPriority(req.Priority)
		if !valid {
			writeError(w, http.StatusBadRequest, "Unknown priority: "+req.Priority, nil)
			return false
		}
		task.Priority = priority
	}

	task.Description = req.Description
	task.FunctionalReqID = req.FunctionalReqID
	task.DueDate = nil
	if req.DueDate != nil {
		due, err := time.Parse(leave.DateLayout, *req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due date: "+*req.DueDate, err)
			return false
		}
		task.DueDate = &due
	}

	task.SprintID = nil
	if req.SprintID != nil {
		sprint, err := h.Store.GetSprint(ctx, *req.SprintID)
		if err != nil || sprint.ProjectID != project.ID {
			writeError(w, http.StatusNotFound, "Sprint not found", nil)
			return false
		}
		task.SprintID = req.SprintID
	}

	// Blockers must be other tasks of the same project.
	task.BlockedBy = nil
	for _, blockerID := range req.BlockedBy {
		if blockerID == task.ID {
			writeError(w, http.StatusBadRequest, "A task cannot block itself", nil)
			return false
		}
		blocker, err := h.Store.GetTask(ctx, blockerID)
		if err != nil || blocker.ProjectID != project.ID {
			writeError(w, http.StatusBadRequest, "Unknown blocking task: "+blockerID, nil)
			return false
		}
		task.BlockedBy = append(task.BlockedBy, blockerID)
	}

	return true
}

// =============================================================================
// HEALTH HANDLERS
// =============================================================================

// GetProjectHealth computes the health report live from the current
// task set.
func (h *Handler) GetProjectHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	tasks, err := h.Store.ListTasks(ctx, project.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	report := health.Evaluate(project.ID, sqlite.HealthTasks(tasks), time.Now().UTC())
	writeJSON(w, http.StatusOK, toHealthReportDTO(report))
}

// GetHealthHistory returns persisted snapshots, newest first.
func (h *Handler) GetHealthHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit: "+s, err)
			return
		}
		limit = n
	}

	snapshots, err := h.Store.ListHealthSnapshots(ctx, project.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}

	dtos := make([]HealthSnapshotDTO, len(snapshots))
	for i, snap := range snapshots {
		dtos[i] = toHealthSnapshotDTO(snap)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ASSIST HANDLERS
// =============================================================================

// DraftRequirements asks the assistant for a requirement breakdown of a
// free-text description. The preview is never persisted; the client
// submits the pieces it keeps through the normal node endpoints.
func (h *Handler) DraftRequirements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := h.projectFor(w, r)
	if !ok {
		return
	}

	var req DraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required", nil)
		return
	}

	preview, err := h.Draft.Draft(ctx, project.Code, project.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, assist.ErrDisabled):
			writeError(w, http.StatusServiceUnavailable, "Assisted drafting is not enabled", err)
		case errors.Is(err, assist.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Assistant backend is unreachable", err)
		case errors.Is(err, assist.ErrTimeout):
			writeError(w, http.StatusGatewayTimeout, "Assistant timed out", err)
		default:
			writeError(w, http.StatusBadGateway, "Assistant returned unusable output", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// =============================================================================
// HELPERS
// =============================================================================

// projectFor resolves the {projectID} route param to a project in the
// session's workspace. Writes a 404 and returns false otherwise.
func (h *Handler) projectFor(w http.ResponseWriter, r *http.Request) (*sqlite.Project, bool) {
	sess := mustSession(r)
	projectID := chi.URLParam(r, "projectID")

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil || project.WorkspaceID != sess.WorkspaceID {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return nil, false
	}
	return project, true
}

// taskFor resolves {projectID} and {taskID} together.
func (h *Handler) taskFor(w http.ResponseWriter, r *http.Request) (*sqlite.Task, *sqlite.Project, bool) {
	project, ok := h.projectFor(w, r)
	if !ok {
		return nil, nil, false
	}

	task, err := h.Store.GetTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil || task.ProjectID != project.ID {
		writeError(w, http.StatusNotFound, "Task not found", nil)
		return nil, nil, false
	}
	return task, project, true
}
