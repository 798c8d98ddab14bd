package rbac

// Permission is a single grantable capability. Values are the wire strings
// the frontend checks against.
type Permission string

// =============================================================================
// PERMISSION CATALOG
// =============================================================================
// Grouped by domain. Thirty-five in total; the matrix in matrix.go assigns
// them to roles.

// Project
const (
	PermCreateProject  Permission = "CREATE_PROJECT"
	PermViewProject    Permission = "VIEW_PROJECT"
	PermEditProject    Permission = "EDIT_PROJECT"
	PermDeleteProject  Permission = "DELETE_PROJECT"
	PermArchiveProject Permission = "ARCHIVE_PROJECT"
)

// Task
const (
	PermCreateTask       Permission = "CREATE_TASK"
	PermViewTask         Permission = "VIEW_TASK"
	PermEditTask         Permission = "EDIT_TASK"
	PermDeleteTask       Permission = "DELETE_TASK"
	PermAssignTask       Permission = "ASSIGN_TASK"
	PermChangeTaskStatus Permission = "CHANGE_TASK_STATUS"
)

// Epic and requirement tree
const (
	PermCreateEpic Permission = "CREATE_EPIC"
	PermViewEpic   Permission = "VIEW_EPIC"
	PermEditEpic   Permission = "EDIT_EPIC"
	PermDeleteEpic Permission = "DELETE_EPIC"
)

// Sprint
const (
	PermCreateSprint      Permission = "CREATE_SPRINT"
	PermViewSprint        Permission = "VIEW_SPRINT"
	PermEditSprint        Permission = "EDIT_SPRINT"
	PermDeleteSprint      Permission = "DELETE_SPRINT"
	PermManageSprintTasks Permission = "MANAGE_SPRINT_TASKS"
)

// Team
const (
	PermInviteMember     Permission = "INVITE_MEMBER"
	PermRemoveMember     Permission = "REMOVE_MEMBER"
	PermChangeMemberRole Permission = "CHANGE_MEMBER_ROLE"
	PermViewMembers      Permission = "VIEW_MEMBERS"
)

// Workspace
const (
	PermCreateWorkspace         Permission = "CREATE_WORKSPACE"
	PermEditWorkspace           Permission = "EDIT_WORKSPACE"
	PermDeleteWorkspace         Permission = "DELETE_WORKSPACE"
	PermManageWorkspaceSettings Permission = "MANAGE_WORKSPACE_SETTINGS"
)

// Leave
const (
	PermRequestLeave       Permission = "REQUEST_LEAVE"
	PermViewOwnLeave       Permission = "VIEW_OWN_LEAVE"
	PermViewAllLeaves      Permission = "VIEW_ALL_LEAVES"
	PermApproveLeave       Permission = "APPROVE_LEAVE"
	PermManageLeaveBalance Permission = "MANAGE_LEAVE_BALANCE"
)

// Analytics
const (
	PermViewAnalytics Permission = "VIEW_ANALYTICS"
	PermExportReports Permission = "EXPORT_REPORTS"
)

func (p Permission) String() string { return string(p) }

// AllPermissions lists the full catalog, grouped as above.
func AllPermissions() []Permission {
	return []Permission{
		PermCreateProject, PermViewProject, PermEditProject, PermDeleteProject, PermArchiveProject,
		PermCreateTask, PermViewTask, PermEditTask, PermDeleteTask, PermAssignTask, PermChangeTaskStatus,
		PermCreateEpic, PermViewEpic, PermEditEpic, PermDeleteEpic,
		PermCreateSprint, PermViewSprint, PermEditSprint, PermDeleteSprint, PermManageSprintTasks,
		PermInviteMember, PermRemoveMember, PermChangeMemberRole, PermViewMembers,
		PermCreateWorkspace, PermEditWorkspace, PermDeleteWorkspace, PermManageWorkspaceSettings,
		PermRequestLeave, PermViewOwnLeave, PermViewAllLeaves, PermApproveLeave, PermManageLeaveBalance,
		PermViewAnalytics, PermExportReports,
	}
}
