package rbac

// =============================================================================
// ROLE -> PERMISSION TABLE
// =============================================================================
// Each role's set is enumerated in full. Do not refactor this into rank
// arithmetic: the business rules are not monotonic. ASSISTANT_MANAGER is
// everything MANAGER is minus team management; HR holds invite and leave
// administration despite its mid-table rank.

var rolePermissions = map[Role][]Permission{
	RoleManager: {
		PermCreateProject, PermViewProject, PermEditProject, PermDeleteProject, PermArchiveProject,
		PermCreateTask, PermViewTask, PermEditTask, PermDeleteTask, PermAssignTask, PermChangeTaskStatus,
		PermCreateEpic, PermViewEpic, PermEditEpic, PermDeleteEpic,
		PermCreateSprint, PermViewSprint, PermEditSprint, PermDeleteSprint, PermManageSprintTasks,
		PermInviteMember, PermRemoveMember, PermChangeMemberRole, PermViewMembers,
		PermCreateWorkspace, PermEditWorkspace, PermDeleteWorkspace, PermManageWorkspaceSettings,
		PermRequestLeave, PermViewOwnLeave, PermViewAllLeaves, PermApproveLeave, PermManageLeaveBalance,
		PermViewAnalytics, PermExportReports,
	},
	RoleAssistantManager: {
		PermCreateProject, PermViewProject, PermEditProject, PermDeleteProject, PermArchiveProject,
		PermCreateTask, PermViewTask, PermEditTask, PermDeleteTask, PermAssignTask, PermChangeTaskStatus,
		PermCreateEpic, PermViewEpic, PermEditEpic, PermDeleteEpic,
		PermCreateSprint, PermViewSprint, PermEditSprint, PermDeleteSprint, PermManageSprintTasks,
		PermViewMembers,
		PermCreateWorkspace, PermEditWorkspace, PermDeleteWorkspace, PermManageWorkspaceSettings,
		PermRequestLeave, PermViewOwnLeave, PermViewAllLeaves, PermApproveLeave, PermManageLeaveBalance,
		PermViewAnalytics, PermExportReports,
	},
	RoleProjectLead: {
		PermCreateProject, PermViewProject, PermEditProject, PermArchiveProject,
		PermCreateTask, PermViewTask, PermEditTask, PermDeleteTask, PermAssignTask, PermChangeTaskStatus,
		PermCreateEpic, PermViewEpic, PermEditEpic, PermDeleteEpic,
		PermCreateSprint, PermViewSprint, PermEditSprint, PermDeleteSprint, PermManageSprintTasks,
		PermViewMembers,
		PermRequestLeave, PermViewOwnLeave, PermViewAllLeaves, PermApproveLeave,
		PermViewAnalytics, PermExportReports,
	},
	RoleHR: {
		PermViewProject,
		PermViewTask,
		PermInviteMember, PermViewMembers,
		PermRequestLeave, PermViewOwnLeave, PermViewAllLeaves, PermApproveLeave, PermManageLeaveBalance,
		PermViewAnalytics, PermExportReports,
	},
	RoleTeamLead: {
		PermViewProject,
		PermCreateTask, PermViewTask, PermEditTask, PermAssignTask, PermChangeTaskStatus,
		PermViewEpic,
		PermViewSprint, PermEditSprint, PermManageSprintTasks,
		PermViewMembers,
		PermRequestLeave, PermViewOwnLeave, PermApproveLeave,
		PermViewAnalytics,
	},
	RoleSoftwareDeveloper: {
		PermViewProject,
		PermCreateTask, PermViewTask, PermEditTask, PermChangeTaskStatus,
		PermViewEpic,
		PermViewSprint,
		PermViewMembers,
		PermRequestLeave, PermViewOwnLeave,
	},
	RoleMember: {
		PermViewProject,
		PermViewTask,
		PermViewEpic,
		PermViewSprint,
		PermViewMembers,
		PermRequestLeave, PermViewOwnLeave,
	},
}

// permissionIndex gives O(1) membership checks over the table above.
var permissionIndex = func() map[Role]map[Permission]bool {
	idx := make(map[Role]map[Permission]bool, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]bool, len(perms))
		for _, p := range perms {
			set[p] = true
		}
		idx[role] = set
	}
	return idx
}()

// =============================================================================
// QUERIES
// =============================================================================

// HasPermission reports whether the role's set contains the permission.
// Unknown roles hold nothing.
func HasPermission(role Role, perm Permission) bool {
	return permissionIndex[role][perm]
}

// HasAnyPermission reports whether the role holds at least one of perms.
func HasAnyPermission(role Role, perms ...Permission) bool {
	set := permissionIndex[role]
	for _, p := range perms {
		if set[p] {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every one of perms.
// Vacuously true for an empty list.
func HasAllPermissions(role Role, perms ...Permission) bool {
	set := permissionIndex[role]
	for _, p := range perms {
		if !set[p] {
			return false
		}
	}
	return true
}

// IsAdmin reports whether the role is MANAGER or ASSISTANT_MANAGER. Admin
// status gates screens, not individual grants: an admin may still lack a
// specific permission (ASSISTANT_MANAGER cannot invite members).
func IsAdmin(role Role) bool {
	return role == RoleManager || role == RoleAssistantManager
}

// IsManager reports whether the role is MANAGER.
func IsManager(role Role) bool {
	return role == RoleManager
}

// HasHigherOrEqualRole compares ranks only. It says nothing about
// permission sets; a higher-ranked role can hold fewer grants than a
// lower-ranked one in some domains.
func HasHigherOrEqualRole(a, b Role) bool {
	return a.Rank() >= b.Rank()
}

// PermissionsForRole returns a copy of the role's permission set.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
