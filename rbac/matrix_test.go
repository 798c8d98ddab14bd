package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lntconnect/connect/rbac"
)

func TestCatalogSize(t *testing.T) {
	assert.Len(t, rbac.AllPermissions(), 35)
	assert.Len(t, rbac.AllRoles(), 7)
}

func TestManagerHoldsEverything(t *testing.T) {
	for _, p := range rbac.AllPermissions() {
		assert.True(t, rbac.HasPermission(rbac.RoleManager, p), "MANAGER should hold %s", p)
	}
}

func TestProjectDeletion(t *testing.T) {
	assert.True(t, rbac.HasPermission(rbac.RoleManager, rbac.PermDeleteProject))
	assert.False(t, rbac.HasPermission(rbac.RoleMember, rbac.PermDeleteProject))
}

func TestAssistantManagerAsymmetry(t *testing.T) {
	// GIVEN: the ASSISTANT_MANAGER role
	// THEN: it counts as admin yet holds no team-management permissions.
	//       Admin status and individual grants are separate facts.

	require.True(t, rbac.IsAdmin(rbac.RoleAssistantManager))
	assert.False(t, rbac.HasPermission(rbac.RoleAssistantManager, rbac.PermInviteMember))
	assert.False(t, rbac.HasPermission(rbac.RoleAssistantManager, rbac.PermRemoveMember))
	assert.False(t, rbac.HasPermission(rbac.RoleAssistantManager, rbac.PermChangeMemberRole))

	// Everything else matches MANAGER.
	withheld := map[rbac.Permission]bool{
		rbac.PermInviteMember:     true,
		rbac.PermRemoveMember:     true,
		rbac.PermChangeMemberRole: true,
	}
	for _, p := range rbac.AllPermissions() {
		if withheld[p] {
			continue
		}
		assert.True(t, rbac.HasPermission(rbac.RoleAssistantManager, p),
			"ASSISTANT_MANAGER should hold %s", p)
	}
}

func TestRankAndGrantsAreIndependent(t *testing.T) {
	// HR sits below ASSISTANT_MANAGER in rank yet can invite members, which
	// ASSISTANT_MANAGER cannot. Rank comparisons must not be read as
	// permission-set containment.

	require.True(t, rbac.HasHigherOrEqualRole(rbac.RoleAssistantManager, rbac.RoleHR))
	assert.True(t, rbac.HasPermission(rbac.RoleHR, rbac.PermInviteMember))
	assert.False(t, rbac.HasPermission(rbac.RoleAssistantManager, rbac.PermInviteMember))
}

func TestAdminAndManagerChecks(t *testing.T) {
	assert.True(t, rbac.IsAdmin(rbac.RoleManager))
	assert.True(t, rbac.IsAdmin(rbac.RoleAssistantManager))
	assert.False(t, rbac.IsAdmin(rbac.RoleProjectLead))
	assert.False(t, rbac.IsAdmin(rbac.RoleMember))

	assert.True(t, rbac.IsManager(rbac.RoleManager))
	assert.False(t, rbac.IsManager(rbac.RoleAssistantManager))
}

func TestHasAnyPermission(t *testing.T) {
	assert.True(t, rbac.HasAnyPermission(rbac.RoleMember, rbac.PermDeleteProject, rbac.PermViewProject))
	assert.False(t, rbac.HasAnyPermission(rbac.RoleMember, rbac.PermDeleteProject, rbac.PermDeleteTask))
	assert.False(t, rbac.HasAnyPermission(rbac.RoleMember))
}

func TestHasAllPermissions(t *testing.T) {
	assert.True(t, rbac.HasAllPermissions(rbac.RoleMember, rbac.PermViewProject, rbac.PermViewTask))
	assert.False(t, rbac.HasAllPermissions(rbac.RoleMember, rbac.PermViewProject, rbac.PermDeleteProject))
	// Empty list is vacuously satisfied.
	assert.True(t, rbac.HasAllPermissions(rbac.RoleMember))
}

func TestUnknownRoleHoldsNothing(t *testing.T) {
	ghost := rbac.Role("CONTRACTOR")
	assert.False(t, ghost.IsValid())
	assert.Equal(t, 0, ghost.Rank())
	for _, p := range rbac.AllPermissions() {
		assert.False(t, rbac.HasPermission(ghost, p))
	}
}

func TestRankOrdering(t *testing.T) {
	roles := rbac.AllRoles()
	for i := 1; i < len(roles); i++ {
		assert.Greater(t, roles[i-1].Rank(), roles[i].Rank(),
			"%s should outrank %s", roles[i-1], roles[i])
	}

	assert.True(t, rbac.HasHigherOrEqualRole(rbac.RoleManager, rbac.RoleMember))
	assert.True(t, rbac.HasHigherOrEqualRole(rbac.RoleTeamLead, rbac.RoleTeamLead))
	assert.False(t, rbac.HasHigherOrEqualRole(rbac.RoleMember, rbac.RoleManager))
}

func TestParseRole(t *testing.T) {
	r, ok := rbac.ParseRole("SOFTWARE_DEVELOPER")
	require.True(t, ok)
	assert.Equal(t, rbac.RoleSoftwareDeveloper, r)

	_, ok = rbac.ParseRole("software_developer")
	assert.False(t, ok)
	_, ok = rbac.ParseRole("")
	assert.False(t, ok)
}

func TestEveryGrantIsInCatalog(t *testing.T) {
	catalog := make(map[rbac.Permission]bool)
	for _, p := range rbac.AllPermissions() {
		catalog[p] = true
	}
	for _, role := range rbac.AllRoles() {
		for _, p := range rbac.PermissionsForRole(role) {
			assert.True(t, catalog[p], "%s grants %s which is not in the catalog", role, p)
		}
	}
}

func TestPermissionsForRoleReturnsCopy(t *testing.T) {
	perms := rbac.PermissionsForRole(rbac.RoleMember)
	require.NotEmpty(t, perms)
	perms[0] = rbac.PermDeleteWorkspace
	assert.False(t, rbac.HasPermission(rbac.RoleMember, rbac.PermDeleteWorkspace))
}
