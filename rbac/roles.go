// Package rbac holds the static authorization model: workspace roles with
// an integer rank order, the permission catalog, and the fixed table
// assigning each role its exact permission set.
//
// Rank and permission set are specified independently. The rank order
// exists for seniority comparisons (who may review whom); grants are
// enumerated per role and are NOT derived from rank. ASSISTANT_MANAGER
// outranks everyone but MANAGER yet holds no team-management permissions,
// while HR at rank 70 does. Treat the two tables as unrelated facts.
package rbac

// Role is a workspace member's role. Stored as its wire value.
type Role string

const (
	RoleManager           Role = "MANAGER"
	RoleAssistantManager  Role = "ASSISTANT_MANAGER"
	RoleProjectLead       Role = "PROJECT_LEAD"
	RoleHR                Role = "HR"
	RoleTeamLead          Role = "TEAM_LEAD"
	RoleSoftwareDeveloper Role = "SOFTWARE_DEVELOPER"
	RoleMember            Role = "MEMBER"
)

// roleRanks orders roles by seniority. Higher outranks lower.
var roleRanks = map[Role]int{
	RoleManager:           100,
	RoleAssistantManager:  90,
	RoleProjectLead:       80,
	RoleHR:                70,
	RoleTeamLead:          60,
	RoleSoftwareDeveloper: 40,
	RoleMember:            20,
}

func (r Role) String() string { return string(r) }

// Rank returns the role's seniority rank, or 0 for unknown values.
func (r Role) Rank() int { return roleRanks[r] }

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AllRoles lists the defined roles in descending rank order.
func AllRoles() []Role {
	return []Role{
		RoleManager,
		RoleAssistantManager,
		RoleProjectLead,
		RoleHR,
		RoleTeamLead,
		RoleSoftwareDeveloper,
		RoleMember,
	}
}

// ParseRole validates a wire value into a Role. The boundary uses this so
// unknown strings never reach the lookup tables.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}
