package auth

import "github.com/garnizeh/showcase/pkg/models"

// Resources guarded by the permission table.
const (
	ResourceProjects  = "projects"
	ResourceBlog      = "blog"
	ResourceTeam      = "team"
	ResourceAnalytics = "analytics"
	ResourceSettings  = "settings"
	ResourceUsers     = "users"
	ResourceServices  = "services"
	ResourceContacts  = "contacts"
	ResourceSEO       = "seo"
)

// Actions a permission can grant.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

var (
	full     = models.Access{Read: true, Write: true, Delete: true}
	edit     = models.Access{Read: true, Write: true}
	readOnly = models.Access{Read: true}
	none     = models.Access{}
)

// roleTable is never handed out directly; For returns copies.
var roleTable = map[string]models.Permissions{
	models.RoleSuperAdmin: {
		ResourceProjects:  full,
		ResourceBlog:      full,
		ResourceTeam:      full,
		ResourceAnalytics: full,
		ResourceSettings:  full,
		ResourceUsers:     full,
		ResourceServices:  full,
		ResourceContacts:  full,
		ResourceSEO:       full,
	},
	models.RoleAdmin: {
		ResourceProjects:  full,
		ResourceBlog:      full,
		ResourceTeam:      full,
		ResourceAnalytics: readOnly,
		ResourceSettings:  edit,
		ResourceUsers:     readOnly,
		ResourceServices:  full,
		ResourceContacts:  full,
		ResourceSEO:       full,
	},
	models.RoleEditor: {
		ResourceProjects:  edit,
		ResourceBlog:      edit,
		ResourceTeam:      readOnly,
		ResourceAnalytics: readOnly,
		ResourceSettings:  none,
		ResourceUsers:     none,
		ResourceServices:  edit,
		ResourceContacts:  readOnly,
		ResourceSEO:       edit,
	},
}

// Roles lists the known roles, most privileged first.
func Roles() []string {
	return []string{models.RoleSuperAdmin, models.RoleAdmin, models.RoleEditor}
}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	_, ok := roleTable[role]
	return ok
}

// For returns a fresh copy of the permission matrix of role, or nil for an
// unknown role.
func For(role string) models.Permissions {
	return roleTable[role].Clone()
}

// Allowed reports whether perms grant action on resource. Unknown resources
// and actions are denied.
func Allowed(perms models.Permissions, resource, action string) bool {
	a, ok := perms[resource]
	if !ok {
		return false
	}
	switch action {
	case ActionRead:
		return a.Read
	case ActionWrite:
		return a.Write
	case ActionDelete:
		return a.Delete
	default:
		return false
	}
}
