// Package access decides what a session may see. Everything here is pure:
// callers hand in a Subject and get a decision back.
package access

import "strings"

// LandingPath is where denied requests are sent. It is never itself gated.
const LandingPath = "/"

const (
	RoleSuperAdmin = "SUPERADMIN"
	RoleAdmin      = "ADMIN"
)

// PrivilegedRoles receive the authoritative module list and pass every module gate.
var PrivilegedRoles = []string{RoleSuperAdmin, RoleAdmin}

// DashboardRoles may enter the dashboard from the public landing page.
var DashboardRoles = []string{RoleSuperAdmin, RoleAdmin, "EDITOR", "MODULE_EDITOR", "PROGRAM_EDITOR", "ABOUT_US_EDITOR"}

type Set map[string]struct{}

func NewSet(values ...string) Set {
	set := make(Set, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func (s Set) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Subject is the pair of authorization axes carried by a session.
type Subject struct {
	Roles       Set
	Permissions Set
}

func NewSubject(roles, permissions []string) Subject {
	return Subject{Roles: NewSet(roles...), Permissions: NewSet(permissions...)}
}

func (s Subject) HasRole(role string) bool {
	return s.Roles.Has(role)
}

func (s Subject) HasAnyRole(required ...string) bool {
	for _, role := range required {
		if s.Roles.Has(role) {
			return true
		}
	}
	return false
}

func (s Subject) HasPermission(permission string) bool {
	return s.Permissions.Has(permission)
}

func (s Subject) HasAnyPermission(required ...string) bool {
	for _, permission := range required {
		if s.Permissions.Has(permission) {
			return true
		}
	}
	return false
}

// HasPermissionPrefix reports whether any permission starts with prefix,
// e.g. NOTIFICATION_ for "any notification grant".
func (s Subject) HasPermissionPrefix(prefix string) bool {
	for permission := range s.Permissions {
		if strings.HasPrefix(permission, prefix) {
			return true
		}
	}
	return false
}

func (s Subject) Privileged() bool {
	return s.HasAnyRole(PrivilegedRoles...)
}

// Gate is the single role-or-permission rule used by every protected route.
// An empty gate only requires authentication.
type Gate struct {
	Roles       []string
	Permissions []string
}

func (g Gate) Restricts() bool {
	return len(g.Roles) > 0 || len(g.Permissions) > 0
}

func (g Gate) Allows(s Subject) bool {
	if !g.Restricts() {
		return true
	}
	if len(g.Roles) > 0 && s.HasAnyRole(g.Roles...) {
		return true
	}
	return len(g.Permissions) > 0 && s.HasAnyPermission(g.Permissions...)
}

type Action string

const (
	ActionRead   Action = "READ"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

var crudActions = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// ModuleGate guards one action on a module. ActionRead is satisfied by any
// CRUD grant on the module, the others need their own grant.
func ModuleGate(module string, action Action) Gate {
	key := ModuleKey(module)
	if action == ActionRead {
		perms := make([]string, 0, len(crudActions))
		for _, a := range crudActions {
			perms = append(perms, key+"_"+string(a))
		}
		return Gate{Roles: PrivilegedRoles, Permissions: perms}
	}
	return Gate{Roles: PrivilegedRoles, Permissions: []string{key + "_" + string(action)}}
}

func AdminGate() Gate {
	return Gate{Roles: PrivilegedRoles}
}

// CanAccessDashboard reports whether the landing page should forward the
// subject into the dashboard.
func CanAccessDashboard(s Subject) bool {
	return s.HasAnyRole(DashboardRoles...) || s.HasPermissionPrefix("NOTIFICATION_")
}

// NotificationGate guards the notification manager: admins, or any CRUD
// grant on the NOTIFICATION module.
func NotificationGate() Gate {
	return ModuleGate("NOTIFICATION", ActionRead)
}

func CanManageNotifications(s Subject) bool {
	return NotificationGate().Allows(s)
}

// ModuleKey normalizes a module name or slug to the backend form (upper-snake).
func ModuleKey(module string) string {
	module = strings.TrimSpace(module)
	module = strings.ReplaceAll(module, "-", "_")
	module = strings.ReplaceAll(module, " ", "_")
	return strings.ToUpper(module)
}

// ModuleSlug is the URL form of a module key.
func ModuleSlug(module string) string {
	return strings.ToLower(strings.ReplaceAll(ModuleKey(module), "_", "-"))
}
