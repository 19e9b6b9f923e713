package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"cms-console/internal/access"
	"cms-console/internal/backend"
)

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	users, err := s.api.Users(r.Context(), token(r))
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		data["Error"] = backend.Message(err, "Failed to load users")
	}
	roles, err := s.api.Roles(r.Context(), token(r))
	if err != nil && backend.IsUnauthorized(err) {
		s.teardown(w, r)
		return
	}
	data["Users"] = users
	data["Roles"] = roles
	s.renderDashboard(w, r, http.StatusOK, "users.html", "Users", data)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	user := backend.NewUser{
		Username: trimmed(r, "username"),
		Email:    trimmed(r, "email"),
		Password: r.FormValue("password"),
		Roles:    formValues(r, "roles"),
	}
	if user.Username == "" || user.Email == "" || user.Password == "" {
		s.flash(r, noticeError, "Username, email and password are required")
		s.redirect(w, r, "/users")
		return
	}
	if err := s.api.CreateUser(r.Context(), token(r), user); err != nil {
		s.fail(w, r, err, "Failed to create user", "/users")
		return
	}
	s.flash(r, noticeSuccess, "User "+user.Username+" created")
	s.redirect(w, r, "/users")
}

func (s *Server) handleSetUserRoles(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	id := chi.URLParam(r, "userID")
	if err := s.api.SetUserRoles(r.Context(), token(r), id, formValues(r, "roles")); err != nil {
		s.fail(w, r, err, "Failed to update roles", "/users")
		return
	}
	s.flash(r, noticeSuccess, "Roles updated")
	s.redirect(w, r, "/users")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	if err := s.api.DeleteUser(r.Context(), token(r), id); err != nil {
		s.fail(w, r, err, "Failed to delete user", "/users")
		return
	}
	s.flash(r, noticeSuccess, "User deleted")
	s.redirect(w, r, "/users")
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	roles, err := s.api.Roles(r.Context(), token(r))
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		data["Error"] = backend.Message(err, "Failed to load roles")
	}
	data["Roles"] = roles
	s.renderDashboard(w, r, http.StatusOK, "roles.html", "Roles", data)
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	name := strings.ToUpper(strings.Join(strings.Fields(r.FormValue("name")), "_"))
	if name == "" {
		s.flash(r, noticeError, "Please enter a role name")
		s.redirect(w, r, "/roles")
		return
	}
	if err := s.api.CreateRole(r.Context(), token(r), name); err != nil {
		s.fail(w, r, err, "Failed to create role", "/roles")
		return
	}
	s.flash(r, noticeSuccess, "Role "+name+" created")
	s.redirect(w, r, "/roles")
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := s.api.DeleteRole(r.Context(), token(r), chi.URLParam(r, "roleID")); err != nil {
		s.fail(w, r, err, "Failed to delete role", "/roles")
		return
	}
	s.flash(r, noticeSuccess, "Role deleted")
	s.redirect(w, r, "/roles")
}

type permissionRow struct {
	backend.Permission
	Name string
}

// permissionMatrix lists one row per known module, filled from the role's
// grants. Grants for modules no longer listed are kept at the end.
func permissionMatrix(modules []backend.Module, perms []backend.Permission) []permissionRow {
	byModule := make(map[string]backend.Permission, len(perms))
	for _, p := range perms {
		byModule[access.ModuleKey(p.ModuleName)] = p
	}
	rows := make([]permissionRow, 0, len(modules))
	seen := make(map[string]bool, len(modules))
	for _, m := range modules {
		key := access.ModuleKey(m.ModuleName)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		p := byModule[key]
		p.ModuleName = key
		rows = append(rows, permissionRow{Permission: p, Name: access.DisplayName(key)})
	}
	var extra []string
	for key := range byModule {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		p := byModule[key]
		p.ModuleName = key
		rows = append(rows, permissionRow{Permission: p, Name: access.DisplayName(key)})
	}
	return rows
}

func (s *Server) handleRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")
	back := "/roles"
	modules, err := s.api.Modules(r.Context(), token(r))
	if err != nil {
		s.fail(w, r, err, "Failed to load modules", back)
		return
	}
	perms, err := s.api.RolePermissions(r.Context(), token(r), roleID)
	if err != nil {
		s.fail(w, r, err, "Failed to load permissions", back)
		return
	}
	data := map[string]any{
		"RoleID": roleID,
		"Rows":   permissionMatrix(modules, perms),
	}
	s.renderDashboard(w, r, http.StatusOK, "permissions.html", "Permissions", data)
}

func (s *Server) handleSaveRolePermissions(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	roleID := chi.URLParam(r, "roleID")
	back := "/roles/" + roleID + "/permissions"
	perms := make([]backend.Permission, 0, len(r.Form["module"]))
	for _, module := range formValues(r, "module") {
		perms = append(perms, backend.Permission{
			ModuleName: module,
			CanSelect:  r.FormValue(module+".select") != "",
			CanCreate:  r.FormValue(module+".create") != "",
			CanUpdate:  r.FormValue(module+".update") != "",
			CanDelete:  r.FormValue(module+".delete") != "",
		})
	}
	if err := s.api.SetRolePermissions(r.Context(), token(r), roleID, perms); err != nil {
		s.fail(w, r, err, "Failed to save permissions", back)
		return
	}
	s.flash(r, noticeSuccess, "Permissions saved")
	s.redirect(w, r, back)
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	modules, err := s.api.Modules(r.Context(), token(r))
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		data["Error"] = backend.Message(err, "Failed to load modules")
	}
	data["Modules"] = modules
	s.renderDashboard(w, r, http.StatusOK, "modules.html", "Modules", data)
}

func (s *Server) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	name := access.ModuleKey(strings.Join(strings.Fields(r.FormValue("moduleName")), "_"))
	if name == "" {
		s.flash(r, noticeError, "Please enter a module name")
		s.redirect(w, r, "/modules")
		return
	}
	if err := s.api.CreateModule(r.Context(), token(r), name); err != nil {
		s.fail(w, r, err, "Failed to create module", "/modules")
		return
	}
	s.flash(r, noticeSuccess, "Module "+name+" created")
	s.redirect(w, r, "/modules")
}

func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := s.api.DeleteModule(r.Context(), token(r), chi.URLParam(r, "moduleID")); err != nil {
		s.fail(w, r, err, "Failed to delete module", "/modules")
		return
	}
	s.flash(r, noticeSuccess, "Module deleted")
	s.redirect(w, r, "/modules")
}
