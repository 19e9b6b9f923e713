package backend

import (
	"context"
	"net/http"
	"strings"
)

func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var user User
	err := c.getJSON(ctx, "/users/me", token, &user)
	return user, err
}

func (c *Client) Users(ctx context.Context, token string) ([]User, error) {
	var users []User
	err := c.getJSON(ctx, "/users", token, &users)
	return users, err
}

func (c *Client) CreateUser(ctx context.Context, token string, user NewUser) error {
	return c.sendJSON(ctx, http.MethodPost, "/users", token, user, nil)
}

func (c *Client) UpdateUser(ctx context.Context, token string, id string, update UserUpdate) error {
	return c.sendJSON(ctx, http.MethodPut, "/users/"+escape(id), token, update, nil)
}

func (c *Client) SetUserRoles(ctx context.Context, token string, id string, roles []string) error {
	return c.sendJSON(ctx, http.MethodPut, "/users/"+escape(id)+"/roles", token, map[string][]string{"roles": roles}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token string, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+escape(id), token, nil, "", nil)
}

func (c *Client) Roles(ctx context.Context, token string) ([]Role, error) {
	var roles []Role
	err := c.getJSON(ctx, "/admin/roles", token, &roles)
	return roles, err
}

func (c *Client) CreateRole(ctx context.Context, token string, name string) error {
	return c.sendJSON(ctx, http.MethodPost, "/admin/roles", token, map[string]string{"name": name}, nil)
}

func (c *Client) DeleteRole(ctx context.Context, token string, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/roles/"+escape(id), token, nil, "", nil)
}

func (c *Client) RolePermissions(ctx context.Context, token string, roleID string) ([]Permission, error) {
	var perms []Permission
	err := c.getJSON(ctx, "/admin/roles/"+escape(roleID)+"/permissions", token, &perms)
	return perms, err
}

func (c *Client) SetRolePermissions(ctx context.Context, token string, roleID string, perms []Permission) error {
	return c.sendJSON(ctx, http.MethodPut, "/admin/roles/"+escape(roleID)+"/permissions", token, perms, nil)
}

func (c *Client) Modules(ctx context.Context, token string) ([]Module, error) {
	var modules []Module
	err := c.getJSON(ctx, "/admin/modules", token, &modules)
	return modules, err
}

// ModuleNames lists the backend's module keys for navigation.
func (c *Client) ModuleNames(ctx context.Context, token string) ([]string, error) {
	modules, err := c.Modules(ctx, token)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.ModuleName)
	}
	return names, nil
}

func (c *Client) CreateModule(ctx context.Context, token string, name string) error {
	return c.sendJSON(ctx, http.MethodPost, "/admin/modules", token, map[string]string{"moduleName": name}, nil)
}

func (c *Client) DeleteModule(ctx context.Context, token string, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/modules/"+escape(id), token, nil, "", nil)
}

// PublicModules lists module names visible on the public site.
func (c *Client) PublicModules(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, "/internal/modules/list", "", &names); err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out, nil
}
