package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/morrisclay/cds-console/internal/model"
)

// --- Project endpoints ---

func projectPath(key string) string {
	return "/project/" + esc(key)
}

// ListNavProjects returns the navigation list.
func (c *Client) ListNavProjects(ctx context.Context) ([]model.NavProject, error) {
	data, err := c.getList(ctx, "/navbar")
	if err != nil {
		return nil, err
	}
	return decodeList[model.NavProject](data, "projects")
}

// ListProjects returns every project the caller can read.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	data, err := c.getList(ctx, "/project")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Project](data, "projects")
}

// GetProject returns a project. Each opt is a load option query parameter
// (withVariables, withEnvironments...) set to true.
func (c *Client) GetProject(ctx context.Context, key string, opts ...string) (*model.Project, error) {
	path := projectPath(key)
	if len(opts) > 0 {
		q := url.Values{}
		for _, o := range opts {
			q.Set(o, "true")
		}
		path += "?" + q.Encode()
	}

	data, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data, "project", func(p *model.Project) bool { return p.Key != "" })
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	var created model.Project
	if err := c.Post(ctx, "/project", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProject updates the name and description of a project.
func (c *Client) UpdateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	var updated model.Project
	if err := c.Put(ctx, projectPath(p.Key), p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, key string) error {
	return c.Delete(ctx, projectPath(key), nil)
}

// AddProjectVariable adds a variable and returns the project with its
// variables.
func (c *Client) AddProjectVariable(ctx context.Context, key string, v model.Variable) (*model.Project, error) {
	var p model.Project
	if err := c.Post(ctx, projectPath(key)+"/variable/"+esc(v.Name), v, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProjectVariable updates a variable and returns the project with its
// variables.
func (c *Client) UpdateProjectVariable(ctx context.Context, key, oldName string, v model.Variable) (*model.Project, error) {
	var p model.Project
	if err := c.Put(ctx, projectPath(key)+"/variable/"+esc(oldName), v, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProjectVariable deletes a variable and returns the project with its
// variables.
func (c *Client) DeleteProjectVariable(ctx context.Context, key, name string) (*model.Project, error) {
	var p model.Project
	if err := c.Delete(ctx, projectPath(key)+"/variable/"+esc(name), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddEnvironment creates an environment and returns the project with its
// environments.
func (c *Client) AddEnvironment(ctx context.Context, key string, env model.Environment) (*model.Project, error) {
	var p model.Project
	if err := c.Post(ctx, projectPath(key)+"/environment", env, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateEnvironment renames or updates an environment and returns the
// project with its environments.
func (c *Client) UpdateEnvironment(ctx context.Context, key, oldName string, env model.Environment) (*model.Project, error) {
	var p model.Project
	if err := c.Put(ctx, projectPath(key)+"/environment/"+esc(oldName), env, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CloneEnvironment copies an environment under a new name and returns the
// project with its environments.
func (c *Client) CloneEnvironment(ctx context.Context, key, name, cloneName string) (*model.Project, error) {
	var p model.Project
	path := projectPath(key) + "/environment/" + esc(name) + "/clone/" + esc(cloneName)
	if err := c.Post(ctx, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteEnvironment deletes an environment and returns the project with its
// environments.
func (c *Client) DeleteEnvironment(ctx context.Context, key, name string) (*model.Project, error) {
	var p model.Project
	if err := c.Delete(ctx, projectPath(key)+"/environment/"+esc(name), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProjectGroup grants a group a permission and returns the project's
// group permissions.
func (c *Client) AddProjectGroup(ctx context.Context, key string, gp model.GroupPermission) ([]model.GroupPermission, error) {
	data, err := c.request(ctx, http.MethodPost, projectPath(key)+"/group", gp)
	if err != nil {
		return nil, err
	}
	return decodeList[model.GroupPermission](data, "groups")
}

// UpdateProjectGroup changes a group permission and returns the project's
// group permissions.
func (c *Client) UpdateProjectGroup(ctx context.Context, key string, gp model.GroupPermission) ([]model.GroupPermission, error) {
	data, err := c.request(ctx, http.MethodPut, projectPath(key)+"/group/"+esc(gp.Group.Name), gp)
	if err != nil {
		return nil, err
	}
	return decodeList[model.GroupPermission](data, "groups")
}

// DeleteProjectGroup revokes a group's permission.
func (c *Client) DeleteProjectGroup(ctx context.Context, key, groupName string) error {
	return c.Delete(ctx, projectPath(key)+"/group/"+esc(groupName), nil)
}

// ListRepositoriesManagers returns the repositories managers linked to a
// project.
func (c *Client) ListRepositoriesManagers(ctx context.Context, key string) ([]model.ProjectVCSServer, error) {
	data, err := c.getList(ctx, projectPath(key)+"/repositories_manager")
	if err != nil {
		return nil, err
	}
	return decodeList[model.ProjectVCSServer](data, "vcs_servers")
}

// DisconnectRepositoryManager unlinks a repositories manager and returns the
// remaining links.
func (c *Client) DisconnectRepositoryManager(ctx context.Context, key, name string) ([]model.ProjectVCSServer, error) {
	data, err := c.request(ctx, http.MethodDelete, projectPath(key)+"/repositories_manager/"+esc(name), nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return decodeList[model.ProjectVCSServer](data, "vcs_servers")
}

// ToggleFavorite flips the favorite flag of a project for the caller and
// returns the new value.
func (c *Client) ToggleFavorite(ctx context.Context, key string) (bool, error) {
	var resp struct {
		Favorite bool `json:"favorite"`
	}
	err := c.Post(ctx, "/user/favorite", map[string]string{
		"type":        "project",
		"project_key": key,
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Favorite, nil
}
