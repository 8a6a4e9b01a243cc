package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/anchor-labs/anchor/internal/models"
)

// ListGroups returns all of the user's groups, defaults first.
func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.do(ctx, "list groups", http.MethodGet, "/api/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group and returns the stored row.
func (c *Client) CreateGroup(ctx context.Context, in models.GroupInput) (models.Group, error) {
	if err := models.Validate("create group", in); err != nil {
		return models.Group{}, err
	}
	var stored models.Group
	if err := c.do(ctx, "create group", http.MethodPost, "/api/groups", in, &stored); err != nil {
		return models.Group{}, err
	}
	return stored, nil
}

// RenameGroup updates a group's name and color.
func (c *Client) RenameGroup(ctx context.Context, id string, in models.GroupInput) (models.Group, error) {
	if err := models.Validate("rename group", in); err != nil {
		return models.Group{}, err
	}
	var stored models.Group
	path := "/api/groups/" + url.PathEscape(id)
	if err := c.do(ctx, "rename group", http.MethodPatch, path, in, &stored); err != nil {
		return models.Group{}, err
	}
	return stored, nil
}

// DeleteGroup removes a non-default group. Items in the group revert to
// ungrouped server-side. Deleting a default group is rejected remotely.
func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	path := "/api/groups/" + url.PathEscape(id)
	return c.do(ctx, "delete group", http.MethodDelete, path, nil, nil)
}

// EnsureLabel resolves a label by name for the user, creating it if it does
// not exist yet. Name comparison is case-insensitive server-side.
func (c *Client) EnsureLabel(ctx context.Context, name string) (models.Label, error) {
	var stored models.Label
	body := map[string]string{"name": name}
	if err := c.do(ctx, "ensure label", http.MethodPost, "/api/labels/ensure", body, &stored); err != nil {
		return models.Label{}, err
	}
	return stored, nil
}
