package api

import (
	"context"
	"net/http"

	"github.com/lebensmittel/cli/internal/model"
)

// MyGroups lists the groups the current user belongs to.
func (c *Client) MyGroups(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a new household group owned by the current user.
func (c *Client) CreateGroup(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	body := map[string]string{"name": name}
	if err := c.doJSON(ctx, http.MethodPost, "/groups", body, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// RenameGroup changes a group's display name.
func (c *Client) RenameGroup(ctx context.Context, id, name string) (*model.Group, error) {
	var group model.Group
	body := map[string]string{"name": name}
	if err := c.doJSON(ctx, http.MethodPut, "/groups/"+id, body, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// JoinGroup redeems an invite code and returns the id of the joined group.
func (c *Client) JoinGroup(ctx context.Context, code string) (string, error) {
	var resp struct {
		GroupID string `json:"groupId"`
	}
	body := map[string]string{"code": code}
	if err := c.doJSON(ctx, http.MethodPost, "/groups/join", body, &resp); err != nil {
		return "", err
	}
	return resp.GroupID, nil
}

// InviteCode mints a short-lived invite code for a group.
func (c *Client) InviteCode(ctx context.Context, groupID string) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/groups/"+groupID+"/invite", nil, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

// AddUserToGroup adds a member by user id.
func (c *Client) AddUserToGroup(ctx context.Context, groupID, userID string) error {
	body := map[string]string{"userId": userID}
	return c.doJSON(ctx, http.MethodPost, "/groups/"+groupID+"/users", body, nil)
}

// RemoveUserFromGroup removes a member. The server accepts "me" for the
// calling user.
func (c *Client) RemoveUserFromGroup(ctx context.Context, groupID, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/groups/"+groupID+"/users/"+userID, nil, nil)
}

// LeaveGroup removes the current user from a group.
func (c *Client) LeaveGroup(ctx context.Context, groupID string) error {
	return c.RemoveUserFromGroup(ctx, groupID, "me")
}
