package api

import (
	"context"
	"net/url"

	"github.com/dbarkov/feedline/internal/client/models"
)

// JoinGroup adds the session owner to the group and returns the updated
// group as the server sees it.
func (g *Gateway) JoinGroup(ctx context.Context, groupID string) (models.Group, error) {
	var grp models.Group
	err := g.postJSON(ctx, "/groups/"+url.PathEscape(groupID)+"/join", nil, &grp)
	return grp, err
}

// LeaveGroup removes the session owner from the group.
func (g *Gateway) LeaveGroup(ctx context.Context, groupID string) (models.Group, error) {
	var grp models.Group
	err := g.postJSON(ctx, "/groups/"+url.PathEscape(groupID)+"/leave", nil, &grp)
	return grp, err
}

// InviteRequest names the user invited into a group.
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// InviteToGroup invites userID into the group. Status-only response.
func (g *Gateway) InviteToGroup(ctx context.Context, groupID, userID string) error {
	return g.postJSON(ctx, "/groups/"+url.PathEscape(groupID)+"/invite", InviteRequest{UserID: userID}, nil)
}

// UpdateGroupRequest carries editable group attributes.
type UpdateGroupRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateGroup edits the group and returns the server's updated object.
func (g *Gateway) UpdateGroup(ctx context.Context, groupID string, req UpdateGroupRequest) (models.Group, error) {
	var grp models.Group
	err := g.postJSON(ctx, "/groups/"+url.PathEscape(groupID), req, &grp)
	return grp, err
}

// SearchUsers fetches one page of user search results for query.
func (g *Gateway) SearchUsers(ctx context.Context, query string, page, size int) (Page[models.User], error) {
	return fetchPage[models.User](ctx, g, "/users/search?q="+url.QueryEscape(query), page, size)
}

// SearchGroups fetches one page of group search results for query.
func (g *Gateway) SearchGroups(ctx context.Context, query string, page, size int) (Page[models.Group], error) {
	return fetchPage[models.Group](ctx, g, "/groups/search?q="+url.QueryEscape(query), page, size)
}
