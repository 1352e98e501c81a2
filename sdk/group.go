package sdk

import (
	"context"
	"io"
)

// CreateGroup creates a group owned by the authenticated user
func (c *Client) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*GroupInfo, error) {
	var result GroupInfo
	if err := c.post(ctx, "/groups", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetGroup fetches a group with its members
func (c *Client) GetGroup(ctx context.Context, groupId string) (*GroupInfo, error) {
	var result GroupInfo
	if err := c.get(ctx, "/groups/"+groupId, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListGroups lists the authenticated user's groups
func (c *Client) ListGroups(ctx context.Context) ([]*GroupInfo, error) {
	var result []*GroupInfo
	if err := c.get(ctx, "/groups", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAllGroups lists every group, for discovery before joining
func (c *Client) ListAllGroups(ctx context.Context) ([]*GroupInfo, error) {
	var result []*GroupInfo
	if err := c.get(ctx, "/groups", map[string]string{"scope": "all"}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// JoinGroup adds the authenticated user to a group
func (c *Client) JoinGroup(ctx context.Context, groupId string) (*GroupInfo, error) {
	var result GroupInfo
	if err := c.post(ctx, "/groups/"+groupId+"/join", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddMember adds a user to a group
func (c *Client) AddMember(ctx context.Context, groupId, userId string) (*GroupInfo, error) {
	var result GroupInfo
	body := map[string]string{"user_id": userId}
	if err := c.post(ctx, "/groups/"+groupId+"/members", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateGroupPicture uploads a new group picture (owner only)
func (c *Client) UpdateGroupPicture(ctx context.Context, groupId, fileName string, file io.Reader) (*GroupInfo, error) {
	var result GroupInfo
	err := c.requestMultipart(ctx, "PUT", "/groups/"+groupId+"/picture", nil, "picture", fileName, file, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
