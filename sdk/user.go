package sdk

import (
	"context"
	"io"
)

// ListUsers fetches the user directory
func (c *Client) ListUsers(ctx context.Context) ([]*UserInfo, error) {
	var result []*UserInfo
	if err := c.get(ctx, "/users", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetProfile fetches the authenticated user's profile
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var result Profile
	if err := c.get(ctx, "/users/me", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser fetches another user's public info
func (c *Client) GetUser(ctx context.Context, userId string) (*UserInfo, error) {
	var result UserInfo
	if err := c.get(ctx, "/users/"+userId, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProfile updates the authenticated user's profile fields
func (c *Client) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*Profile, error) {
	var result Profile
	if err := c.put(ctx, "/users/me", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePicture uploads a new profile picture
func (c *Client) UpdatePicture(ctx context.Context, fileName string, file io.Reader) (*Profile, error) {
	var result Profile
	err := c.requestMultipart(ctx, "PUT", "/users/me/picture", nil, "picture", fileName, file, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
