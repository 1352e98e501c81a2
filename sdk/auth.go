package sdk

import "context"

// Register registers a new user
func (c *Client) Register(ctx context.Context, req *RegisterRequest) (*Profile, error) {
	var result Profile
	if err := c.post(ctx, "/auth/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login authenticates a user. The returned token is stored in the
// client for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var result LoginResponse
	if err := c.post(ctx, "/auth/login", &LoginRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}

	c.SetToken(result.Token)
	if result.Profile != nil {
		c.userId = result.Profile.Id
	}
	return &result, nil
}
