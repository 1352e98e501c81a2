package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/jwt"
	"github.com/parley-chat/parley/pkg/response"
)

func upgradeRequest(uri string) *app.RequestContext {
	c := app.NewContext(0)
	c.Request.SetRequestURI(uri)
	return c
}

func decodeEnvelope(t *testing.T, body []byte) *response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	return &resp
}

func TestHandleConnectionRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("over the connection cap", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.JWT.Secret = "test-secret"
		h := NewHub(cfg, nil, nil) // MaxConnNum zero, every connection is over

		c := upgradeRequest("/ws?token=x&user_id=alice")
		h.HandleConnection(ctx, c, nil)

		resp := decodeEnvelope(t, c.Response.Body())
		assert.Equal(t, errcode.ErrConnOverLimit.Code, resp.Code)
	})

	t.Run("missing credentials", func(t *testing.T) {
		h := newTestHub()

		c := upgradeRequest("/ws?user_id=alice")
		h.HandleConnection(ctx, c, nil)

		resp := decodeEnvelope(t, c.Response.Body())
		assert.Equal(t, errcode.ErrTokenMissing.Code, resp.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		h := newTestHub()
		h.cfg.JWT.Secret = "test-secret"

		c := upgradeRequest("/ws?token=not-a-token&user_id=alice")
		h.HandleConnection(ctx, c, nil)

		resp := decodeEnvelope(t, c.Response.Body())
		assert.Equal(t, errcode.ErrUnauthorized.Code, resp.Code)
		assert.Equal(t, 401, c.Response.StatusCode())
	})

	t.Run("token bound to another user", func(t *testing.T) {
		h := newTestHub()
		h.cfg.JWT.Secret = "test-secret"

		token, err := jwt.GenerateToken("bob", "test-secret", 1)
		require.NoError(t, err)

		c := upgradeRequest("/ws?token=" + token + "&user_id=alice")
		h.HandleConnection(ctx, c, nil)

		resp := decodeEnvelope(t, c.Response.Body())
		assert.Equal(t, errcode.ErrUnauthorized.Code, resp.Code)
	})
}
