package gateway

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/jwt"
	"github.com/parley-chat/parley/pkg/response"
)

// HandleConnection upgrades an incoming Hertz request to a WebSocket
// connection and runs its read loop. Authentication happens here via
// query parameters because browsers cannot set headers on upgrades.
func (h *Hub) HandleConnection(ctx context.Context, c *app.RequestContext, upgrader *websocket.HertzUpgrader) {
	if h.OnlineConnCount() >= h.maxConnNum {
		log.CtxWarn(ctx, "connection rejected, over limit: online_conns=%d", h.OnlineConnCount())
		response.ErrorWithCode(ctx, c, errcode.ErrConnOverLimit)
		return
	}

	token := string(c.Query(QueryToken))
	userId := string(c.Query(QueryUserId))

	if token == "" || userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrTokenMissing)
		return
	}

	claims, err := jwt.ValidateToken(token, h.cfg.JWT.Secret, userId)
	if err != nil {
		log.CtxDebug(ctx, "token validation failed: user_id=%s, error=%v", userId, err)
		response.Unauthorized(ctx, c, "")
		return
	}

	err = upgrader.Upgrade(c, func(conn *websocket.Conn) {
		connId := uuid.New().String()
		wsConn := NewHertzClientConn(conn, h.cfg.WebSocket.MaxMessageSize, PongWait, PingPeriod)
		client := NewClient(wsConn, claims.UserId, connId, h)

		// The Redis online mirror carries a TTL; a live connection keeps
		// it fresh on every pong
		wsConn.SetPongCallback(func() {
			h.presence.RefreshOnlineStatus(client.ctx, client.UserId)
		})

		h.registerChan <- client

		// Blocking read loop, returns on disconnect
		client.readLoop()
	})

	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}
}
