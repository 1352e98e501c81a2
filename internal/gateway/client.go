package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"
	"github.com/parley-chat/parley/pkg/errcode"
)

// Client represents a connected WebSocket client
type Client struct {
	mu        sync.Mutex
	conn      ClientConn
	UserId    string
	ConnId    string
	hub       *Hub
	announced atomic.Bool
	closed    atomic.Bool
	closedErr error
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new client
func NewClient(conn ClientConn, userId, connId string, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:   conn,
		UserId: userId,
		ConnId: connId,
		hub:    hub,
		ctx:    ctx,
		cancel: cancel,
	}
}

// readLoop continuously reads and dispatches inbound events
func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.closedErr = ErrPanic
			log.CtxError(c.ctx, "client read loop panic: user_id=%s, error=%v", c.UserId, r)
		}
		c.close()
	}()

	for {
		message, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}

		if c.closed.Load() {
			c.closedErr = ErrConnClosed
			return
		}

		c.handleMessage(message)
	}
}

// handleMessage dispatches a single inbound event. Protocol errors are
// reported back on the connection, they never tear it down.
func (c *Client) handleMessage(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.pushError(ErrInvalidProtocol)
		return
	}

	log.CtxDebug(c.ctx, "received event: event=%s, user_id=%s", env.Event, c.UserId)

	var err error
	switch env.Event {
	case EventAnnounce:
		err = c.hub.HandleAnnounce(c.ctx, c)
	case EventJoin:
		var data JoinData
		if err = json.Unmarshal(env.Data, &data); err != nil {
			err = ErrInvalidProtocol
			break
		}
		err = c.hub.HandleJoin(c.ctx, c, &data)
	case EventMarkRead:
		var data MarkReadData
		if err = json.Unmarshal(env.Data, &data); err != nil {
			err = ErrInvalidProtocol
			break
		}
		err = c.hub.HandleMarkRead(c.ctx, c, &data)
	default:
		err = ErrUnknownEvent
	}

	if err != nil {
		log.CtxWarn(c.ctx, "handle event failed: event=%s, user_id=%s, error=%v", env.Event, c.UserId, err)
		c.pushError(err)
	}
}

// PushEvent marshals and queues an outbound event for this connection
func (c *Client) PushEvent(event string, v interface{}) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	data, err := EncodeEvent(event, v)
	if err != nil {
		return err
	}
	return c.PushRaw(data)
}

// PushRaw queues a pre-marshaled frame for this connection
func (c *Client) PushRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrConnClosed
	}
	return c.conn.WriteMessage(data)
}

// pushError reports an error back on the connection, best effort
func (c *Client) pushError(err error) {
	code := 1
	msg := err.Error()
	var ec *errcode.Error
	if errors.As(err, &ec) {
		code = ec.Code
		msg = ec.Msg
	}
	_ = c.PushEvent(EventError, &ErrorData{Code: code, Msg: msg})
}

// Close closes the client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	c.closed.Store(true)
	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when connection is closed
func (c *Client) close() {
	c.Close()
	c.hub.UnregisterClient(c)
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
