package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
)

// Gateway event names, client to server
const (
	EventAnnounce = "announce"
	EventJoin     = "join"
	EventMarkRead = "mark_read"
)

// Gateway event names, server to client
const (
	EventPresence      = "presence"
	EventDirectMessage = "direct_message"
	EventGroupMessage  = "group_message"
	EventMessageRead   = "message_read"
	EventError         = "error"
)

const (
	wsWriteWait        = 10 * time.Second
	wsPongWait         = 30 * time.Second
	wsReconnectBackoff = time.Second
	wsReconnectMax     = 30 * time.Second
)

// Envelope is the gateway wire frame
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinData struct {
	ChatWith string `json:"chat_with,omitempty"`
	GroupId  string `json:"group_id,omitempty"`
}

type markReadData struct {
	MessageId string `json:"message_id"`
}

type presenceData struct {
	OnlineUserIds []string `json:"online_user_ids"`
}

type errorData struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// WSHandlers receives gateway events. Nil handlers are skipped.
// Handlers run on the connection's read goroutine; long work should be
// handed off.
type WSHandlers struct {
	OnPresence      func(onlineUserIds []string)
	OnDirectMessage func(msg *MessageInfo)
	OnGroupMessage  func(msg *MessageInfo)
	OnMessageRead   func(rcpt *ReadReceipt)
	OnError         func(err *Error)
}

// WSClient maintains a live gateway connection. It reconnects on
// failure with exponential backoff and replays the announce and every
// room join, so the server-side view converges to the pre-drop state.
type WSClient struct {
	wsURL    string
	token    string
	userId   string
	handlers WSHandlers

	mu        sync.Mutex
	conn      *websocket.Conn
	announced bool
	joined    []joinData

	ctx    context.Context
	cancel context.CancelFunc
	closed sync.Once
	done   chan struct{}
}

// DialWS connects to the gateway and starts the read loop
func DialWS(ctx context.Context, wsURL, token, userId string, handlers WSHandlers) (*WSClient, error) {
	ctx, cancel := context.WithCancel(ctx)
	w := &WSClient{
		wsURL:    wsURL,
		token:    token,
		userId:   userId,
		handlers: handlers,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	conn, err := w.dial(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	w.conn = conn

	go w.runLoop(conn)
	return w, nil
}

// DialWS connects using the REST client's credentials
func (c *Client) DialWS(ctx context.Context, handlers WSHandlers) (*WSClient, error) {
	if c.token == "" || c.userId == "" {
		return nil, fmt.Errorf("dial gateway: not logged in")
	}
	return DialWS(ctx, c.wsURL, c.token, c.userId, handlers)
}

func (w *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(w.wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	q := u.Query()
	q.Set("token", w.token)
	q.Set("user_id", w.userId)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		deadline := time.Now().Add(wsWriteWait)
		return conn.WriteControl(websocket.PongMessage, []byte(appData), deadline)
	})
	return conn, nil
}

// runLoop reads frames until the connection drops, then reconnects and
// replays session state. It exits when the client is closed.
func (w *WSClient) runLoop(conn *websocket.Conn) {
	defer close(w.done)

	for {
		w.readLoop(conn)
		conn.Close()

		if w.ctx.Err() != nil {
			return
		}

		conn = w.reconnect()
		if conn == nil {
			return
		}
	}
}

func (w *WSClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if w.ctx.Err() == nil {
				log.Warn("gateway connection lost: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		w.dispatch(data)
	}
}

func (w *WSClient) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn("gateway sent malformed frame: %v", err)
		return
	}

	switch env.Event {
	case EventPresence:
		var p presenceData
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if w.handlers.OnPresence != nil {
			w.handlers.OnPresence(p.OnlineUserIds)
		}
	case EventDirectMessage:
		var msg MessageInfo
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		if w.handlers.OnDirectMessage != nil {
			w.handlers.OnDirectMessage(&msg)
		}
	case EventGroupMessage:
		var msg MessageInfo
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return
		}
		if w.handlers.OnGroupMessage != nil {
			w.handlers.OnGroupMessage(&msg)
		}
	case EventMessageRead:
		var rcpt ReadReceipt
		if err := json.Unmarshal(env.Data, &rcpt); err != nil {
			return
		}
		if w.handlers.OnMessageRead != nil {
			w.handlers.OnMessageRead(&rcpt)
		}
	case EventError:
		var e errorData
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return
		}
		if w.handlers.OnError != nil {
			w.handlers.OnError(NewError(e.Code, e.Msg))
		}
	default:
		log.Debug("gateway sent unknown event %s", env.Event)
	}
}

// reconnect dials with backoff and replays announce and joins. It
// returns nil when the client is closed while waiting.
func (w *WSClient) reconnect() *websocket.Conn {
	backoff := wsReconnectBackoff
	for {
		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		conn, err := w.dial(w.ctx)
		if err != nil {
			log.Warn("gateway reconnect failed: %v", err)
			backoff *= 2
			if backoff > wsReconnectMax {
				backoff = wsReconnectMax
			}
			continue
		}

		w.mu.Lock()
		w.conn = conn
		announced := w.announced
		joined := make([]joinData, len(w.joined))
		copy(joined, w.joined)
		w.mu.Unlock()

		ok := true
		if announced {
			if err := w.sendEvent(EventAnnounce, nil); err != nil {
				ok = false
			}
		}
		for _, j := range joined {
			if !ok {
				break
			}
			if err := w.sendEvent(EventJoin, j); err != nil {
				ok = false
			}
		}
		if !ok {
			conn.Close()
			continue
		}

		log.Info("gateway reconnected, %d rooms rejoined", len(joined))
		return conn
	}
}

func (w *WSClient) sendEvent(event string, v interface{}) error {
	env := Envelope{Event: event}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", event, err)
		}
		env.Data = data
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return fmt.Errorf("gateway connection closed")
	}
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(websocket.TextMessage, frame)
}

// Announce declares this connection's user online. The server responds
// with a presence snapshot to every connection.
func (w *WSClient) Announce() error {
	if err := w.sendEvent(EventAnnounce, nil); err != nil {
		return err
	}
	w.mu.Lock()
	w.announced = true
	w.mu.Unlock()
	return nil
}

// JoinChat subscribes to the direct conversation with the given user
func (w *WSClient) JoinChat(peerId string) error {
	return w.join(joinData{ChatWith: peerId})
}

// JoinGroup subscribes to a group's conversation
func (w *WSClient) JoinGroup(groupId string) error {
	return w.join(joinData{GroupId: groupId})
}

func (w *WSClient) join(j joinData) error {
	if err := w.sendEvent(EventJoin, j); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, existing := range w.joined {
		if existing == j {
			return nil
		}
	}
	w.joined = append(w.joined, j)
	return nil
}

// MarkRead reports a message as read over the live connection
func (w *WSClient) MarkRead(messageId string) error {
	return w.sendEvent(EventMarkRead, markReadData{MessageId: messageId})
}

// Close shuts the connection down and stops reconnecting
func (w *WSClient) Close() error {
	w.closed.Do(func() {
		w.cancel()
		w.mu.Lock()
		conn := w.conn
		w.mu.Unlock()
		if conn != nil {
			deadline := time.Now().Add(wsWriteWait)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			conn.Close()
		}
	})
	<-w.done
	return nil
}
