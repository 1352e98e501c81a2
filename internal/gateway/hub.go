package gateway

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// Hub owns the live connections: registration, presence, conversation
// rooms and the async fan-out queue. It implements service.Broadcaster.
type Hub struct {
	cfg            *config.Config
	presence       *PresenceRegistry
	rooms          *RoomTable
	clientsMu      sync.RWMutex
	clients        map[string]*Client // connId -> client
	registerChan   chan *Client
	unregisterChan chan *Client
	pushChan       chan *PushTask
	msgService     *service.MessageService
	onlineConnNum  atomic.Int64
	maxConnNum     int64
}

// PushTask is one queued fan-out. RoomId selects the target room; an
// empty RoomId addresses every live connection (presence broadcasts).
type PushTask struct {
	RoomId string
	Event  string
	Data   []byte
}

// NewHub creates a new Hub
func NewHub(cfg *config.Config, rdb *redis.Client, msgService *service.MessageService) *Hub {
	return &Hub{
		cfg:            cfg,
		presence:       NewPresenceRegistry(rdb),
		rooms:          NewRoomTable(),
		clients:        make(map[string]*Client),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		pushChan:       make(chan *PushTask, cfg.WebSocket.PushChannelSize),
		msgService:     msgService,
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}
}

// Run starts the hub loops
func (h *Hub) Run(ctx context.Context) {
	go h.eventLoop(ctx)

	workerNum := h.cfg.WebSocket.PushWorkerNum
	if workerNum <= 0 {
		workerNum = 10
	}
	for i := 0; i < workerNum; i++ {
		go h.pushLoop(ctx)
	}
	log.Info("started %d push workers", workerNum)
}

// eventLoop handles client registration and unregistration
func (h *Hub) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.registerChan:
			h.registerClient(ctx, client)
		case client := <-h.unregisterChan:
			h.unregisterClient(ctx, client)
		}
	}
}

// pushLoop drains the fan-out queue
func (h *Hub) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-h.pushChan:
			h.processPushTask(ctx, task)
		}
	}
}

// processPushTask delivers one queued event. A room with no joined
// connections drops the event silently.
func (h *Hub) processPushTask(ctx context.Context, task *PushTask) {
	var targets []*Client
	if task.RoomId == "" {
		targets = h.allClients()
	} else {
		targets = h.rooms.Members(task.RoomId)
	}

	if len(targets) == 0 {
		return
	}

	for _, client := range targets {
		if client.IsClosed() {
			continue
		}
		if err := client.PushRaw(task.Data); err != nil {
			log.CtxDebug(ctx, "push to client failed: user_id=%s, conn_id=%s, error=%v", client.UserId, client.ConnId, err)
		}
	}

	metrics.BroadcastsTotal.WithLabelValues(task.Event).Inc()
}

// registerClient registers a connection. Presence is not affected until
// the client announces itself.
func (h *Hub) registerClient(ctx context.Context, client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ConnId] = client
	h.clientsMu.Unlock()

	h.onlineConnNum.Add(1)
	metrics.OnlineConns.Inc()

	log.CtxInfo(ctx, "client registered: user_id=%s, conn_id=%s, online_conns=%d",
		client.UserId, client.ConnId, h.onlineConnNum.Load())
}

// unregisterClient removes a connection, discards its room memberships
// and, when this was the user's last announced connection, broadcasts
// the updated presence snapshot.
func (h *Hub) unregisterClient(ctx context.Context, client *Client) {
	h.clientsMu.Lock()
	delete(h.clients, client.ConnId)
	h.clientsMu.Unlock()

	h.rooms.DropConnection(client.ConnId)
	h.onlineConnNum.Add(-1)
	metrics.OnlineConns.Dec()

	wentOffline := false
	if client.announced.Load() {
		wentOffline = h.presence.MarkOffline(ctx, client.UserId)
	}
	if wentOffline {
		metrics.OnlineUsers.Set(float64(h.presence.OnlineUserCount()))
		h.broadcastPresence()
	}

	log.CtxInfo(ctx, "client unregistered: user_id=%s, conn_id=%s, user_offline=%v, online_conns=%d",
		client.UserId, client.ConnId, wentOffline, h.onlineConnNum.Load())
}

// UnregisterClient queues client for unregistration
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: user_id=%s", client.UserId)
	}
}

// HandleAnnounce marks the connection's user online and broadcasts the
// full presence snapshot to every live connection. Announcing twice, or
// from a second connection of the same user, re-broadcasts the same set.
func (h *Hub) HandleAnnounce(ctx context.Context, client *Client) error {
	if client.announced.CompareAndSwap(false, true) {
		h.presence.MarkOnline(ctx, client.UserId)
		metrics.OnlineUsers.Set(float64(h.presence.OnlineUserCount()))
	}

	h.broadcastPresence()
	log.CtxDebug(ctx, "announce: user_id=%s, online_users=%d", client.UserId, h.presence.OnlineUserCount())
	return nil
}

// HandleJoin subscribes the connection to a conversation room
func (h *Hub) HandleJoin(ctx context.Context, client *Client, data *JoinData) error {
	var conversationId string

	switch {
	case data.ChatWith != "":
		id, err := entity.ResolveDirectConversation(client.UserId, data.ChatWith)
		if err != nil {
			return errcode.ErrInvalidParticipant
		}
		conversationId = id
	case data.GroupId != "":
		conversationId = entity.GroupConversationId(data.GroupId)
		if err := h.msgService.CanAccessConversation(ctx, client.UserId, conversationId); err != nil {
			return err
		}
	default:
		return ErrInvalidProtocol
	}

	h.rooms.Join(conversationId, client)
	log.CtxDebug(ctx, "joined room: user_id=%s, conversation_id=%s", client.UserId, conversationId)
	return nil
}

// HandleMarkRead records a read receipt. The service broadcasts the
// receipt back through the hub when the read-by set actually changed.
func (h *Hub) HandleMarkRead(ctx context.Context, client *Client, data *MarkReadData) error {
	if data.MessageId == "" {
		return errcode.ErrInvalidParam
	}
	_, err := h.msgService.MarkMessageRead(ctx, client.UserId, data.MessageId)
	return err
}

// AsyncPublishMessage queues a new message for fan-out to its
// conversation room. Implements service.Broadcaster.
func (h *Hub) AsyncPublishMessage(msg *entity.MessageInfo) {
	event := EventDirectMessage
	if msg.GroupId != "" {
		event = EventGroupMessage
	}

	data, err := EncodeEvent(event, msg)
	if err != nil {
		log.Warn("encode message event failed: message_id=%s, error=%v", msg.Id, err)
		return
	}

	h.enqueue(&PushTask{RoomId: msg.ConversationId, Event: event, Data: data})
}

// AsyncPublishReadReceipt queues a read receipt for fan-out to its
// conversation room. Implements service.Broadcaster.
func (h *Hub) AsyncPublishReadReceipt(rcpt *entity.ReadReceipt) {
	data, err := EncodeEvent(EventMessageRead, rcpt)
	if err != nil {
		log.Warn("encode receipt event failed: message_id=%s, error=%v", rcpt.MessageId, err)
		return
	}

	h.enqueue(&PushTask{RoomId: rcpt.ConversationId, Event: EventMessageRead, Data: data})
}

// broadcastPresence queues the full online snapshot for every connection
func (h *Hub) broadcastPresence() {
	data, err := EncodeEvent(EventPresence, &PresenceData{OnlineUserIds: h.presence.Snapshot()})
	if err != nil {
		log.Warn("encode presence event failed: %v", err)
		return
	}

	h.enqueue(&PushTask{RoomId: "", Event: EventPresence, Data: data})
}

// enqueue adds a task to the push queue, dropping when full
func (h *Hub) enqueue(task *PushTask) {
	select {
	case h.pushChan <- task:
	default:
		metrics.DroppedPushesTotal.Inc()
		log.Warn("push channel full, event dropped: event=%s, room_id=%s", task.Event, task.RoomId)
	}
}

// allClients returns a copy of every live connection
func (h *Hub) allClients() []*Client {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// Presence exposes the presence registry (used by handlers)
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

// Rooms exposes the room table
func (h *Hub) Rooms() *RoomTable {
	return h.rooms
}

// OnlineConnCount returns the live connection count
func (h *Hub) OnlineConnCount() int64 {
	return h.onlineConnNum.Load()
}
