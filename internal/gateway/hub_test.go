package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/pkg/errcode"
)

// fakeConn is an in-memory ClientConn recording every written frame
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	select {} // tests never read through the fake
}

func (f *fakeConn) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) envelopes(t *testing.T) []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		out = append(out, env)
	}
	return out
}

func (f *fakeConn) lastEvent(t *testing.T, event string) (json.RawMessage, bool) {
	envs := f.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Event == event {
			return envs[i].Data, true
		}
	}
	return nil, false
}

func newTestHub() *Hub {
	cfg := &config.Config{}
	cfg.WebSocket.MaxConnNum = 100
	cfg.WebSocket.PushChannelSize = 64
	cfg.WebSocket.PushWorkerNum = 1
	return NewHub(cfg, nil, nil)
}

// drainPushes runs every queued fan-out synchronously
func drainPushes(h *Hub) {
	ctx := context.Background()
	for {
		select {
		case task := <-h.pushChan:
			h.processPushTask(ctx, task)
		default:
			return
		}
	}
}

func addClient(h *Hub, userId, connId string) (*Client, *fakeConn) {
	conn := newFakeConn()
	client := NewClient(conn, userId, connId, h)
	h.registerClient(context.Background(), client)
	return client, conn
}

func TestHubAnnouncePresence(t *testing.T) {
	ctx := context.Background()
	h := newTestHub()

	alice, aliceConn := addClient(h, "alice", "conn-a")
	_, bobConn := addClient(h, "bob", "conn-b")

	// Registration alone does not affect presence
	assert.Equal(t, 0, h.Presence().OnlineUserCount())

	require.NoError(t, h.HandleAnnounce(ctx, alice))
	drainPushes(h)

	// Every connection receives the snapshot, announced or not
	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		data, ok := conn.lastEvent(t, EventPresence)
		require.True(t, ok)

		var p PresenceData
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, []string{"alice"}, p.OnlineUserIds)
	}

	t.Run("repeat announce re-broadcasts the same set", func(t *testing.T) {
		require.NoError(t, h.HandleAnnounce(ctx, alice))
		drainPushes(h)
		assert.Equal(t, 1, h.Presence().OnlineUserCount())

		data, ok := bobConn.lastEvent(t, EventPresence)
		require.True(t, ok)
		var p PresenceData
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, []string{"alice"}, p.OnlineUserIds)
	})
}

func TestHubOfflineBroadcast(t *testing.T) {
	ctx := context.Background()
	h := newTestHub()

	alice1, _ := addClient(h, "alice", "conn-a1")
	alice2, _ := addClient(h, "alice", "conn-a2")
	_, bobConn := addClient(h, "bob", "conn-b")

	require.NoError(t, h.HandleAnnounce(ctx, alice1))
	require.NoError(t, h.HandleAnnounce(ctx, alice2))
	drainPushes(h)
	assert.Equal(t, 1, h.Presence().OnlineUserCount())

	t.Run("closing one of two connections keeps user online", func(t *testing.T) {
		h.unregisterClient(ctx, alice1)
		drainPushes(h)

		assert.True(t, h.Presence().IsOnline("alice"))
		data, ok := bobConn.lastEvent(t, EventPresence)
		require.True(t, ok)
		var p PresenceData
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, []string{"alice"}, p.OnlineUserIds)
	})

	t.Run("closing the last connection broadcasts the offline set", func(t *testing.T) {
		h.unregisterClient(ctx, alice2)
		drainPushes(h)

		assert.False(t, h.Presence().IsOnline("alice"))
		data, ok := bobConn.lastEvent(t, EventPresence)
		require.True(t, ok)
		var p PresenceData
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Empty(t, p.OnlineUserIds)
	})
}

func TestHubUnannouncedDisconnect(t *testing.T) {
	ctx := context.Background()
	h := newTestHub()

	alice, _ := addClient(h, "alice", "conn-a")
	_, bobConn := addClient(h, "bob", "conn-b")

	// A connection that never announced does not produce presence traffic
	h.unregisterClient(ctx, alice)
	drainPushes(h)

	_, ok := bobConn.lastEvent(t, EventPresence)
	assert.False(t, ok)
}

func TestHubJoinDirect(t *testing.T) {
	ctx := context.Background()
	h := newTestHub()

	alice, _ := addClient(h, "alice", "conn-a")

	require.NoError(t, h.HandleJoin(ctx, alice, &JoinData{ChatWith: "bob"}))
	assert.True(t, h.Rooms().InRoom("dc_alice:bob", "conn-a"))

	t.Run("rejects invalid peer", func(t *testing.T) {
		err := h.HandleJoin(ctx, alice, &JoinData{ChatWith: "b:ob"})
		assert.ErrorIs(t, err, errcode.ErrInvalidParticipant)
	})

	t.Run("rejects empty join", func(t *testing.T) {
		err := h.HandleJoin(ctx, alice, &JoinData{})
		assert.ErrorIs(t, err, ErrInvalidProtocol)
	})
}

func TestHubMessageFanOut(t *testing.T) {
	ctx := context.Background()
	h := newTestHub()

	alice, aliceConn := addClient(h, "alice", "conn-a")
	bob, bobConn := addClient(h, "bob", "conn-b")
	_, carolConn := addClient(h, "carol", "conn-c")

	require.NoError(t, h.HandleJoin(ctx, alice, &JoinData{ChatWith: "bob"}))
	require.NoError(t, h.HandleJoin(ctx, bob, &JoinData{ChatWith: "alice"}))

	msg := &entity.MessageInfo{
		Id:             "m1",
		ConversationId: "dc_alice:bob",
		ChatId:         "dc_alice:bob",
		Sender:         &entity.UserInfo{Id: "alice", Username: "alice"},
		Content:        "hello",
		ReadBy:         []string{"alice"},
	}
	h.AsyncPublishMessage(msg)
	drainPushes(h)

	// Both room members receive the message, including the sender's echo
	for _, conn := range []*fakeConn{aliceConn, bobConn} {
		data, ok := conn.lastEvent(t, EventDirectMessage)
		require.True(t, ok)

		var got entity.MessageInfo
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "m1", got.Id)
		assert.Equal(t, "hello", got.Content)
	}

	// Carol never joined the room
	_, ok := carolConn.lastEvent(t, EventDirectMessage)
	assert.False(t, ok)

	t.Run("group messages use the group event", func(t *testing.T) {
		h.Rooms().Join("gc_g1", bob)
		h.AsyncPublishMessage(&entity.MessageInfo{
			Id:             "m2",
			ConversationId: "gc_g1",
			GroupId:        "g1",
			Sender:         &entity.UserInfo{Id: "alice"},
			Content:        "hey group",
		})
		drainPushes(h)

		_, ok := bobConn.lastEvent(t, EventGroupMessage)
		assert.True(t, ok)
	})

	t.Run("room with no members drops silently", func(t *testing.T) {
		h.AsyncPublishMessage(&entity.MessageInfo{
			Id:             "m3",
			ConversationId: "dc_nobody:visits",
			ChatId:         "dc_nobody:visits",
			Sender:         &entity.UserInfo{Id: "nobody"},
			Content:        "void",
		})
		drainPushes(h)
	})

	t.Run("closed connection in the room is skipped", func(t *testing.T) {
		require.NoError(t, bob.Close())

		h.AsyncPublishMessage(&entity.MessageInfo{
			Id:             "m4",
			ConversationId: "dc_alice:bob",
			ChatId:         "dc_alice:bob",
			Sender:         &entity.UserInfo{Id: "alice"},
			Content:        "still here?",
		})
		drainPushes(h)

		data, ok := aliceConn.lastEvent(t, EventDirectMessage)
		require.True(t, ok)
		var got entity.MessageInfo
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "m4", got.Id)

		for _, env := range bobConn.envelopes(t) {
			var m entity.MessageInfo
			if env.Event == EventDirectMessage {
				require.NoError(t, json.Unmarshal(env.Data, &m))
				assert.NotEqual(t, "m4", m.Id)
			}
		}
	})
}

func TestHubReadReceiptFanOut(t *testing.T) {
	ctx := context.Background()
	h := newTestHub()

	alice, aliceConn := addClient(h, "alice", "conn-a")
	require.NoError(t, h.HandleJoin(ctx, alice, &JoinData{ChatWith: "bob"}))

	h.AsyncPublishReadReceipt(&entity.ReadReceipt{
		MessageId:      "m1",
		ConversationId: "dc_alice:bob",
		ChatId:         "dc_alice:bob",
		ReaderId:       "bob",
		ReadBy:         []string{"alice", "bob"},
	})
	drainPushes(h)

	data, ok := aliceConn.lastEvent(t, EventMessageRead)
	require.True(t, ok)

	var rcpt entity.ReadReceipt
	require.NoError(t, json.Unmarshal(data, &rcpt))
	assert.Equal(t, "m1", rcpt.MessageId)
	assert.Equal(t, "bob", rcpt.ReaderId)
	assert.Equal(t, []string{"alice", "bob"}, rcpt.ReadBy)
}

func TestHubMarkReadValidation(t *testing.T) {
	ctx := context.Background()
	h := newTestHub()
	alice, _ := addClient(h, "alice", "conn-a")

	err := h.HandleMarkRead(ctx, alice, &MarkReadData{})
	assert.ErrorIs(t, err, errcode.ErrInvalidParam)
}
