package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(userId, connId string) *Client {
	return NewClient(newFakeConn(), userId, connId, nil)
}

func TestRoomTableJoin(t *testing.T) {
	rt := NewRoomTable()
	c1 := newTestClient("alice", "conn-1")
	c2 := newTestClient("bob", "conn-2")

	rt.Join("dc_alice:bob", c1)
	rt.Join("dc_alice:bob", c2)

	assert.True(t, rt.InRoom("dc_alice:bob", "conn-1"))
	assert.True(t, rt.InRoom("dc_alice:bob", "conn-2"))
	assert.Len(t, rt.Members("dc_alice:bob"), 2)

	t.Run("join is idempotent", func(t *testing.T) {
		rt.Join("dc_alice:bob", c1)
		assert.Len(t, rt.Members("dc_alice:bob"), 2)
	})

	t.Run("unknown room has no members", func(t *testing.T) {
		assert.Empty(t, rt.Members("gc_nowhere"))
	})
}

func TestRoomTableDropConnection(t *testing.T) {
	rt := NewRoomTable()
	c1 := newTestClient("alice", "conn-1")
	c2 := newTestClient("bob", "conn-2")

	rt.Join("dc_alice:bob", c1)
	rt.Join("gc_g1", c1)
	rt.Join("gc_g1", c2)

	rt.DropConnection("conn-1")

	assert.False(t, rt.InRoom("dc_alice:bob", "conn-1"))
	assert.False(t, rt.InRoom("gc_g1", "conn-1"))
	assert.True(t, rt.InRoom("gc_g1", "conn-2"))

	// Room with no remaining members is discarded entirely
	assert.Equal(t, 1, rt.RoomCount())

	t.Run("drop of unknown connection is a no-op", func(t *testing.T) {
		rt.DropConnection("conn-unknown")
		assert.Equal(t, 1, rt.RoomCount())
	})
}
