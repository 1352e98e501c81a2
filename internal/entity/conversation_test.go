package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirectConversation(t *testing.T) {
	t.Run("orders participants", func(t *testing.T) {
		id, err := ResolveDirectConversation("bob", "alice")
		require.NoError(t, err)
		assert.Equal(t, "dc_alice:bob", id)
	})

	t.Run("commutative", func(t *testing.T) {
		a, err := ResolveDirectConversation("u1", "u2")
		require.NoError(t, err)
		b, err := ResolveDirectConversation("u2", "u1")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("self conversation", func(t *testing.T) {
		id, err := ResolveDirectConversation("alice", "alice")
		require.NoError(t, err)
		assert.Equal(t, "dc_alice:alice", id)
	})

	t.Run("rejects empty participant", func(t *testing.T) {
		_, err := ResolveDirectConversation("", "bob")
		assert.ErrorIs(t, err, ErrInvalidParticipant)

		_, err = ResolveDirectConversation("alice", "")
		assert.ErrorIs(t, err, ErrInvalidParticipant)
	})

	t.Run("rejects separator in participant", func(t *testing.T) {
		_, err := ResolveDirectConversation("al:ice", "bob")
		assert.ErrorIs(t, err, ErrInvalidParticipant)
	})
}

func TestDirectConversationPeers(t *testing.T) {
	id, err := ResolveDirectConversation("bob", "alice")
	require.NoError(t, err)

	a, b, ok := DirectConversationPeers(id)
	require.True(t, ok)
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)

	t.Run("rejects group id", func(t *testing.T) {
		_, _, ok := DirectConversationPeers("gc_g1")
		assert.False(t, ok)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		_, _, ok := DirectConversationPeers("dc_alicebob")
		assert.False(t, ok)
	})
}

func TestGroupConversationId(t *testing.T) {
	id := GroupConversationId("g42")
	assert.Equal(t, "gc_g42", id)

	groupId, ok := GroupIdFromConversation(id)
	require.True(t, ok)
	assert.Equal(t, "g42", groupId)

	_, ok = GroupIdFromConversation("dc_a:b")
	assert.False(t, ok)
}

func TestConversationKind(t *testing.T) {
	assert.True(t, IsDirectConversation("dc_a:b"))
	assert.False(t, IsDirectConversation("gc_g1"))
	assert.True(t, IsGroupConversation("gc_g1"))
	assert.False(t, IsGroupConversation("dc_a:b"))
}
