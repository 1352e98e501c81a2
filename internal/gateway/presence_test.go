package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/parley-chat/parley/pkg/constant"
)

func TestPresenceRefcount(t *testing.T) {
	ctx := context.Background()
	p := NewPresenceRegistry(nil)

	t.Run("first connection brings user online", func(t *testing.T) {
		assert.True(t, p.MarkOnline(ctx, "alice"))
		assert.True(t, p.IsOnline("alice"))
	})

	t.Run("second connection is not a transition", func(t *testing.T) {
		assert.False(t, p.MarkOnline(ctx, "alice"))
		assert.True(t, p.IsOnline("alice"))
	})

	t.Run("dropping one of two connections keeps user online", func(t *testing.T) {
		assert.False(t, p.MarkOffline(ctx, "alice"))
		assert.True(t, p.IsOnline("alice"))
	})

	t.Run("last connection takes user offline", func(t *testing.T) {
		assert.True(t, p.MarkOffline(ctx, "alice"))
		assert.False(t, p.IsOnline("alice"))
	})

	t.Run("offline for unknown user is a no-op", func(t *testing.T) {
		assert.False(t, p.MarkOffline(ctx, "ghost"))
	})
}

func TestPresenceSnapshot(t *testing.T) {
	ctx := context.Background()
	p := NewPresenceRegistry(nil)

	p.MarkOnline(ctx, "carol")
	p.MarkOnline(ctx, "alice")
	p.MarkOnline(ctx, "bob")
	p.MarkOnline(ctx, "alice") // second connection, counted once

	assert.Equal(t, []string{"alice", "bob", "carol"}, p.Snapshot())
	assert.Equal(t, 3, p.OnlineUserCount())

	p.MarkOffline(ctx, "bob")
	assert.Equal(t, []string{"alice", "carol"}, p.Snapshot())
}

func TestPresenceRedisMirror(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p := NewPresenceRegistry(rdb)
	aliceKey := fmt.Sprintf(constant.RedisKeyOnline(), "alice")

	p.MarkOnline(ctx, "alice")
	assert.True(t, mr.Exists(aliceKey))

	// A pong halfway through the TTL window restores the full TTL
	mr.FastForward(30 * time.Second)
	p.RefreshOnlineStatus(ctx, "alice")
	assert.Equal(t, 60*time.Second, mr.TTL(aliceKey))

	// Refresh never creates a key for a user without live connections
	p.RefreshOnlineStatus(ctx, "bob")
	assert.False(t, mr.Exists(fmt.Sprintf(constant.RedisKeyOnline(), "bob")))

	p.MarkOffline(ctx, "alice")
	assert.False(t, mr.Exists(aliceKey))
}
