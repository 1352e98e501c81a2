package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/parley-chat/parley/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// PresenceRegistry tracks which users are online. A user with several
// live connections is counted once: the registry refcounts connections
// per user and only reports a transition on 0->1 and 1->0.
type PresenceRegistry struct {
	mu    sync.RWMutex
	conns map[string]int // userId -> live connection count
	rdb   *redis.Client
}

// NewPresenceRegistry creates a new PresenceRegistry
func NewPresenceRegistry(rdb *redis.Client) *PresenceRegistry {
	return &PresenceRegistry{
		conns: make(map[string]int),
		rdb:   rdb,
	}
}

// MarkOnline records one more live connection for userId. Returns true
// when this is the user's first connection, i.e. they just came online.
func (p *PresenceRegistry) MarkOnline(ctx context.Context, userId string) bool {
	p.mu.Lock()
	p.conns[userId]++
	first := p.conns[userId] == 1
	p.mu.Unlock()

	if first {
		p.setOnline(ctx, userId)
	}
	return first
}

// MarkOffline records one less live connection for userId. Returns true
// when this was the user's last connection, i.e. they just went offline.
func (p *PresenceRegistry) MarkOffline(ctx context.Context, userId string) bool {
	p.mu.Lock()
	n, exists := p.conns[userId]
	if !exists {
		p.mu.Unlock()
		return false
	}
	n--
	last := n == 0
	if last {
		delete(p.conns, userId)
	} else {
		p.conns[userId] = n
	}
	p.mu.Unlock()

	if last {
		p.setOffline(ctx, userId)
	}
	return last
}

// IsOnline checks if user has at least one live connection
func (p *PresenceRegistry) IsOnline(userId string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conns[userId] > 0
}

// Snapshot returns the complete sorted set of online user ids
func (p *PresenceRegistry) Snapshot() []string {
	p.mu.RLock()
	userIds := make([]string, 0, len(p.conns))
	for userId := range p.conns {
		userIds = append(userIds, userId)
	}
	p.mu.RUnlock()

	sort.Strings(userIds)
	return userIds
}

// OnlineUserCount returns the number of distinct online users
func (p *PresenceRegistry) OnlineUserCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

// setOnline mirrors online status to Redis for multi-instance visibility
func (p *PresenceRegistry) setOnline(ctx context.Context, userId string) {
	if p.rdb == nil {
		return
	}
	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	p.rdb.Set(ctx, key, "1", 60*time.Second)
}

// setOffline clears online status in Redis
func (p *PresenceRegistry) setOffline(ctx context.Context, userId string) {
	if p.rdb == nil {
		return
	}
	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	p.rdb.Del(ctx, key)
}

// RefreshOnlineStatus extends the Redis online TTL for userId
func (p *PresenceRegistry) RefreshOnlineStatus(ctx context.Context, userId string) {
	if p.rdb == nil {
		return
	}
	if p.IsOnline(userId) {
		key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
		p.rdb.Expire(ctx, key, 60*time.Second)
	}
}
