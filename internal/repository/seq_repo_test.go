package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parley-chat/parley/internal/entity"
)

func newSeqTestRepo(t *testing.T) (*SeqRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.SeqConversation{}))

	return NewSeqRepo(db, rdb), mr
}

func TestAllocSeqStartsAtOne(t *testing.T) {
	repo, _ := newSeqTestRepo(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		seq, err := repo.AllocSeq(ctx, "dc_alice:bob")
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}
}

func TestAllocSeqConversationsAreIndependent(t *testing.T) {
	repo, _ := newSeqTestRepo(t)
	ctx := context.Background()

	seq, err := repo.AllocSeq(ctx, "dc_alice:bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = repo.AllocSeq(ctx, "gc_g1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestAllocSeqRestoresMirrorAfterFlush(t *testing.T) {
	repo, mr := newSeqTestRepo(t)
	ctx := context.Background()

	var seq int64
	var err error
	for i := 0; i < 3; i++ {
		seq, err = repo.AllocSeq(ctx, "dc_alice:bob")
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), seq)
	require.NoError(t, repo.SyncSeqToMySQLWithTx(ctx, repo.db, "dc_alice:bob", seq))

	// Simulate a cache loss; allocation must continue past the mirror
	mr.FlushAll()

	seq, err = repo.AllocSeq(ctx, "dc_alice:bob")
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}

func TestAllocSeqColdStartWithSeededMirror(t *testing.T) {
	repo, _ := newSeqTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.db.Create(&entity.SeqConversation{
		ConversationId: "gc_g1",
		MaxSeq:         7,
	}).Error)

	seq, err := repo.AllocSeq(ctx, "gc_g1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), seq)
}
