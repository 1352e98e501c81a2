package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/pkg/constant"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeqRepo allocates per-conversation sequence numbers. Redis INCR is
// the source of truth for allocation; MySQL keeps a durable mirror.
type SeqRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewSeqRepo creates a new SeqRepo
func NewSeqRepo(db *gorm.DB, rdb *redis.Client) *SeqRepo {
	return &SeqRepo{db: db, rdb: rdb}
}

// AllocSeq allocates the next sequence number for a conversation. On a
// cold counter the MySQL mirror is restored first, so a flushed Redis
// never re-issues sequence numbers.
func (r *SeqRepo) AllocSeq(ctx context.Context, conversationId string) (int64, error) {
	key := fmt.Sprintf(constant.RedisKeySeqConversation(), conversationId)

	exists, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		if err := r.InitSeqFromMySQL(ctx, conversationId); err != nil {
			return 0, err
		}
	}

	seq, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// SyncSeqToMySQLWithTx syncs the Redis sequence to MySQL within a transaction
func (r *SeqRepo) SyncSeqToMySQLWithTx(ctx context.Context, tx *gorm.DB, conversationId string, maxSeq int64) error {
	seqConv := &entity.SeqConversation{
		ConversationId: conversationId,
		MaxSeq:         maxSeq,
	}

	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"max_seq"}),
	}).Create(seqConv).Error
}

// InitSeqFromMySQL restores the Redis counter from MySQL if absent
func (r *SeqRepo) InitSeqFromMySQL(ctx context.Context, conversationId string) error {
	var seqConv entity.SeqConversation
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).First(&seqConv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	key := fmt.Sprintf(constant.RedisKeySeqConversation(), conversationId)
	return r.rdb.SetNX(ctx, key, seqConv.MaxSeq, 0).Err()
}
