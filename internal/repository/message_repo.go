package repository

import (
	"context"
	"errors"

	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db  *gorm.DB
	rdb *redis.Client
	seq *SeqRepo
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB, rdb *redis.Client, seq *SeqRepo) *MessageRepo {
	return &MessageRepo{db: db, rdb: rdb, seq: seq}
}

// Create allocates the conversation sequence, persists the message and
// syncs the counter mirror inside a single transaction.
func (r *MessageRepo) Create(ctx context.Context, msg *entity.Message) error {
	seq, err := r.seq.AllocSeq(ctx, msg.ConversationId)
	if err != nil {
		return errcode.ErrSeqAllocFailed.Wrap(err)
	}
	msg.Seq = seq

	now := entity.NowUnixMilli()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return r.seq.SyncSeqToMySQLWithTx(ctx, tx, msg.ConversationId, seq)
	})
}

// GetById gets message by Id, returns nil if not found
func (r *MessageRepo) GetById(ctx context.Context, id string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// GetByClientMsgId gets message by sender_id and client_msg_id (for idempotency check)
func (r *MessageRepo) GetByClientMsgId(ctx context.Context, senderId, clientMsgId string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND client_msg_id = ?", senderId, clientMsgId).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListByConversation lists messages of a conversation in seq order.
// limit is capped at 200.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationId string, limit int) ([]*entity.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	var messages []*entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("seq DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to ascending order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// UpdateReadBy persists the read-by set of a message
func (r *MessageRepo) UpdateReadBy(ctx context.Context, id string, readBy entity.StringList) error {
	return r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"read_by":    readBy,
			"updated_at": entity.NowUnixMilli(),
		}).Error
}

// CountUnread counts messages in a conversation whose read-by set does
// not contain userId. The sender is always in read_by, so own messages
// are never counted.
func (r *MessageRepo) CountUnread(ctx context.Context, conversationId, userId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND NOT JSON_CONTAINS(read_by, JSON_QUOTE(?))", conversationId, userId).
		Count(&count).Error
	return count, err
}
