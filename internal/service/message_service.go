package service

import (
	"context"
	"errors"
	"io"

	"github.com/mbeoliero/kit/log"
	"github.com/parley-chat/parley/internal/entity"
	"github.com/parley-chat/parley/internal/repository"
	"github.com/parley-chat/parley/internal/storage"
	"github.com/parley-chat/parley/pkg/errcode"
	"github.com/parley-chat/parley/pkg/idgen"
	"github.com/parley-chat/parley/pkg/metrics"
)

// MessageService handles message-related business logic
type MessageService struct {
	msgRepo     *repository.MessageRepo
	groupRepo   *repository.GroupRepo
	userRepo    *repository.UserRepo
	store       storage.AttachmentStore
	broadcaster Broadcaster
}

// NewMessageService creates a new MessageService
func NewMessageService(repos *repository.Repositories, store storage.AttachmentStore) *MessageService {
	return &MessageService{
		msgRepo:   repos.Message,
		groupRepo: repos.Group,
		userRepo:  repos.User,
		store:     store,
	}
}

// SetBroadcaster sets the broadcaster, called once at wiring time
func (s *MessageService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Attachment is an uploaded file accompanying a message
type Attachment struct {
	Reader      io.Reader
	ContentType string
	FileName    string
	Size        int64
}

// SendMessageRequest represents send message request. Exactly one of
// RecipientId and GroupId is set. ClientMsgId is the sender-local
// identifier echoed back in broadcasts so the sender can reconcile its
// optimistic copy. SentAt is the sender's clock; zero means server time.
type SendMessageRequest struct {
	RecipientId string `json:"recipient_id,omitempty"`
	GroupId     string `json:"group_id,omitempty"`
	Content     string `json:"content"`
	ClientMsgId string `json:"client_msg_id"`
	SentAt      int64  `json:"sent_at"`

	Attachment *Attachment `json:"-"`
}

// SendDirectMessage persists a pairwise message and fans it out to the
// conversation room. Nothing is persisted or broadcast when attachment
// validation or upload fails.
func (s *MessageService) SendDirectMessage(ctx context.Context, senderId string, req *SendMessageRequest) (*entity.MessageInfo, error) {
	if req.RecipientId == "" {
		return nil, errcode.ErrInvalidParam
	}

	conversationId, err := entity.ResolveDirectConversation(senderId, req.RecipientId)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidParticipant) {
			return nil, errcode.ErrInvalidParticipant
		}
		return nil, errcode.ErrInvalidParam
	}

	exists, err := s.userRepo.Exists(ctx, req.RecipientId)
	if err != nil {
		log.CtxError(ctx, "check recipient exists failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !exists {
		return nil, errcode.ErrUserNotFound
	}

	msg, err := s.createMessage(ctx, senderId, conversationId, req, func(m *entity.Message) {
		m.ChatId = conversationId
	})
	if err != nil {
		return nil, err
	}

	info, err := s.hydrate(ctx, msg)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.AsyncPublishMessage(info)
	}
	metrics.MessagesSentTotal.WithLabelValues("direct").Inc()

	log.CtxInfo(ctx, "direct message sent: sender_id=%s, recipient_id=%s, seq=%d", senderId, req.RecipientId, msg.Seq)
	return info, nil
}

// SendGroupMessage persists a group message and fans it out to the
// group's conversation room. The sender must be a member.
func (s *MessageService) SendGroupMessage(ctx context.Context, senderId string, req *SendMessageRequest) (*entity.MessageInfo, error) {
	if req.GroupId == "" {
		return nil, errcode.ErrInvalidParam
	}

	group, err := s.groupRepo.GetById(ctx, req.GroupId)
	if err != nil {
		log.CtxError(ctx, "get group failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if group == nil {
		return nil, errcode.ErrGroupNotFound
	}

	isMember, err := s.groupRepo.IsMember(ctx, req.GroupId, senderId)
	if err != nil {
		log.CtxError(ctx, "check membership failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !isMember {
		return nil, errcode.ErrNotGroupMember
	}

	conversationId := entity.GroupConversationId(req.GroupId)

	msg, err := s.createMessage(ctx, senderId, conversationId, req, func(m *entity.Message) {
		m.GroupId = req.GroupId
	})
	if err != nil {
		return nil, err
	}

	info, err := s.hydrate(ctx, msg)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.AsyncPublishMessage(info)
	}
	metrics.MessagesSentTotal.WithLabelValues("group").Inc()

	log.CtxInfo(ctx, "group message sent: sender_id=%s, group_id=%s, seq=%d", senderId, req.GroupId, msg.Seq)
	return info, nil
}

// createMessage runs the shared send path: validate payload, upload the
// attachment if any, persist with an allocated seq. The sender starts
// in the read-by set.
func (s *MessageService) createMessage(ctx context.Context, senderId, conversationId string, req *SendMessageRequest, bind func(*entity.Message)) (*entity.Message, error) {
	if req.Content == "" && req.Attachment == nil {
		return nil, errcode.ErrEmptyMessage
	}

	// Idempotency: a retried send returns the stored message unchanged
	if req.ClientMsgId != "" {
		existing, err := s.msgRepo.GetByClientMsgId(ctx, senderId, req.ClientMsgId)
		if err != nil {
			log.CtxError(ctx, "check idempotency failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		if existing != nil {
			log.CtxDebug(ctx, "duplicate message: client_msg_id=%s", req.ClientMsgId)
			return existing, nil
		}
	}

	var fileUrl, fileType, fileName string
	if req.Attachment != nil {
		if err := storage.ValidateAttachment(req.Attachment.ContentType, req.Attachment.Size); err != nil {
			return nil, err
		}
		url, err := s.store.Upload(ctx, req.Attachment.Reader, req.Attachment.ContentType, req.Attachment.FileName, "attachments")
		if err != nil {
			log.CtxError(ctx, "upload attachment failed: sender_id=%s, error=%v", senderId, err)
			return nil, err
		}
		fileUrl = url
		fileType = req.Attachment.ContentType
		fileName = req.Attachment.FileName
	}

	msgId, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate message id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	sentAt := req.SentAt
	if sentAt == 0 {
		sentAt = entity.NowUnixMilli()
	}

	msg := &entity.Message{
		Id:             msgId,
		ConversationId: conversationId,
		ClientMsgId:    req.ClientMsgId,
		SenderId:       senderId,
		Content:        req.Content,
		FileUrl:        fileUrl,
		FileType:       fileType,
		FileName:       fileName,
		ReadBy:         entity.StringList{senderId},
		SentAt:         sentAt,
	}
	bind(msg)

	if err := msg.Validate(); err != nil {
		return nil, errcode.ErrInvalidParam.Wrap(err)
	}

	if err := s.msgRepo.Create(ctx, msg); err != nil {
		log.CtxError(ctx, "create message failed: %v", err)
		if errors.Is(err, errcode.ErrSeqAllocFailed) {
			return nil, err
		}
		return nil, errcode.ErrSendFailed
	}

	return msg, nil
}

// ConversationMessages is the fetch result for a conversation
type ConversationMessages struct {
	ConversationId string                `json:"conversation_id"`
	Messages       []*entity.MessageInfo `json:"messages"`
	Unread         int64                 `json:"unread"`
}

// GetDirectMessages fetches the pairwise conversation between the
// caller and peerId in send order, with the caller's unread count.
func (s *MessageService) GetDirectMessages(ctx context.Context, userId, peerId string, limit int) (*ConversationMessages, error) {
	conversationId, err := entity.ResolveDirectConversation(userId, peerId)
	if err != nil {
		return nil, errcode.ErrInvalidParticipant
	}
	return s.getMessages(ctx, userId, conversationId, limit)
}

// GetGroupMessages fetches a group conversation in send order. The
// caller must be a member.
func (s *MessageService) GetGroupMessages(ctx context.Context, userId, groupId string, limit int) (*ConversationMessages, error) {
	isMember, err := s.groupRepo.IsMember(ctx, groupId, userId)
	if err != nil {
		log.CtxError(ctx, "check membership failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !isMember {
		return nil, errcode.ErrNotGroupMember
	}
	return s.getMessages(ctx, userId, entity.GroupConversationId(groupId), limit)
}

func (s *MessageService) getMessages(ctx context.Context, userId, conversationId string, limit int) (*ConversationMessages, error) {
	messages, err := s.msgRepo.ListByConversation(ctx, conversationId, limit)
	if err != nil {
		log.CtxError(ctx, "list messages failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos, err := s.hydrateAll(ctx, messages)
	if err != nil {
		return nil, err
	}

	unread, err := s.msgRepo.CountUnread(ctx, conversationId, userId)
	if err != nil {
		log.CtxError(ctx, "count unread failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	return &ConversationMessages{
		ConversationId: conversationId,
		Messages:       infos,
		Unread:         unread,
	}, nil
}

// MarkMessageRead adds the caller to the message's read-by set and
// broadcasts a read receipt to the conversation. Marking a message the
// caller already read is a no-op and broadcasts nothing.
func (s *MessageService) MarkMessageRead(ctx context.Context, userId, messageId string) (*entity.ReadReceipt, error) {
	msg, err := s.msgRepo.GetById(ctx, messageId)
	if err != nil {
		log.CtxError(ctx, "get message failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if msg == nil {
		return nil, errcode.ErrMessageNotFound
	}

	if err := s.checkConversationAccess(ctx, userId, msg.ConversationId); err != nil {
		return nil, err
	}

	if !msg.MarkReadBy(userId) {
		// Already read, nothing changed
		return &entity.ReadReceipt{
			MessageId:      msg.Id,
			ConversationId: msg.ConversationId,
			ChatId:         msg.ChatId,
			GroupId:        msg.GroupId,
			ReaderId:       userId,
			ReadBy:         msg.ReadBy,
		}, nil
	}

	if err := s.msgRepo.UpdateReadBy(ctx, msg.Id, msg.ReadBy); err != nil {
		log.CtxError(ctx, "update read_by failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	rcpt := &entity.ReadReceipt{
		MessageId:      msg.Id,
		ConversationId: msg.ConversationId,
		ChatId:         msg.ChatId,
		GroupId:        msg.GroupId,
		ReaderId:       userId,
		ReadBy:         msg.ReadBy,
	}

	if s.broadcaster != nil {
		s.broadcaster.AsyncPublishReadReceipt(rcpt)
	}

	log.CtxDebug(ctx, "message read: message_id=%s, reader_id=%s", msg.Id, userId)
	return rcpt, nil
}

// CanAccessConversation verifies the user participates in a conversation
func (s *MessageService) CanAccessConversation(ctx context.Context, userId, conversationId string) error {
	return s.checkConversationAccess(ctx, userId, conversationId)
}

// checkConversationAccess verifies the user participates in a conversation
func (s *MessageService) checkConversationAccess(ctx context.Context, userId, conversationId string) error {
	if a, b, ok := entity.DirectConversationPeers(conversationId); ok {
		if a == userId || b == userId {
			return nil
		}
		return errcode.ErrNotParticipant
	}

	if groupId, ok := entity.GroupIdFromConversation(conversationId); ok {
		isMember, err := s.groupRepo.IsMember(ctx, groupId, userId)
		if err != nil {
			log.CtxError(ctx, "check membership failed: %v", err)
			return errcode.ErrInternalServer
		}
		if !isMember {
			return errcode.ErrNotParticipant
		}
		return nil
	}

	return errcode.ErrConvNotFound
}

// hydrate attaches the sender's display attributes to a message
func (s *MessageService) hydrate(ctx context.Context, msg *entity.Message) (*entity.MessageInfo, error) {
	sender, err := s.userRepo.GetById(ctx, msg.SenderId)
	if err != nil {
		log.CtxError(ctx, "get sender failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if sender == nil {
		return msg.ToInfo(&entity.UserInfo{Id: msg.SenderId}), nil
	}
	return msg.ToInfo(sender.ToUserInfo()), nil
}

// hydrateAll attaches sender attributes to a message list with one
// batched user lookup.
func (s *MessageService) hydrateAll(ctx context.Context, messages []*entity.Message) ([]*entity.MessageInfo, error) {
	if len(messages) == 0 {
		return []*entity.MessageInfo{}, nil
	}

	seen := make(map[string]struct{})
	senderIds := make([]string, 0)
	for _, msg := range messages {
		if _, ok := seen[msg.SenderId]; !ok {
			seen[msg.SenderId] = struct{}{}
			senderIds = append(senderIds, msg.SenderId)
		}
	}

	users, err := s.userRepo.GetByIds(ctx, senderIds)
	if err != nil {
		log.CtxError(ctx, "get senders failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	byId := make(map[string]*entity.UserInfo, len(users))
	for _, user := range users {
		byId[user.Id] = user.ToUserInfo()
	}

	infos := make([]*entity.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		infos = append(infos, msg.ToInfo(byId[msg.SenderId]))
	}
	return infos, nil
}
