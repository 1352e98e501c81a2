package entity

import "errors"

// ErrConversationRefConflict is returned when a message does not
// reference exactly one of {pairwise chat, group}.
var ErrConversationRefConflict = errors.New("message must reference exactly one of chat_id and group_id")

// Message represents a persisted chat message. Exactly one of ChatId
// (pairwise conversation identifier) and GroupId is set; ConversationId
// always holds the broadcast room identifier derived from whichever one
// it is. The sender is part of ReadBy from creation.
type Message struct {
	Id             string     `json:"id" gorm:"column:id;primaryKey"`
	ConversationId string     `json:"conversation_id" gorm:"column:conversation_id;index"`
	ChatId         string     `json:"chat_id,omitempty" gorm:"column:chat_id"`
	GroupId        string     `json:"group_id,omitempty" gorm:"column:group_id"`
	Seq            int64      `json:"seq" gorm:"column:seq"`
	ClientMsgId    string     `json:"client_msg_id" gorm:"column:client_msg_id"`
	SenderId       string     `json:"sender_id" gorm:"column:sender_id"`
	Content        string     `json:"content" gorm:"column:content"`
	FileUrl        string     `json:"file_url,omitempty" gorm:"column:file_url"`
	FileType       string     `json:"file_type,omitempty" gorm:"column:file_type"`
	FileName       string     `json:"file_name,omitempty" gorm:"column:file_name"`
	ReadBy         StringList `json:"read_by" gorm:"column:read_by;type:json"`
	SentAt         int64      `json:"sent_at" gorm:"column:sent_at"`
	CreatedAt      int64      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      int64      `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// Validate checks the structural invariants of a message before persist
func (m *Message) Validate() error {
	if (m.ChatId == "") == (m.GroupId == "") {
		return ErrConversationRefConflict
	}
	if m.SenderId == "" {
		return ErrInvalidParticipant
	}
	return nil
}

// MarkReadBy appends userId to the read-by set. Returns false if the
// user was already present (idempotent).
func (m *Message) MarkReadBy(userId string) bool {
	if m.ReadBy.Contains(userId) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userId)
	return true
}

// IsReadBy reports whether userId is in the read-by set
func (m *Message) IsReadBy(userId string) bool {
	return m.ReadBy.Contains(userId)
}

// MessageInfo is the wire and API view of a message, hydrated with the
// sender's display attributes. Broadcasts always carry a fully hydrated
// MessageInfo so receivers can match on sender identity.
type MessageInfo struct {
	Id             string    `json:"id"`
	ConversationId string    `json:"conversation_id"`
	ChatId         string    `json:"chat_id,omitempty"`
	GroupId        string    `json:"group_id,omitempty"`
	Seq            int64     `json:"seq"`
	ClientMsgId    string    `json:"client_msg_id,omitempty"`
	Sender         *UserInfo `json:"sender"`
	Content        string    `json:"content"`
	FileUrl        string    `json:"file_url,omitempty"`
	FileType       string    `json:"file_type,omitempty"`
	FileName       string    `json:"file_name,omitempty"`
	ReadBy         []string  `json:"read_by"`
	SentAt         int64     `json:"sent_at"`
}

// ToInfo converts Message to MessageInfo with the given sender
func (m *Message) ToInfo(sender *UserInfo) *MessageInfo {
	return &MessageInfo{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		ChatId:         m.ChatId,
		GroupId:        m.GroupId,
		Seq:            m.Seq,
		ClientMsgId:    m.ClientMsgId,
		Sender:         sender,
		Content:        m.Content,
		FileUrl:        m.FileUrl,
		FileType:       m.FileType,
		FileName:       m.FileName,
		ReadBy:         m.ReadBy,
		SentAt:         m.SentAt,
	}
}
