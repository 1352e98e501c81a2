package entity

// ReadReceipt is broadcast to a conversation when a member marks a
// message as read. ReadBy carries the full updated set so receivers
// replace rather than merge.
type ReadReceipt struct {
	MessageId      string   `json:"message_id"`
	ConversationId string   `json:"conversation_id"`
	ChatId         string   `json:"chat_id,omitempty"`
	GroupId        string   `json:"group_id,omitempty"`
	ReaderId       string   `json:"reader_id"`
	ReadBy         []string `json:"read_by"`
}
