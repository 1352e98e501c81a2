package sdk

// Response is the standard API response envelope
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// UserInfo is a user's public directory entry
type UserInfo struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Picture  string `json:"picture,omitempty"`
}

// Profile is the full profile view of the authenticated user
type Profile struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// GroupInfo is a group with optionally hydrated members
type GroupInfo struct {
	Id        string      `json:"id"`
	Name      string      `json:"name"`
	OwnerId   string      `json:"owner_id"`
	Picture   string      `json:"picture,omitempty"`
	Members   []*UserInfo `json:"members,omitempty"`
	CreatedAt int64       `json:"created_at"`
}

// MessageInfo is a message as delivered by the API and the gateway
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

// ReadReceipt is broadcast when a user marks a message as read
type ReadReceipt struct {
	MessageId      string   `json:"message_id"`
	ConversationId string   `json:"conversation_id"`
	ChatId         string   `json:"chat_id,omitempty"`
	GroupId        string   `json:"group_id,omitempty"`
	ReaderId       string   `json:"reader_id"`
	ReadBy         []string `json:"read_by"`
}

// RegisterRequest is the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login response body
type LoginResponse struct {
	Token   string   `json:"token"`
	Profile *Profile `json:"profile"`
}

// SendMessageRequest is the send message request body
type SendMessageRequest struct {
	RecipientId string `json:"recipient_id,omitempty"`
	GroupId     string `json:"group_id,omitempty"`
	Content     string `json:"content"`
	ClientMsgId string `json:"client_msg_id"`
	SentAt      int64  `json:"sent_at"`
}

// UpdateProfileRequest is the profile update request body
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// CreateGroupRequest is the group creation request body
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIds []string `json:"member_ids,omitempty"`
}

// ConversationMessages is the conversation fetch result
type ConversationMessages struct {
	ConversationId string         `json:"conversation_id"`
	Messages       []*MessageInfo `json:"messages"`
	Unread         int64          `json:"unread"`
}

// ResolveDirectConversation derives the pairwise conversation id the
// same way the server does: dc_{min}:{max}.
func ResolveDirectConversation(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "dc_" + a + ":" + b
}

// GroupConversationId derives a group's conversation id: gc_{groupId}
func GroupConversationId(groupId string) string {
	return "gc_" + groupId
}
