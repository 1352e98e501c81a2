package gateway

import "time"

// Inbound event names
const (
	EventAnnounce = "announce"
	EventJoin     = "join"
	EventMarkRead = "mark_read"
)

// Outbound event names
const (
	EventPresence      = "presence"
	EventDirectMessage = "direct_message"
	EventGroupMessage  = "group_message"
	EventMessageRead   = "message_read"
	EventError         = "error"
)

// Timeout constants
const (
	// WriteWait is time allowed to write a message to the peer
	WriteWait = 10 * time.Second

	// PongWait is time allowed to read the next pong message from the peer
	PongWait = 30 * time.Second

	// PingPeriod is period between pings. Must be less than PongWait
	PingPeriod = (PongWait * 9) / 10

	// MaxMessageSize is maximum message size allowed from peer
	MaxMessageSize = 51200
)

// Query parameter keys
const (
	QueryToken  = "token"
	QueryUserId = "user_id"
)
