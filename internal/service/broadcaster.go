package service

import "github.com/parley-chat/parley/internal/entity"

// Broadcaster delivers events to the live connections joined to a
// conversation. Implemented by the gateway; services hold it behind
// this interface so the dependency points one way.
type Broadcaster interface {
	// AsyncPublishMessage fans a new message out to the conversation room
	AsyncPublishMessage(msg *entity.MessageInfo)
	// AsyncPublishReadReceipt fans a read receipt out to the conversation room
	AsyncPublishReadReceipt(rcpt *entity.ReadReceipt)
}
