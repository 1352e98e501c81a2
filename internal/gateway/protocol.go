package gateway

import "encoding/json"

// Envelope is the wire frame for every WebSocket message in both
// directions: an event name plus an event-specific JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeEvent builds a wire frame for an outbound event
func EncodeEvent(event string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{Event: event, Data: data})
}

// JoinData is the payload of the join event. Exactly one of ChatWith
// (peer user id of a pairwise chat) and GroupId is set.
type JoinData struct {
	ChatWith string `json:"chat_with,omitempty"`
	GroupId  string `json:"group_id,omitempty"`
}

// MarkReadData is the payload of the mark_read event
type MarkReadData struct {
	MessageId string `json:"message_id"`
}

// PresenceData is the payload of the presence event: the complete set
// of currently online user ids, not a delta.
type PresenceData struct {
	OnlineUserIds []string `json:"online_user_ids"`
}

// ErrorData is the payload of the error event
type ErrorData struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
