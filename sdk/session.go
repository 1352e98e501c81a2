package sdk

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TempIdPrefix marks locally assigned message ids awaiting confirmation
const TempIdPrefix = "tmp-"

// DeliveryOutcome describes what OnMessage did with a broadcast
type DeliveryOutcome int

const (
	// OutcomeAppended means the message was new and added to the timeline
	OutcomeAppended DeliveryOutcome = iota
	// OutcomeReconciled means the message replaced the sender's own
	// optimistic copy in place
	OutcomeReconciled
	// OutcomeDuplicate means the message was already present and dropped
	OutcomeDuplicate
	// OutcomeUnread means the message belongs to a conversation that is
	// not open and only bumped its unread counter
	OutcomeUnread
	// OutcomeIgnored means the message required no state change
	OutcomeIgnored
)

// Session is the client-side view of one user's chat state: the open
// conversation's timeline with optimistic sends reconciled against
// server broadcasts, plus unread counters for every other conversation.
//
// A sent message appears immediately under a temporary id. The server's
// copy reaches the session twice, as the HTTP response and as the room
// broadcast, in either order; whichever arrives first replaces the
// optimistic entry in place, the other is recognized and dropped. The
// timeline therefore never shows the same message twice.
type Session struct {
	mu         sync.Mutex
	selfId     string
	activeConv string
	timeline   []*MessageInfo
	tempToPerm map[string]string // temp id -> permanent id
	permSeen   map[string]bool   // permanent ids present in the timeline
	unread     map[string]int64  // conversation id -> unread count
}

// NewSession creates a session for the given user
func NewSession(selfId string) *Session {
	return &Session{
		selfId:     selfId,
		tempToPerm: make(map[string]string),
		permSeen:   make(map[string]bool),
		unread:     make(map[string]int64),
	}
}

// SelfId returns the session owner's user id
func (s *Session) SelfId() string {
	return s.selfId
}

// OpenConversation replaces the timeline with freshly fetched history
// and zeroes the conversation's unread counter.
func (s *Session) OpenConversation(conversationId string, history []*MessageInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeConv = conversationId
	s.timeline = make([]*MessageInfo, 0, len(history))
	s.permSeen = make(map[string]bool, len(history))
	s.tempToPerm = make(map[string]string)

	for _, msg := range history {
		s.timeline = append(s.timeline, msg)
		s.permSeen[msg.Id] = true
	}

	s.unread[conversationId] = 0
}

// ActiveConversation returns the open conversation id
func (s *Session) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConv
}

// Timeline returns a copy of the open conversation's messages in order
func (s *Session) Timeline() []*MessageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*MessageInfo, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// AppendPending adds an optimistic entry for a message about to be
// sent. It returns the entry; its Id is temporary and its ClientMsgId
// should be carried on the send request so the server echoes it back.
func (s *Session) AppendPending(content, fileName string, sender *UserInfo) *MessageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &MessageInfo{
		Id:             TempIdPrefix + uuid.New().String(),
		ConversationId: s.activeConv,
		ClientMsgId:    uuid.New().String(),
		Sender:         sender,
		Content:        content,
		FileName:       fileName,
		ReadBy:         []string{s.selfId},
		SentAt:         time.Now().UnixMilli(),
	}

	s.timeline = append(s.timeline, msg)
	return msg
}

// Confirm records the server's copy for a pending entry, replacing it
// in place. If the room broadcast already reconciled the entry, Confirm
// only records the id mapping.
func (s *Session) Confirm(tempId string, confirmed *MessageInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tempToPerm[tempId] = confirmed.Id

	if s.permSeen[confirmed.Id] {
		// Echo arrived first and already replaced the entry
		return
	}

	for i, msg := range s.timeline {
		if msg.Id == tempId {
			s.timeline[i] = confirmed
			s.permSeen[confirmed.Id] = true
			return
		}
	}
}

// Fail removes a pending entry whose send was rejected. The failed
// message leaves no trace in the timeline.
func (s *Session) Fail(tempId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, msg := range s.timeline {
		if msg.Id == tempId {
			s.timeline = append(s.timeline[:i], s.timeline[i+1:]...)
			break
		}
	}
	delete(s.tempToPerm, tempId)
}

// OnMessage applies a room broadcast to the session. Messages for the
// open conversation are deduplicated against the timeline and against
// the sender's own pending entries; messages for other conversations
// bump that conversation's unread counter unless sent by this user.
func (s *Session) OnMessage(msg *MessageInfo) DeliveryOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ConversationId != s.activeConv {
		if msg.Sender != nil && msg.Sender.Id == s.selfId {
			return OutcomeIgnored
		}
		s.unread[msg.ConversationId]++
		return OutcomeUnread
	}

	// Already delivered under its permanent id
	if s.permSeen[msg.Id] {
		return OutcomeDuplicate
	}

	// Own echo: reconcile against the optimistic copy in place
	if msg.Sender != nil && msg.Sender.Id == s.selfId {
		if i := s.findPending(msg); i >= 0 {
			tempId := s.timeline[i].Id
			s.timeline[i] = msg
			s.tempToPerm[tempId] = msg.Id
			s.permSeen[msg.Id] = true
			return OutcomeReconciled
		}
	}

	s.timeline = append(s.timeline, msg)
	s.permSeen[msg.Id] = true
	return OutcomeAppended
}

// findPending locates the optimistic entry matching a broadcast echo:
// first by the echoed client message id, then by the send signature
// (sender, client timestamp, file name or content). Matching by
// signature collapses distinct messages sent in the same millisecond
// with identical content; that window is accepted.
func (s *Session) findPending(msg *MessageInfo) int {
	for i, pending := range s.timeline {
		if !isTempId(pending.Id) {
			continue
		}
		if msg.ClientMsgId != "" && pending.ClientMsgId == msg.ClientMsgId {
			return i
		}
		if signature(pending) == signature(msg) {
			return i
		}
	}
	return -1
}

// OnReadReceipt applies a read receipt broadcast. The receipt's read-by
// set replaces the message's wholesale. A receipt from this user zeroes
// the conversation's unread counter, confirming the server processed
// the user's own mark-read; any receipt for the open conversation also
// zeroes it, since the owner is looking at that conversation and a
// seeded counter would go stale otherwise.
func (s *Session) OnReadReceipt(rcpt *ReadReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rcpt.ReaderId == s.selfId {
		s.unread[rcpt.ConversationId] = 0
	}

	if rcpt.ConversationId != s.activeConv {
		return
	}
	s.unread[s.activeConv] = 0

	messageId := rcpt.MessageId
	for _, msg := range s.timeline {
		if msg.Id == messageId || s.tempToPerm[msg.Id] == messageId {
			msg.ReadBy = rcpt.ReadBy
			return
		}
	}
}

// UnreadMessageIds returns the permanent ids of open-conversation
// messages the session owner has not read yet. Callers mark each of
// them read after opening a conversation; marking twice is harmless,
// the server only broadcasts actual changes.
func (s *Session) UnreadMessageIds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, msg := range s.timeline {
		if isTempId(msg.Id) {
			continue
		}
		read := false
		for _, userId := range msg.ReadBy {
			if userId == s.selfId {
				read = true
				break
			}
		}
		if !read {
			ids = append(ids, msg.Id)
		}
	}
	return ids
}

// Unread returns a conversation's unread count
func (s *Session) Unread(conversationId string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[conversationId]
}

// SetUnread seeds a conversation's unread counter from a server fetch
func (s *Session) SetUnread(conversationId string, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread[conversationId] = count
}

// PermanentId resolves a possibly temporary id to the server-assigned
// one. It returns the input unchanged when no mapping exists.
func (s *Session) PermanentId(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if perm, ok := s.tempToPerm[id]; ok {
		return perm
	}
	return id
}

// signature identifies a send independently of server-assigned ids:
// sender, client timestamp and file name, falling back to content for
// text messages.
func signature(msg *MessageInfo) string {
	senderId := ""
	if msg.Sender != nil {
		senderId = msg.Sender.Id
	}
	discriminator := msg.Content
	if msg.FileName != "" {
		discriminator = msg.FileName
	}
	return fmt.Sprintf("%s-%d-%s", senderId, msg.SentAt, discriminator)
}

func isTempId(id string) bool {
	return len(id) > len(TempIdPrefix) && id[:len(TempIdPrefix)] == TempIdPrefix
}
