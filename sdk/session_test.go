package sdk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const convId = "dc_alice:bob"

func newTestSession() *Session {
	s := NewSession("alice")
	s.OpenConversation(convId, []*MessageInfo{
		{Id: "m1", ConversationId: convId, Sender: &UserInfo{Id: "bob"}, Content: "hi", SentAt: 100},
		{Id: "m2", ConversationId: convId, Sender: &UserInfo{Id: "alice"}, Content: "hey", SentAt: 200},
	})
	return s
}

func timelineIds(s *Session) []string {
	msgs := s.Timeline()
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.Id
	}
	return ids
}

// confirmed builds the server's copy of a pending entry, the way the
// send response and the room echo carry it
func confirmed(pending *MessageInfo, permId string, seq int64) *MessageInfo {
	return &MessageInfo{
		Id:             permId,
		ConversationId: pending.ConversationId,
		ChatId:         pending.ConversationId,
		Seq:            seq,
		ClientMsgId:    pending.ClientMsgId,
		Sender:         pending.Sender,
		Content:        pending.Content,
		FileName:       pending.FileName,
		ReadBy:         []string{"alice"},
		SentAt:         pending.SentAt,
	}
}

func TestSessionOpenConversation(t *testing.T) {
	s := newTestSession()

	assert.Equal(t, convId, s.ActiveConversation())
	assert.Equal(t, []string{"m1", "m2"}, timelineIds(s))

	t.Run("opening zeroes the unread counter", func(t *testing.T) {
		s.SetUnread("gc_g1", 4)
		s.OpenConversation("gc_g1", nil)
		assert.Equal(t, int64(0), s.Unread("gc_g1"))
	})
}

func TestSessionOptimisticSend(t *testing.T) {
	s := newTestSession()

	pending := s.AppendPending("draft", "", &UserInfo{Id: "alice"})

	require.True(t, strings.HasPrefix(pending.Id, TempIdPrefix))
	assert.NotEmpty(t, pending.ClientMsgId)
	assert.Equal(t, []string{"alice"}, pending.ReadBy)
	assert.Equal(t, []string{"m1", "m2", pending.Id}, timelineIds(s))
}

func TestSessionConfirmBeforeEcho(t *testing.T) {
	s := newTestSession()
	pending := s.AppendPending("draft", "", &UserInfo{Id: "alice"})
	perm := confirmed(pending, "m3", 3)

	s.Confirm(pending.Id, perm)
	assert.Equal(t, []string{"m1", "m2", "m3"}, timelineIds(s))

	// The echo arrives later and must be recognized as a duplicate
	outcome := s.OnMessage(perm)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, []string{"m1", "m2", "m3"}, timelineIds(s))
}

func TestSessionEchoBeforeConfirm(t *testing.T) {
	s := newTestSession()
	pending := s.AppendPending("draft", "", &UserInfo{Id: "alice"})
	perm := confirmed(pending, "m3", 3)

	// An unrelated message lands after the pending entry, so in-place
	// reconciliation must preserve the pending entry's position
	later := &MessageInfo{Id: "m4", ConversationId: convId, Sender: &UserInfo{Id: "bob"}, Content: "more", SentAt: 999}
	assert.Equal(t, OutcomeAppended, s.OnMessage(later))

	outcome := s.OnMessage(perm)
	assert.Equal(t, OutcomeReconciled, outcome)
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, timelineIds(s))

	// The confirm arrives later and must not re-insert
	s.Confirm(pending.Id, perm)
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, timelineIds(s))

	// The temp id still resolves for read receipts
	assert.Equal(t, "m3", s.PermanentId(pending.Id))
}

func TestSessionEchoMatchesBySignature(t *testing.T) {
	s := newTestSession()
	pending := s.AppendPending("draft", "", &UserInfo{Id: "alice"})

	// A server that does not echo the client message id still matches
	// on (sender, client timestamp, content)
	perm := confirmed(pending, "m3", 3)
	perm.ClientMsgId = ""

	outcome := s.OnMessage(perm)
	assert.Equal(t, OutcomeReconciled, outcome)
	assert.Equal(t, []string{"m1", "m2", "m3"}, timelineIds(s))
}

func TestSessionEchoMatchesByFileName(t *testing.T) {
	s := newTestSession()
	pending := s.AppendPending("", "photo.png", &UserInfo{Id: "alice"})

	perm := confirmed(pending, "m3", 3)
	perm.ClientMsgId = ""
	perm.FileUrl = "https://storage.googleapis.com/bucket/photo.png"

	outcome := s.OnMessage(perm)
	assert.Equal(t, OutcomeReconciled, outcome)

	last := s.Timeline()[2]
	assert.Equal(t, "m3", last.Id)
	assert.NotEmpty(t, last.FileUrl)
}

func TestSessionFailedSendLeavesNoTrace(t *testing.T) {
	s := newTestSession()
	pending := s.AppendPending("doomed", "", &UserInfo{Id: "alice"})

	s.Fail(pending.Id)
	assert.Equal(t, []string{"m1", "m2"}, timelineIds(s))
}

func TestSessionIncomingMessages(t *testing.T) {
	s := newTestSession()

	t.Run("new message from peer is appended", func(t *testing.T) {
		outcome := s.OnMessage(&MessageInfo{Id: "m3", ConversationId: convId, Sender: &UserInfo{Id: "bob"}, Content: "yo", SentAt: 300})
		assert.Equal(t, OutcomeAppended, outcome)
		assert.Equal(t, []string{"m1", "m2", "m3"}, timelineIds(s))
	})

	t.Run("redelivery of the same id is dropped", func(t *testing.T) {
		outcome := s.OnMessage(&MessageInfo{Id: "m3", ConversationId: convId, Sender: &UserInfo{Id: "bob"}, Content: "yo", SentAt: 300})
		assert.Equal(t, OutcomeDuplicate, outcome)
		assert.Equal(t, []string{"m1", "m2", "m3"}, timelineIds(s))
	})

	t.Run("message for a closed conversation bumps unread", func(t *testing.T) {
		outcome := s.OnMessage(&MessageInfo{Id: "g1", ConversationId: "gc_g1", Sender: &UserInfo{Id: "carol"}, Content: "group chatter"})
		assert.Equal(t, OutcomeUnread, outcome)
		assert.Equal(t, int64(1), s.Unread("gc_g1"))

		s.OnMessage(&MessageInfo{Id: "g2", ConversationId: "gc_g1", Sender: &UserInfo{Id: "carol"}, Content: "more"})
		assert.Equal(t, int64(2), s.Unread("gc_g1"))
	})

	t.Run("own message in a closed conversation is not unread", func(t *testing.T) {
		outcome := s.OnMessage(&MessageInfo{Id: "g3", ConversationId: "gc_g1", Sender: &UserInfo{Id: "alice"}, Content: "sent elsewhere"})
		assert.Equal(t, OutcomeIgnored, outcome)
		assert.Equal(t, int64(2), s.Unread("gc_g1"))
	})
}

func TestSessionReadReceipts(t *testing.T) {
	s := newTestSession()

	t.Run("receipt replaces the read-by set wholesale", func(t *testing.T) {
		s.OnReadReceipt(&ReadReceipt{
			MessageId:      "m2",
			ConversationId: convId,
			ReaderId:       "bob",
			ReadBy:         []string{"alice", "bob"},
		})

		msgs := s.Timeline()
		assert.Equal(t, []string{"alice", "bob"}, msgs[1].ReadBy)
	})

	t.Run("receipt resolves through the temp id mapping", func(t *testing.T) {
		pending := s.AppendPending("draft", "", &UserInfo{Id: "alice"})

		// The receipt can beat the confirm: the broadcast echo already
		// recorded the temp-to-permanent mapping
		perm := confirmed(pending, "m3", 3)
		assert.Equal(t, OutcomeReconciled, s.OnMessage(perm))

		s.OnReadReceipt(&ReadReceipt{
			MessageId:      "m3",
			ConversationId: convId,
			ReaderId:       "bob",
			ReadBy:         []string{"alice", "bob"},
		})

		last := s.Timeline()[2]
		assert.Equal(t, []string{"alice", "bob"}, last.ReadBy)
	})

	t.Run("own receipt zeroes the conversation unread count", func(t *testing.T) {
		s.SetUnread("gc_g1", 5)
		s.OnReadReceipt(&ReadReceipt{
			MessageId:      "g9",
			ConversationId: "gc_g1",
			ReaderId:       "alice",
			ReadBy:         []string{"carol", "alice"},
		})
		assert.Equal(t, int64(0), s.Unread("gc_g1"))
	})

	t.Run("peer receipt for the open conversation zeroes its unread count", func(t *testing.T) {
		s.SetUnread(convId, 5)
		s.OnReadReceipt(&ReadReceipt{
			MessageId:      "m2",
			ConversationId: convId,
			ReaderId:       "bob",
			ReadBy:         []string{"alice", "bob"},
		})
		assert.Equal(t, int64(0), s.Unread(convId))
	})

	t.Run("peer receipt for a closed conversation changes nothing", func(t *testing.T) {
		s.SetUnread("gc_g2", 3)
		s.OnReadReceipt(&ReadReceipt{
			MessageId:      "x1",
			ConversationId: "gc_g2",
			ReaderId:       "bob",
			ReadBy:         []string{"bob"},
		})
		assert.Equal(t, int64(3), s.Unread("gc_g2"))
	})

	t.Run("receipt for an unknown message is dropped", func(t *testing.T) {
		s.OnReadReceipt(&ReadReceipt{
			MessageId:      "never-seen",
			ConversationId: convId,
			ReaderId:       "bob",
			ReadBy:         []string{"bob"},
		})
	})
}

func TestSessionUnreadMessageIds(t *testing.T) {
	s := NewSession("alice")
	s.OpenConversation(convId, []*MessageInfo{
		{Id: "m1", ConversationId: convId, Sender: &UserInfo{Id: "bob"}, ReadBy: []string{"bob"}},
		{Id: "m2", ConversationId: convId, Sender: &UserInfo{Id: "bob"}, ReadBy: []string{"bob", "alice"}},
		{Id: "m3", ConversationId: convId, Sender: &UserInfo{Id: "bob"}, ReadBy: []string{"bob"}},
	})

	assert.Equal(t, []string{"m1", "m3"}, s.UnreadMessageIds())

	t.Run("pending entries are never marked", func(t *testing.T) {
		pending := s.AppendPending("draft", "", &UserInfo{Id: "alice"})
		assert.NotContains(t, s.UnreadMessageIds(), pending.Id)
	})

	t.Run("receipt for own reads empties the list", func(t *testing.T) {
		for _, id := range []string{"m1", "m3"} {
			s.OnReadReceipt(&ReadReceipt{
				MessageId:      id,
				ConversationId: convId,
				ReaderId:       "alice",
				ReadBy:         []string{"bob", "alice"},
			})
		}
		assert.Empty(t, s.UnreadMessageIds())
	})
}

func TestSessionTimelineIsACopy(t *testing.T) {
	s := newTestSession()

	msgs := s.Timeline()
	msgs[0] = nil

	assert.Equal(t, "m1", s.Timeline()[0].Id)
}
