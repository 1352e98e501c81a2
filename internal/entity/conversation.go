package entity

import (
	"errors"
	"strings"

	"github.com/parley-chat/parley/pkg/constant"
)

// ErrInvalidParticipant is returned when a participant identity is empty
// or contains the reserved separator. Callers must not build a broadcast
// room from an invalid identifier.
var ErrInvalidParticipant = errors.New("invalid participant identity")

// ResolveDirectConversation derives the identifier of a pairwise
// conversation from the two participant identities. The result is
// order-independent: ResolveDirectConversation(a, b) ==
// ResolveDirectConversation(b, a).
// Format: dc_{min(a,b)}:{max(a,b)}. Uses ":" as separator between user
// ids to support user ids containing "_".
func ResolveDirectConversation(a, b string) (string, error) {
	if !validParticipant(a) || !validParticipant(b) {
		return "", ErrInvalidParticipant
	}
	if a > b {
		a, b = b, a
	}
	return constant.DirectConversationPrefix + a + ":" + b, nil
}

// GroupConversationId derives the conversation identifier for a group.
// Groups carry their own identity, so no derivation is needed beyond the
// prefix. Format: gc_{groupId}.
func GroupConversationId(groupId string) string {
	return constant.GroupConversationPrefix + groupId
}

// IsDirectConversation checks if conversationId names a pairwise chat
func IsDirectConversation(conversationId string) bool {
	return len(conversationId) > 3 && conversationId[:3] == constant.DirectConversationPrefix
}

// IsGroupConversation checks if conversationId names a group chat
func IsGroupConversation(conversationId string) bool {
	return len(conversationId) > 3 && conversationId[:3] == constant.GroupConversationPrefix
}

// DirectConversationPeers splits a pairwise conversation identifier back
// into its two participants. ok is false if the id is not a well-formed
// direct conversation id.
func DirectConversationPeers(conversationId string) (a, b string, ok bool) {
	if !IsDirectConversation(conversationId) {
		return "", "", false
	}
	pair := conversationId[3:]
	idx := strings.Index(pair, ":")
	if idx <= 0 || idx == len(pair)-1 {
		return "", "", false
	}
	return pair[:idx], pair[idx+1:], true
}

// GroupIdFromConversation extracts the group id from a group
// conversation identifier.
func GroupIdFromConversation(conversationId string) (string, bool) {
	if !IsGroupConversation(conversationId) {
		return "", false
	}
	return conversationId[3:], true
}

func validParticipant(id string) bool {
	return id != "" && !strings.Contains(id, ":")
}
