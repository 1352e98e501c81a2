package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	t.Run("direct message", func(t *testing.T) {
		m := &Message{Id: "m1", ChatId: "dc_a:b", SenderId: "a"}
		assert.NoError(t, m.Validate())
	})

	t.Run("group message", func(t *testing.T) {
		m := &Message{Id: "m1", GroupId: "g1", SenderId: "a"}
		assert.NoError(t, m.Validate())
	})

	t.Run("neither reference", func(t *testing.T) {
		m := &Message{Id: "m1", SenderId: "a"}
		assert.ErrorIs(t, m.Validate(), ErrConversationRefConflict)
	})

	t.Run("both references", func(t *testing.T) {
		m := &Message{Id: "m1", ChatId: "dc_a:b", GroupId: "g1", SenderId: "a"}
		assert.ErrorIs(t, m.Validate(), ErrConversationRefConflict)
	})

	t.Run("missing sender", func(t *testing.T) {
		m := &Message{Id: "m1", ChatId: "dc_a:b"}
		assert.ErrorIs(t, m.Validate(), ErrInvalidParticipant)
	})
}

func TestMessageMarkReadBy(t *testing.T) {
	m := &Message{Id: "m1", ChatId: "dc_a:b", SenderId: "a", ReadBy: StringList{"a"}}

	assert.True(t, m.IsReadBy("a"))
	assert.False(t, m.IsReadBy("b"))

	changed := m.MarkReadBy("b")
	assert.True(t, changed)
	assert.Equal(t, StringList{"a", "b"}, m.ReadBy)

	changed = m.MarkReadBy("b")
	assert.False(t, changed)
	assert.Equal(t, StringList{"a", "b"}, m.ReadBy)
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.True(t, l.Contains("a"))
	assert.False(t, l.Contains("c"))

	v, err := StringList{"x"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(v.([]byte)))
}

func TestMessageToInfo(t *testing.T) {
	m := &Message{
		Id:             "m1",
		ConversationId: "dc_a:b",
		ChatId:         "dc_a:b",
		Seq:            7,
		ClientMsgId:    "c1",
		SenderId:       "a",
		Content:        "hello",
		ReadBy:         StringList{"a"},
		SentAt:         1700000000000,
	}
	sender := &UserInfo{Id: "a", Username: "alice"}

	info := m.ToInfo(sender)
	assert.Equal(t, "m1", info.Id)
	assert.Equal(t, "dc_a:b", info.ConversationId)
	assert.Equal(t, int64(7), info.Seq)
	assert.Equal(t, sender, info.Sender)
	assert.Equal(t, []string{"a"}, info.ReadBy)
}
