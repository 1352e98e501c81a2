package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	t.Run("unwraps data", func(t *testing.T) {
		var profile Profile
		body := []byte(`{"code":0,"msg":"success","data":{"id":"u1","username":"alice","email":"a@example.com"}}`)

		require.NoError(t, decodeResponse(body, &profile))
		assert.Equal(t, "u1", profile.Id)
		assert.Equal(t, "alice", profile.Username)
	})

	t.Run("maps non-zero code to an Error", func(t *testing.T) {
		body := []byte(`{"code":2006,"msg":"user not found"}`)

		err := decodeResponse(body, nil)
		require.Error(t, err)

		apiErr, ok := err.(*Error)
		require.True(t, ok)
		assert.Equal(t, CodeUserNotFound, apiErr.Code)
		assert.Equal(t, "user not found", apiErr.Msg)
	})

	t.Run("tolerates empty data", func(t *testing.T) {
		var out map[string]string
		body := []byte(`{"code":0,"msg":"success"}`)
		require.NoError(t, decodeResponse(body, &out))
		assert.Empty(t, out)
	})

	t.Run("rejects non-json body", func(t *testing.T) {
		err := decodeResponse([]byte("<html>bad gateway</html>"), nil)
		assert.Error(t, err)
	})
}

func TestDeriveWebSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws", deriveWebSocketURL("http://localhost:8080"))
	assert.Equal(t, "wss://chat.example.com/ws", deriveWebSocketURL("https://chat.example.com"))
}

func TestConversationIdHelpers(t *testing.T) {
	assert.Equal(t, "dc_alice:bob", ResolveDirectConversation("bob", "alice"))
	assert.Equal(t, ResolveDirectConversation("a", "b"), ResolveDirectConversation("b", "a"))
	assert.Equal(t, "gc_g1", GroupConversationId("g1"))
}
