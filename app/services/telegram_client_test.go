package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTelegramServer(t *testing.T, handler func(method string, body map[string]any) (status int, response string)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		// Path shape is /bot<token>/<method>
		var method string
		_, err := fmt.Sscanf(r.URL.Path, "/bottest-token/%s", &method)
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		status, response := handler(method, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, response)
	}))
}

func TestSendMessage(t *testing.T) {
	server := newTestTelegramServer(t, func(method string, body map[string]any) (int, string) {
		assert.Equal(t, "sendMessage", method)
		assert.Equal(t, float64(-1001234567890), body["chat_id"])
		assert.Equal(t, "New product launch", body["text"])
		assert.Equal(t, "HTML", body["parse_mode"])

		markup, ok := body["reply_markup"].(map[string]any)
		require.True(t, ok)
		keyboard := markup["inline_keyboard"].([]any)
		assert.Len(t, keyboard, 2) // one button per row

		return http.StatusOK, `{"ok":true,"result":{"message_id":4321}}`
	})
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token", 2*time.Second)
	messageID, err := client.SendMessage(context.Background(), -1001234567890, "New product launch", []InlineButton{
		{Text: "Open", URL: "https://t.jarchi.ir/abc123"},
		{Text: "Docs", URL: "https://t.jarchi.ir/def456"},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(4321), messageID)
}

func TestSendMessageWithoutButtons(t *testing.T) {
	server := newTestTelegramServer(t, func(method string, body map[string]any) (int, string) {
		_, hasMarkup := body["reply_markup"]
		assert.False(t, hasMarkup, "reply_markup should be omitted when there are no buttons")
		return http.StatusOK, `{"ok":true,"result":{"message_id":1}}`
	})
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token", 2*time.Second)
	_, err := client.SendMessage(context.Background(), 100, "plain text", nil)
	assert.NoError(t, err)
}

func TestSendMessageFiltersBlankButtons(t *testing.T) {
	server := newTestTelegramServer(t, func(method string, body map[string]any) (int, string) {
		markup, ok := body["reply_markup"].(map[string]any)
		require.True(t, ok)
		rows, ok := markup["inline_keyboard"].([]any)
		require.True(t, ok)
		require.Len(t, rows, 1)
		row := rows[0].([]any)
		button := row[0].(map[string]any)
		assert.Equal(t, "Open", button["text"])
		return http.StatusOK, `{"ok":true,"result":{"message_id":1}}`
	})
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token", 2*time.Second)
	_, err := client.SendMessage(context.Background(), 100, "text", []InlineButton{
		{Text: "   ", URL: "https://example.com/a"},
		{Text: "Open", URL: "https://example.com/b"},
		{Text: "No URL", URL: ""},
	})
	assert.NoError(t, err)
}

func TestSendMessageWithOnlyBlankButtons(t *testing.T) {
	server := newTestTelegramServer(t, func(method string, body map[string]any) (int, string) {
		_, hasMarkup := body["reply_markup"]
		assert.False(t, hasMarkup, "a keyboard of unrenderable buttons should be omitted")
		return http.StatusOK, `{"ok":true,"result":{"message_id":1}}`
	})
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token", 2*time.Second)
	_, err := client.SendMessage(context.Background(), 100, "text", []InlineButton{
		{Text: "", URL: "https://example.com/a"},
	})
	assert.NoError(t, err)
}

func TestSendPhoto(t *testing.T) {
	server := newTestTelegramServer(t, func(method string, body map[string]any) (int, string) {
		assert.Equal(t, "sendPhoto", method)
		assert.Equal(t, "https://cdn.jarchi.ir/banner.jpg", body["photo"])
		assert.Equal(t, "Summer sale", body["caption"])
		return http.StatusOK, `{"ok":true,"result":{"message_id":777}}`
	})
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token", 2*time.Second)
	messageID, err := client.SendPhoto(context.Background(), 100, "https://cdn.jarchi.ir/banner.jpg", "Summer sale", nil)

	assert.NoError(t, err)
	assert.Equal(t, int64(777), messageID)
}

func TestGetChatMemberCount(t *testing.T) {
	server := newTestTelegramServer(t, func(method string, body map[string]any) (int, string) {
		assert.Equal(t, "getChatMemberCount", method)
		return http.StatusOK, `{"ok":true,"result":15230}`
	})
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token", 2*time.Second)
	count, err := client.GetChatMemberCount(context.Background(), -1001234567890)

	assert.NoError(t, err)
	assert.Equal(t, 15230, count)
}

func TestTelegramAPIError(t *testing.T) {
	server := newTestTelegramServer(t, func(method string, body map[string]any) (int, string) {
		return http.StatusForbidden, `{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked from the channel chat"}`
	})
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token", 2*time.Second)
	_, err := client.SendMessage(context.Background(), -1001234567890, "text", nil)

	require.Error(t, err)
	assert.True(t, IsTelegramError(err))

	tgErr, ok := err.(*TelegramError)
	require.True(t, ok)
	assert.Equal(t, 403, tgErr.Code)
	assert.Contains(t, tgErr.Description, "kicked")
	assert.Contains(t, tgErr.Error(), "403")
}

func TestTelegramClientUnreachable(t *testing.T) {
	client := NewTelegramClient("http://127.0.0.1:1", "test-token", 500*time.Millisecond)
	_, err := client.SendMessage(context.Background(), 100, "text", nil)

	assert.Error(t, err)
	assert.False(t, IsTelegramError(err))
}

func TestMockTelegramClient(t *testing.T) {
	mock := NewMockTelegramClient()
	ctx := context.Background()

	id1, err := mock.SendMessage(ctx, 100, "first", []InlineButton{{Text: "Open", URL: "https://example.com"}})
	require.NoError(t, err)

	id2, err := mock.SendPhoto(ctx, 200, "https://example.com/p.jpg", "caption", nil)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	require.Len(t, mock.Sent, 2)
	assert.Equal(t, int64(100), mock.Sent[0].ChatID)
	assert.Equal(t, "first", mock.Sent[0].Text)
	assert.Equal(t, "https://example.com/p.jpg", mock.Sent[1].PhotoURL)

	count, err := mock.GetChatMemberCount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	// Configured failures surface as Telegram errors
	mock.FailChatIDs[300] = &TelegramError{Code: 403, Description: "Forbidden"}
	_, err = mock.SendMessage(ctx, 300, "text", nil)
	assert.True(t, IsTelegramError(err))

	_, err = mock.GetChatMemberCount(ctx, 300)
	assert.True(t, IsTelegramError(err))
}
