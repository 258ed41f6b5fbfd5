package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TelegramClient is the messaging gateway to the Telegram Bot API. Delivery
// policy (which channels, retries, status bookkeeping) lives in the dispatch
// flow; this client only speaks the wire protocol.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons []InlineButton) (messageID int64, err error)
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, buttons []InlineButton) (messageID int64, err error)
	GetChatMemberCount(ctx context.Context, chatID int64) (int, error)
}

// InlineButton is one button of an inline keyboard, one button per row
type InlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// TelegramError carries the error payload Telegram returns with ok=false
type TelegramError struct {
	Code        int
	Description string
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// IsTelegramError checks if an error is a Telegram API error
func IsTelegramError(err error) bool {
	_, ok := err.(*TelegramError)
	return ok
}

// TelegramClientImpl implements TelegramClient against the Bot API
type TelegramClientImpl struct {
	BaseURL    string
	BotToken   string
	HTTPClient *http.Client
}

// NewTelegramClient creates a new Telegram Bot API client
func NewTelegramClient(baseURL, botToken string, timeout time.Duration) TelegramClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramClientImpl{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		BotToken:   botToken,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type tgResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

type tgMessage struct {
	MessageID int64 `json:"message_id"`
}

type tgSendMessageReq struct {
	ChatID      int64          `json:"chat_id"`
	Text        string         `json:"text"`
	ParseMode   string         `json:"parse_mode,omitempty"`
	ReplyMarkup *tgReplyMarkup `json:"reply_markup,omitempty"`
}

type tgSendPhotoReq struct {
	ChatID      int64          `json:"chat_id"`
	Photo       string         `json:"photo"`
	Caption     string         `json:"caption,omitempty"`
	ParseMode   string         `json:"parse_mode,omitempty"`
	ReplyMarkup *tgReplyMarkup `json:"reply_markup,omitempty"`
}

type tgReplyMarkup struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

func inlineKeyboard(buttons []InlineButton) *tgReplyMarkup {
	rows := make([][]InlineButton, 0, len(buttons))
	for _, b := range buttons {
		// A button without text or URL is invalid keyboard markup
		if strings.TrimSpace(b.Text) == "" || strings.TrimSpace(b.URL) == "" {
			continue
		}
		rows = append(rows, []InlineButton{b})
	}
	if len(rows) == 0 {
		return nil
	}
	return &tgReplyMarkup{InlineKeyboard: rows}
}

// SendMessage posts a text message to a chat and returns Telegram's message ID
func (c *TelegramClientImpl) SendMessage(ctx context.Context, chatID int64, text string, buttons []InlineButton) (int64, error) {
	body := tgSendMessageReq{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: inlineKeyboard(buttons),
	}
	var msg tgMessage
	if err := c.call(ctx, "sendMessage", body, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendPhoto posts a photo with caption to a chat and returns Telegram's message ID
func (c *TelegramClientImpl) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, buttons []InlineButton) (int64, error) {
	body := tgSendPhotoReq{
		ChatID:      chatID,
		Photo:       photoURL,
		Caption:     caption,
		ParseMode:   "HTML",
		ReplyMarkup: inlineKeyboard(buttons),
	}
	var msg tgMessage
	if err := c.call(ctx, "sendPhoto", body, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// GetChatMemberCount returns the current subscriber count of a chat
func (c *TelegramClientImpl) GetChatMemberCount(ctx context.Context, chatID int64) (int, error) {
	body := map[string]int64{"chat_id": chatID}
	var count int
	if err := c.call(ctx, "getChatMemberCount", body, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *TelegramClientImpl) call(ctx context.Context, method string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.BaseURL, c.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var env tgResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !env.OK {
		return &TelegramError{Code: env.ErrorCode, Description: env.Description}
	}
	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// MockTelegramClient is an in-memory client for development and tests
type MockTelegramClient struct {
	mu          sync.Mutex
	nextID      int64
	Sent        []MockSentMessage
	MemberCount int
	FailChatIDs map[int64]*TelegramError // chat IDs that should fail with the given error
}

// MockSentMessage records one delivery made through the mock
type MockSentMessage struct {
	ChatID    int64
	Text      string
	PhotoURL  string
	Buttons   []InlineButton
	MessageID int64
}

// NewMockTelegramClient creates a mock client that records sends
func NewMockTelegramClient() *MockTelegramClient {
	return &MockTelegramClient{
		nextID:      1000,
		MemberCount: 42,
		FailChatIDs: make(map[int64]*TelegramError),
	}
}

func (m *MockTelegramClient) SendMessage(ctx context.Context, chatID int64, text string, buttons []InlineButton) (int64, error) {
	return m.record(chatID, text, "", buttons)
}

func (m *MockTelegramClient) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, buttons []InlineButton) (int64, error) {
	return m.record(chatID, caption, photoURL, buttons)
}

func (m *MockTelegramClient) GetChatMemberCount(ctx context.Context, chatID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tgErr, ok := m.FailChatIDs[chatID]; ok {
		return 0, tgErr
	}
	return m.MemberCount, nil
}

func (m *MockTelegramClient) record(chatID int64, text, photoURL string, buttons []InlineButton) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tgErr, ok := m.FailChatIDs[chatID]; ok {
		return 0, tgErr
	}
	m.nextID++
	m.Sent = append(m.Sent, MockSentMessage{
		ChatID:    chatID,
		Text:      text,
		PhotoURL:  photoURL,
		Buttons:   buttons,
		MessageID: m.nextID,
	})
	return m.nextID, nil
}
