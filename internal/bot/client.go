package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Update is one inbound Telegram update.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message"`
}

// IncomingMessage is the subset of a Telegram message the bot consumes.
type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Chat identifies the conversation an update belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// SentMessage is the subset of a sent message the bot needs back.
type SentMessage struct {
	MessageID int64 `json:"message_id"`
}

// apiResponse is the Telegram Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// TelegramClient is a minimal Telegram Bot API client over HTTP long
// polling.
type TelegramClient struct {
	client      *resty.Client
	baseURL     string
	pollSeconds int
}

// TelegramConfig holds configuration for the Telegram client.
type TelegramConfig struct {
	Token   string
	BaseURL string
	// PollTimeout is the long-poll window for getUpdates.
	PollTimeout time.Duration
}

// NewTelegramClient creates a Telegram Bot API client.
// Parameters:
//   - cfg: bot token, API base URL and poll timeout.
// Returns:
//   - *TelegramClient: initialized client.
func NewTelegramClient(cfg *TelegramConfig) *TelegramClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	client := resty.New()
	// The HTTP timeout must outlast the long-poll window.
	client.SetTimeout(pollTimeout + 10*time.Second)

	return &TelegramClient{
		client:      client,
		baseURL:     fmt.Sprintf("%s/bot%s", baseURL, cfg.Token),
		pollSeconds: int(pollTimeout / time.Second),
	}
}

// call posts one Bot API method and decodes the envelope.
func (c *TelegramClient) call(ctx context.Context, method string, body interface{}, result interface{}) error {
	var resp apiResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post(c.baseURL + "/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram %s: API error %d: %s", method, httpResp.StatusCode(), resp.Description)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("telegram %s: failed to decode result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates starting at offset.
func (c *TelegramClient) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	body := map[string]interface{}{
		"offset":          offset,
		"timeout":         c.pollSeconds,
		"allowed_updates": []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", body, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends an HTML-formatted text message and returns the sent
// message so its ID can be edited later.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string) (*SentMessage, error) {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	var sent SentMessage
	if err := c.call(ctx, "sendMessage", body, &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}

// EditMessageText replaces the text of a previously sent message.
func (c *TelegramClient) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	body := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	return c.call(ctx, "editMessageText", body, nil)
}

// SendDocument uploads an in-memory document with a caption.
func (c *TelegramClient) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	var resp apiResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("document", filename, bytes.NewReader(data)).
		SetFormData(map[string]string{
			"chat_id":    strconv.FormatInt(chatID, 10),
			"caption":    caption,
			"parse_mode": "HTML",
		}).
		SetResult(&resp).
		SetError(&resp).
		Post(c.baseURL + "/sendDocument")
	if err != nil {
		return fmt.Errorf("telegram sendDocument failed: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram sendDocument: API error %d: %s", httpResp.StatusCode(), resp.Description)
	}
	return nil
}
