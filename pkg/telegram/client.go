// Package telegram is a small Bot API client covering what the assistant
// needs: replies with inline keyboards, chat actions, callback answers,
// voice-note downloads and webhook management.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kart-io/camaral-bot/pkg/utils/httpclient"
	"github.com/kart-io/camaral-bot/pkg/utils/json"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// maxDownloadSize is the Bot API getFile limit.
const maxDownloadSize = 20 << 20

// APIError is an unsuccessful Bot API response.
type APIError struct {
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}

func (e *APIError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

// Config configures a Client.
type Config struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
	// MaxElapsed bounds the total retry time of one call.
	MaxElapsed time.Duration
}

// Client calls the Telegram Bot API.
type Client struct {
	token      string
	baseURL    string
	http       *httpclient.Client
	maxRetries uint64
	maxElapsed time.Duration
}

// NewClient creates a client. Token is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 15 * time.Second
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    cfg.BaseURL,
		http:       httpclient.NewClient(cfg.Timeout, 0),
		maxRetries: cfg.MaxRetries,
		maxElapsed: cfg.MaxElapsed,
	}, nil
}

// call POSTs params to method and decodes result into out. Rate limits and
// server errors are retried with exponential backoff.
func (c *Client) call(ctx context.Context, method string, params, out interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	op := func() error {
		req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, endpoint, params)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.DoRequest(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		var ar apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
			err = fmt.Errorf("telegram: decode %s response (status %d): %w", method, resp.StatusCode, err)
			if resp.StatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}
		if !ar.OK {
			apiErr := &APIError{Code: ar.ErrorCode, Description: ar.Description}
			if ar.Parameters != nil {
				apiErr.RetryAfter = ar.Parameters.RetryAfter
			}
			if apiErr.retryable() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		if out != nil && len(ar.Result) > 0 {
			if err := json.Unmarshal(ar.Result, out); err != nil {
				return backoff.Permanent(fmt.Errorf("telegram: decode %s result: %w", method, err))
			}
		}
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 300 * time.Millisecond
	eb.MaxElapsedTime = c.maxElapsed
	var b backoff.BackOff = eb
	b = backoff.WithMaxRetries(b, c.maxRetries)
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// SendOptions are optional sendMessage parameters.
type SendOptions struct {
	ParseMode   string
	ReplyMarkup *InlineKeyboardMarkup
}

// SendMessage sends text to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (*Message, error) {
	params := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if opts != nil {
		if opts.ParseMode != "" {
			params["parse_mode"] = opts.ParseMode
		}
		if opts.ReplyMarkup != nil {
			params["reply_markup"] = opts.ReplyMarkup
		}
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendChatAction shows a chat action such as ChatActionTyping.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.call(ctx, "sendChatAction", map[string]interface{}{
		"chat_id": chatID,
		"action":  action,
	}, nil)
}

// AnswerCallbackQuery acknowledges a button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	params := map[string]interface{}{"callback_query_id": callbackQueryID}
	if text != "" {
		params["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	if err := c.call(ctx, "getFile", map[string]interface{}{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, errors.New("telegram: could not get file info")
	}
	return &f, nil
}

// DownloadFile fetches the content at a path returned by GetFile.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.DoRequest(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: could not download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
}

// DownloadVoice resolves and downloads a voice note.
func (c *Client) DownloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return c.DownloadFile(ctx, f.FilePath)
}

// SetWebhook registers the webhook URL. secretToken, when set, is echoed by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secretToken string) error {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return fmt.Errorf("telegram: invalid webhook url: %w", err)
	}
	params := map[string]interface{}{
		"url":             webhookURL,
		"allowed_updates": []string{"message", "callback_query"},
	}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	return c.call(ctx, "setWebhook", params, nil)
}

// GetWebhookInfo returns the current webhook status.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteWebhook removes the webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", nil, nil)
}
