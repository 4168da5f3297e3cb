package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kart-io/logger"

	"github.com/kart-io/camaral-bot/internal/bot/metrics"
	"github.com/kart-io/camaral-bot/pkg/telegram"
	"github.com/kart-io/camaral-bot/pkg/utils/json"
)

// HeaderSecretToken carries the secret registered with setWebhook.
const HeaderSecretToken = "X-Telegram-Bot-Api-Secret-Token"

// Assistant answers user questions and keeps per-user history.
type Assistant interface {
	Ask(ctx context.Context, userID int64, message string) (string, error)
	Reset(ctx context.Context, userID int64) error
}

// Transcriber turns a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Messenger is the subset of the Bot API used to reply.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) (*telegram.Message, error)
	SendChatAction(ctx context.Context, chatID int64, action string) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
	DownloadVoice(ctx context.Context, fileID string) ([]byte, error)
}

// Submitter runs tasks in the background.
type Submitter interface {
	Submit(task func()) error
}

// TelegramConfig configures TelegramHandler.
type TelegramConfig struct {
	// SecretToken, when set, must match the X-Telegram-Bot-Api-Secret-Token header.
	SecretToken string
	// UpdateTimeout bounds the processing of one update.
	UpdateTimeout time.Duration
	// DedupSize is the number of recent update ids remembered.
	DedupSize int
}

// TelegramHandler receives webhook updates and dispatches them to the bot flows.
type TelegramHandler struct {
	assistant   Assistant
	transcriber Transcriber
	messenger   Messenger
	workers     Submitter
	seen        *lru.Cache[int64, struct{}]
	config      TelegramConfig
}

// NewTelegramHandler creates a new TelegramHandler.
func NewTelegramHandler(assistant Assistant, transcriber Transcriber, messenger Messenger, workers Submitter, config TelegramConfig) (*TelegramHandler, error) {
	if config.DedupSize <= 0 {
		config.DedupSize = 1024
	}
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = 60 * time.Second
	}
	seen, err := lru.New[int64, struct{}](config.DedupSize)
	if err != nil {
		return nil, fmt.Errorf("create update cache: %w", err)
	}
	return &TelegramHandler{
		assistant:   assistant,
		transcriber: transcriber,
		messenger:   messenger,
		workers:     workers,
		seen:        seen,
		config:      config,
	}, nil
}

// Status reports that the webhook is reachable.
func (h *TelegramHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"bot":       "Camaral Bot",
		"status":    "Webhook is active",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Webhook acknowledges an update and processes it on the worker pool.
func (h *TelegramHandler) Webhook(c *gin.Context) {
	if h.config.SecretToken != "" && c.GetHeader(HeaderSecretToken) != h.config.SecretToken {
		metrics.Get().RecordUpdate(false, true)
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Unauthorized"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Webhook processing failed"})
		return
	}
	var update telegram.Update
	if err := json.Unmarshal(body, &update); err != nil {
		logger.Warnw("Invalid webhook payload", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Webhook processing failed"})
		return
	}

	if ok, _ := h.seen.ContainsOrAdd(update.UpdateID, struct{}{}); ok {
		logger.Debugw("Duplicate update dropped", "update_id", update.UpdateID)
		metrics.Get().RecordUpdate(true, false)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	err = h.workers.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.config.UpdateTimeout)
		defer cancel()
		h.HandleUpdate(ctx, &update)
	})
	if err != nil {
		// Forget the id so Telegram's redelivery is processed.
		h.seen.Remove(update.UpdateID)
		logger.Errorw("Failed to schedule update", "update_id", update.UpdateID, "error", err.Error())
		metrics.Get().RecordUpdate(false, true)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "Webhook processing failed"})
		return
	}

	metrics.Get().RecordUpdate(false, false)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandleUpdate runs the bot flow matching the update.
func (h *TelegramHandler) HandleUpdate(ctx context.Context, update *telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Voice != nil:
		h.handleVoice(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		h.handleText(ctx, update.Message)
	default:
		logger.Debugw("Ignoring update", "update_id", update.UpdateID)
	}
}

func (h *TelegramHandler) handleText(ctx context.Context, msg *telegram.Message) {
	if strings.HasPrefix(msg.Text, "/") {
		h.handleCommand(ctx, msg)
		return
	}
	if msg.From == nil {
		return
	}
	h.answer(ctx, msg.Chat.ID, msg.From.ID, msg.Text, errorMessage)
}

func (h *TelegramHandler) handleCommand(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	switch parseCommand(msg.Text) {
	case commandStart:
		firstName := ""
		if msg.From != nil {
			firstName = msg.From.FirstName
			if err := h.assistant.Reset(ctx, msg.From.ID); err != nil {
				logger.Warnw("Failed to clear history", "user_id", msg.From.ID, "error", err.Error())
			}
		}
		h.send(ctx, chatID, welcomeMessage(firstName), markdown(mainMenuKeyboard()))
	case commandHelp:
		h.send(ctx, chatID, helpMessage, markdown(mainMenuKeyboard()))
	case commandDemo:
		h.send(ctx, chatID, demoMessage, markdown(demoCTAKeyboard()))
	case commandPricing:
		h.send(ctx, chatID, pricingMessage, markdown(pricingKeyboard()))
	default:
		logger.Debugw("Ignoring unknown command", "chat_id", chatID, "text", msg.Text)
	}
}

func (h *TelegramHandler) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if err := h.messenger.AnswerCallbackQuery(ctx, query.ID, ""); err != nil {
		logger.Warnw("Failed to answer callback query", "callback_id", query.ID, "error", err.Error())
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	switch query.Data {
	case callbackPricing:
		h.send(ctx, chatID, pricingMessage, markdown(pricingKeyboard()))
	case callbackTryFree:
		h.send(ctx, chatID, tryFreeMessage, markdown(demoCTAKeyboard()))
	case callbackMainMenu:
		h.send(ctx, chatID, mainMenuMessage, &telegram.SendOptions{ReplyMarkup: mainMenuKeyboard()})
	default:
		question, ok := callbackQuestions[query.Data]
		if !ok {
			logger.Debugw("Ignoring unknown callback", "data", query.Data)
			return
		}
		h.answer(ctx, chatID, query.From.ID, question, errorMessage)
	}
}

func (h *TelegramHandler) handleVoice(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	h.typing(ctx, chatID)

	text, err := h.transcribe(ctx, msg.Voice.FileID)
	if err != nil {
		logger.Errorw("Voice message failed", "chat_id", chatID, "error", err.Error())
		h.send(ctx, chatID, voiceErrorMessage, &telegram.SendOptions{ReplyMarkup: mainMenuKeyboard()})
		return
	}
	if text == "" {
		h.send(ctx, chatID, voiceEmptyMessage, nil)
		return
	}

	h.send(ctx, chatID, fmt.Sprintf(voiceEchoTemplate, text), &telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown})
	h.answer(ctx, chatID, msg.From.ID, text, voiceErrorMessage)
}

func (h *TelegramHandler) transcribe(ctx context.Context, fileID string) (string, error) {
	audio, err := h.messenger.DownloadVoice(ctx, fileID)
	if err != nil {
		return "", err
	}
	return h.transcriber.Transcribe(ctx, audio, voiceNoteFilename)
}

// answer asks the assistant and replies with the demo CTA, or with failText
// and the main menu when generation fails.
func (h *TelegramHandler) answer(ctx context.Context, chatID, userID int64, question, failText string) {
	h.typing(ctx, chatID)

	reply, err := h.assistant.Ask(ctx, userID, question)
	if err != nil {
		logger.Errorw("Failed to answer message", "chat_id", chatID, "user_id", userID, "error", err.Error())
		h.send(ctx, chatID, failText, &telegram.SendOptions{ReplyMarkup: mainMenuKeyboard()})
		return
	}
	h.send(ctx, chatID, reply, &telegram.SendOptions{ReplyMarkup: demoCTAKeyboard()})
}

func (h *TelegramHandler) typing(ctx context.Context, chatID int64) {
	if err := h.messenger.SendChatAction(ctx, chatID, telegram.ChatActionTyping); err != nil {
		logger.Debugw("Failed to send chat action", "chat_id", chatID, "error", err.Error())
	}
}

func (h *TelegramHandler) send(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) {
	if _, err := h.messenger.SendMessage(ctx, chatID, text, opts); err != nil {
		logger.Errorw("Failed to send message", "chat_id", chatID, "error", err.Error())
	}
}

func markdown(keyboard *telegram.InlineKeyboardMarkup) *telegram.SendOptions {
	return &telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown, ReplyMarkup: keyboard}
}

// parseCommand returns the command name of text without the leading slash,
// the @botname suffix and any arguments.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
