package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/pkg/telegram"
	"github.com/kart-io/camaral-bot/pkg/utils/json"
)

type telegramFixture struct {
	handler     *TelegramHandler
	assistant   *fakeAssistant
	transcriber *fakeTranscriber
	messenger   *fakeMessenger
}

func newTelegramFixture(t *testing.T, workers Submitter, config TelegramConfig) *telegramFixture {
	t.Helper()
	f := &telegramFixture{
		assistant:   &fakeAssistant{reply: "Camaral crea avatares con IA."},
		transcriber: &fakeTranscriber{},
		messenger:   &fakeMessenger{},
	}
	h, err := NewTelegramHandler(f.assistant, f.transcriber, f.messenger, workers, config)
	require.NoError(t, err)
	f.handler = h
	return f
}

func (f *telegramFixture) engine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/telegram", f.handler.Status)
	r.POST("/api/telegram", f.handler.Webhook)
	return r
}

func postUpdate(r *gin.Engine, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/telegram", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func textUpdate(id int64, text string) string {
	return `{"update_id":` + itoa(id) + `,"message":{"message_id":1,"from":{"id":42,"is_bot":false,"first_name":"Ana"},"chat":{"id":7,"type":"private"},"date":0,"text":` + quote(text) + `}}`
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestStatus(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	w := httptest.NewRecorder()
	f.engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/telegram", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Camaral Bot", body["bot"])
	assert.Equal(t, "Webhook is active", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestWebhookAnswersText(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	w := postUpdate(f.engine(), textUpdate(1, "¿Qué es Camaral?"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	require.Len(t, f.assistant.asks, 1)
	assert.Equal(t, askCall{userID: 42, message: "¿Qué es Camaral?"}, f.assistant.asks[0])
	assert.Equal(t, []string{telegram.ChatActionTyping}, f.messenger.actions)

	sent := f.messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(7), sent[0].chatID)
	assert.Equal(t, "Camaral crea avatares con IA.", sent[0].text)
	assert.Empty(t, sent[0].opts.ParseMode)
	assert.Equal(t, biz.CalendlyURL, firstButton(sent[0].opts).URL)
}

func TestWebhookGenerationFailure(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	f.assistant.err = errors.New("provider down")

	postUpdate(f.engine(), textUpdate(1, "hola"), nil)

	sent := f.messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, errorMessage, sent[0].text)
	assert.Equal(t, callbackWhatIsCamaral, firstButton(sent[0].opts).CallbackData)
}

func TestWebhookCommands(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantText  string
		wantFirst telegram.InlineKeyboardButton
	}{
		{
			name:      "start",
			text:      "/start",
			wantText:  welcomeMessage("Ana"),
			wantFirst: telegram.InlineKeyboardButton{Text: "🤖 ¿Qué es Camaral?", CallbackData: callbackWhatIsCamaral},
		},
		{
			name:      "help with bot name",
			text:      "/help@camaral_info_bot",
			wantText:  helpMessage,
			wantFirst: telegram.InlineKeyboardButton{Text: "🤖 ¿Qué es Camaral?", CallbackData: callbackWhatIsCamaral},
		},
		{
			name:      "demo",
			text:      "/demo",
			wantText:  demoMessage,
			wantFirst: telegram.InlineKeyboardButton{Text: "🗓️ Agendar una demo", URL: biz.CalendlyURL},
		},
		{
			name:      "pricing",
			text:      "/precios ahora",
			wantText:  pricingMessage,
			wantFirst: telegram.InlineKeyboardButton{Text: "Plan Pro - $99/mes", CallbackData: callbackPlanPro},
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
			postUpdate(f.engine(), textUpdate(int64(i), tt.text), nil)

			sent := f.messenger.messages()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.wantText, sent[0].text)
			assert.Equal(t, telegram.ParseModeMarkdown, sent[0].opts.ParseMode)
			assert.Equal(t, tt.wantFirst, firstButton(sent[0].opts))
			assert.Empty(t, f.assistant.asks)
		})
	}
}

func TestStartClearsHistory(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	postUpdate(f.engine(), textUpdate(1, "/start"), nil)

	assert.Equal(t, []int64{42}, f.assistant.resets)
	assert.True(t, strings.HasPrefix(f.messenger.messages()[0].text, "¡Hola Ana! 👋"))
}

func TestUnknownCommandIgnored(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	w := postUpdate(f.engine(), textUpdate(1, "/foo"), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.messenger.messages())
	assert.Empty(t, f.assistant.asks)
}

func TestWelcomeWithoutFirstName(t *testing.T) {
	assert.True(t, strings.HasPrefix(welcomeMessage(""), "¡Hola! 👋"))
}

func callbackUpdate(data string) *telegram.Update {
	return &telegram.Update{
		UpdateID: 9,
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb-1",
			From:    telegram.User{ID: 42, FirstName: "Ana"},
			Message: &telegram.Message{MessageID: 3, Chat: telegram.Chat{ID: 7}},
			Data:    data,
		},
	}
}

func TestCallbackQuestion(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	f.handler.HandleUpdate(context.Background(), callbackUpdate(callbackPlanScale))

	assert.Equal(t, []string{"cb-1"}, f.messenger.answered)
	require.Len(t, f.assistant.asks, 1)
	assert.Equal(t, "Dame todos los detalles del plan Scale de $299/mes de Camaral", f.assistant.asks[0].message)

	sent := f.messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, biz.CalendlyURL, firstButton(sent[0].opts).URL)
}

func TestCallbackMenus(t *testing.T) {
	tests := []struct {
		data      string
		wantText  string
		wantParse string
	}{
		{callbackPricing, pricingMessage, telegram.ParseModeMarkdown},
		{callbackTryFree, tryFreeMessage, telegram.ParseModeMarkdown},
		{callbackMainMenu, mainMenuMessage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
			f.handler.HandleUpdate(context.Background(), callbackUpdate(tt.data))

			assert.Equal(t, []string{"cb-1"}, f.messenger.answered)
			sent := f.messenger.messages()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.wantText, sent[0].text)
			assert.Equal(t, tt.wantParse, sent[0].opts.ParseMode)
			assert.Empty(t, f.assistant.asks)
		})
	}
}

func TestCallbackUnknownOnlyAnswered(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	f.handler.HandleUpdate(context.Background(), callbackUpdate("nope"))

	assert.Equal(t, []string{"cb-1"}, f.messenger.answered)
	assert.Empty(t, f.messenger.messages())
}

func voiceUpdate() *telegram.Update {
	return &telegram.Update{
		UpdateID: 11,
		Message: &telegram.Message{
			MessageID: 5,
			From:      &telegram.User{ID: 42, FirstName: "Ana"},
			Chat:      telegram.Chat{ID: 7},
			Voice:     &telegram.Voice{FileID: "voice-1", Duration: 3},
		},
	}
}

func TestVoiceMessage(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	f.messenger.voice = []byte("ogg")
	f.transcriber.text = "¿Cuánto cuesta?"

	f.handler.HandleUpdate(context.Background(), voiceUpdate())

	assert.Equal(t, []byte("ogg"), f.transcriber.got)
	require.Len(t, f.assistant.asks, 1)
	assert.Equal(t, "¿Cuánto cuesta?", f.assistant.asks[0].message)

	sent := f.messenger.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "🎤 _\"¿Cuánto cuesta?\"_", sent[0].text)
	assert.Equal(t, telegram.ParseModeMarkdown, sent[0].opts.ParseMode)
	assert.Equal(t, "Camaral crea avatares con IA.", sent[1].text)
}

func TestVoiceEmptyTranscription(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	f.handler.HandleUpdate(context.Background(), voiceUpdate())

	sent := f.messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, voiceEmptyMessage, sent[0].text)
	assert.Empty(t, f.assistant.asks)
}

func TestVoiceDownloadFailure(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	f.messenger.downloadErr = errors.New("file not found")

	f.handler.HandleUpdate(context.Background(), voiceUpdate())

	sent := f.messenger.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, voiceErrorMessage, sent[0].text)
	assert.Equal(t, callbackWhatIsCamaral, firstButton(sent[0].opts).CallbackData)
}

func TestWebhookSecretToken(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{SecretToken: "s3cret"})
	r := f.engine()

	w := postUpdate(r, textUpdate(1, "hola"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.assistant.asks)

	w = postUpdate(r, textUpdate(1, "hola"), map[string]string{HeaderSecretToken: "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.assistant.asks, 1)
}

func TestWebhookInvalidJSON(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{})
	w := postUpdate(f.engine(), "{not json", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Webhook processing failed"}`, w.Body.String())
}

func TestWebhookDropsDuplicates(t *testing.T) {
	f := newTelegramFixture(t, inlineSubmitter{}, TelegramConfig{DedupSize: 8})
	r := f.engine()

	for i := 0; i < 3; i++ {
		w := postUpdate(r, textUpdate(100, "hola"), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Len(t, f.assistant.asks, 1)
}

func TestWebhookPoolRejection(t *testing.T) {
	f := newTelegramFixture(t, rejectingSubmitter{}, TelegramConfig{})
	r := f.engine()

	w := postUpdate(r, textUpdate(5, "hola"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, f.handler.seen.Contains(5))
}

func TestParseCommand(t *testing.T) {
	assert.Equal(t, "start", parseCommand("/start"))
	assert.Equal(t, "precios", parseCommand("/Precios@camaral_info_bot extra"))
	assert.Equal(t, "", parseCommand("   "))
}
