package handler

import (
	"context"
	"errors"
	"sync"

	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/telegram"
)

type askCall struct {
	userID  int64
	message string
}

type fakeAssistant struct {
	mu     sync.Mutex
	reply  string
	err    error
	asks   []askCall
	resets []int64
}

func (f *fakeAssistant) Ask(_ context.Context, userID int64, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asks = append(f.asks, askCall{userID: userID, message: message})
	return f.reply, f.err
}

func (f *fakeAssistant) Reset(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, userID)
	return nil
}

type fakeTranscriber struct {
	text string
	err  error
	got  []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	f.got = audio
	return f.text, f.err
}

type sentMessage struct {
	chatID int64
	text   string
	opts   *telegram.SendOptions
}

type fakeMessenger struct {
	mu          sync.Mutex
	sent        []sentMessage
	actions     []string
	answered    []string
	voice       []byte
	downloadErr error
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, opts *telegram.SendOptions) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, opts: opts})
	return &telegram.Message{Chat: telegram.Chat{ID: chatID}, Text: text}, nil
}

func (f *fakeMessenger) SendChatAction(_ context.Context, _ int64, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

func (f *fakeMessenger) DownloadVoice(_ context.Context, _ string) ([]byte, error) {
	return f.voice, f.downloadErr
}

func (f *fakeMessenger) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// inlineSubmitter runs tasks on the calling goroutine.
type inlineSubmitter struct{}

func (inlineSubmitter) Submit(task func()) error {
	task()
	return nil
}

type rejectingSubmitter struct{}

func (rejectingSubmitter) Submit(func()) error {
	return errors.New("pool is overloaded")
}

type fakeIndexer struct {
	result *biz.IndexResult
	err    error
	stats  store.Stats
	path   string
}

func (f *fakeIndexer) IndexFile(_ context.Context, path string) (*biz.IndexResult, error) {
	f.path = path
	return f.result, f.err
}

func (f *fakeIndexer) Stats(context.Context) (store.Stats, error) {
	return f.stats, f.err
}

func firstButton(opts *telegram.SendOptions) telegram.InlineKeyboardButton {
	return opts.ReplyMarkup.InlineKeyboard[0][0]
}
