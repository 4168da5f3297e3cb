package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/internal/bot/conversation"
)

func TestChatServiceAskAppendsHistory(t *testing.T) {
	chat := &mockChat{content: "Cuesta $99."}
	g, _ := newTestGenerator(t, chat)
	history := conversation.NewMemoryStore(10)
	svc := NewChatService(g, history)

	answer, err := svc.Ask(context.Background(), 42, "¿Precio del plan Pro?")
	require.NoError(t, err)
	assert.Equal(t, "Cuesta $99.", answer)

	h, err := history.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, []conversation.Message{
		{Role: conversation.RoleUser, Content: "¿Precio del plan Pro?"},
		{Role: conversation.RoleAssistant, Content: "Cuesta $99."},
	}, h)

	_, err = svc.Ask(context.Background(), 42, "¿Y el plan Scale?")
	require.NoError(t, err)
	assert.Len(t, chat.messages, 5)
}

func TestChatServiceErrorLeavesHistory(t *testing.T) {
	chat := &mockChat{err: errors.New("down")}
	g, _ := newTestGenerator(t, chat)
	history := conversation.NewMemoryStore(10)
	svc := NewChatService(g, history)

	_, err := svc.Ask(context.Background(), 1, "¿Precio?")
	require.Error(t, err)

	h, _ := history.Get(context.Background(), 1)
	assert.Empty(t, h)
}

func TestChatServiceReset(t *testing.T) {
	g, _ := newTestGenerator(t, &mockChat{content: "ok"})
	history := conversation.NewMemoryStore(10)
	svc := NewChatService(g, history)

	_, err := svc.Ask(context.Background(), 5, "¿Precio?")
	require.NoError(t, err)
	require.NoError(t, svc.Reset(context.Background(), 5))

	h, _ := history.Get(context.Background(), 5)
	assert.Empty(t, h)
}
