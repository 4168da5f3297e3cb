package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/cmd/webhook/app/options"
	"github.com/kart-io/camaral-bot/pkg/telegram"
)

type fakeWebhookAPI struct {
	url     string
	secret  string
	deleted bool
	info    *telegram.WebhookInfo
	err     error
}

func (f *fakeWebhookAPI) SetWebhook(_ context.Context, webhookURL, secretToken string) error {
	f.url, f.secret = webhookURL, secretToken
	return f.err
}

func (f *fakeWebhookAPI) GetWebhookInfo(context.Context) (*telegram.WebhookInfo, error) {
	return f.info, f.err
}

func (f *fakeWebhookAPI) DeleteWebhook(context.Context) error {
	f.deleted = true
	return f.err
}

func TestSet(t *testing.T) {
	opts := options.NewWebhookOptions()
	opts.TelegramOptions.WebhookURL = "https://bot.camaral.ai/api/telegram"
	opts.TelegramOptions.SecretToken = "s3cret"
	api := &fakeWebhookAPI{}
	var out bytes.Buffer

	require.NoError(t, Set(context.Background(), api, opts, &out))
	assert.Equal(t, "https://bot.camaral.ai/api/telegram", api.url)
	assert.Equal(t, "s3cret", api.secret)
	assert.Contains(t, out.String(), "Webhook set successfully!")
	assert.Contains(t, out.String(), "Bot URL: "+BotURL)
}

func TestSetRequiresURL(t *testing.T) {
	api := &fakeWebhookAPI{}
	err := Set(context.Background(), api, options.NewWebhookOptions(), &bytes.Buffer{})
	assert.EqualError(t, err, "telegram.webhook-url is not set")
	assert.Empty(t, api.url)
}

func TestSetFailure(t *testing.T) {
	opts := options.NewWebhookOptions()
	opts.TelegramOptions.WebhookURL = "https://bot.camaral.ai/api/telegram"
	var out bytes.Buffer

	err := Set(context.Background(), &fakeWebhookAPI{err: errors.New("bad request")}, opts, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Failed to set webhook")
}

func TestInfo(t *testing.T) {
	api := &fakeWebhookAPI{info: &telegram.WebhookInfo{URL: "https://bot.camaral.ai/api/telegram", PendingUpdateCount: 2}}
	var out bytes.Buffer

	require.NoError(t, Info(context.Background(), api, nil, &out))
	assert.Contains(t, out.String(), `"url": "https://bot.camaral.ai/api/telegram"`)
	assert.Contains(t, out.String(), `"pending_update_count": 2`)
}

func TestDelete(t *testing.T) {
	api := &fakeWebhookAPI{}
	var out bytes.Buffer

	require.NoError(t, Delete(context.Background(), api, nil, &out))
	assert.True(t, api.deleted)
}

func TestNewAppRegistersSubcommands(t *testing.T) {
	cmd := NewApp().Command()
	for _, name := range []string{"set", "info", "delete"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("telegram.webhook-url"))
}
