// Package app provides the webhook management command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kart-io/camaral-bot/cmd/webhook/app/options"
	botsvc "github.com/kart-io/camaral-bot/internal/bot"
	"github.com/kart-io/camaral-bot/pkg/infra/app"
	"github.com/kart-io/camaral-bot/pkg/telegram"
	"github.com/kart-io/camaral-bot/pkg/utils/json"
)

const (
	// Name is the name of the command.
	Name = "camaral-webhook"

	// BotURL is the public link of the bot.
	BotURL = "https://t.me/camaral_info_bot"

	commandDesc = `Manage the Telegram webhook of the Camaral bot.

  set     register --telegram.webhook-url (default)
  info    print the current webhook status
  delete  remove the webhook`
)

// WebhookAPI is the subset of the Bot API used by the command.
type WebhookAPI interface {
	SetWebhook(ctx context.Context, webhookURL, secretToken string) error
	GetWebhookInfo(ctx context.Context) (*telegram.WebhookInfo, error)
	DeleteWebhook(ctx context.Context) error
}

// NewApp creates the webhook application.
func NewApp() *app.App {
	opts := options.NewWebhookOptions()

	var application *app.App
	sub := func(use, short string, action func(context.Context, WebhookAPI, *options.WebhookOptions, io.Writer) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return application.Prepare(cmd, withClient(cmd.Context(), opts, action))
			},
		}
	}

	application = app.NewApp(
		app.WithName(Name),
		app.WithConfigName(botsvc.Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithArgs(cobra.NoArgs),
		app.WithRunFunc(withClient(context.Background(), opts, Set)),
		app.WithCommands(
			sub("set", "Register the webhook URL", Set),
			sub("info", "Print the webhook status", Info),
			sub("delete", "Remove the webhook", Delete),
		),
	)
	return application
}

func withClient(ctx context.Context, opts *options.WebhookOptions, action func(context.Context, WebhookAPI, *options.WebhookOptions, io.Writer) error) app.RunFunc {
	return func() error {
		if err := opts.LogOptions.Init(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		client, err := telegram.NewClient(telegram.Config{
			Token:      opts.TelegramOptions.Token,
			BaseURL:    opts.TelegramOptions.BaseURL,
			Timeout:    opts.TelegramOptions.Timeout,
			MaxRetries: opts.TelegramOptions.MaxRetries,
		})
		if err != nil {
			return err
		}
		if ctx == nil {
			ctx = context.Background()
		}
		return action(ctx, client, opts, os.Stdout)
	}
}

// Set registers the configured webhook URL.
func Set(ctx context.Context, api WebhookAPI, opts *options.WebhookOptions, out io.Writer) error {
	webhookURL := opts.TelegramOptions.WebhookURL
	if webhookURL == "" {
		return errors.New("telegram.webhook-url is not set")
	}

	fmt.Fprintf(out, "Setting webhook to: %s\n", webhookURL)
	if err := api.SetWebhook(ctx, webhookURL, opts.TelegramOptions.SecretToken); err != nil {
		fmt.Fprintln(out, "\nFailed to set webhook")
		return err
	}
	fmt.Fprintln(out, "\nWebhook set successfully!")
	fmt.Fprintf(out, "\nBot URL: %s\n", BotURL)
	return nil
}

// Info prints the current webhook status.
func Info(ctx context.Context, api WebhookAPI, _ *options.WebhookOptions, out io.Writer) error {
	info, err := api.GetWebhookInfo(ctx)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Webhook Info: %s\n", b)
	return nil
}

// Delete removes the webhook.
func Delete(ctx context.Context, api WebhookAPI, _ *options.WebhookOptions, out io.Writer) error {
	if err := api.DeleteWebhook(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Webhook deleted")
	return nil
}
