// Package options contains flags and options for the webhook command.
package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/camaral-bot/pkg/infra/app"
	logopts "github.com/kart-io/camaral-bot/pkg/options/logger"
	telegramopts "github.com/kart-io/camaral-bot/pkg/options/telegram"
)

var _ app.CliOptions = (*WebhookOptions)(nil)

// WebhookOptions contains the configuration options for the webhook command.
type WebhookOptions struct {
	LogOptions      *logopts.Options      `json:"log" mapstructure:"log"`
	TelegramOptions *telegramopts.Options `json:"telegram" mapstructure:"telegram"`
}

// NewWebhookOptions creates a WebhookOptions instance with default values.
func NewWebhookOptions() *WebhookOptions {
	return &WebhookOptions{
		LogOptions:      logopts.NewOptions(),
		TelegramOptions: telegramopts.NewOptions(),
	}
}

// Flags returns flags for the webhook command by section name.
func (o *WebhookOptions) Flags() (fss app.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TelegramOptions.AddFlags(fss.FlagSet("telegram"))
	return fss
}

// Complete completes all the required options.
func (o *WebhookOptions) Complete() error {
	return nil
}

// Validate checks whether the options are valid.
func (o *WebhookOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TelegramOptions.Validate()...)
	return utilerrors.NewAggregate(errs)
}
