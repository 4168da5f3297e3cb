package biz

import (
	stderrors "errors"

	"github.com/kart-io/camaral-bot/pkg/errors"
	"github.com/kart-io/camaral-bot/pkg/llm/resilience"
)

// providerError 将上游调用错误转换为错误码，已是错误码的保持不变。
func providerError(err error) error {
	if err == nil {
		return nil
	}
	var e *errors.Errno
	if stderrors.As(err, &e) {
		return err
	}
	if stderrors.Is(err, resilience.ErrOpen) {
		return errors.ErrProviderUnavailable.WithCause(err)
	}
	return errors.ErrProvider.WithCause(err)
}
