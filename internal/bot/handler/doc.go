// Package handler provides the HTTP handlers of the bot: the Telegram
// webhook, the document index endpoint and the operational endpoints.
package handler
