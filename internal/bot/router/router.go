// Package router registers the bot HTTP routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/camaral-bot/internal/bot/handler"
)

// Handlers groups the handlers served by the bot.
type Handlers struct {
	Telegram *handler.TelegramHandler
	Index    *handler.IndexHandler
	Stats    *handler.StatsHandler
}

// Register registers the bot routes on r.
func Register(r gin.IRouter, h *Handlers) {
	logger.Info("Registering bot routes...")

	api := r.Group("/api")
	{
		// Telegram webhook
		api.POST("/telegram", h.Telegram.Webhook)
		api.GET("/telegram", h.Telegram.Status)

		// Knowledge base indexing
		api.POST("/index", h.Index.Index)
		api.GET("/index", h.Index.Ready)
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/stats", h.Stats.Stats)
	}

	r.GET("/metrics", h.Stats.Metrics)
	r.GET("/healthz", h.Stats.Healthz)

	logger.Info("HTTP routes registered")
}
