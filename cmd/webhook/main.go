// Package main is the entry point for the Telegram webhook management tool.
package main

import (
	"github.com/kart-io/camaral-bot/cmd/webhook/app"
)

func main() {
	app.NewApp().Run()
}
