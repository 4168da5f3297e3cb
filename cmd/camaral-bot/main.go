// Package main is the entry point for the Camaral Telegram bot.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/camaral-bot/cmd/camaral-bot/app"
)

func main() {
	app.NewApp().Run()
}
