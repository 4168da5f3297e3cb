// Package main is the entry point for the knowledge base indexer.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/camaral-bot/cmd/indexer/app"
)

func main() {
	app.NewApp().Run()
}
