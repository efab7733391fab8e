// Package main is the entry point for the cartsync agent.
package main

import (
	"os"

	"github.com/stacklok/cartsync/cmd/cartsync/app"
	"github.com/stacklok/cartsync/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
