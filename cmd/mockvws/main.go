// Package main is the entry point for the mock-vws command.
package main

import (
	"os"

	"github.com/konstin/vws-python-mock/cmd/mockvws/app"
	"github.com/konstin/vws-python-mock/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
