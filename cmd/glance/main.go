// Package main is the entry point for the glance CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/aidanlsb/glance/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
