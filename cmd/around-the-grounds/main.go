package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pfrederiksen/around-the-grounds/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.ExecuteContext(ctx, os.Args[1:], cli.Options{})
	stop()
	os.Exit(code)
}
