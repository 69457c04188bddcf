package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"polychat/cmd/polychat/commands"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, version); err != nil {
		os.Exit(1)
	}
}
