package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tillberg/autorestart"

	"github.com/soyeahso/sidekick/internal/cli"
)

func main() {
	go autorestart.RestartOnChange()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sidekick:", err)
		os.Exit(1)
	}
}
