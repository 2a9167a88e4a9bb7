package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ticket-insights/cmd/ticket-insights/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
