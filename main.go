// ircline - a minimal IRC client that keeps one connection alive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ircline/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ircline: %v\n", err)
		os.Exit(1)
	}
}
