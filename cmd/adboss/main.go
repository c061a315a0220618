package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"adboss/internal/cli"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx, version); err != nil {
		fmt.Fprintf(os.Stderr, "adboss: %v\n", err)
		return 1
	}
	return 0
}
