// Command adboss at the module root lets `fyne package` build the desktop
// app; it is the same program as cmd/adboss.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"adboss/internal/cli"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx, version)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "adboss: %v\n", err)
		os.Exit(1)
	}
}
