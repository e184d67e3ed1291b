// Command expopush sends Expo push notifications and checks their receipts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dezeto/expo-push-dispatch/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
