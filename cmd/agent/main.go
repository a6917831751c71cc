package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout)
	err := app.rootCmd().ExecuteContext(ctx)
	if app.logger != nil {
		if err != nil {
			app.logger.Errorw("command failed", "error", err)
		}
		app.logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
