package main

import (
	"context"
	"os/signal"
	"syscall"

	"lyricsync/internal/app"
	"lyricsync/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	app.New(cfg).Run(ctx)
}
