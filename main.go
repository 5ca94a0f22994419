package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/oldgreydog/codegen/cli"
	"github.com/oldgreydog/codegen/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.Run(ctx, os.Exit, os.Args[1:]...)

	stop()

	if err != nil {
		// *pkg.Error carries its attributes through LogValue
		log.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}
