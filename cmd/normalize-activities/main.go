// Command normalize-activities loads every activity and saves it again so that
// the stores rewrite the dates in normalized form.
//
// Usage:
//
//	normalize-activities really
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/softwerkskammer/agoraauth/activities"
	"github.com/softwerkskammer/agoraauth/internal/backend"
)

const confirmation = "really"

func main() {
	if len(os.Args) < 2 || os.Args[1] != confirmation {
		fmt.Fprintf(os.Stderr, "This rewrites every activity. Run as: %s %s\n", os.Args[0], confirmation)
		os.Exit(1)
	}
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := backend.LoadConfig()
	if err != nil {
		return err
	}
	logger := backend.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	saved, err := activities.ResaveAll(ctx, stores.Activities, logger)
	logger.Info("normalize-activities done", "saved", saved)
	return err
}
