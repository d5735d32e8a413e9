package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/directory"
	"chat-relay/relay"
	"chat-relay/runtime"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup always executes and
// the entry point stays testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Member directory (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Relay server under supervision
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := relay.NewServer(log, address, directory.NewBadger(db, log))
	if err = server.Listen(); err != nil {
		return err
	}

	sup := runtime.NewSupervisor(log)
	sup.Add(server)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	log.Info("Relay daemon started", "address", address)

	// 5. Wait for Stop
	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	server.Stop()
	sup.Stop()
	<-done
	log.Info("Program stopped cleanly")

	return nil
}
