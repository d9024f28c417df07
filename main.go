package main

import (
	"fmt"
	"os"

	"github.com/privalens/privalens/internal/cli"
	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/server"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "privalens: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewStdoutLogger("privalens")

	cfg := server.DefaultConfig()
	cfg.ListenAddr = args.ListenAddr
	cfg.StoragePath = args.StoragePath
	cfg.Headless = args.Headless
	if args.Workers > 0 {
		cfg.Workers = args.Workers
	}
	cfg.Logger = logger

	srv, err := server.NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "privalens: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
	if err := srv.HTTPServer().ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "privalens: %v\n", err)
		os.Exit(1)
	}
}
