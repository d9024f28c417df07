package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/privalens/privalens/internal/demosite"
)

func main() {
	cfg := demosite.DefaultConfig()
	flag.IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	flag.BoolVar(&cfg.WithConsent, "consent", cfg.WithConsent, "Serve the consent banner")
	flag.Parse()

	if err := demosite.New(cfg).Start(); err != nil {
		fmt.Fprintf(os.Stderr, "demosite: %v\n", err)
		os.Exit(1)
	}
}
