package server

import (
	"github.com/privalens/privalens/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// StoragePath is the directory holding the scan database. A leading ~
	// expands to the user's home directory.
	StoragePath string

	// Headless controls the browser mode used by scan runs.
	Headless bool

	// Workers is the size of the analysis worker pool.
	Workers int

	Logger logging.Logger
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:  ":8080",
		StoragePath: "~/.config/privalens",
		Headless:    true,
		Workers:     2,
	}
}
