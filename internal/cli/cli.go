package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// CLIArgs are the command-line arguments for the API server process.
// Keep this small for now — add fields as modules need them.
type CLIArgs struct {
	// ListenAddr is the address the HTTP API binds to.
	ListenAddr string

	// StoragePath is where the scan database lives.
	StoragePath string

	// Headless controls whether the browser runs headless (disable for debugging).
	Headless bool

	// Workers overrides the scheduler worker count; 0 means "use config default".
	Workers int

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("privalens", flag.ContinueOnError)
	var (
		listen   = fs.String("listen", ":8080", "HTTP listen address")
		storage  = fs.String("storage", "~/.config/privalens", "Storage directory for the scan database")
		headless = fs.Bool("headless", true, "Run the analysis browser headless")
		workers  = fs.Int("workers", 0, "Scheduler worker count for this run (0=use default)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		// Flag parsing errors are useful to return to caller
		return nil, err
	}

	if strings.TrimSpace(*listen) == "" {
		return nil, fmt.Errorf("missing required -listen argument")
	}

	return &CLIArgs{
		ListenAddr:  *listen,
		StoragePath: *storage,
		Headless:    *headless,
		Workers:     *workers,
		RawArgs:     args,
	}, nil
}
