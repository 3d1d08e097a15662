// Command arborctl maintains arbor tree stores offline.
//
// It opens a storage directory in embedded mode, so it works without a
// running daemon. It must not be pointed at a directory a daemon is
// actively serving.
//
// Usage:
//
//	arborctl init --dir ./bin
//	arborctl insert demo 1.0 2.0 --dir ./bin
//	arborctl query demo 1.5 2.5 -n 3 --dir ./bin
//	arborctl status --dir ./bin --json
//
// A YAML config file can replace the flags:
//
//	arborctl status --config arbor.yaml
//
//	# arbor.yaml
//	directory: /var/lib/arbor
//	max_memory_mb: 256
//	compression: zstd
package main

import (
	"context"
	"fmt"
	"os"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	rootCmd := NewRootCmd(version)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "arborctl: %v\n", err)
		os.Exit(1)
	}
}
