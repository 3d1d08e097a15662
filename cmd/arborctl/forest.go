package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arbordb/arbor"
	"github.com/arbordb/arbor/blobstore"
)

// openForest opens the data directory in embedded mode. The directory is
// created if absent. One process at a time: running this against a live
// daemon's directory can interleave writes with the daemon's own.
func openForest(cmd *cobra.Command) (*arbor.Forest, error) {
	s, err := resolveSettings(cmd)
	if err != nil {
		return nil, err
	}

	ctype, err := blobstore.ParseCompressionType(s.Compression)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.Directory, err)
	}

	store := blobstore.NewCompressedStore(blobstore.NewLocalStore(nil, s.Directory), ctype)

	return arbor.Open(
		arbor.WithStore(store),
		arbor.WithMaxMemoryBytes(s.MaxMemoryMB<<20),
	)
}
