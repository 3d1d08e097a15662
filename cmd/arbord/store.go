package main

import (
	"context"
	"fmt"
	"os"

	"github.com/arbordb/arbor/blobstore"
	"github.com/arbordb/arbor/blobstore/minio"
	"github.com/arbordb/arbor/blobstore/s3"
)

// openStore builds the configured blob store backend, wrapped with
// compression when requested.
func openStore(ctx context.Context, cfg Config) (blobstore.Store, error) {
	var (
		store blobstore.Store
		err   error
	)

	switch cfg.StoreBackend {
	case "local":
		// Absence of the directory is not an error; create it up front so
		// the first status call sees an empty store, not a failure.
		if err := os.MkdirAll(cfg.BinDirectory, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", cfg.BinDirectory, err)
		}
		store = blobstore.NewLocalStore(nil, cfg.BinDirectory)
	case "memory":
		store = blobstore.NewMemoryStore()
	case "s3":
		store, err = s3.New(ctx, cfg.S3Bucket, s3.WithPrefix(cfg.S3Prefix))
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
	case "minio":
		store, err = minio.Connect(cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, "", cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	ctype, err := blobstore.ParseCompressionType(cfg.StoreCompression)
	if err != nil {
		return nil, err
	}
	return blobstore.NewCompressedStore(store, ctype), nil
}
