// Package blobstore provides the storage abstraction for serialized trees.
//
// Store is the interface for reading and writing whole data blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic renames and mmap reads
//   - MemoryStore: In-memory store for tests
//   - s3.Store: Amazon S3 with range reads and paginated listing
//   - minio.Store: MinIO and other S3-compatible object stores
//
// NewCompressedStore layers LZ4 or ZSTD compression over any Store.
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Put(ctx, name, data) error         // Atomic write
//	    Open(ctx, name) (Blob, error)      // Open for reading
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Puts must be atomic: a reader either sees the previous blob or the new
// one, never a partial write.
package blobstore
