// Package s3 provides an Amazon S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("arbor/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// An existing client can also be wrapped directly:
//
//	store := s3.NewStore(client, "my-bucket", "arbor/")
//
// # Features
//
//   - Range reads for efficient partial fetches (tree headers)
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Custom endpoints for S3-compatible servers
package s3
