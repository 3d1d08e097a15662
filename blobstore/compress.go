package blobstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 block compression (fast, good for hot data).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD block compression (better ratio, good for cold data).
	CompressionZSTD CompressionType = 2
)

// ErrUnknownCompression is returned for unrecognized compression names.
var ErrUnknownCompression = errors.New("unknown compression type")

// ParseCompressionType maps a configuration string to a CompressionType.
func ParseCompressionType(s string) (CompressionType, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Compressed blobs carry an 8-byte header:
// [UncompressedSize uint32 LE][CompressedSize uint32 LE][Data...]
// CompressedSize == 0 means the payload is stored uncompressed.
const compressHeaderSize = 8

// NewCompressedStore wraps a Store so blobs are compressed on Put and
// decompressed on Open. Delete and List pass through. CompressionNone
// returns the inner store unchanged.
//
// The compression type is part of the on-disk format: a store must be
// opened with the same type it was written with.
func NewCompressedStore(inner Store, ctype CompressionType) Store {
	if ctype == CompressionNone {
		return inner
	}
	return &compressedStore{inner: inner, ctype: ctype}
}

type compressedStore struct {
	inner Store
	ctype CompressionType
}

func (s *compressedStore) Put(ctx context.Context, name string, data []byte) error {
	framed, err := compressBlob(data, s.ctype)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, name, framed)
}

func (s *compressedStore) Open(ctx context.Context, name string) (Blob, error) {
	blob, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	framed, err := ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}

	// Decompress before the inner blob closes: framed may alias an mmap.
	data, err := decompressBlob(framed, s.ctype)
	if err != nil {
		return nil, err
	}

	return &memoryBlob{data: data}, nil
}

func (s *compressedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

func (s *compressedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// compressBlob compresses data and prepends the frame header. If compression
// does not help (ratio above 0.9) the payload is stored uncompressed.
func compressBlob(data []byte, ctype CompressionType) ([]byte, error) {
	var compressed []byte
	var err error

	switch ctype {
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		compressed, err = compressZSTD(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, ctype)
	}

	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		result := make([]byte, compressHeaderSize+len(data))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(result[4:], 0) // 0 = uncompressed
		copy(result[compressHeaderSize:], data)
		return result, nil
	}

	result := make([]byte, compressHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(result[4:], uint32(len(compressed)))
	copy(result[compressHeaderSize:], compressed)
	return result, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}

	return compressed[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}

// decompressBlob reverses compressBlob. The returned slice never aliases
// framed, so callers may release the source buffer.
func decompressBlob(framed []byte, ctype CompressionType) ([]byte, error) {
	if len(framed) < compressHeaderSize {
		return nil, errors.New("compressed blob too small for header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(framed[0:])
	compressedSize := binary.LittleEndian.Uint32(framed[4:])

	if compressedSize == 0 {
		if uint32(len(framed)) < compressHeaderSize+uncompressedSize {
			return nil, errors.New("compressed blob shorter than header claims")
		}
		result := make([]byte, uncompressedSize)
		copy(result, framed[compressHeaderSize:compressHeaderSize+uncompressedSize])
		return result, nil
	}

	if uint32(len(framed)) < compressHeaderSize+compressedSize {
		return nil, errors.New("compressed blob shorter than header claims")
	}

	payload := framed[compressHeaderSize : compressHeaderSize+compressedSize]
	result := make([]byte, uncompressedSize)

	switch ctype {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(payload, result[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, ctype)
	}
}
