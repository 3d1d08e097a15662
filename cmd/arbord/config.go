package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/arbordb/arbor/blobstore"
)

// Defaults match the environment the service originally shipped with.
const (
	defaultHost        = "127.0.0.1"
	defaultPort        = "8080"
	defaultMaxMemoryMB = 1024
	defaultDirectory   = "bin"
)

// Config is the daemon configuration, read entirely from the environment.
type Config struct {
	Host string
	Port string

	MaxMemoryMB        int64
	BinDirectory       string
	MaxConcurrentLoads int64
	IOLimitMBPerSec    int64

	LogLevel  string
	LogFormat string

	StoreBackend     string
	StoreCompression string

	S3Bucket string
	S3Prefix string

	MinioEndpoint  string
	MinioBucket    string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
}

func loadConfig() (Config, error) {
	cfg := Config{
		Host:             envOr("HOST", defaultHost),
		Port:             envOr("PORT", defaultPort),
		BinDirectory:     envOr("BIN_DIRECTORY", defaultDirectory),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "json"),
		StoreBackend:     envOr("STORE_BACKEND", "local"),
		StoreCompression: envOr("STORE_COMPRESSION", "none"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		S3Prefix:         os.Getenv("S3_PREFIX"),
		MinioEndpoint:    os.Getenv("MINIO_ENDPOINT"),
		MinioBucket:      os.Getenv("MINIO_BUCKET"),
		MinioAccessKey:   os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
	}

	var err error
	if cfg.MaxMemoryMB, err = envInt64("MAX_MEMORY_MB", defaultMaxMemoryMB); err != nil {
		return Config{}, err
	}
	if cfg.MaxMemoryMB <= 0 {
		return Config{}, fmt.Errorf("MAX_MEMORY_MB must be positive, got %d", cfg.MaxMemoryMB)
	}
	if cfg.MaxConcurrentLoads, err = envInt64("MAX_CONCURRENT_LOADS", 0); err != nil {
		return Config{}, err
	}
	if cfg.IOLimitMBPerSec, err = envInt64("IO_LIMIT_MB_PER_SEC", 0); err != nil {
		return Config{}, err
	}
	if cfg.MinioUseSSL, err = envBool("MINIO_USE_SSL", false); err != nil {
		return Config{}, err
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}

	switch cfg.StoreBackend {
	case "local", "memory":
	case "s3":
		if cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("STORE_BACKEND=s3 requires S3_BUCKET")
		}
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return Config{}, fmt.Errorf("STORE_BACKEND=minio requires MINIO_ENDPOINT and MINIO_BUCKET")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if _, err := blobstore.ParseCompressionType(cfg.StoreCompression); err != nil {
		return Config{}, fmt.Errorf("STORE_COMPRESSION: %w", err)
	}

	return cfg, nil
}

// Addr returns the host:port the daemon listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) logLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
