// Package cache stores converted sources and rendered artifacts between runs.
//
// Converting a slide deck or a legacy Office file is by far the slowest step
// of a merge, and the CLI is often re-run on the same input with a different
// grid. The pipeline therefore keys conversions by input content and caches
// the resulting PDF, and keys rendered outputs by source hash plus every
// option that affects the bytes.
//
// Backends:
//
//   - [FileCache]: one file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for server deployments
//   - [MemoryCache]: bounded in-process cache
//   - [NullCache]: caching disabled
//
// Use [Open] to pick a backend from a URL-like string.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default TTLs per entry type.
const (
	// TTLSource is how long a converted source PDF stays cached.
	TTLSource = 7 * 24 * time.Hour

	// TTLArtifact is how long a rendered output stays cached.
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A TTL of 0 means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// DefaultDir returns the per-user cache directory, e.g.
// ~/.cache/pagestack on Linux.
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pagestack"), nil
}

// Open returns the backend described by spec:
//
//	""                        file cache in DefaultDir
//	"none", "off"             NullCache
//	"memory"                  MemoryCache with DefaultMemoryLimit
//	"redis://host:6379/0"     RedisCache (also rediss://)
//	"file:///path", "/path"   FileCache in the given directory
func Open(ctx context.Context, spec string) (Cache, error) {
	switch {
	case spec == "":
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		return openFile(dir)
	case spec == "none" || spec == "off":
		return NewNullCache(), nil
	case spec == "memory":
		return NewMemoryCache(DefaultMemoryLimit), nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		rc, err := NewRedisCache(ctx, spec, "pagestack:")
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return openFile(strings.TrimPrefix(spec, "file://"))
	}
}

func openFile(dir string) (Cache, error) {
	fc, err := NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// Fetch returns the entry for key, or computes, stores and returns it on a
// miss. The boolean reports a hit. Backend read and write failures are
// treated as misses so that a broken cache never fails a run.
func Fetch(ctx context.Context, c Cache, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, bool, error) {
	if data, hit, err := c.Get(ctx, key); err == nil && hit {
		return data, true, nil
	}
	data, err := compute()
	if err != nil {
		return nil, false, err
	}
	_ = c.Set(ctx, key, data, ttl)
	return data, false, nil
}
