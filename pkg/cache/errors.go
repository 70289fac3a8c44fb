package cache

import (
	"context"
	"errors"
	"net"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache closed")

// IsUnavailable reports whether err means the backend itself is unreachable
// (closed, network failure, deadline) rather than a problem with one entry.
// The pipeline logs these once and keeps running without the cache.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
