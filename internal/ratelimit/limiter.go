// Package ratelimit throttles requests per key, backed by Redis when it is
// configured and by an in-process token bucket otherwise.
package ratelimit

import "context"

// Limiter reports whether one more request for key is within quota.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}
