// Package limiter throttles repeated failed logins per username.
package limiter

import "context"

// Limiter counts failures per key within a window.
type Limiter interface {
	// Allow reports whether key still has attempts left.
	Allow(ctx context.Context, key string) (bool, error)
	// Fail records one failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets the failures of key.
	Reset(ctx context.Context, key string) error
}

// Nop never throttles. It is used when no Redis address is configured.
type Nop struct{}

func (Nop) Allow(context.Context, string) (bool, error) { return true, nil }
func (Nop) Fail(context.Context, string) error          { return nil }
func (Nop) Reset(context.Context, string) error         { return nil }
