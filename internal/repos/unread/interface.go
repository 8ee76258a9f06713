package unread

import "context"

// Counter caches per-user unread notification counts. The database stays
// the source of truth; a miss or an error means "ask the database".
type Counter interface {
	Get(ctx context.Context, userID string) (count int64, ok bool, err error)
	Set(ctx context.Context, userID string, count int64) error
	Invalidate(ctx context.Context, userID string) error
}

// Nop is used when no cache is configured. Every Get misses.
type Nop struct{}

var _ Counter = Nop{}

func (Nop) Get(context.Context, string) (int64, bool, error) { return 0, false, nil }

func (Nop) Set(context.Context, string, int64) error { return nil }

func (Nop) Invalidate(context.Context, string) error { return nil }
