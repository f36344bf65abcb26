package domain

import "context"

// ─── Ports ──────────────────────────────────────────────────────────────────
// Infrastructure implements these; the engagement engine depends on them.

// StateStore is the durable key-value surface the engine persists whole
// entities through. Each Save must be atomic for its key.
type StateStore interface {
	// Load returns the blob for key. found is false when nothing was ever saved.
	Load(key string) (value []byte, found bool, err error)

	// Save replaces the blob for key.
	Save(key string, value []byte) error
}

// Notifier delivers a notification. Delivery is fire-and-forget: the engine
// logs a returned error and moves on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
