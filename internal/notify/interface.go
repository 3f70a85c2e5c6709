package notify

import "context"

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Deliverer performs a best-effort delivery and reports only success or failure.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) bool
}
