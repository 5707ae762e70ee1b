package push

import "context"

// Notifier delivers a notification to everyone subscribed to a tracker topic.
// Delivery is best-effort; the pipeline logs failures and moves on.
type Notifier interface {
	Send(ctx context.Context, trackerID, topic string, params map[string]string) error
}
