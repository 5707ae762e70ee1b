package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type Sent struct {
	TrackerID string
	Topic     string
	Params    map[string]string
}

// FakeNotifier records every Send call. Used in tests and as the local
// fallback when no FCM credentials are configured.
type FakeNotifier struct {
	mu   sync.Mutex
	sent []Sent

	Fail bool
}

func New() *FakeNotifier { return &FakeNotifier{} }

func (f *FakeNotifier) Send(ctx context.Context, trackerID, topic string, params map[string]string) error {
	if f.Fail {
		return errors.New("fake notifier unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Sent{TrackerID: trackerID, Topic: topic, Params: params})
	return nil
}

func (f *FakeNotifier) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}
