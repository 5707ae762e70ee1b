package configsweep

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// PendingLister reports which trackers still have configurations waiting for
// device confirmation.
type PendingLister interface {
	ListTrackersWithPendingConfigurations(ctx context.Context) ([]string, error)
}

// Reloader refreshes one tracker's in-memory configuration set from storage
// and returns how many records are still pending.
type Reloader interface {
	ReloadConfigurations(ctx context.Context, trackerID string) (int, error)
}

// Sweeper periodically reloads the configuration sets of trackers with
// unconfirmed records, so the in-memory aggregates pick up records written by
// the API without waiting for the next device report.
type Sweeper struct {
	lister   PendingLister
	reloader Reloader

	sweepInterval time.Duration
	concurrency   int

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastSweepUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalSwept          atomic.Int64
	totalPending        atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(lister PendingLister, reloader Reloader) *Sweeper {
	return &Sweeper{
		lister:        lister,
		reloader:      reloader,
		sweepInterval: 30 * time.Second,
		concurrency:   10,
		triggerCh:     make(chan struct{}, 1),

		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (s *Sweeper) WithSettings(sweepInterval time.Duration, concurrency int) *Sweeper {
	if sweepInterval > 0 {
		s.sweepInterval = sweepInterval
	}
	if concurrency > 0 {
		s.concurrency = concurrency
	}
	return s
}

// Trigger forces an immediate sweep (best-effort, non-blocking).
func (s *Sweeper) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	LastSweepAt   *time.Time `json:"lastSweepAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalSwept    int64      `json:"totalSwept"`
	TotalPending  int64      `json:"totalPending"`
	TotalErrors   int64      `json:"totalErrors"`
	InFlight      int64      `json:"inFlight"`
	LastError     string     `json:"lastError,omitempty"`
}

func (s *Sweeper) Stats() Stats {
	st := Stats{
		StartedAt:    time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalSwept:   s.totalSwept.Load(),
		TotalPending: s.totalPending.Load(),
		TotalErrors:  s.totalErrors.Load(),
		InFlight:     s.inFlight.Load(),
	}
	if n := s.lastSweepUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastSweepAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.sweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	s.lastSweepUnixNano.Store(now.UnixNano())

	ids, err := s.lister.ListTrackersWithPendingConfigurations(ctx)
	if err != nil {
		slog.Error("list trackers with pending configurations", "error", err.Error())
		s.recordError(err)
		return
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, id := range ids {
		sem <- struct{}{}
		wg.Add(1)
		s.inFlight.Add(1)
		go func(trackerID string) {
			defer func() {
				s.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			pending, err := s.reloader.ReloadConfigurations(ctx, trackerID)
			if err != nil {
				s.totalErrors.Add(1)
				s.recordError(err)
				slog.Error("reload tracker configurations", "tracker_id", trackerID, "error", err.Error())
				return
			}
			s.totalSwept.Add(1)
			s.totalPending.Add(int64(pending))
		}(id)
	}
	wg.Wait()
}

func (s *Sweeper) recordError(err error) {
	s.lastErrorMu.Lock()
	s.lastError = err.Error()
	s.lastErrorMu.Unlock()
}
