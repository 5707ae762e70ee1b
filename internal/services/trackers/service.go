package trackers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"trackerd/internal/cache"
	"trackerd/internal/integrations/geocoder"
	"trackerd/internal/integrations/push"
	"trackerd/internal/models"
)

type Repository interface {
	UpsertTrackerState(ctx context.Context, trackerID string, state models.TrackerState) error
	GetTrackerState(ctx context.Context, trackerID string) (*models.TrackerState, error)
	LastCoordinateBefore(ctx context.Context, trackerID string, t time.Time) (*models.StoredCoordinate, error)
	InsertCoordinate(ctx context.Context, sc models.StoredCoordinate) error
	UpdateCoordinate(ctx context.Context, trackerID, key string, upd models.CoordinateUpdate) error
	ListCoordinates(ctx context.Context, trackerID string, limit int) ([]*models.StoredCoordinate, error)
	ListConfigurations(ctx context.Context, trackerID string) ([]models.ConfigurationRecord, error)
	SaveConfiguration(ctx context.Context, trackerID string, rec models.ConfigurationRecord) error
}

// EventLog is the optional movement audit log.
type EventLog interface {
	RecordEvent(ctx context.Context, e models.TrackerEvent) error
}

type Service struct {
	repo     Repository
	geocoder geocoder.Client
	notifier push.Notifier

	events   EventLog
	cache    cache.BytesCache
	cacheTTL time.Duration
	hooks    DeviceHooks

	locks keyedMutex

	regMu    sync.Mutex
	registry map[string]*Tracker
}

func New(repo Repository, gc geocoder.Client, notifier push.Notifier) *Service {
	return &Service{
		repo:     repo,
		geocoder: gc,
		notifier: notifier,
		hooks:    NopHooks{},
		registry: map[string]*Tracker{},
	}
}

func (s *Service) WithEventLog(events EventLog) *Service {
	s.events = events
	return s
}

func (s *Service) WithCache(c cache.BytesCache, ttl time.Duration) *Service {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

func (s *Service) WithDeviceHooks(hooks DeviceHooks) *Service {
	if hooks != nil {
		s.hooks = hooks
	}
	return s
}

// Tracker returns the in-memory aggregate for a device, creating it on first
// use. The model is only set on creation.
func (s *Service) Tracker(id, model string) *Tracker {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	if tr, ok := s.registry[id]; ok {
		return tr
	}
	tr := NewTracker(id, model)
	s.registry[id] = tr
	return tr
}

// GetState loads a tracker's persisted state, through the cache when one is
// configured. Caching is best-effort.
func (s *Service) GetState(ctx context.Context, trackerID string) (*models.TrackerState, error) {
	if s.cache != nil && s.cacheTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, stateKey(trackerID)); err == nil && ok {
			var state models.TrackerState
			if json.Unmarshal(b, &state) == nil {
				return &state, nil
			}
		}
	}

	state, err := s.repo.GetTrackerState(ctx, trackerID)
	if err != nil {
		return nil, err
	}

	if state != nil && s.cache != nil && s.cacheTTL > 0 {
		if b, err := json.Marshal(state); err == nil {
			_ = s.cache.Set(ctx, stateKey(trackerID), b, s.cacheTTL)
		}
	}
	return state, nil
}

func (s *Service) ListCoordinates(ctx context.Context, trackerID string, limit int) ([]*models.StoredCoordinate, error) {
	return s.repo.ListCoordinates(ctx, trackerID, limit)
}

// SaveConfiguration persists a configuration record as pending, waiting for
// the device to confirm it.
func (s *Service) SaveConfiguration(ctx context.Context, trackerID string, rec models.ConfigurationRecord) error {
	rec.Status.Finished = false
	rec.Status.Datetime = time.Now().UTC()
	return s.repo.SaveConfiguration(ctx, trackerID, rec)
}

func (s *Service) invalidateState(ctx context.Context, trackerID string) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	type deleter interface {
		Del(ctx context.Context, key string) error
	}
	if d, ok := s.cache.(deleter); ok {
		if err := d.Del(ctx, stateKey(trackerID)); err != nil {
			slog.Warn("invalidate state cache", "tracker_id", trackerID, "error", err.Error())
		}
	}
}

func stateKey(trackerID string) string {
	return "tracker:" + trackerID + ":state"
}

// ListConfigurations returns a tracker's persisted configuration records,
// most recently changed first.
func (s *Service) ListConfigurations(ctx context.Context, trackerID string) ([]models.ConfigurationRecord, error) {
	return s.repo.ListConfigurations(ctx, trackerID)
}
