package trackers

import (
	"sync"
	"time"

	"trackerd/internal/models"
)

// Server channel names per supported device class, used for logging only.
// The actual byte/SMS decoding for these models lives outside this service.
var deviceLabels = map[string]string{
	"tk102": "TK102/103",
	"tk103": "TK102/103",
	"st940": "Suntech ST940",
	"spot":  "SPOT Trace",
}

const defaultDeviceLabel = "generic"

// Tracker is the in-memory aggregate for one device: identity, device-class
// label, last loaded state and the configuration set. Configuration reloads
// swap the whole set at once, so readers never see a half-applied reload.
type Tracker struct {
	id    string
	model string

	mu             sync.Mutex
	state          models.TrackerState
	configurations map[string]models.ConfigurationRecord
	pending        []models.ConfigurationRecord
}

func NewTracker(id, model string) *Tracker {
	return &Tracker{
		id:             id,
		model:          model,
		configurations: map[string]models.ConfigurationRecord{},
	}
}

func (t *Tracker) ID() string { return t.id }

func (t *Tracker) Model() string { return t.model }

// Label returns the server channel name of the tracker's device class.
func (t *Tracker) Label() string {
	if l, ok := deviceLabels[t.model]; ok {
		return l
	}
	return defaultDeviceLabel
}

func (t *Tracker) State() models.TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) LoadState(state models.TrackerState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

func (t *Tracker) Configuration(name string) (models.ConfigurationRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.configurations[name]
	return rec, ok
}

func (t *Tracker) ConfigurationsCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.configurations)
}

// PendingConfigurations returns the records still waiting for device
// confirmation, most recently changed first.
func (t *Tracker) PendingConfigurations() []models.ConfigurationRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.ConfigurationRecord, len(t.pending))
	copy(out, t.pending)
	return out
}

// replaceConfigurations installs a freshly loaded configuration set,
// discarding whatever was there before.
func (t *Tracker) replaceConfigurations(set map[string]models.ConfigurationRecord, pending []models.ConfigurationRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.configurations = set
	t.pending = pending
}

// ConfirmConfiguration transitions the named record to finished and drops it
// from the pending list. The transition is one-way; only a full reload can
// bring a record back.
func (t *Tracker) ConfirmConfiguration(name string, enabled bool) (models.ConfigurationRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.configurations[name]
	if !ok {
		return models.ConfigurationRecord{}, false
	}

	rec.Enabled = enabled
	rec.Status.Finished = true
	rec.Status.Datetime = time.Now().UTC()
	t.configurations[name] = rec

	kept := t.pending[:0]
	for _, p := range t.pending {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	t.pending = kept

	return rec, true
}
