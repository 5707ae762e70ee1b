package models

import "time"

// Coordinate fix types reported by devices.
const (
	CoordinateTypeGPS = "GPS"
	CoordinateTypeGSM = "GSM"
)

// Notification topics emitted by the ingestion pipeline.
const (
	TopicMovement = "Notify_Movement"
	TopicStopped  = "Notify_Stopped"
)

type Position struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// CoordinateSummary is the compact last-known-coordinate block kept on the
// tracker state document.
type CoordinateSummary struct {
	Type     string    `bson:"type" json:"type"`
	Position Position  `bson:"position" json:"position"`
	Datetime time.Time `bson:"datetime" json:"datetime"`
}

// TrackerState is the mutable per-device document. Updates are merged into the
// stored document: zero-valued fields are omitted and never clear what is
// already persisted. Extra carries provider-specific passthrough fields only.
type TrackerState struct {
	Name           string             `bson:"name,omitempty" json:"name,omitempty"`
	Model          string             `bson:"model,omitempty" json:"model,omitempty"`
	Identification string             `bson:"identification,omitempty" json:"identification,omitempty"`
	Network        string             `bson:"network,omitempty" json:"network,omitempty"`
	BatteryLevel   string             `bson:"batteryLevel,omitempty" json:"batteryLevel,omitempty"`
	SignalLevel    string             `bson:"signalLevel,omitempty" json:"signalLevel,omitempty"`
	LastCoordinate *CoordinateSummary `bson:"lastCoordinate,omitempty" json:"lastCoordinate,omitempty"`
	LastUpdate     *time.Time         `bson:"lastUpdate,omitempty" json:"lastUpdate,omitempty"`
	Extra          map[string]string  `bson:"extra,omitempty" json:"extra,omitempty"`
}

// CoordinateReport is one decoded position update from a device.
type CoordinateReport struct {
	ID        string    `bson:"id,omitempty" json:"id,omitempty"`
	Type      string    `bson:"type" json:"type"`
	Position  Position  `bson:"position" json:"position"`
	Datetime  time.Time `bson:"datetime" json:"datetime"`
	Speed     float64   `bson:"speed,omitempty" json:"speed,omitempty"`
	Battery   string    `bson:"battery,omitempty" json:"battery,omitempty"`
	Signal    string    `bson:"signal,omitempty" json:"signal,omitempty"`
}

// StoredCoordinate is a persisted coordinate document. Datetime is the
// first-seen time of the point; LastDatetime is bumped while the device stays
// within threshold distance of it.
type StoredCoordinate struct {
	TrackerID    string     `bson:"trackerId" json:"trackerId"`
	Key          string     `bson:"key" json:"key"`
	ID           string     `bson:"id,omitempty" json:"id,omitempty"`
	Type         string     `bson:"type" json:"type"`
	Position     Position   `bson:"position" json:"position"`
	Datetime     time.Time  `bson:"datetime" json:"datetime"`
	LastDatetime *time.Time `bson:"lastDatetime,omitempty" json:"lastDatetime,omitempty"`
	Address      string     `bson:"address,omitempty" json:"address,omitempty"`
	Speed        float64    `bson:"speed,omitempty" json:"speed,omitempty"`
	Battery      string     `bson:"battery,omitempty" json:"battery,omitempty"`
	Signal       string     `bson:"signal,omitempty" json:"signal,omitempty"`
}

// CoordinateUpdate is the stationary-branch partial update: it deliberately has
// no datetime field, so the original first-seen timestamp of the stored
// document survives the in-place update.
type CoordinateUpdate struct {
	Type         string    `bson:"type" json:"type"`
	Position     Position  `bson:"position" json:"position"`
	LastDatetime time.Time `bson:"lastDatetime" json:"lastDatetime"`
	Speed        float64   `bson:"speed,omitempty" json:"speed,omitempty"`
	Battery      string    `bson:"battery,omitempty" json:"battery,omitempty"`
	Signal       string    `bson:"signal,omitempty" json:"signal,omitempty"`
}

type ConfigStatus struct {
	Finished bool      `bson:"finished" json:"finished"`
	Datetime time.Time `bson:"datetime" json:"datetime"`
}

// ConfigurationRecord is a named setting pushed to a device, pending until the
// device confirms it.
type ConfigurationRecord struct {
	Name    string       `bson:"name" json:"name"`
	Enabled bool         `bson:"enabled" json:"enabled"`
	Value   string       `bson:"value,omitempty" json:"value,omitempty"`
	Status  ConfigStatus `bson:"status" json:"status"`
}

// TrackerEvent is one row of the movement audit log.
const (
	EventKindMovement = "MOVEMENT"
	EventKindStopped  = "STOPPED"
)

type TrackerEvent struct {
	ID         uint64
	TrackerID  string
	Kind       string
	Latitude   float64
	Longitude  float64
	Address    string
	OccurredAt time.Time
	CreatedAt  time.Time
}
