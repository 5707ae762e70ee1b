package messages

import "trackerd/internal/models"

// ReportReceived is published by the API (or a device listener) for every
// decoded coordinate report and consumed by the worker's ingestion loop.
// The message key is the tracker id, so one tracker's reports stay ordered
// within a partition.
type ReportReceived struct {
	TrackerID string `json:"tracker_id"`
	Model     string `json:"model,omitempty"`

	State  models.TrackerState     `json:"state"`
	Report models.CoordinateReport `json:"report"`

	// NotificationOverride replaces matching keys of the generated
	// notification payload.
	NotificationOverride map[string]string `json:"notification_override,omitempty"`
}
