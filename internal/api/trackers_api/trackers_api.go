package trackers_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"trackerd/internal/broker/messages"
	"trackerd/internal/models"

	"github.com/go-chi/chi/v5"
)

// TrackersService is the part of the trackers service the HTTP API consumes.
type TrackersService interface {
	GetState(ctx context.Context, trackerID string) (*models.TrackerState, error)
	ListCoordinates(ctx context.Context, trackerID string, limit int) ([]*models.StoredCoordinate, error)
	ListConfigurations(ctx context.Context, trackerID string) ([]models.ConfigurationRecord, error)
	SaveConfiguration(ctx context.Context, trackerID string, rec models.ConfigurationRecord) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// EventsLister is the optional movement audit log read side.
type EventsLister interface {
	ListEvents(ctx context.Context, trackerID string, limit, offset int) ([]*models.TrackerEvent, error)
}

type TrackersAPI struct {
	svc      TrackersService
	producer Producer
	topic    string

	events EventsLister
}

func New(svc TrackersService, producer Producer, topic string) *TrackersAPI {
	return &TrackersAPI{svc: svc, producer: producer, topic: topic}
}

func (a *TrackersAPI) WithEvents(events EventsLister) *TrackersAPI {
	a.events = events
	return a
}

func (a *TrackersAPI) Routes(r chi.Router) {
	r.Route("/trackers/{trackerID}", func(r chi.Router) {
		r.Get("/", a.getState)
		r.Post("/reports", a.postReport)
		r.Get("/coordinates", a.listCoordinates)
		r.Get("/configurations", a.listConfigurations)
		r.Post("/configurations", a.postConfiguration)
		r.Get("/events", a.listEvents)
	})
}

type reportRequest struct {
	Model                string                  `json:"model,omitempty"`
	State                models.TrackerState     `json:"state"`
	Report               models.CoordinateReport `json:"report"`
	NotificationOverride map[string]string       `json:"notification_override,omitempty"`
}

func (a *TrackersAPI) postReport(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerID")

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Report.Type != models.CoordinateTypeGPS && req.Report.Type != models.CoordinateTypeGSM {
		writeError(w, http.StatusBadRequest, "report type must be GPS or GSM")
		return
	}
	if req.Report.Datetime.IsZero() {
		req.Report.Datetime = time.Now().UTC()
	}

	msg := messages.ReportReceived{
		TrackerID:            trackerID,
		Model:                req.Model,
		State:                req.State,
		Report:               req.Report,
		NotificationOverride: req.NotificationOverride,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode report")
		return
	}
	if err := a.producer.Publish(r.Context(), a.topic, []byte(trackerID), b); err != nil {
		slog.Error("publish report", "tracker_id", trackerID, "error", err.Error())
		writeError(w, http.StatusServiceUnavailable, "report not accepted")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

func (a *TrackersAPI) getState(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerID")

	state, err := a.svc.GetState(r.Context(), trackerID)
	if err != nil {
		slog.Error("get tracker state", "tracker_id", trackerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "get tracker state")
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, "tracker not found")
		return
	}
	writeJSON(w, state)
}

func (a *TrackersAPI) listCoordinates(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerID")
	limit := queryInt(r, "limit", 100)

	coords, err := a.svc.ListCoordinates(r.Context(), trackerID, limit)
	if err != nil {
		slog.Error("list coordinates", "tracker_id", trackerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "list coordinates")
		return
	}
	if coords == nil {
		coords = []*models.StoredCoordinate{}
	}
	writeJSON(w, coords)
}

func (a *TrackersAPI) listConfigurations(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerID")

	configs, err := a.svc.ListConfigurations(r.Context(), trackerID)
	if err != nil {
		slog.Error("list configurations", "tracker_id", trackerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "list configurations")
		return
	}
	if configs == nil {
		configs = []models.ConfigurationRecord{}
	}
	writeJSON(w, configs)
}

func (a *TrackersAPI) postConfiguration(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerID")

	var rec models.ConfigurationRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if rec.Name == "" {
		writeError(w, http.StatusBadRequest, "configuration name is required")
		return
	}

	if err := a.svc.SaveConfiguration(r.Context(), trackerID, rec); err != nil {
		slog.Error("save configuration", "tracker_id", trackerID, "name", rec.Name, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "save configuration")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
}

func (a *TrackersAPI) listEvents(w http.ResponseWriter, r *http.Request) {
	if a.events == nil {
		writeError(w, http.StatusNotFound, "event log not enabled")
		return
	}
	trackerID := chi.URLParam(r, "trackerID")
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	evs, err := a.events.ListEvents(r.Context(), trackerID, limit, offset)
	if err != nil {
		slog.Error("list events", "tracker_id", trackerID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "list events")
		return
	}
	if evs == nil {
		evs = []*models.TrackerEvent{}
	}
	writeJSON(w, evs)
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
