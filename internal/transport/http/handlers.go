// Package httptransport is the thin ingress layer: it validates and defaults
// inbound events, hands them to the bus, serves the read-only notification
// API, and reports process health. No pipeline logic lives here.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"herald/internal/event"
	"herald/internal/notify/models"
	"herald/internal/notify/store"
	"herald/pkg/sentinel"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Publisher is what the produce endpoint needs from the event bus.
type Publisher interface {
	Publish(ctx context.Context, e event.Event)
}

// NotificationReader is the read-only slice of the record store the
// notification endpoints expose. External consumers never write records.
type NotificationReader interface {
	FindByEventID(ctx context.Context, eventID string) (*models.NotificationRecord, error)
	List(ctx context.Context, filter store.ListFilter) ([]*models.NotificationRecord, error)
}

// Handler handles the ingress endpoints.
type Handler struct {
	bus           Publisher
	notifications NotificationReader
	logger        *slog.Logger
	checks        map[string]HealthCheck
	clock         func() time.Time
}

// NewHandler creates the ingress handler. checks maps dependency names to
// their probes; a nil map means the health endpoint only reports liveness.
func NewHandler(bus Publisher, notifications NotificationReader, logger *slog.Logger, checks map[string]HealthCheck) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{bus: bus, notifications: notifications, logger: logger, checks: checks, clock: time.Now}
}

type produceRequest struct {
	EventID   string          `json:"eventId"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"createdAt"`
}

type produceResponse struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

// handleProduceEvent accepts a user event, defaults eventId and createdAt,
// and publishes it to the bus. The response is 202: dispatch is asynchronous
// and its outcome is only visible through the record status and the
// dead-letter stream.
func (h *Handler) handleProduceEvent(w http.ResponseWriter, r *http.Request) {
	var req produceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e := event.Event{
		EventID:   req.EventID,
		UserID:    req.UserID,
		Type:      req.Type,
		Payload:   req.Payload,
		CreatedAt: req.CreatedAt,
	}
	if err := e.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.Normalize(h.clock())

	// Detach from the request context: delivery outlives the response.
	h.bus.Publish(context.WithoutCancel(r.Context()), e)

	h.logger.Debug("event accepted", "event_id", e.EventID, "user_id", e.UserID, "type", e.Type)
	h.writeJSON(w, http.StatusAccepted, produceResponse{EventID: e.EventID, Status: "accepted"})
}

type notificationResponse struct {
	ID        string          `json:"id"`
	EventID   string          `json:"eventId"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toNotificationResponse(record *models.NotificationRecord) notificationResponse {
	return notificationResponse{
		ID:        record.ID.String(),
		EventID:   record.EventID,
		UserID:    record.UserID,
		Type:      record.Type,
		Payload:   record.Payload,
		Status:    string(record.Status),
		CreatedAt: record.CreatedAt,
	}
}

// handleListNotifications returns stored records newest first, optionally
// narrowed by userId and status, capped by limit.
func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{UserID: r.URL.Query().Get("userId")}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.Status(raw)
		if !status.IsValid() {
			h.writeError(w, http.StatusBadRequest, "unknown status: "+raw)
			return
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	records, err := h.notifications.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	out := make([]notificationResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toNotificationResponse(record))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleGetNotification returns the record for one eventId.
func (h *Handler) handleGetNotification(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	record, err := h.notifications.FindByEventID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		h.logger.Error("failed to load notification", "event_id", eventID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load notification")
		return
	}
	h.writeJSON(w, http.StatusOK, toNotificationResponse(record))
}

// handleHealth reports liveness plus per-dependency reachability. Any failed
// probe flips the status code to 503 but the body still names each check.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	h.writeJSON(w, status, map[string]any{
		"status":       healthWord(status),
		"dependencies": deps,
	})
}

func healthWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
