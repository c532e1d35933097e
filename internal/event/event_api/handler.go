package event_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-calendar/internal/errs"
	"ms-calendar/internal/event"
	"ms-calendar/internal/ics"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

type Handler struct {
	EventService *event.Service
	Logger       *logger.Logger
}

// ListEvents handles GET /api/events with optional profileId, startDate,
// endDate, timezone and search query parameters.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: bad query: %v", err))
		h.writeError(w, err)
		return
	}

	events, err := h.EventService.Find(r.Context(), filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, events)
}

// ExportEvents handles GET /api/events/ics with the same filters as the
// list, rendered as an iCalendar feed.
func (h *Handler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	events, err := h.EventService.Find(r.Context(), filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ExportEvents: %v", err))
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	if _, err := w.Write([]byte(ics.Export(events))); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ExportEvents: failed to write feed: %v", err))
	}
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("GetEvent: eventId=%s", eventID))

	ev, err := h.EventService.Get(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: %v", err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ev, err := h.EventService.Create(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		h.writeError(w, err)
		return
	}
	h.Logger.LogEvent("CREATE", ev.ID, "event created")

	h.writeJSON(w, http.StatusCreated, ev)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var upd models.EventUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ev, err := h.EventService.Update(r.Context(), eventID, upd)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: %v", err))
		h.writeError(w, err)
		return
	}
	h.Logger.LogEvent("UPDATE", eventID, "event updated")

	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	ev, err := h.EventService.Delete(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: %v", err))
		h.writeError(w, err)
		return
	}
	h.Logger.LogEvent("DELETE", eventID, "event deleted")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Event deleted successfully",
		"event":   ev,
	})
}

func filterFromQuery(r *http.Request) (models.EventFilter, error) {
	q := r.URL.Query()
	filter := models.EventFilter{
		ProfileID: q.Get("profileId"),
		Timezone:  q.Get("timezone"),
		Search:    q.Get("search"),
	}

	if raw := q.Get("startDate"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := parseDateParam(raw)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &t
	}
	return filter, nil
}

func parseDateParam(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errs.ErrInvalidDateTime, raw)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

// writeError maps error kinds onto HTTP statuses. Validation failures carry
// the complete field-error set in one response.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if ve, ok := errs.AsValidation(err); ok {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Validation failed",
			"fields": ve.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, errs.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Event not found"})
	case errors.Is(err, errs.ErrInvalidTimezone), errors.Is(err, errs.ErrInvalidDateTime):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, errs.ErrTimeout):
		h.writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "Request timed out"})
	case errors.Is(err, errs.ErrStoreUnavailable):
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Store unavailable"})
	default:
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error processing event request"})
	}
}
