package profile_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-calendar/internal/errs"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/profile"
)

type Handler struct {
	ProfileService *profile.Service
	Logger         *logger.Logger
}

// ListProfiles handles GET /api/profiles with optional timezone, search and
// sortBy query parameters. Only active profiles are returned.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ProfileFilter{
		Timezone: q.Get("timezone"),
		Search:   q.Get("search"),
		SortBy:   q.Get("sortBy"),
	}

	profiles, err := h.ProfileService.Find(r.Context(), filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProfiles: %v", err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, profiles)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileId")

	p, err := h.ProfileService.Get(r.Context(), profileID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetProfile: %v", err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateProfile: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.ProfileService.Create(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateProfile: %v", err))
		h.writeError(w, err)
		return
	}
	h.Logger.LogProfile("CREATE", p.ID, "profile created")

	h.writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileId")

	var req models.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateProfile: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.ProfileService.Update(r.Context(), profileID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateProfile: %v", err))
		h.writeError(w, err)
		return
	}
	h.Logger.LogProfile("UPDATE", profileID, "profile updated")

	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

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
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Profile not found"})
	case errors.Is(err, errs.ErrTimeout):
		h.writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "Request timed out"})
	case errors.Is(err, errs.ErrStoreUnavailable):
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Store unavailable"})
	default:
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error processing profile request"})
	}
}
