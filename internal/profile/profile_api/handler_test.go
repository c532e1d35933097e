package profile_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
	"ms-calendar/internal/profile"
	profiledb "ms-calendar/internal/profile/db"
	"ms-calendar/internal/profile/profile_api"
)

func setupTestServer(t *testing.T) *chi.Mux {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Profile)(nil)))
	t.Cleanup(func() { bunDB.Close() })

	svc := profile.NewService(&profiledb.DB{Bun: bunDB}, nil)
	handler := &profile_api.Handler{
		ProfileService: svc,
		Logger:         &logger.Logger{},
	}

	r := chi.NewRouter()
	r.Route("/api/profiles", func(r chi.Router) {
		r.Get("/", handler.ListProfiles)
		r.Post("/", handler.CreateProfile)
		r.Get("/{profileId}", handler.GetProfile)
		r.Put("/{profileId}", handler.UpdateProfile)
	})
	return r
}

func createTestProfile(t *testing.T, r *chi.Mux, body string) models.Profile {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/profiles", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, "create failed: %s", w.Body.String())

	var p models.Profile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	return p
}

func TestCreateProfileEndpoint(t *testing.T) {
	r := setupTestServer(t)

	p := createTestProfile(t, r, `{"name": "Alice", "timezone": "America/New_York"}`)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "America/New_York", p.Timezone)
	assert.True(t, p.IsActive)
}

func TestCreateProfileValidationResponse(t *testing.T) {
	r := setupTestServer(t)

	req := httptest.NewRequest("POST", "/api/profiles",
		bytes.NewBufferString(`{"name": "A", "timezone": "Not/AZone"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Validation failed")
}

func TestGetProfileEndpoint(t *testing.T) {
	r := setupTestServer(t)
	created := createTestProfile(t, r, `{"name": "Bob", "timezone": "Asia/Tokyo"}`)

	req := httptest.NewRequest("GET", "/api/profiles/"+created.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var p models.Profile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, "Bob", p.Name)
}

func TestGetProfileNotFound(t *testing.T) {
	r := setupTestServer(t)

	req := httptest.NewRequest("GET", "/api/profiles/nonexistent", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Profile not found")
}

func TestUpdateProfileTimezone(t *testing.T) {
	r := setupTestServer(t)
	created := createTestProfile(t, r, `{"name": "Carol", "timezone": "UTC"}`)

	req := httptest.NewRequest("PUT", "/api/profiles/"+created.ID,
		bytes.NewBufferString(`{"timezone": "Europe/Berlin"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "update failed: %s", w.Body.String())
	var p models.Profile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, "Carol", p.Name, "omitted name stays")
	assert.Equal(t, "Europe/Berlin", p.Timezone)
}

func TestListProfilesEndpoint(t *testing.T) {
	r := setupTestServer(t)
	createTestProfile(t, r, `{"name": "Alice", "timezone": "America/New_York"}`)
	createTestProfile(t, r, `{"name": "Bob", "timezone": "Asia/Tokyo"}`)

	req := httptest.NewRequest("GET", "/api/profiles/?timezone=Asia/Tokyo", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var profiles []models.Profile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, "Bob", profiles[0].Name)
}
