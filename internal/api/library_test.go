package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RequiresBearerToken(t *testing.T) {
	router := setupTestRouter(t, &fakeLauncher{}, "secret")

	w := doJSON(t, router, http.MethodGet, "/api/library/user/u1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/library/user/u1", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/library/user/u1", nil, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, w.Code)

	// scraping routes are outside /api
	w = doJSON(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLibraryRoutes(t *testing.T) {
	router := setupTestRouter(t, &fakeLauncher{}, "")

	w := doJSON(t, router, http.MethodPost, "/api/library", map[string]any{"userId": "u1", "name": "Reading"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lib := decode(t, w)
	libID := lib["id"].(string)
	assert.Equal(t, "Reading", lib["name"])

	w = doJSON(t, router, http.MethodPost, "/api/library/"+libID+"/manga", map[string]any{"slug": "one-piece", "domain": "weebcentral"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode(t, w)
	itemID := item["id"].(string)
	assert.Equal(t, float64(0), item["progress"])

	w = doJSON(t, router, http.MethodPut, "/api/library/manga/"+itemID, map[string]any{"progress": 12})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(12), decode(t, w)["progress"])

	w = doJSON(t, router, http.MethodGet, "/api/library/"+libID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mangas := decode(t, w)["mangas"].([]any)
	require.Len(t, mangas, 1)
	assert.Equal(t, "one-piece", mangas[0].(map[string]any)["slug"])

	w = doJSON(t, router, http.MethodGet, "/api/library/user/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), libID)

	w = doJSON(t, router, http.MethodDelete, "/api/library/manga/"+itemID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/library/manga/"+itemID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibraryRoutes_Errors(t *testing.T) {
	router := setupTestRouter(t, &fakeLauncher{}, "")

	w := doJSON(t, router, http.MethodGet, "/api/library/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/library", map[string]any{"name": "no user"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/library/missing/manga", map[string]any{"slug": "x", "domain": "weebcentral"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/library/manga/missing", map[string]any{"progress": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferenceRoutes(t *testing.T) {
	router := setupTestRouter(t, &fakeLauncher{}, "")

	w := doJSON(t, router, http.MethodGet, "/api/preferences/u1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u1", decode(t, w)["userId"])

	w = doJSON(t, router, http.MethodGet, "/api/preferences/u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/preferences/u1", map[string]any{"theme": "dark"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/preferences/u1", map[string]any{"theme": "dark"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", decode(t, w)["theme"])

	w = doJSON(t, router, http.MethodPut, "/api/preferences/nobody", map[string]any{"theme": "dark"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/preferences/upsert/u2", map[string]any{"language": "fr"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fr", decode(t, w)["language"])

	w = doJSON(t, router, http.MethodPost, "/api/preferences/u3", map[string]any{"notifications": false})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, decode(t, w)["notifications"])

	w = doJSON(t, router, http.MethodDelete, "/api/preferences/u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/preferences/u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
