package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/trailbeacon/sheltermap/internal/engine"
	"github.com/trailbeacon/sheltermap/internal/markers"
	"github.com/trailbeacon/sheltermap/internal/poi"
	"github.com/trailbeacon/sheltermap/internal/resilience"
	"github.com/trailbeacon/sheltermap/internal/store"
)

type stubProvider struct{}

func (stubProvider) SearchBounds(context.Context, *geom.Bounds, poi.Type) ([]poi.POI, error) {
	return nil, nil
}

func (stubProvider) SearchName(context.Context, string) ([]poi.POI, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *store.Store, *markers.Board) {
	t.Helper()
	s := store.New(store.NewMemory(), "pois")
	conn := engine.NewConnectivity(false)
	board := markers.NewBoard()
	eng := engine.New(s, stubProvider{}, conn, board, engine.Config{
		Debounce:     10 * time.Millisecond,
		FetchTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	searcher := engine.NewSearcher(s, stubProvider{}, conn, resilience.DefaultRetryConfig())
	return newRouter(eng, s, board, conn, searcher, nil), s, board
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestServeStatus(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"online":false`)
	assert.Contains(t, rec.Body.String(), `"fetch_failures":0`)
}

func TestServePOIs(t *testing.T) {
	h, s, _ := newTestRouter(t)
	_, err := s.Merge(context.Background(), []poi.POI{
		{ID: "a", Type: poi.TypeShelter, Name: "Rifugio Alpino", Latitude: 46.1, Longitude: 11.3},
	})
	require.NoError(t, err)

	rec := doRequest(t, h, http.MethodGet, "/api/pois", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rifugio Alpino")
}

func TestServeViewportValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/viewport", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// North below south.
	rec = doRequest(t, h, http.MethodPost, "/api/viewport",
		`{"south":46.2,"west":11.0,"north":46.0,"east":11.3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out of order")

	rec = doRequest(t, h, http.MethodPost, "/api/viewport",
		`{"south":46.0,"west":11.0,"north":46.2,"east":11.3}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestServeFiltersValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/filters",
		`{"min_altitude":3000,"max_altitude":1000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/filters",
		`{"type":"water","require_water":true}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestServeMarkerClickUnknown(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/markers/ghost/click", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeMarkerClickKnown(t *testing.T) {
	h, _, board := newTestRouter(t)
	board.PlaceMarker("m1", 46.1, 11.3, markers.Appearance{Type: poi.TypeShelter})

	rec := doRequest(t, h, http.MethodPost, "/api/markers/m1/click", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case id := <-board.Clicks():
		assert.Equal(t, "m1", id)
	default:
		t.Fatal("click not recorded")
	}
}

func TestServeConnectivityToggle(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/connectivity", `{"online":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/status", "")
	assert.Contains(t, rec.Body.String(), `"online":true`)
}

func TestServeSearchOfflineMatch(t *testing.T) {
	h, s, _ := newTestRouter(t)
	_, err := s.Merge(context.Background(), []poi.POI{
		{ID: "a", Type: poi.TypeShelter, Name: "Rifugio Alpino", Latitude: 46.1, Longitude: 11.3},
	})
	require.NoError(t, err)

	rec := doRequest(t, h, http.MethodPost, "/api/search", `{"query":"alpino"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"a"`)

	rec = doRequest(t, h, http.MethodPost, "/api/search", `{"query":"nonexistent"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"match":null`)
}

func TestServeEnrichmentUnknownPOI(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodGet, "/api/pois/ghost/enrichment", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeEnrichmentWithoutEnricher(t *testing.T) {
	h, s, _ := newTestRouter(t)
	_, err := s.Merge(context.Background(), []poi.POI{
		{ID: "a", Type: poi.TypeShelter, Name: "Rifugio Alpino", Latitude: 46.1, Longitude: 11.3},
	})
	require.NoError(t, err)

	rec := doRequest(t, h, http.MethodGet, "/api/pois/a/enrichment", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enrichment":null`)
}
