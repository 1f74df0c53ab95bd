package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/dataset/fixture"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/facade"
	"github.com/lintang-b-s/roadfacade/pkg/server/rest"
	"github.com/lintang-b-s/roadfacade/pkg/server/rest/service"
)

type testServer struct {
	handler http.Handler
	dataset *dataset.Dataset[datastructure.QueryEdgeData]
	facade  facade.DataFacade[datastructure.QueryEdgeData]
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T, opts ...facade.Option) testServer {
	d, err := fixture.Network()
	require.NoError(t, err)
	f, err := facade.NewInternalDataFacade(d, opts...)
	require.NoError(t, err)

	holder := facade.NewHolder[datastructure.QueryEdgeData](f, zerolog.Nop())
	t.Cleanup(func() { holder.Close() })

	reg := prometheus.NewRegistry()
	r := chi.NewRouter()
	r.Use(rest.PromeHttpMiddleware(rest.NewMetrics(reg)))
	rest.SnappingRouter(r, service.NewSnappingService(holder, zerolog.Nop()))

	return testServer{handler: r, dataset: d, facade: f, reg: reg}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[V any](t *testing.T, rec *httptest.ResponseRecorder) V {
	var v V
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestInfo(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/facade", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	info := decode[service.DatasetInfo](t, rec)
	assert.Equal(t, s.dataset.Checksum, info.Checksum)
	assert.Equal(t, fixture.Timestamp, info.Timestamp)
	assert.Equal(t, 11, info.NumberOfNodes)
	assert.Equal(t, 26, info.NumberOfEdges)
	assert.Equal(t, 1, info.CoreSize)

	count, err := testutil.GatherAndCount(s.reg, "roadfacade_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNearest(t *testing.T) {
	s := newTestServer(t)
	node := fixture.GridCoordinate(1, 2)

	rec := s.do(t, http.MethodPost, "/api/nearest", map[string]any{
		"lat": node.LatDegrees(), "lon": node.LonDegrees(), "k": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[rest.SnapsResponse](t, rec)
	require.Len(t, resp.Snaps, 2)
	for _, snap := range resp.Snaps {
		assert.InDelta(t, 0.0, snap.Distance, 0.2)
		assert.Contains(t, []string{fixture.RowName(1), fixture.ColName(2)}, snap.Name)
	}
}

func TestNearestInRange(t *testing.T) {
	s := newTestServer(t)
	node := fixture.GridCoordinate(1, 2)

	rec := s.do(t, http.MethodPost, "/api/nearest-range", map[string]any{
		"lat": node.LatDegrees(), "lon": node.LonDegrees(), "radius": 60,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[rest.SnapsResponse](t, rec)
	assert.Len(t, resp.Snaps, 3)
	for _, snap := range resp.Snaps {
		assert.LessOrEqual(t, snap.Distance, 60.0)
	}

	rec = s.do(t, http.MethodPost, "/api/nearest-range", map[string]any{
		"lat": node.LatDegrees(), "lon": node.LonDegrees(), "radius": 60,
		"bearing": map[string]any{"value": 45, "range": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[rest.SnapsResponse](t, rec).Snaps)
}

func TestNearestBigComponent(t *testing.T) {
	island := map[string]any{
		"lat": fixture.BaseLat + 10*fixture.Step,
		"lon": fixture.BaseLon + 10.5*fixture.Step,
	}

	t.Run("found", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/api/nearest-big-component", island)
		require.Equal(t, http.StatusOK, rec.Code)

		pair := decode[service.SnapPair](t, rec)
		assert.Equal(t, fixture.TinyName, pair.Nearest.Name)
		assert.True(t, pair.Nearest.Component.IsTiny)
		assert.False(t, pair.BigComponent.Component.IsTiny)
		assert.Greater(t, pair.BigComponent.Distance, pair.Nearest.Distance)
	})

	t.Run("outside search radius", func(t *testing.T) {
		s := newTestServer(t, facade.WithMaxSearchRadius(500))
		rec := s.do(t, http.MethodPost, "/api/nearest-big-component", island)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEdgeGeometry(t *testing.T) {
	s := newTestServer(t)
	bent, ok := s.facade.FindEdge(fixture.GridNode(2, 1), fixture.GridNode(2, 2))
	require.True(t, ok)

	rec := s.do(t, http.MethodGet, "/api/edges/"+strconv.FormatUint(uint64(bent), 10)+"/geometry", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	geometry := decode[service.EdgeGeometry](t, rec)
	assert.Equal(t, fixture.RowName(2), geometry.Name)
	assert.True(t, geometry.Compressed)
	require.Len(t, geometry.Nodes, 3)
	assert.Equal(t, fixture.GridCoordinate(2, 1), geometry.Coordinates[0])
	assert.Equal(t, fixture.GridCoordinate(2, 2), geometry.Coordinates[2])

	assert.Greater(t, geometry.Length, 111.0)

	decoded, err := datastructure.DecodePolyline(geometry.Polyline)
	require.NoError(t, err)
	assert.Equal(t, geometry.Coordinates, decoded)

	// the shape point sits about 22 m off the straight line
	rec = s.do(t, http.MethodGet, "/api/edges/"+strconv.FormatUint(uint64(bent), 10)+"/geometry?simplify=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	simplified := decode[service.EdgeGeometry](t, rec)
	assert.Len(t, simplified.Coordinates, 3)

	decoded, err = datastructure.DecodePolyline(simplified.Polyline)
	require.NoError(t, err)
	assert.Equal(t, []datastructure.FixedPointCoordinate{fixture.GridCoordinate(2, 1), fixture.GridCoordinate(2, 2)}, decoded)
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		validation bool
	}{
		{"latitude out of range", http.MethodPost, "/api/nearest", map[string]any{"lat": 95, "lon": 110, "k": 1}, http.StatusBadRequest, true},
		{"missing k", http.MethodPost, "/api/nearest", map[string]any{"lat": -7.55, "lon": 110.8}, http.StatusBadRequest, true},
		{"missing coordinate", http.MethodPost, "/api/nearest-big-component", map[string]any{}, http.StatusBadRequest, true},
		{"bearing out of range", http.MethodPost, "/api/nearest-range",
			map[string]any{"lat": -7.55, "lon": 110.8, "radius": 10, "bearing": map[string]any{"value": 400, "range": 10}},
			http.StatusBadRequest, true},
		{"radius too large", http.MethodPost, "/api/nearest-range",
			map[string]any{"lat": -7.55, "lon": 110.8, "radius": 1e9}, http.StatusBadRequest, true},
		{"malformed body", http.MethodPost, "/api/nearest", "not an object", http.StatusBadRequest, false},
		{"unknown edge", http.MethodGet, "/api/edges/999/geometry", nil, http.StatusNotFound, false},
		{"edge id not a number", http.MethodGet, "/api/edges/abc/geometry", nil, http.StatusBadRequest, false},
		{"negative simplify tolerance", http.MethodGet, "/api/edges/0/geometry?simplify=-1", nil, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			resp := decode[rest.ErrResponse](t, rec)
			assert.NotEmpty(t, resp.ErrorText)
			if tt.validation {
				assert.NotEmpty(t, resp.ErrValidation)
			}
		})
	}
}
