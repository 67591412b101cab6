package dashboardhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"vaxmap/internal/config"
	"vaxmap/internal/dashboard"
	"vaxmap/internal/logger"
	"vaxmap/internal/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleDoc = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-122.1,47.5]},"properties":{"name":"King","fullyVaxPer10k":6512,"population":2269675}},
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-118.5,47.0]},"properties":{"name":"Adams","fullyVaxPer10k":500}},
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-118.3,48.5]},"properties":{"name":"Ferry","fullyVaxPer10k":2500}}
]}`

const zeroDoc = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-122.1,47.5]},"properties":{"name":"A","fullyVaxPer10k":0}}
]}`

type staticSource struct {
	body string
	err  error
}

func (s staticSource) Fetch(context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func (s staticSource) Location() string { return "memory://test" }

func mapConfig() config.MapConfig {
	return config.MapConfig{
		AccessToken: "pk.test-token",
		Style:       "mapbox://styles/mapbox/light-v10",
		Center:      [2]float64{-120.5, 47.5},
		Zoom:        6.5,
		FillOpacity: 0.8,
		BorderColor: "#999",
		BorderWidth: 2,
	}
}

func newTestServer(t *testing.T, src staticSource, m *metrics.Metrics) (*Server, *dashboard.Store) {
	t.Helper()
	store := dashboard.NewStore(src.Location())
	loader := dashboard.NewLoader(src, store)
	_, _ = loader.Load(context.Background())
	srv, err := NewServer(ServerConfig{
		Store:   store,
		Map:     mapConfig(),
		Metrics: m,
		Reload: func(ctx context.Context) error {
			_, err := loader.Load(ctx)
			return err
		},
	})
	require.NoError(t, err)
	return srv, store
}

func do(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestNewServer_RequiresStore(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestIndexAndStatic(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)

	rec := do(t, srv, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="resetBtn"`)
	assert.Contains(t, body, "pk.test-token")
	assert.Contains(t, body, "fullyVaxPer10k")
	assert.Contains(t, body, "60%+")

	rec = do(t, srv, http.MethodGet, "/static/dashboard.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")

	rec = do(t, srv, http.MethodGet, "/static/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)
	rec := do(t, srv, http.MethodGet, "/healthz")
	_, err := uuid.Parse(rec.Header().Get(headerRequestID))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, id)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(headerRequestID))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLevel("debug")
	t.Cleanup(func() {
		logger.SetOutput(os.Stdout)
		logger.SetLevel("info")
	})

	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/histogram?x=1", nil)
	req.Header.Set(headerRequestID, id)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `msg="http request"`)
	assert.Contains(t, out, `path="/api/histogram?x=1"`)
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "request_id="+id)
}

func TestStatusAndData(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)

	rec := do(t, srv, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var st dashboard.Status
	decode(t, rec, &st)
	assert.True(t, st.Loaded)
	assert.Equal(t, 3, st.Features)
	assert.Equal(t, "memory://test", st.Source)

	rec = do(t, srv, http.MethodGet, "/api/data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, sampleDoc, rec.Body.String())
}

func TestStatus_LoadFailure(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{err: errors.New("HTTP error! status: 404")}, nil)

	rec := do(t, srv, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var st dashboard.Status
	decode(t, rec, &st)
	assert.Equal(t, "HTTP error! status: 404", st.Error)
	assert.False(t, st.Loading)

	for _, path := range []string{"/api/data", "/api/stats", "/api/histogram", "/api/features/0", "/chart", "/chart.png", "/export.xlsx"} {
		rec = do(t, srv, http.MethodGet, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	rec = do(t, srv, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)
	rec := do(t, srv, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	decode(t, rec, &got)
	assert.Equal(t, "3", got["total"])
	assert.Equal(t, "31.7%", got["avg"])
	assert.Equal(t, "65.1%", got["max"])
	assert.Equal(t, "5.0%", got["min"])
	raw := got["raw"].(map[string]any)
	assert.Equal(t, 31.7, raw["avg"])

	zero, _ := newTestServer(t, staticSource{body: zeroDoc}, nil)
	rec = do(t, zero, http.MethodGet, "/api/stats")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHistogramAndBands(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)
	rec := do(t, srv, http.MethodGet, "/api/histogram")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []struct {
		Label string `json:"label"`
		Color string `json:"color"`
		Count int    `json:"count"`
	}
	decode(t, rec, &hist)
	require.Len(t, hist, 6)
	assert.Equal(t, "0-20%", hist[0].Label)
	assert.Equal(t, 1, hist[0].Count)
	assert.Equal(t, 1, hist[1].Count)
	assert.Equal(t, 1, hist[5].Count)

	rec = do(t, srv, http.MethodGet, "/api/bands")
	require.Equal(t, http.StatusOK, rec.Code)
	var bands struct {
		RawThresholds  []float64 `json:"raw_thresholds"`
		FillExpression []any     `json:"fill_expression"`
		Bands          []any     `json:"bands"`
	}
	decode(t, rec, &bands)
	assert.Equal(t, []float64{2000, 3000, 4000, 5000, 6000}, bands.RawThresholds)
	assert.Len(t, bands.FillExpression, 12)
	assert.Len(t, bands.Bands, 6)
}

func TestViewSelectReset(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)

	rec := do(t, srv, http.MethodGet, "/api/view")
	require.Equal(t, http.StatusOK, rec.Code)
	var view dashboard.State
	decode(t, rec, &view)
	assert.Equal(t, [2]float64{-120.5, 47.5}, view.View.Center)
	assert.Equal(t, 6.5, view.View.Zoom)
	assert.Equal(t, dashboard.Placeholder, view.Panel.Placeholder)
	assert.False(t, view.ShowChart)

	rec = do(t, srv, http.MethodGet, "/api/features/0")
	require.Equal(t, http.StatusOK, rec.Code)
	var sel dashboard.State
	decode(t, rec, &sel)
	require.NotNil(t, sel.Selected)
	assert.Equal(t, 0, *sel.Selected)
	assert.True(t, sel.ShowChart)
	assert.Equal(t, "King County", sel.Panel.Title)
	assert.Equal(t, "65.1%", sel.Panel.Rate)
	assert.Equal(t, []dashboard.Row{{Key: "population", Value: "22696.8"}}, sel.Panel.Rows)

	rec = do(t, srv, http.MethodGet, "/api/features/3")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/features/-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/features/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/reset")
	require.Equal(t, http.StatusOK, rec.Code)
	var reset dashboard.State
	decode(t, rec, &reset)
	assert.Nil(t, reset.Selected)
	assert.False(t, reset.ShowChart)
	assert.Equal(t, dashboard.Placeholder, reset.Panel.Placeholder)
	assert.Equal(t, 6.5, reset.View.Zoom)
}

func TestChartsAndExport(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)

	rec := do(t, srv, http.MethodGet, "/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")
	assert.Contains(t, rec.Body.String(), "Avg 31.7%")

	rec = do(t, srv, http.MethodGet, "/chart.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(t, srv, http.MethodGet, "/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Counties")
}

func TestReload(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, nil)
	rec := do(t, srv, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	var st dashboard.Status
	decode(t, rec, &st)
	assert.True(t, st.Loaded)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, staticSource{body: sampleDoc}, metrics.New(false))
	do(t, srv, http.MethodGet, "/api/histogram")
	rec := do(t, srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vaxmap_http_requests_total{method="GET",route="/api/histogram",status="200"} 1`)
}
