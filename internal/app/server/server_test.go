package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartapress/cartapress/internal/app"
	"github.com/cartapress/cartapress/internal/effects"
	"github.com/cartapress/cartapress/internal/export"
	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/logger"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/pipeline"
	"github.com/cartapress/cartapress/internal/theme"
)

type stubResolver struct {
	coord model.Coordinate
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, q model.LocationQuery) (model.Coordinate, error) {
	if s.err != nil {
		return model.Coordinate{}, s.err
	}
	return s.coord, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, center model.Point, radiusM int, rec *fault.Recorder) (model.Dataset, error) {
	return model.NewDataset(center, radiusM), nil
}

const testTheme = `{
	"bg": "#0d0d0d",
	"text": "#e8e8e8",
	"road_primary": "#d4d4d4"
}`

func testApp(t *testing.T, resolver pipeline.Resolver) (*app.App, string) {
	t.Helper()
	zl := logger.Build(logger.Config{Level: "error"}, io.Discard)

	themesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "noir.json"), []byte(testTheme), 0o644))
	outDir := filepath.Join(t.TempDir(), "outputs")

	themes := theme.NewEngine(themesDir, zl)
	gen := pipeline.New(pipeline.Deps{
		Resolver: resolver,
		Fetcher:  stubFetcher{},
		Themes:   themes,
		Chain:    effects.NewChain(t.TempDir(), zl),
		Writer:   export.NewWriter(outDir, zl),
		Logger:   zl,
	})
	return &app.App{Generator: gen, Themes: themes}, outDir
}

func postGenerate(t *testing.T, router http.Handler, req model.Request) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body)))
	return rec
}

func baseRequest() model.Request {
	return model.Request{
		Location:        model.LocationQuery{City: "Springfield", Country: "Testland"},
		Theme:           "noir",
		DistanceRadiusM: 5000,
		PosterWidthIn:   4,
		PosterHeightIn:  4,
		DPI:             30,
		OutputFormat:    model.FormatPNG,
	}
}

func TestGenerateEndpoint(t *testing.T) {
	a, outDir := testApp(t, &stubResolver{coord: model.Coordinate{Lat: 40, Lon: -89}})
	router := NewRouter(a, logger.Build(logger.Config{Level: "error"}, io.Discard))

	rec := postGenerate(t, router, baseRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "noir", resp.Theme)
	assert.Equal(t, 40.0, resp.Coordinate.Lat)

	_, err := os.Stat(resp.Path)
	require.NoError(t, err)
	assert.Equal(t, outDir, filepath.Dir(resp.Path))
}

func TestGenerateLocationNotFound(t *testing.T) {
	a, _ := testApp(t, &stubResolver{err: fault.New(fault.LocationNotFound, "no match for springfield")})
	router := NewRouter(a, logger.Build(logger.Config{Level: "error"}, io.Discard))

	rec := postGenerate(t, router, baseRequest())
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(fault.LocationNotFound), resp.Kind)
}

func TestGenerateUnknownTheme(t *testing.T) {
	a, _ := testApp(t, &stubResolver{coord: model.Coordinate{Lat: 40, Lon: -89}})
	router := NewRouter(a, logger.Build(logger.Config{Level: "error"}, io.Discard))

	req := baseRequest()
	req.Theme = "does-not-exist"
	rec := postGenerate(t, router, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(fault.ThemeLoadError), resp.Kind)
}

func TestGenerateInvalidBody(t *testing.T) {
	a, _ := testApp(t, &stubResolver{})
	router := NewRouter(a, logger.Build(logger.Config{Level: "error"}, io.Discard))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader([]byte("{not json"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateMissingCity(t *testing.T) {
	a, _ := testApp(t, &stubResolver{coord: model.Coordinate{Lat: 40, Lon: -89}})
	router := NewRouter(a, logger.Build(logger.Config{Level: "error"}, io.Discard))

	req := baseRequest()
	req.Location.City = ""
	rec := postGenerate(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListThemes(t *testing.T) {
	a, _ := testApp(t, &stubResolver{})
	router := NewRouter(a, logger.Build(logger.Config{Level: "error"}, io.Discard))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/themes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"noir"}, resp["themes"])
}

func TestHealthz(t *testing.T) {
	a, _ := testApp(t, &stubResolver{})
	router := NewRouter(a, logger.Build(logger.Config{Level: "error"}, io.Discard))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
