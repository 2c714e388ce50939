package pipeline

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartapress/cartapress/internal/effects"
	"github.com/cartapress/cartapress/internal/export"
	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/logger"
	"github.com/cartapress/cartapress/internal/model"
	"github.com/cartapress/cartapress/internal/theme"
)

type stubResolver struct {
	coord model.Coordinate
	err   error
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, q model.LocationQuery) (model.Coordinate, error) {
	s.calls++
	if s.err != nil {
		return model.Coordinate{}, s.err
	}
	return s.coord, nil
}

type stubFetcher struct {
	ds model.Dataset
}

func (s *stubFetcher) Fetch(ctx context.Context, center model.Point, radiusM int, rec *fault.Recorder) (model.Dataset, error) {
	return s.ds, nil
}

const noirTheme = `{
	"bg": "#0d0d0d",
	"text": "#e8e8e8",
	"water": "#14141e",
	"parks": "#121812",
	"road_motorway": "#f2f2f2",
	"road_primary": "#d4d4d4",
	"road_residential": "#585858"
}`

func testDataset() model.Dataset {
	ds := model.NewDataset(model.Point{Lat: 40, Lon: -89}, 5000)
	ds.Categories[model.CategoryRoads] = []model.Feature{
		{Kind: model.GeomLine, Points: []model.Point{{Lat: 39.99, Lon: -89.02}, {Lat: 40.01, Lon: -88.98}}, Tags: map[string]string{"highway": "primary"}},
		{Kind: model.GeomLine, Points: []model.Point{{Lat: 39.98, Lon: -89.0}, {Lat: 40.02, Lon: -89.0}}, Tags: map[string]string{"highway": "residential"}},
	}
	return ds
}

type harness struct {
	gen    *Generator
	outDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	themesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(themesDir, "noir.json"), []byte(noirTheme), 0o644))
	outDir := t.TempDir()

	gen := New(Deps{
		Resolver: &stubResolver{coord: model.Coordinate{Lat: 40.0, Lon: -89.0, Source: "service"}},
		Fetcher:  &stubFetcher{ds: testDataset()},
		Themes:   theme.NewEngine(themesDir, logger.Nop()),
		Chain:    effects.NewChain(t.TempDir(), logger.Nop()),
		Writer:   export.NewWriter(outDir, logger.Nop()),
		Artist:   "cartapress",
		Logger:   logger.Nop(),
	}).WithClock(func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	})
	return &harness{gen: gen, outDir: outDir}
}

func springfieldRequest() model.Request {
	return model.Request{
		Location:        model.LocationQuery{City: "Springfield", Country: "Testland"},
		Theme:           "noir",
		DistanceRadiusM: 5000,
		PosterWidthIn:   12,
		PosterHeightIn:  16,
		DPI:             30,
		OutputFormat:    model.FormatPNG,
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	h := newHarness(t)

	var stages []model.Stage
	res, err := h.gen.Generate(context.Background(), springfieldRequest(), func(s model.Stage) {
		stages = append(stages, s)
	})
	require.NoError(t, err)

	assert.Equal(t, "noir", res.Theme)
	assert.Equal(t, 40.0, res.Coordinate.Lat)

	raw, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 360, img.Bounds().Dx(), "12in x 30dpi")
	assert.Equal(t, 480, img.Bounds().Dy(), "16in x 30dpi")
	assert.Contains(t, string(raw), "Theme\x00noir")

	assert.Equal(t, []model.Stage{
		model.StageFetchStart,
		model.StageDataDownloaded,
		model.StageProcessing,
		model.StageRendering,
		model.StageSaving,
		model.StageDone,
	}, stages)
}

func TestGenerateMissingTextureDegrades(t *testing.T) {
	h := newHarness(t)
	req := springfieldRequest()
	req.Texture = "missing_texture"

	res, err := h.gen.Generate(context.Background(), req, nil)
	require.NoError(t, err)

	_, statErr := os.Stat(res.Path)
	require.NoError(t, statErr, "degraded run must still produce a file")
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], string(fault.AssetMissing))
}

func TestGenerateLocationNotFoundIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.gen.resolver = &stubResolver{err: fault.New(fault.LocationNotFound, "no match")}

	var stages []model.Stage
	_, err := h.gen.Generate(context.Background(), springfieldRequest(), func(s model.Stage) {
		stages = append(stages, s)
	})
	require.Error(t, err)
	assert.Equal(t, fault.LocationNotFound, fault.KindOf(err))
	assert.Equal(t, model.StageFailed, stages[len(stages)-1])

	entries, readErr := os.ReadDir(h.outDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "terminal failure must leave no output file")
}

func TestGenerateUnknownThemeIsTerminal(t *testing.T) {
	h := newHarness(t)
	req := springfieldRequest()
	req.Theme = "no_such_theme"

	_, err := h.gen.Generate(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, fault.ThemeLoadError, fault.KindOf(err))
}

func TestGenerateInvalidRequestRejected(t *testing.T) {
	h := newHarness(t)
	req := springfieldRequest()
	req.Location.City = ""

	_, err := h.gen.Generate(context.Background(), req, nil)
	assert.Error(t, err)
}

func TestGenerateDeterministicAcrossRuns(t *testing.T) {
	h := newHarness(t)

	resA, err := h.gen.Generate(context.Background(), springfieldRequest(), nil)
	require.NoError(t, err)
	rawA, err := os.ReadFile(resA.Path)
	require.NoError(t, err)

	resB, err := h.gen.Generate(context.Background(), springfieldRequest(), nil)
	require.NoError(t, err)
	rawB, err := os.ReadFile(resB.Path)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(rawA, rawB), "identical request must produce byte-identical output")
}

func TestGenerateCircleShape(t *testing.T) {
	h := newHarness(t)
	req := springfieldRequest()
	req.MapShape = model.ShapeCircle

	res, err := h.gen.Generate(context.Background(), req, nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	// Corners sit outside the circular boundary and must be background.
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, []uint32{0x0d0d, 0x0d0d, 0x0d0d}, []uint32{r, g, b})
}
