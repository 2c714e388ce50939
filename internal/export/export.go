// Package export serializes a finished canvas to its output format with
// embedded metadata where the format supports it. Writes are atomic: the
// file appears under its final name complete or not at all.
package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/model"
)

// softwareTag identifies the generator in embedded metadata.
const softwareTag = "cartapress"

// Metadata is embedded into formats that can carry it.
type Metadata struct {
	City        string
	Country     string
	Theme       string
	Coordinate  model.Coordinate
	GeneratedAt time.Time
	Artist      string
}

// Job is one export request.
type Job struct {
	Image         *image.RGBA
	Format        model.OutputFormat
	WidthInches   float64
	HeightInches  float64
	DPI           float64
	Meta          Metadata
}

// Writer places outputs in a directory with collision-free names.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

func NewWriter(dir string, logger zerolog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Export writes the job and returns the final path. Any write or encode
// failure is a terminal ExportError and leaves no partial file behind.
func (w *Writer) Export(job Job) (string, error) {
	if !job.Format.Valid() {
		return "", fault.New(fault.ExportError, "unsupported output format %q", job.Format)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fault.New(fault.ExportError, "output dir: %v", err)
	}

	name := fileName(job.Meta.City, job.Meta.Theme, job.Meta.GeneratedAt, string(job.Format))
	final := filepath.Join(w.dir, name)
	tmp := final + ".tmp"

	var err error
	switch job.Format {
	case model.FormatPNG:
		err = writePNG(tmp, job)
	case model.FormatJPG, model.FormatJPEG:
		err = writeJPEG(tmp, job)
	case model.FormatSVG:
		err = writeSVG(tmp, job)
	case model.FormatPDF:
		err = writePDF(tmp, job)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fault.New(fault.ExportError, "write %s: %v", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fault.New(fault.ExportError, "finalize %s: %v", name, err)
	}
	w.logger.Info().Str("path", final).Msg("poster written")
	return final, nil
}

// fileName builds "<city>_<theme>_<YYYYMMDD_HHMMSS>.<ext>".
func fileName(city, themeName string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", slug(city), slug(themeName), at.Format("20060102_150405"), ext)
}

func slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "poster"
	}
	return b.String()
}

// metaPairs flattens metadata into ordered key/value pairs shared by the
// per-format writers.
func metaPairs(m Metadata) [][2]string {
	return [][2]string{
		{"Software", softwareTag},
		{"Artist", m.Artist},
		{"Title", m.City},
		{"Theme", m.Theme},
		{"Latitude", fmt.Sprintf("%.6f", m.Coordinate.Lat)},
		{"Longitude", fmt.Sprintf("%.6f", m.Coordinate.Lon)},
		{"CreationTime", m.GeneratedAt.UTC().Format(time.RFC3339)},
	}
}
