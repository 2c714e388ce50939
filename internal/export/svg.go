package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	svg "github.com/ajstarks/svgo"
)

// writeSVG wraps the raster in an SVG document sized to the physical poster
// dimensions. SVG has no standard metadata dictionary, so the pairs go into
// the desc element as a best-effort equivalent.
func writeSVG(path string, job Job) error {
	var raster bytes.Buffer
	if err := png.Encode(&raster, job.Image); err != nil {
		return fmt.Errorf("encode raster: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := job.Image.Bounds().Dx()
	h := job.Image.Bounds().Dy()
	canvas := svg.New(f)
	canvas.Startview(w, h, 0, 0, w, h)
	canvas.Title(job.Meta.City)

	var desc bytes.Buffer
	for _, p := range metaPairs(job.Meta) {
		if p[1] == "" {
			continue
		}
		fmt.Fprintf(&desc, "%s=%s\n", p[0], p[1])
	}
	canvas.Desc(desc.String())

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raster.Bytes())
	canvas.Image(0, 0, w, h, uri)
	canvas.End()

	return f.Close()
}
