package export

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	pdfimage "seehuhn.de/go/pdf/graphics/image"
)

const pointsPerInch = 72.0

// writePDF embeds the raster on a single page sized to the physical poster
// dimensions and fills the document information dictionary.
func writePDF(path string, job Job) error {
	wPts := job.WidthInches * pointsPerInch
	hPts := job.HeightInches * pointsPerInch
	paper := &pdf.Rectangle{LLx: 0, LLy: 0, URx: wPts, URy: hPts}

	page, err := document.CreateSinglePage(path, paper, pdf.V1_7, nil)
	if err != nil {
		return err
	}

	meta := job.Meta
	page.Out.GetMeta().Info = &pdf.Info{
		Title:        pdf.TextString(meta.City),
		Author:       pdf.TextString(meta.Artist),
		Creator:      softwareTag,
		Producer:     softwareTag,
		CreationDate: pdf.Date(meta.GeneratedAt.UTC()),
		Custom: map[string]string{
			"Theme":     meta.Theme,
			"Latitude":  fmt.Sprintf("%.6f", meta.Coordinate.Lat),
			"Longitude": fmt.Sprintf("%.6f", meta.Coordinate.Lon),
		},
	}

	// nil color space embeds the raster as DeviceRGB.
	img, err := pdfimage.PNG(job.Image, nil)
	if err != nil {
		_ = page.Close()
		return err
	}
	page.PushGraphicsState()
	page.Transform(matrix.Scale(wPts, hPts))
	page.DrawXObject(img)
	page.PopGraphicsState()

	return page.Close()
}
