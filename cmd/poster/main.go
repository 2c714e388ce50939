// Command poster generates a single map poster from the command line using
// the same pipeline the daemon serves.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cartapress/cartapress/internal/app"
	"github.com/cartapress/cartapress/internal/config"
	"github.com/cartapress/cartapress/internal/logger"
	"github.com/cartapress/cartapress/internal/model"
)

func main() {
	os.Exit(run())
}

func run() int {
	city := flag.String("city", "", "city name (required)")
	country := flag.String("country", "", "country name (required)")
	state := flag.String("state", "", "state or region, for ambiguous city names")
	themeName := flag.String("theme", "noir", "theme name")
	radius := flag.Int("radius", 0, "map radius in meters")
	width := flag.Float64("width", 0, "poster width in inches")
	height := flag.Float64("height", 0, "poster height in inches")
	dpi := flag.Int("dpi", 0, "output resolution")
	format := flag.String("format", "png", "output format: png, jpg, jpeg, svg, pdf")
	shape := flag.String("shape", "", "map shape: rectangle, circle, triangle")
	font := flag.String("font", "", "label font file, relative to the fonts dir")
	texture := flag.String("texture", "", "texture overlay name")
	effect := flag.String("effect", "", "artistic effect")
	enhance := flag.String("enhance", "", "color enhancement")
	season := flag.String("season", "", "season for theme variants: spring, summer, autumn, winter")
	countryLabel := flag.String("country-label", "", "override the country text on the poster")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Parse()

	if *city == "" || *country == "" {
		fmt.Fprintln(os.Stderr, "both -city and -country are required")
		flag.Usage()
		return 2
	}

	cfg := config.Load()
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   true,
		Component: "poster",
	}, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup failed:", err)
		return 1
	}

	req := model.Request{
		Location:         model.LocationQuery{City: *city, Country: *country, State: *state},
		Theme:            *themeName,
		DistanceRadiusM:  *radius,
		PosterWidthIn:    *width,
		PosterHeightIn:   *height,
		DPI:              *dpi,
		OutputFormat:     model.OutputFormat(strings.ToLower(*format)),
		Font:             *font,
		Texture:          *texture,
		MapShape:         model.MapShape(*shape),
		ArtisticEffect:   model.ArtisticEffect(*effect),
		ColorEnhancement: model.ColorEnhancement(*enhance),
		Season:           *season,
		CountryLabel:     *countryLabel,
	}

	var progress model.ProgressFunc
	if !*quiet {
		progress = func(s model.Stage) {
			fmt.Fprintf(os.Stderr, "... %s\n", s)
		}
	}

	res, err := a.Generator.Generate(ctx, req, progress)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generation failed:", err)
		return 1
	}

	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Println(res.Path)
	return 0
}
