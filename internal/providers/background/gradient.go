package background

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/imageutil"
	"bannerserver/internal/storage"

	"github.com/disintegration/imaging"
)

var defaultPalette = []color.NRGBA{{R: 0x1f, G: 0x3b, B: 0x73, A: 0xff}, {R: 0xf2, G: 0x99, B: 0x4a, A: 0xff}}

// GradientGenerator renders a blurred diagonal gradient through the palette
// colors locally. It stands in for a model when none is configured.
type GradientGenerator struct {
	store  *storage.FileStore
	format string
	now    func() time.Time
}

// NewGradientGenerator writes results to store when it is non-nil.
func NewGradientGenerator(store *storage.FileStore, format string) *GradientGenerator {
	if format == "" {
		format = "png"
	}
	return &GradientGenerator{store: store, format: format, now: time.Now}
}

func (g *GradientGenerator) Generate(ctx context.Context, req banner.BackgroundRequest) (banner.Asset, error) {
	if err := ctx.Err(); err != nil {
		return banner.Asset{}, err
	}
	width := min(max(req.Width, 1), 4096)
	height := min(max(req.Height, 1), 4096)
	colors := parsePalette(req.Palette)

	// Draw small, then let the resample smooth the bands.
	sw, sh := max(width/16, 2), max(height/16, 2)
	small := imaging.New(sw, sh, colors[0])
	for y := range sh {
		for x := range sw {
			t := (float64(x)/float64(sw-1) + float64(y)/float64(sh-1)) / 2
			small.SetNRGBA(x, y, sample(colors, t))
		}
	}
	img := imaging.Blur(imaging.Resize(small, width, height, imaging.Linear), 3)

	data, mime, err := imageutil.Encode(img, g.format, 0)
	if err != nil {
		return banner.Asset{}, err
	}
	asset := banner.Asset{MIME: mime, Data: data}
	if g.store != nil {
		ext := strings.TrimPrefix(mime, "image/")
		key, err := g.store.Write(ctx, storage.NewKey("backgrounds", ext, g.now()), data)
		if err != nil {
			return banner.Asset{}, fmt.Errorf("gradient: store background: %w", err)
		}
		asset.Ref = key
	}
	return asset, nil
}

func sample(colors []color.NRGBA, t float64) color.NRGBA {
	if len(colors) == 1 {
		return colors[0]
	}
	pos := t * float64(len(colors)-1)
	i := min(int(pos), len(colors)-2)
	f := pos - float64(i)
	a, b := colors[i], colors[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*f + 0.5) }
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 0xff}
}

func parsePalette(palette []string) []color.NRGBA {
	var out []color.NRGBA
	for _, p := range palette {
		if c, ok := parseHex(p); ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return defaultPalette
	}
	return out
}

func parseHex(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
