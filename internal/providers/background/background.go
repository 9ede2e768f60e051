// Package background produces the full-bleed background layer of a banner.
package background

import (
	"context"
	"fmt"
	"strings"

	"bannerserver/internal/domain/banner"
)

// Generator produces a background image for a banner.
type Generator interface {
	Generate(ctx context.Context, req banner.BackgroundRequest) (banner.Asset, error)
}

// Prompt is the text-to-image prompt for a background.
func Prompt(req banner.BackgroundRequest) string {
	return fmt.Sprintf("abstract background image banner, background theme: %s, background colors: %s",
		req.Theme, strings.Join(req.Palette, ","))
}
