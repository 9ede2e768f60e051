package compose

import (
	"strings"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"
)

// Assemble places the background as a full-bleed image at index 0.
func Assemble(t layout.Template, background string) (layout.Template, error) {
	if strings.TrimSpace(background) == "" {
		return layout.Template{}, banner.ErrBackgroundMissing
	}
	out := t.Clone()
	bg := layout.Object{
		Type:   layout.ObjectImage,
		Left:   layout.Percent(0),
		Top:    layout.Percent(0),
		Width:  layout.Percent(100),
		Height: layout.Percent(100),
		Src:    background,
	}
	out.Objects = append([]layout.Object{bg}, out.Objects...)
	return out, nil
}
