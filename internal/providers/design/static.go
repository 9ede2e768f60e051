package design

import (
	"context"
	"strconv"
	"strings"

	"bannerserver/internal/domain/banner"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StaticSuggester derives copy from the request itself. It is used when no
// model is configured.
type StaticSuggester struct{}

func NewStaticSuggester() StaticSuggester { return StaticSuggester{} }

func (StaticSuggester) Suggest(_ context.Context, req banner.SuggestionRequest) (banner.Choices, error) {
	tag, err := language.Parse(req.Locale)
	if err != nil {
		tag = language.English
	}
	title := cases.Title(tag)
	main := coalesce(req.Promotion, req.Theme, "Special Offer")
	color := textColorFor(req.Palette)
	return banner.Choices{
		MainText:      title.String(main),
		SecondaryText: title.String(req.Theme),
		TextColors:    banner.TextColors{MainText: color, SecondaryText: color},
	}, nil
}

// textColorFor picks black or white against the first parseable palette
// color.
func textColorFor(palette []string) string {
	for _, c := range palette {
		if lum, ok := luminance(c); ok {
			if lum > 0.5 {
				return "#000000"
			}
			return "#FFFFFF"
		}
	}
	return banner.DefaultTextColor
}

func luminance(hex string) (float64, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	r := float64(v>>16&0xff) / 255
	g := float64(v>>8&0xff) / 255
	b := float64(v&0xff) / 255
	return 0.2126*r + 0.7152*g + 0.0722*b, true
}
