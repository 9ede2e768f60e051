package banner

import (
	"strings"

	"bannerserver/internal/domain/layout"
)

const DefaultMaxImages = 6

// Request is the body of POST /generate_banner.
type Request struct {
	Promotion    string   `json:"promotion"`
	Theme        string   `json:"theme"`
	Resolution   string   `json:"resolution"`
	ColorPalette []string `json:"color_palette"`
	// Images are base64 payloads, optionally wrapped in a data URI. Empty
	// entries are kept so that slot assignment stays positional.
	Images []string `json:"images"`
}

// Normalize trims fields, drops blank palette entries and strips data URI
// prefixes from images.
func (r *Request) Normalize() {
	if r == nil {
		return
	}
	r.Promotion = strings.TrimSpace(r.Promotion)
	r.Theme = strings.TrimSpace(r.Theme)
	r.Resolution = strings.ToLower(strings.TrimSpace(r.Resolution))
	palette := r.ColorPalette[:0]
	for _, c := range r.ColorPalette {
		if c = strings.TrimSpace(c); c != "" {
			palette = append(palette, c)
		}
	}
	r.ColorPalette = palette
	for i, img := range r.Images {
		r.Images[i] = StripDataURI(img)
	}
}

// Validate checks the request after Normalize.
func (r Request) Validate(maxImages int) error {
	if r.Promotion == "" {
		return &ValidationError{Field: "promotion", Reason: "is required", Err: ErrInvalidRequest}
	}
	if _, _, err := layout.ParseResolution(r.Resolution); err != nil {
		return &ValidationError{Field: "resolution", Reason: "must look like 1360x800", Err: ErrInvalidRequest}
	}
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if len(r.Images) > maxImages {
		return &ValidationError{Field: "images", Reason: "too many images", Err: ErrInvalidRequest}
	}
	return nil
}

// Size returns the parsed resolution.
func (r Request) Size() (int, int) {
	w, h, _ := layout.ParseResolution(r.Resolution)
	return w, h
}

// StripDataURI returns the base64 payload of a data URI, or s trimmed when it
// is not one.
func StripDataURI(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if _, payload, ok := strings.Cut(s, ","); ok {
		return strings.TrimSpace(payload)
	}
	return s
}
