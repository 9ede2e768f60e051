package banner

import "bannerserver/internal/domain/layout"

// SuggestionRequest is what the design suggestion collaborator sees.
type SuggestionRequest struct {
	Template   layout.Template
	Promotion  string
	Theme      string
	Resolution string
	Palette    []string
	// Products are decoded product image payloads, in request order.
	Products [][]byte
	// Locale is a BCP 47 tag for the language of the generated copy.
	Locale string
}

// BackgroundRequest describes the background to generate.
type BackgroundRequest struct {
	Theme   string
	Palette []string
	Width   int
	Height  int
}

// Asset is a generated image. Ref is where it came from (URL, data URI or
// storage key); Data holds the bytes once fetched.
type Asset struct {
	Ref  string
	MIME string
	Data []byte
}
