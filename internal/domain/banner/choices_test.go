package banner

import (
	"errors"
	"testing"
)

func TestParseChoicesStripsFences(t *testing.T) {
	raw := "```json\n{\"mainText\":\"Big Sale\",\"secondaryText\":\"Up to 50% off\",\"textColors\":{\"mainText\":\"#FFFFFF\"}}\n```"
	c, err := ParseChoices(raw)
	if err != nil {
		t.Fatalf("ParseChoices returned error: %v", err)
	}
	if c.MainText != "Big Sale" || c.SecondaryText != "Up to 50% off" {
		t.Fatalf("texts = %q / %q", c.MainText, c.SecondaryText)
	}
	if c.MainColor() != "#FFFFFF" {
		t.Fatalf("MainColor = %q, want #FFFFFF", c.MainColor())
	}
	if c.SecondaryColor() != DefaultTextColor {
		t.Fatalf("SecondaryColor = %q, want %q", c.SecondaryColor(), DefaultTextColor)
	}
}

func TestParseChoicesPositionsAndProducts(t *testing.T) {
	raw := `Here you go: {"mainText":"A","secondaryText":"B","products":["shoes","bags"],
	"objectPositions":[{"type":"text","left":"12%","top":"20%"},{"type":"image","left":"50%","top":"30%","width":"40%","height":"50%"}]}`
	c, err := ParseChoices(raw)
	if err != nil {
		t.Fatalf("ParseChoices returned error: %v", err)
	}
	if c.Products != "shoes, bags" {
		t.Fatalf("Products = %q", c.Products)
	}
	if len(c.ObjectPositions) != 2 {
		t.Fatalf("ObjectPositions len = %d, want 2", len(c.ObjectPositions))
	}
	if c.ObjectPositions[1].Width.String() != "40%" {
		t.Fatalf("width = %q", c.ObjectPositions[1].Width.String())
	}
	if c.ObjectPositions[0].Width != nil {
		t.Fatal("absent width should stay nil")
	}
}

func TestParseChoicesErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  error
		field string
	}{
		{name: "empty", raw: "   ", want: ErrMalformedSuggestion},
		{name: "not json", raw: "```json\nsorry, I cannot help\n```", want: ErrMalformedSuggestion},
		{name: "truncated", raw: `{"mainText": "A"`, want: ErrMalformedSuggestion},
		{name: "missing main text", raw: `{"secondaryText":"B"}`, want: ErrInvalidSuggestion, field: "mainText"},
		{name: "wrong type", raw: `{"mainText":42}`, want: ErrInvalidSuggestion, field: "mainText"},
		{name: "position without top", raw: `{"mainText":"A","objectPositions":[{"left":"10%"}]}`, want: ErrInvalidSuggestion, field: "objectPositions[0]"},
		{name: "bad products", raw: `{"mainText":"A","products":{"x":1}}`, want: ErrInvalidSuggestion, field: "products"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseChoices(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if tc.field == "" {
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("Field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestRequestNormalizeAndValidate(t *testing.T) {
	req := Request{
		Promotion:    "  Summer sale ",
		Resolution:   " 1360X800 ",
		ColorPalette: []string{"#fff", " ", "#000"},
		Images:       []string{"data:image/png;base64,AAAA", "", " BBBB "},
	}
	req.Normalize()
	if err := req.Validate(0); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if req.Promotion != "Summer sale" || req.Resolution != "1360x800" {
		t.Fatalf("normalized = %q / %q", req.Promotion, req.Resolution)
	}
	if len(req.ColorPalette) != 2 {
		t.Fatalf("palette = %v", req.ColorPalette)
	}
	want := []string{"AAAA", "", "BBBB"}
	for i := range want {
		if req.Images[i] != want[i] {
			t.Fatalf("Images[%d] = %q, want %q", i, req.Images[i], want[i])
		}
	}
	if w, h := req.Size(); w != 1360 || h != 800 {
		t.Fatalf("Size = %dx%d", w, h)
	}
}

func TestRequestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{name: "promotion", req: Request{Resolution: "1360x800"}, field: "promotion"},
		{name: "resolution", req: Request{Promotion: "x", Resolution: "big"}, field: "resolution"},
		{name: "images", req: Request{Promotion: "x", Resolution: "1360x800", Images: []string{"a", "b", "c"}}, field: "images"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate(2)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("err = %v, want validation error on %s", err, tc.field)
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}
