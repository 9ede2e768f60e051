package layout

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeRoundsUp(t *testing.T) {
	tpl := Template{
		Resolution: "1360x800",
		NumImages:  1,
		Objects: []Object{
			{Type: ObjectText, Left: Keyword("12.3%"), Bottom: Keyword("55.89%"), Width: Keyword("100%"), Height: Keyword("auto"), FontSize: 22},
			{Type: ObjectImage, Left: Number(70.42), Top: Number(15), Width: Keyword("50%")},
		},
	}

	got, err := Normalize(tpl)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	cases := []struct {
		name string
		dim  *Dimension
		want string
	}{
		{"text left", got.Objects[0].Left, "13%"},
		{"text bottom", got.Objects[0].Bottom, "56%"},
		{"text width", got.Objects[0].Width, "100%"},
		{"text height", got.Objects[0].Height, "auto"},
		{"image left", got.Objects[1].Left, "71%"},
		{"image top", got.Objects[1].Top, "15%"},
		{"image width", got.Objects[1].Width, "50%"},
	}
	for _, tc := range cases {
		if tc.dim == nil {
			t.Fatalf("%s is nil", tc.name)
		}
		if tc.dim.String() != tc.want {
			t.Fatalf("%s = %q, want %q", tc.name, tc.dim.String(), tc.want)
		}
	}
	if got.Objects[1].Height != nil {
		t.Fatalf("absent height should stay absent, got %q", got.Objects[1].Height.String())
	}
	if tpl.Objects[0].Left.String() != "12.3%" {
		t.Fatalf("input template mutated: left = %q", tpl.Objects[0].Left.String())
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	tpl := Template{
		Resolution: "1920x1080",
		NumImages:  1,
		Objects: []Object{
			{Type: ObjectText, Left: Keyword("40.5%"), Top: Number(14.2), Width: Keyword("55%")},
			{Type: ObjectImage, Left: Keyword("-0.4%"), Top: Keyword("9.99%")},
		},
	}
	once, err := Normalize(tpl)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatalf("second Normalize returned error: %v", err)
	}
	a, _ := json.Marshal(once)
	b, _ := json.Marshal(twice)
	if string(a) != string(b) {
		t.Fatalf("Normalize not idempotent:\n%s\n%s", a, b)
	}
	if once.Objects[1].Left.String() != "0%" {
		t.Fatalf("negative zero left = %q, want %q", once.Objects[1].Left.String(), "0%")
	}
}

func TestNormalizeMalformedPercent(t *testing.T) {
	for _, text := range []string{"abc%", "NaN%", "Inf%", "+Inf%", "-inf%"} {
		tpl := Template{
			Resolution: "1360x800",
			Objects:    []Object{{Type: ObjectText, Left: Keyword(text)}},
		}
		_, err := Normalize(tpl)
		if !errors.Is(err, ErrMalformedDimension) {
			t.Fatalf("Normalize(left %q) err = %v, want ErrMalformedDimension", text, err)
		}
	}
}

func TestNormalizePixelTemplateUnchanged(t *testing.T) {
	tpl := Template{
		Resolution: "1200x400",
		NumImages:  1,
		Units:      UnitsPixel,
		Objects: []Object{
			{Type: ObjectText, Left: Number(721), Top: Number(151), FontSize: 26},
			{Type: ObjectImage, Left: Number(95), Top: Number(128), Width: Number(480), Height: Number(240)},
		},
	}
	got, err := Normalize(tpl)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if v, ok := got.Objects[0].Left.Float(); !ok || v != 721 {
		t.Fatalf("pixel left = %v (number=%v), want 721", v, ok)
	}
	if got.Objects[1].Width.String() != "480" {
		t.Fatalf("pixel width = %q, want %q", got.Objects[1].Width.String(), "480")
	}
}
