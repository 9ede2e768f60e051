package layout

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDimensionJSON(t *testing.T) {
	var obj Object
	raw := `{"type":"image","left":"10.5%","top":128,"width":"auto","src":"x"}`
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if obj.Left.IsNumber() || obj.Left.String() != "10.5%" {
		t.Fatalf("left = %q (number=%v)", obj.Left.String(), obj.Left.IsNumber())
	}
	if v, ok := obj.Top.Float(); !ok || v != 128 {
		t.Fatalf("top = %v (number=%v), want 128", v, ok)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"top":128`) || !strings.Contains(string(out), `"left":"10.5%"`) {
		t.Fatalf("marshal lost representation: %s", out)
	}
	if strings.Contains(string(out), "fontSize") {
		t.Fatalf("image object should not carry text fields: %s", out)
	}
}

func TestObjectMarshalTextKeepsEmptyText(t *testing.T) {
	out, err := json.Marshal(Object{Type: ObjectText, Left: Percent(6), FontSize: 20})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"text":""`) {
		t.Fatalf("text object should always carry text: %s", out)
	}
	if strings.Contains(string(out), "src") {
		t.Fatalf("text object should not carry src: %s", out)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Template{
		Resolution: "1360x800",
		NumImages:  1,
		Objects: []Object{
			{Type: ObjectText, Left: Keyword("6%"), FontSize: 22},
			{Type: ObjectImage, Left: Keyword("70%"), Bottom: Keyword("15%")},
		},
	}
	c := orig.Clone()
	c.Objects[0].Text = "changed"
	c.Objects[1].Left = Percent(1)
	*c.Objects[1].Bottom = *Percent(99)
	c.Objects = append(c.Objects, Object{Type: ObjectImage})

	if orig.Objects[0].Text != "" {
		t.Fatalf("text leaked into original")
	}
	if orig.Objects[1].Left.String() != "70%" {
		t.Fatalf("left leaked into original: %q", orig.Objects[1].Left.String())
	}
	if orig.Objects[1].Bottom.String() != "15%" {
		t.Fatalf("bottom leaked into original: %q", orig.Objects[1].Bottom.String())
	}
	if len(orig.Objects) != 2 {
		t.Fatalf("objects len = %d, want 2", len(orig.Objects))
	}
}

func TestValidate(t *testing.T) {
	text := Object{Type: ObjectText, Left: Percent(10), Top: Percent(10)}
	image := Object{Type: ObjectImage, Left: Percent(50), Top: Percent(10)}
	tests := []struct {
		name    string
		tpl     Template
		wantErr bool
	}{
		{name: "valid", tpl: Template{Resolution: "1360x800", NumImages: 1, Objects: []Object{text, image}}},
		{name: "text only without images", tpl: Template{Resolution: "1360x800", Objects: []Object{text}}},
		{name: "bad resolution", tpl: Template{Resolution: "wide", Objects: []Object{text}}, wantErr: true},
		{name: "no objects", tpl: Template{Resolution: "1360x800"}, wantErr: true},
		{name: "no text", tpl: Template{Resolution: "1360x800", NumImages: 1, Objects: []Object{image}}, wantErr: true},
		{name: "missing image", tpl: Template{Resolution: "1360x800", NumImages: 2, Objects: []Object{text}}, wantErr: true},
		{name: "unknown type", tpl: Template{Resolution: "1360x800", Objects: []Object{text, {Type: "shape"}}}, wantErr: true},
		{name: "two anchors", tpl: Template{Resolution: "1360x800", Objects: []Object{{Type: ObjectText, Top: Percent(1), Bottom: Percent(2)}}}, wantErr: true},
		{name: "unknown units", tpl: Template{Resolution: "1360x800", Units: "em", Objects: []Object{text}}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tpl.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTemplate) {
					t.Fatalf("Validate() = %v, want ErrInvalidTemplate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	w, h, err := ParseResolution(" 1360X800 ")
	if err != nil || w != 1360 || h != 800 {
		t.Fatalf("ParseResolution = %d, %d, %v", w, h, err)
	}
	for _, in := range []string{"", "1360", "0x800", "axb", "1360x-1"} {
		if _, _, err := ParseResolution(in); !errors.Is(err, ErrInvalidResolution) {
			t.Fatalf("ParseResolution(%q) err = %v, want ErrInvalidResolution", in, err)
		}
	}
	if got := FormatResolution(1080, 1080); got != "1080x1080" {
		t.Fatalf("FormatResolution = %q", got)
	}
}
