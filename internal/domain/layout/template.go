package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidTemplate    = errors.New("invalid template")
	ErrMalformedDimension = errors.New("malformed dimension")
	ErrInvalidResolution  = errors.New("invalid resolution")
)

const (
	ObjectText  = "text"
	ObjectImage = "image"
)

// Units selects how positional fields of a template are interpreted.
type Units string

const (
	UnitsPercent Units = "percent"
	UnitsPixel   Units = "pixel"
)

// Object is one layer of a template. Text-only and image-only fields share the
// struct; Type decides which of them are meaningful.
type Object struct {
	Type   string     `json:"type"`
	Left   *Dimension `json:"left,omitempty"`
	Top    *Dimension `json:"top,omitempty"`
	Bottom *Dimension `json:"bottom,omitempty"`
	Width  *Dimension `json:"width,omitempty"`
	Height *Dimension `json:"height,omitempty"`

	FontSize   float64 `json:"fontSize,omitempty"`
	Fill       string  `json:"fill,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Text       string  `json:"text,omitempty"`

	Src string `json:"src,omitempty"`
}

type geometryView struct {
	Type   string     `json:"type"`
	Left   *Dimension `json:"left,omitempty"`
	Top    *Dimension `json:"top,omitempty"`
	Bottom *Dimension `json:"bottom,omitempty"`
	Width  *Dimension `json:"width,omitempty"`
	Height *Dimension `json:"height,omitempty"`
}

type textView struct {
	geometryView
	FontSize   float64 `json:"fontSize"`
	Fill       string  `json:"fill"`
	FontWeight string  `json:"fontWeight"`
	FontStyle  string  `json:"fontStyle"`
	TextAlign  string  `json:"textAlign"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Text       string  `json:"text"`
}

type imageView struct {
	geometryView
	Src string `json:"src"`
}

// MarshalJSON emits only the fields that belong to the object's type.
func (o Object) MarshalJSON() ([]byte, error) {
	geo := geometryView{Type: o.Type, Left: o.Left, Top: o.Top, Bottom: o.Bottom, Width: o.Width, Height: o.Height}
	switch o.Type {
	case ObjectText:
		return json.Marshal(textView{
			geometryView: geo,
			FontSize:     o.FontSize,
			Fill:         o.Fill,
			FontWeight:   o.FontWeight,
			FontStyle:    o.FontStyle,
			TextAlign:    o.TextAlign,
			FontFamily:   o.FontFamily,
			Text:         o.Text,
		})
	case ObjectImage:
		return json.Marshal(imageView{geometryView: geo, Src: o.Src})
	default:
		type plain Object
		return json.Marshal(plain(o))
	}
}

func (o Object) IsText() bool  { return o.Type == ObjectText }
func (o Object) IsImage() bool { return o.Type == ObjectImage }

// Template is a layout for one resolution and image count. Object order is
// both z-order (index 0 backmost) and the order image slots are filled in.
type Template struct {
	ID                    string   `json:"id,omitempty"`
	Resolution            string   `json:"resolution"`
	NumImages             int      `json:"numImages"`
	Units                 Units    `json:"units,omitempty"`
	AllowPositionOverride bool     `json:"allowPositionOverride,omitempty"`
	Width                 int      `json:"width,omitempty"`
	Height                int      `json:"height,omitempty"`
	Objects               []Object `json:"objects"`
}

// Clone returns a deep copy that shares no mutable state with t.
func (t Template) Clone() Template {
	c := t
	if t.Objects != nil {
		c.Objects = make([]Object, len(t.Objects))
		for i, o := range t.Objects {
			o.Left = cloneDimension(o.Left)
			o.Top = cloneDimension(o.Top)
			o.Bottom = cloneDimension(o.Bottom)
			o.Width = cloneDimension(o.Width)
			o.Height = cloneDimension(o.Height)
			c.Objects[i] = o
		}
	}
	return c
}

// IsPixel reports whether positional fields are absolute pixel values.
func (t Template) IsPixel() bool { return t.Units == UnitsPixel }

// ImageSlots counts image objects.
func (t Template) ImageSlots() int {
	n := 0
	for _, o := range t.Objects {
		if o.IsImage() {
			n++
		}
	}
	return n
}

// Validate checks the structural shape of a template: a parseable resolution,
// known object types, a single vertical anchor per object, at least one text
// object and, when images are expected, at least one image object.
func (t Template) Validate() error {
	if _, _, err := ParseResolution(t.Resolution); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if t.NumImages < 0 {
		return fmt.Errorf("%w: numImages must not be negative", ErrInvalidTemplate)
	}
	switch t.Units {
	case "", UnitsPercent, UnitsPixel:
	default:
		return fmt.Errorf("%w: unknown units %q", ErrInvalidTemplate, t.Units)
	}
	if len(t.Objects) == 0 {
		return fmt.Errorf("%w: objects are required", ErrInvalidTemplate)
	}
	var texts, images int
	for i, o := range t.Objects {
		switch o.Type {
		case ObjectText:
			texts++
		case ObjectImage:
			images++
		default:
			return fmt.Errorf("%w: objects[%d]: unknown type %q", ErrInvalidTemplate, i, o.Type)
		}
		if o.Top != nil && o.Bottom != nil {
			return fmt.Errorf("%w: objects[%d]: both top and bottom set", ErrInvalidTemplate, i)
		}
	}
	if texts == 0 {
		return fmt.Errorf("%w: at least one text object is required", ErrInvalidTemplate)
	}
	if t.NumImages > 0 && images == 0 {
		return fmt.Errorf("%w: numImages is %d but no image objects", ErrInvalidTemplate, t.NumImages)
	}
	return nil
}

// ParseResolution splits "WxH" into positive integer dimensions.
func ParseResolution(resolution string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(resolution)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}
	return width, height, nil
}

// FormatResolution is the inverse of ParseResolution.
func FormatResolution(width, height int) string {
	return strconv.Itoa(width) + "x" + strconv.Itoa(height)
}
