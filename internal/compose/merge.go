// Package compose turns a selected template into a banner descriptor.
package compose

import (
	"math"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"
)

const (
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 20
	productMIME       = "image/jpeg"
)

type MergeOptions struct {
	// FontFamily fills text objects that do not name one.
	FontFamily string
}

// Merge fills t with copy, colors and product images. t is not modified.
func Merge(t layout.Template, choices banner.Choices, width, height int, images []string) layout.Template {
	return MergeWith(t, choices, width, height, images, MergeOptions{})
}

// MergeWith is Merge with explicit options.
//
// Text objects whose font size is above the smallest text size in the
// template take the main text, the rest take the secondary text. Image
// objects consume images in template order; a slot left without a payload is
// removed. Positional hints, when present, are applied by object index before
// that removal.
func MergeWith(t layout.Template, choices banner.Choices, width, height int, images []string, opts MergeOptions) layout.Template {
	out := t.Clone()
	family := opts.FontFamily
	if family == "" {
		family = DefaultFontFamily
	}

	minSize := math.Inf(1)
	for i := range out.Objects {
		o := &out.Objects[i]
		if !o.IsText() {
			continue
		}
		if o.FontSize <= 0 {
			o.FontSize = DefaultFontSize
		}
		minSize = min(minSize, o.FontSize)
	}

	cursor := 0
	for i := range out.Objects {
		o := &out.Objects[i]
		switch o.Type {
		case layout.ObjectText:
			if o.FontSize > minSize {
				o.Text = choices.MainText
				o.Fill = choices.MainColor()
			} else {
				o.Text = choices.SecondaryText
				o.Fill = choices.SecondaryColor()
			}
			o.FontFamily = orDefault(o.FontFamily, family)
			o.FontWeight = orDefault(o.FontWeight, "normal")
			o.FontStyle = orDefault(o.FontStyle, "normal")
			o.TextAlign = orDefault(o.TextAlign, "left")
		case layout.ObjectImage:
			o.Src = ""
			if cursor < len(images) {
				if payload := banner.StripDataURI(images[cursor]); payload != "" {
					o.Src = "data:" + productMIME + ";base64," + payload
				}
				cursor++
			}
		}
	}

	// Only templates that advertise it accept model-chosen geometry; the rest
	// keep their anchors and the orientation shift.
	if out.AllowPositionOverride {
		applyPositions(out.Objects, choices.ObjectPositions)
	}

	kept := out.Objects[:0]
	for _, o := range out.Objects {
		if o.IsImage() && o.Src == "" {
			continue
		}
		kept = append(kept, o)
	}
	out.Objects = kept
	out.Width = width
	out.Height = height
	return out
}

// applyPositions overwrites geometry index by index over the shorter of the
// two lists. Values are taken verbatim.
func applyPositions(objects []layout.Object, positions []banner.Position) {
	n := min(len(objects), len(positions))
	for i := range n {
		p := positions[i]
		o := &objects[i]
		if p.Left != nil {
			o.Left = clone(p.Left)
		}
		if p.Top != nil {
			o.Top = clone(p.Top)
			o.Bottom = nil
		}
		if p.Width != nil {
			o.Width = clone(p.Width)
		}
		if p.Height != nil {
			o.Height = clone(p.Height)
		}
	}
}

func clone(d *layout.Dimension) *layout.Dimension {
	c := *d
	return &c
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
