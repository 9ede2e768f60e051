package layout

import "fmt"

// Normalize returns a copy of t with every positional field of a percentage
// template rounded up to a whole percent: "12.3%" and 12.3 both become "13%".
// Non-percentage strings such as "auto" are carried through, and pixel
// templates are returned unchanged. Applying Normalize twice is a no-op.
func Normalize(t Template) (Template, error) {
	out := t.Clone()
	if out.IsPixel() {
		return out, nil
	}
	for i := range out.Objects {
		o := &out.Objects[i]
		fields := []struct {
			name string
			ptr  **Dimension
		}{
			{"left", &o.Left},
			{"top", &o.Top},
			{"bottom", &o.Bottom},
			{"width", &o.Width},
			{"height", &o.Height},
		}
		for _, f := range fields {
			d, err := normalizeDimension(*f.ptr)
			if err != nil {
				return Template{}, fmt.Errorf("objects[%d].%s: %w", i, f.name, err)
			}
			*f.ptr = d
		}
	}
	return out, nil
}

func normalizeDimension(d *Dimension) (*Dimension, error) {
	if d == nil {
		return nil, nil
	}
	if v, ok := d.Float(); ok {
		return ceilPercent(v), nil
	}
	v, ok, err := d.PercentValue()
	if err != nil {
		return nil, err
	}
	if !ok {
		return d, nil
	}
	return ceilPercent(v), nil
}
