package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimension is a positional value as it appears in a template: a percentage
// string such as "12.5%", a bare number, or a keyword like "auto".
type Dimension struct {
	text   string
	number float64
	isNum  bool
}

// Percent returns a percentage dimension rendered as "N%".
func Percent(v float64) *Dimension {
	return &Dimension{text: formatPercent(v)}
}

// Number returns a bare numeric dimension.
func Number(v float64) *Dimension {
	return &Dimension{number: v, isNum: true}
}

// Keyword returns a dimension that is carried through verbatim.
func Keyword(s string) *Dimension {
	return &Dimension{text: s}
}

// IsNumber reports whether the dimension was a bare JSON number.
func (d Dimension) IsNumber() bool { return d.isNum }

// Float returns the numeric value of a bare number dimension.
func (d Dimension) Float() (float64, bool) {
	if !d.isNum {
		return 0, false
	}
	return d.number, true
}

// PercentValue parses a percentage dimension. ok is false when the value is
// not a percentage string; err is set when it is one but the number is malformed.
func (d Dimension) PercentValue() (value float64, ok bool, err error) {
	if d.isNum {
		return 0, false, nil
	}
	text := strings.TrimSpace(d.text)
	if !strings.HasSuffix(text, "%") {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(text, "%")), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("%w: %q", ErrMalformedDimension, d.text)
	}
	return v, true, nil
}

func (d Dimension) String() string {
	if d.isNum {
		return strconv.FormatFloat(d.number, 'f', -1, 64)
	}
	return d.text
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.isNum {
		return []byte(strconv.FormatFloat(d.number, 'f', -1, 64)), nil
	}
	return json.Marshal(d.text)
}

func (d *Dimension) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Dimension{text: s}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedDimension, data)
	}
	*d = Dimension{number: v, isNum: true}
	return nil
}

func formatPercent(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func ceilPercent(v float64) *Dimension {
	return Percent(math.Ceil(v))
}

func cloneDimension(d *Dimension) *Dimension {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
