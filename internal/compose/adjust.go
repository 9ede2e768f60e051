package compose

import "bannerserver/internal/domain/layout"

const (
	landscapeBottomShift = 15
	landscapeLeftShift   = 5
)

// Adjust nudges bottom-anchored image objects up and left when every input
// image is landscape. Only objects with percentage left and bottom move.
func Adjust(t layout.Template, allLandscape bool) layout.Template {
	out := t.Clone()
	if !allLandscape {
		return out
	}
	for i := range out.Objects {
		o := &out.Objects[i]
		if !o.IsImage() || o.Left == nil || o.Bottom == nil {
			continue
		}
		left, okLeft, errLeft := o.Left.PercentValue()
		bottom, okBottom, errBottom := o.Bottom.PercentValue()
		if !okLeft || !okBottom || errLeft != nil || errBottom != nil {
			continue
		}
		o.Bottom = layout.Percent(min(bottom+landscapeBottomShift, 100))
		o.Left = layout.Percent(max(left-landscapeLeftShift, 0))
	}
	return out
}
