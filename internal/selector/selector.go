// Package selector picks the layout template for a request.
package selector

import (
	"context"
	"errors"
	"fmt"

	"bannerserver/internal/domain/layout"

	"github.com/rs/zerolog"
)

var ErrNoTemplates = errors.New("selector: catalog is empty")

// Tier records which rule produced a selection.
type Tier string

const (
	TierExact       Tier = "exact"
	TierResolution  Tier = "resolution"
	TierGlobal      Tier = "global"
	TierSynthesized Tier = "synthesized"
)

// Source is the read side of the template catalog.
type Source interface {
	FindMatches(resolution string, numImages int) []layout.Template
	FindByResolution(resolution string) []layout.Template
	Len() int
	At(i int) layout.Template
}

// Synthesizer asks a generative model for a new template, using examples as
// few-shot guidance.
type Synthesizer interface {
	SynthesizeTemplate(ctx context.Context, resolution string, numImages int, examples []layout.Template) (layout.Template, error)
}

type Options struct {
	Policy      Policy
	Synthesizer Synthesizer
	// Examples caps how many catalog templates are sent to the synthesizer.
	Examples int
	Logger   zerolog.Logger
}

type Selector struct {
	src      Source
	policy   Policy
	synth    Synthesizer
	examples int
	log      zerolog.Logger
}

type Selection struct {
	Template layout.Template
	Tier     Tier
}

func New(src Source, opts Options) *Selector {
	policy := opts.Policy
	if policy == nil {
		policy = NewUniformPolicy()
	}
	examples := opts.Examples
	if examples <= 0 {
		examples = 2
	}
	return &Selector{src: src, policy: policy, synth: opts.Synthesizer, examples: examples, log: opts.Logger}
}

// Select applies the tiers in order: exact resolution and image count, then
// resolution only, then either synthesis (when a synthesizer is configured)
// or a uniform pick across the whole catalog. The result never aliases
// catalog state.
func (s *Selector) Select(ctx context.Context, resolution string, numImages int) (Selection, error) {
	if matches := s.src.FindMatches(resolution, numImages); len(matches) > 0 {
		return s.pick(matches, TierExact), nil
	}
	if matches := s.src.FindByResolution(resolution); len(matches) > 0 {
		return s.pick(matches, TierResolution), nil
	}
	if s.synth != nil {
		t, err := s.synthesize(ctx, resolution, numImages)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Template: t, Tier: TierSynthesized}, nil
	}
	n := s.src.Len()
	if n == 0 {
		return Selection{}, ErrNoTemplates
	}
	t := s.src.At(s.policy.Intn(n))
	s.log.Debug().Str("template", t.ID).Str("resolution", resolution).Msg("no catalog match, using global fallback")
	return Selection{Template: t, Tier: TierGlobal}, nil
}

func (s *Selector) pick(candidates []layout.Template, tier Tier) Selection {
	t := candidates[s.policy.Intn(len(candidates))]
	return Selection{Template: t, Tier: tier}
}

func (s *Selector) synthesize(ctx context.Context, resolution string, numImages int) (layout.Template, error) {
	t, err := s.synth.SynthesizeTemplate(ctx, resolution, numImages, s.fewShot(numImages))
	if err != nil {
		return layout.Template{}, fmt.Errorf("selector: synthesize template: %w", err)
	}
	if t.Resolution != "" && t.Resolution != resolution {
		w, h, err := layout.ParseResolution(t.Resolution)
		rw, rh, rerr := layout.ParseResolution(resolution)
		if err != nil || rerr != nil || w != rw || h != rh {
			return layout.Template{}, fmt.Errorf("selector: synthesized template: %w: resolution %q, want %q", layout.ErrInvalidTemplate, t.Resolution, resolution)
		}
	}
	t.Resolution = resolution
	if t.NumImages != numImages {
		return layout.Template{}, fmt.Errorf("selector: synthesized template: %w: %d images, want %d", layout.ErrInvalidTemplate, t.NumImages, numImages)
	}
	if err := t.Validate(); err != nil {
		return layout.Template{}, fmt.Errorf("selector: synthesized template: %w", err)
	}
	s.log.Debug().Str("resolution", resolution).Int("images", numImages).Int("objects", len(t.Objects)).Msg("synthesized template")
	return t.Clone(), nil
}

// fewShot prefers catalog templates with the same image count.
func (s *Selector) fewShot(numImages int) []layout.Template {
	var out []layout.Template
	n := s.src.Len()
	for i := 0; i < n && len(out) < s.examples; i++ {
		if t := s.src.At(i); t.NumImages == numImages && !t.IsPixel() {
			out = append(out, t)
		}
	}
	for i := 0; i < n && len(out) < s.examples; i++ {
		if t := s.src.At(i); t.NumImages != numImages && !t.IsPixel() {
			out = append(out, t)
		}
	}
	return out
}
