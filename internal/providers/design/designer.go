// Package design asks generative models for banner copy, colors and,
// optionally, whole layout templates.
package design

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"
	"bannerserver/internal/imageutil"
	"bannerserver/internal/infra"

	"github.com/rs/zerolog"
)

// Image is an inline image part sent with a prompt.
type Image struct {
	MIME string
	Data []byte
}

// Completer sends one prompt (plus optional images) to a model and returns
// its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, images []Image) (string, error)
	Name() string
}

// Designer turns model replies into typed design choices and templates.
type Designer struct {
	model Completer
	log   zerolog.Logger
}

func NewDesigner(model Completer, logger zerolog.Logger) *Designer {
	return &Designer{model: model, log: logger.With().Str("provider", model.Name()).Logger()}
}

// Suggest implements the design suggestion collaborator.
func (d *Designer) Suggest(ctx context.Context, req banner.SuggestionRequest) (banner.Choices, error) {
	images := make([]Image, 0, len(req.Products))
	for _, p := range req.Products {
		images = append(images, Image{MIME: imageutil.SniffMIME(p), Data: p})
	}
	raw, err := d.model.Complete(ctx, buildSuggestionPrompt(req), images)
	if err != nil {
		return banner.Choices{}, err
	}
	choices, err := banner.ParseChoices(raw)
	if err != nil {
		d.log.Error().Err(err).Str("raw", raw).Msg("design suggestion rejected")
		return banner.Choices{}, err
	}
	return choices, nil
}

// SynthesizeTemplate asks the model for a new layout. The result is shape
// checked by the caller.
func (d *Designer) SynthesizeTemplate(ctx context.Context, resolution string, numImages int, examples []layout.Template) (layout.Template, error) {
	raw, err := d.model.Complete(ctx, buildSynthesisPrompt(resolution, numImages, examples), nil)
	if err != nil {
		return layout.Template{}, err
	}
	t, err := decodeTemplate(raw)
	if err != nil {
		d.log.Error().Err(err).Str("raw", raw).Msg("synthesized template rejected")
		return layout.Template{}, err
	}
	return t, nil
}

func decodeTemplate(raw string) (layout.Template, error) {
	fragment := extractJSONFragment(raw)
	if fragment == "" {
		return layout.Template{}, fmt.Errorf("%w: empty response", layout.ErrInvalidTemplate)
	}
	var t layout.Template
	if err := json.Unmarshal([]byte(fragment), &t); err != nil {
		return layout.Template{}, fmt.Errorf("%w: %v", layout.ErrInvalidTemplate, err)
	}
	return t, nil
}

// classify marks transport failures, rate limits and server errors as
// retryable.
func classify(status int, err error) error {
	if err == nil {
		return nil
	}
	if status == 429 || status >= 500 {
		return infra.Retryable(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return infra.Retryable(err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "quota", "resource_exhausted", "unavailable", "503", "500", "connection reset"} {
		if strings.Contains(msg, marker) {
			return infra.Retryable(err)
		}
	}
	return err
}
