package compose

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"
	"bannerserver/internal/imageutil"
	"bannerserver/internal/infra"
	"bannerserver/internal/selector"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Suggester produces copy, colors and optional positional hints.
type Suggester interface {
	Suggest(ctx context.Context, req banner.SuggestionRequest) (banner.Choices, error)
}

// BackgroundGenerator produces a background image. The returned asset may
// carry only a reference, in which case the AssetFetcher loads it.
type BackgroundGenerator interface {
	Generate(ctx context.Context, req banner.BackgroundRequest) (banner.Asset, error)
}

type AssetFetcher interface {
	Fetch(ctx context.Context, ref string) (banner.Asset, error)
}

type TemplateSelector interface {
	Select(ctx context.Context, resolution string, numImages int) (selector.Selection, error)
}

type Options struct {
	Selector   TemplateSelector
	Suggester  Suggester
	Background BackgroundGenerator
	Fetcher    AssetFetcher
	Logger     zerolog.Logger

	Attempts   int
	RetryDelay time.Duration
	// Timeout bounds each collaborator attempt.
	Timeout    time.Duration
	MaxImages  int
	FontFamily string
	// BackgroundFormat re-encodes the background ("png" or "webp"); empty keeps it as is.
	BackgroundFormat string
}

// Service runs the banner pipeline for one request at a time; it holds no
// per-request state and is safe for concurrent use.
type Service struct {
	selector   TemplateSelector
	suggester  Suggester
	background BackgroundGenerator
	fetcher    AssetFetcher
	log        zerolog.Logger

	attempts   int
	retryDelay time.Duration
	timeout    time.Duration
	maxImages  int
	fontFamily string
	bgFormat   string
}

func NewService(opts Options) (*Service, error) {
	if opts.Selector == nil {
		return nil, errors.New("compose: selector is required")
	}
	if opts.Suggester == nil {
		return nil, errors.New("compose: suggester is required")
	}
	if opts.Background == nil {
		return nil, errors.New("compose: background generator is required")
	}
	s := &Service{
		selector:   opts.Selector,
		suggester:  opts.Suggester,
		background: opts.Background,
		fetcher:    opts.Fetcher,
		log:        opts.Logger,
		attempts:   opts.Attempts,
		retryDelay: opts.RetryDelay,
		timeout:    opts.Timeout,
		maxImages:  opts.MaxImages,
		fontFamily: opts.FontFamily,
		bgFormat:   opts.BackgroundFormat,
	}
	if s.attempts <= 0 {
		s.attempts = 3
	}
	if s.retryDelay <= 0 {
		s.retryDelay = 500 * time.Millisecond
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}
	if s.maxImages <= 0 {
		s.maxImages = banner.DefaultMaxImages
	}
	return s, nil
}

// Generate builds the banner descriptor for req. locale picks the language of
// the generated copy.
func (s *Service) Generate(ctx context.Context, req banner.Request, locale string) (layout.Template, error) {
	req.Images = slices.Clone(req.Images)
	req.ColorPalette = slices.Clone(req.ColorPalette)
	req.Normalize()
	if err := req.Validate(s.maxImages); err != nil {
		return layout.Template{}, err
	}
	width, height := req.Size()
	log := s.log.With().Str("resolution", req.Resolution).Int("images", len(req.Images)).Logger()

	sel, err := s.selector.Select(ctx, req.Resolution, len(req.Images))
	if err != nil {
		return layout.Template{}, fmt.Errorf("select template: %w", err)
	}
	log.Debug().Str("template", sel.Template.ID).Str("tier", string(sel.Tier)).Msg("template selected")

	tmpl, err := layout.Normalize(sel.Template)
	if err != nil {
		return layout.Template{}, fmt.Errorf("normalize template %s: %w", sel.Template.ID, err)
	}

	allLandscape, err := imageutil.AllLandscape(req.Images)
	if err != nil {
		return layout.Template{}, fmt.Errorf("%w: %v", banner.ErrInvalidImage, err)
	}
	log.Debug().Bool("all_landscape", allLandscape).Msg("orientation checked")
	tmpl = Adjust(tmpl, allLandscape)

	products, err := decodeProducts(req.Images)
	if err != nil {
		return layout.Template{}, err
	}

	var (
		background string
		choices    banner.Choices
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bg, err := s.generateBackground(gctx, banner.BackgroundRequest{
			Theme:   req.Theme,
			Palette: req.ColorPalette,
			Width:   width,
			Height:  height,
		})
		background = bg
		return err
	})
	g.Go(func() error {
		c, err := s.suggest(gctx, banner.SuggestionRequest{
			Template:   tmpl.Clone(),
			Promotion:  req.Promotion,
			Theme:      req.Theme,
			Resolution: req.Resolution,
			Palette:    req.ColorPalette,
			Products:   products,
			Locale:     locale,
		})
		choices = c
		return err
	})
	if err := g.Wait(); err != nil {
		return layout.Template{}, err
	}

	merged := MergeWith(tmpl, choices, width, height, req.Images, MergeOptions{FontFamily: s.fontFamily})
	out, err := Assemble(merged, background)
	if err != nil {
		return layout.Template{}, err
	}
	log.Debug().Str("template", sel.Template.ID).Int("objects", len(out.Objects)).Msg("banner assembled")
	return out, nil
}

func (s *Service) suggest(ctx context.Context, req banner.SuggestionRequest) (banner.Choices, error) {
	var choices banner.Choices
	err := s.call(ctx, "design suggestion", func(ctx context.Context) error {
		c, err := s.suggester.Suggest(ctx, req)
		if err != nil {
			return err
		}
		choices = c
		return nil
	})
	return choices, err
}

func (s *Service) generateBackground(ctx context.Context, req banner.BackgroundRequest) (string, error) {
	var asset banner.Asset
	err := s.call(ctx, "background", func(ctx context.Context) error {
		a, err := s.background.Generate(ctx, req)
		if err != nil {
			return err
		}
		if len(a.Data) == 0 {
			if s.fetcher == nil || a.Ref == "" {
				return banner.ErrBackgroundMissing
			}
			if a, err = s.fetcher.Fetch(ctx, a.Ref); err != nil {
				return err
			}
		}
		asset = a
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(asset.Data) == 0 {
		return "", banner.ErrBackgroundMissing
	}
	data, mime := asset.Data, asset.MIME
	// Assets already stored in the target format are passed through untouched.
	if s.bgFormat != "" && mime != imageutil.FormatMIME(s.bgFormat) {
		if data, mime, err = imageutil.Transcode(data, s.bgFormat); err != nil {
			return "", fmt.Errorf("background: %w", err)
		}
	}
	if mime == "" {
		mime = imageutil.SniffMIME(data)
	}
	return imageutil.DataURI(mime, data), nil
}

// call retries fn with a per-attempt timeout. An attempt that times out is
// retried as long as ctx itself is still live.
func (s *Service) call(ctx context.Context, name string, fn func(context.Context) error) error {
	attempt := 0
	err := infra.Retry(ctx, s.attempts, s.retryDelay, func(ctx context.Context) error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		err := fn(actx)
		if err == nil {
			return nil
		}
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && !infra.IsRetryable(err) {
			err = infra.Retryable(err)
		}
		s.log.Warn().Err(err).Str("collaborator", name).Int("attempt", attempt).Bool("retryable", infra.IsRetryable(err)).Msg("collaborator call failed")
		return err
	})
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, banner.ErrMalformedSuggestion), errors.Is(err, banner.ErrInvalidSuggestion),
		errors.Is(err, banner.ErrBackgroundMissing), errors.Is(err, banner.ErrProviderFailure):
		return fmt.Errorf("%s: %w", name, err)
	default:
		return fmt.Errorf("%w: %s: %w", banner.ErrProviderFailure, name, err)
	}
}

func decodeProducts(images []string) ([][]byte, error) {
	var out [][]byte
	for i, p := range images {
		if p == "" {
			continue
		}
		data, err := imageutil.DecodeBase64(p)
		if err != nil {
			return nil, &banner.ValidationError{Field: fmt.Sprintf("images[%d]", i), Reason: "is not base64", Err: banner.ErrInvalidImage}
		}
		out = append(out, data)
	}
	return out, nil
}
