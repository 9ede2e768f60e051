package compose

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bannerserver/internal/catalog"
	"bannerserver/internal/domain/banner"
	"bannerserver/internal/imageutil"
	"bannerserver/internal/infra"
	"bannerserver/internal/selector"

	"github.com/rs/zerolog"
)

type stubSuggester struct {
	calls   atomic.Int32
	choices banner.Choices
	errs    []error
	last    atomic.Pointer[banner.SuggestionRequest]
}

func (s *stubSuggester) Suggest(ctx context.Context, req banner.SuggestionRequest) (banner.Choices, error) {
	n := int(s.calls.Add(1))
	s.last.Store(&req)
	if n <= len(s.errs) && s.errs[n-1] != nil {
		return banner.Choices{}, s.errs[n-1]
	}
	return s.choices, nil
}

type stubBackground struct {
	calls atomic.Int32
	asset banner.Asset
	err   error
	block bool
}

func (s *stubBackground) Generate(ctx context.Context, req banner.BackgroundRequest) (banner.Asset, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return banner.Asset{}, ctx.Err()
	}
	if s.err != nil {
		return banner.Asset{}, s.err
	}
	return s.asset, nil
}

type stubFetcher struct {
	data []byte
}

func (f stubFetcher) Fetch(ctx context.Context, ref string) (banner.Asset, error) {
	return banner.Asset{Ref: ref, MIME: "image/png", Data: f.data}, nil
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestService(t *testing.T, sug Suggester, bg BackgroundGenerator, fetcher AssetFetcher) *Service {
	t.Helper()
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("catalog.Builtin: %v", err)
	}
	svc, err := NewService(Options{
		Selector:   selector.New(cat, selector.Options{Policy: selector.NewSeededPolicy(7)}),
		Suggester:  sug,
		Background: bg,
		Fetcher:    fetcher,
		Logger:     zerolog.Nop(),
		Attempts:   3,
		RetryDelay: time.Millisecond,
		Timeout:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestServiceGenerate(t *testing.T) {
	sug := &stubSuggester{choices: sampleChoices}
	bg := &stubBackground{asset: banner.Asset{Ref: "backgrounds/x.png"}}
	svc := newTestService(t, sug, bg, stubFetcher{data: []byte("\x89PNG\r\n\x1a\nrest")})

	img := pngBase64(t, 40, 20)
	out, err := svc.Generate(context.Background(), banner.Request{
		Promotion:    " 50% off ",
		Theme:        "summer",
		Resolution:   "1360X800",
		ColorPalette: []string{"#fff", " "},
		Images:       []string{"data:image/png;base64," + img, img},
	}, "id")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out.Width != 1360 || out.Height != 800 {
		t.Fatalf("size = %dx%d", out.Width, out.Height)
	}
	if out.Resolution != "1360x800" || out.NumImages != 2 {
		t.Fatalf("selected %s/%d, want an exact match", out.Resolution, out.NumImages)
	}
	if !strings.HasPrefix(out.Objects[0].Src, "data:image/png;base64,") {
		t.Fatalf("background src = %q", out.Objects[0].Src)
	}
	images := 0
	for _, o := range out.Objects[1:] {
		if o.IsImage() {
			images++
			if o.Src != "data:image/jpeg;base64,"+img {
				t.Fatalf("product src = %q", o.Src)
			}
		}
	}
	if images != 2 {
		t.Fatalf("product images = %d, want 2", images)
	}

	req := sug.last.Load()
	if req.Promotion != "50% off" || req.Locale != "id" || len(req.Products) != 2 || len(req.Palette) != 1 {
		t.Fatalf("suggestion request = %+v", req)
	}
}

func TestServiceSkipsTranscodeForMatchingBackground(t *testing.T) {
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("catalog.Builtin: %v", err)
	}
	// Not decodable, so any transcode attempt would fail the request.
	bg := &stubBackground{asset: banner.Asset{MIME: imageutil.MIMEWebP, Data: []byte("not-really-webp")}}
	svc, err := NewService(Options{
		Selector:         selector.New(cat, selector.Options{Policy: selector.NewSeededPolicy(7)}),
		Suggester:        &stubSuggester{choices: sampleChoices},
		Background:       bg,
		Logger:           zerolog.Nop(),
		Attempts:         1,
		RetryDelay:       time.Millisecond,
		Timeout:          50 * time.Millisecond,
		BackgroundFormat: "webp",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	img := pngBase64(t, 40, 20)
	out, err := svc.Generate(context.Background(), banner.Request{
		Promotion:  "50% off",
		Theme:      "summer",
		Resolution: "1360x800",
		Images:     []string{img},
	}, "en")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	want := imageutil.DataURI(imageutil.MIMEWebP, []byte("not-really-webp"))
	if out.Objects[0].Src != want {
		t.Fatalf("background src = %q, want %q", out.Objects[0].Src, want)
	}
	if bg.calls.Load() != 1 {
		t.Fatalf("background calls = %d, want 1", bg.calls.Load())
	}
}

func TestServiceRejectsInvalidRequest(t *testing.T) {
	svc := newTestService(t, &stubSuggester{}, &stubBackground{}, nil)
	for _, req := range []banner.Request{
		{Resolution: "1360x800"},
		{Promotion: "x", Resolution: "wide"},
		{Promotion: "x", Resolution: "1360x800", Images: make([]string, 7)},
	} {
		if _, err := svc.Generate(context.Background(), req, "en"); !errors.Is(err, banner.ErrInvalidRequest) {
			t.Fatalf("Generate(%+v) err = %v, want ErrInvalidRequest", req, err)
		}
	}
	_, err := svc.Generate(context.Background(), banner.Request{Promotion: "x", Resolution: "1360x800", Images: []string{"aGVsbG8="}}, "en")
	if !errors.Is(err, banner.ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
}

func TestServiceRetriesTransientFailures(t *testing.T) {
	sug := &stubSuggester{choices: sampleChoices, errs: []error{infra.Retryable(errors.New("429")), nil}}
	bg := &stubBackground{asset: banner.Asset{MIME: "image/png", Data: []byte("png")}}
	svc := newTestService(t, sug, bg, nil)

	if _, err := svc.Generate(context.Background(), banner.Request{Promotion: "x", Resolution: "1920x1080"}, "en"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := sug.calls.Load(); got != 2 {
		t.Fatalf("suggester calls = %d, want 2", got)
	}
}

func TestServiceDoesNotRetryMalformedSuggestion(t *testing.T) {
	malformed := errors.Join(banner.ErrMalformedSuggestion, errors.New("bad json"))
	sug := &stubSuggester{errs: []error{malformed, malformed, malformed}}
	svc := newTestService(t, sug, &stubBackground{asset: banner.Asset{Data: []byte("png")}}, nil)

	_, err := svc.Generate(context.Background(), banner.Request{Promotion: "x", Resolution: "1920x1080"}, "en")
	if !errors.Is(err, banner.ErrMalformedSuggestion) {
		t.Fatalf("err = %v, want ErrMalformedSuggestion", err)
	}
	if got := sug.calls.Load(); got != 1 {
		t.Fatalf("suggester calls = %d, want 1", got)
	}
}

func TestServiceTimeoutIsFatalAfterRetries(t *testing.T) {
	bg := &stubBackground{block: true}
	svc := newTestService(t, &stubSuggester{choices: sampleChoices}, bg, nil)

	_, err := svc.Generate(context.Background(), banner.Request{Promotion: "x", Resolution: "1920x1080"}, "en")
	if !errors.Is(err, banner.ErrProviderFailure) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want provider failure after deadline", err)
	}
	if got := bg.calls.Load(); got != 3 {
		t.Fatalf("background calls = %d, want 3", got)
	}
}

func TestServiceMissingBackground(t *testing.T) {
	svc := newTestService(t, &stubSuggester{choices: sampleChoices}, &stubBackground{asset: banner.Asset{Ref: "x"}}, nil)
	_, err := svc.Generate(context.Background(), banner.Request{Promotion: "x", Resolution: "1920x1080"}, "en")
	if !errors.Is(err, banner.ErrBackgroundMissing) {
		t.Fatalf("err = %v, want ErrBackgroundMissing", err)
	}
}
