package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bannerserver/internal/catalog"
	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"
	"bannerserver/internal/infra"
	"bannerserver/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type stubBanners struct {
	out    layout.Template
	err    error
	req    banner.Request
	locale string
}

func (s *stubBanners) Generate(ctx context.Context, req banner.Request, locale string) (layout.Template, error) {
	s.req = req
	s.locale = locale
	return s.out, s.err
}

func newTestApp(t *testing.T, banners BannerGenerator) *App {
	t.Helper()
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("catalog.Builtin: %v", err)
	}
	return NewApp(&infra.Config{}, zerolog.Nop(), banners, cat)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestGenerateBanner(t *testing.T) {
	out := layout.Template{Resolution: "1360x800", Width: 1360, Height: 800, Objects: []layout.Object{
		{Type: layout.ObjectImage, Left: layout.Percent(0), Top: layout.Percent(0), Width: layout.Percent(100), Height: layout.Percent(100), Src: "data:image/png;base64,AA"},
		{Type: layout.ObjectText, Left: layout.Percent(6), Top: layout.Percent(10), FontSize: 36, Fill: "#000000", Text: "Sale"},
	}}
	stub := &stubBanners{out: out}
	app := newTestApp(t, stub)

	body := `{"promotion":"Sale","theme":"summer","resolution":"1360x800","color_palette":["#fff"],"images":["AAA"]}`
	req := httptest.NewRequest(http.MethodPost, "/generate_banner", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.LocaleKey, "id"))
	rr := httptest.NewRecorder()
	app.GenerateBanner(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rr.Code, rr.Body.String())
	}
	if stub.req.Promotion != "Sale" || len(stub.req.Images) != 1 || stub.req.ColorPalette[0] != "#fff" || stub.locale != "id" {
		t.Fatalf("request = %+v locale %q", stub.req, stub.locale)
	}
	var got layout.Template
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Width != 1360 || len(got.Objects) != 2 || got.Objects[0].Src == "" || got.Objects[1].Text != "Sale" {
		t.Fatalf("response = %+v", got)
	}
}

func TestGenerateBannerErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		wantMsg string
	}{
		{name: "bad json", body: `{"promotion":`, wantMsg: "invalid request body"},
		{name: "validation", body: `{}`, err: &banner.ValidationError{Field: "promotion", Reason: "is required", Err: banner.ErrInvalidRequest}, wantMsg: "promotion: is required"},
		{name: "provider", body: `{}`, err: errors.Join(banner.ErrProviderFailure, errors.New("timeout")), wantMsg: "provider failure"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &stubBanners{err: tc.err})
			rr := httptest.NewRecorder()
			app.GenerateBanner(rr, httptest.NewRequest(http.MethodPost, "/generate_banner", strings.NewReader(tc.body)))
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rr.Code)
			}
			if msg := decodeError(t, rr); !strings.Contains(msg, tc.wantMsg) {
				t.Fatalf("error = %q, want it to contain %q", msg, tc.wantMsg)
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	app := newTestApp(t, &stubBanners{})

	rr := httptest.NewRecorder()
	app.Templates(rr, httptest.NewRequest(http.MethodGet, "/v1/templates?resolution=1920X1080", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var list templateList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) == 0 || len(list.Resolutions) == 0 {
		t.Fatalf("list = %+v", list)
	}
	for _, item := range list.Items {
		if item.Resolution != "1920x1080" {
			t.Fatalf("item resolution = %q", item.Resolution)
		}
	}

	rr = httptest.NewRecorder()
	app.Templates(rr, httptest.NewRequest(http.MethodGet, "/v1/templates?resolution=7x7", nil))
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Items == nil || len(list.Items) != 0 {
		t.Fatalf("unknown resolution items = %v, want empty list", list.Items)
	}

	rr = httptest.NewRecorder()
	app.Templates(rr, httptest.NewRequest(http.MethodGet, "/v1/templates?resolution=wide", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestTemplateByID(t *testing.T) {
	app := newTestApp(t, &stubBanners{})
	r := chi.NewRouter()
	r.Get("/v1/templates/{id}", app.Template)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/templates/split-1920x1080-1img-a", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/templates/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestStaticPages(t *testing.T) {
	app := newTestApp(t, &stubBanners{})
	for path, h := range map[string]http.HandlerFunc{"/": app.Index, "/advanced-editor": app.AdvancedEditor, "/v1/docs": app.OpenAPIDocs} {
		rr := httptest.NewRecorder()
		h(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
			t.Fatalf("%s: status %d content-type %q", path, rr.Code, rr.Header().Get("Content-Type"))
		}
		if !bytes.Contains(bytes.ToLower(rr.Body.Bytes()), []byte("<html")) {
			t.Fatalf("%s: body is not html", path)
		}
	}

	rr := httptest.NewRecorder()
	app.OpenAPIJSON(rr, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	var doc map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("openapi.json is not valid JSON: %v", err)
	}
	if _, ok := doc["paths"].(map[string]any)["/generate_banner"]; !ok {
		t.Fatalf("openapi.json does not document /generate_banner")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	req.Header.Set("If-None-Match", rr.Header().Get("ETag"))
	rr = httptest.NewRecorder()
	app.OpenAPIJSON(rr, req)
	if rr.Code != http.StatusNotModified {
		t.Fatalf("conditional request status = %d, want 304", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestApp(t, &stubBanners{}).Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	var got healthStatus
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusOK || got.Status != "ok" || got.Templates == 0 {
		t.Fatalf("health = %d %+v", rr.Code, got)
	}
}
