package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bannerserver/internal/catalog"
	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"
	"bannerserver/internal/http/handlers"
	"bannerserver/internal/infra"

	"github.com/rs/zerolog"
)

type echoLocale struct{ locale string }

func (e *echoLocale) Generate(ctx context.Context, req banner.Request, locale string) (layout.Template, error) {
	e.locale = locale
	return layout.Template{Resolution: req.Resolution, Objects: []layout.Object{}}, nil
}

func newTestRouter(t *testing.T, cfg *infra.Config) (http.Handler, *echoLocale) {
	t.Helper()
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("catalog.Builtin: %v", err)
	}
	gen := &echoLocale{}
	app := handlers.NewApp(cfg, zerolog.Nop(), gen, cat)
	return NewRouter(app, cfg, zerolog.Nop(), nil), gen
}

func TestRoutes(t *testing.T) {
	h, _ := newTestRouter(t, &infra.Config{DefaultLocale: "en", CORSAllowedOrigins: []string{"*"}, RateLimitPerMin: 10})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/advanced-editor", http.StatusOK},
		{http.MethodGet, "/v1/healthz", http.StatusOK},
		{http.MethodGet, "/v1/templates", http.StatusOK},
		{http.MethodGet, "/v1/templates/missing", http.StatusNotFound},
		{http.MethodGet, "/v1/openapi.json", http.StatusOK},
		{http.MethodGet, "/generate_banner", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		if rr.Code != tc.want {
			t.Fatalf("%s %s = %d, want %d", tc.method, tc.path, rr.Code, tc.want)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: missing X-Request-ID", tc.method, tc.path)
		}
	}
}

func TestGenerateBannerRouteCarriesLocale(t *testing.T) {
	h, gen := newTestRouter(t, &infra.Config{DefaultLocale: "en", CORSAllowedOrigins: []string{"*"}, RateLimitPerMin: 10})

	req := httptest.NewRequest(http.MethodPost, "/generate_banner", strings.NewReader(`{"promotion":"x","resolution":"1360x800"}`))
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9")
	req.Header.Set("Origin", "https://shop.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if gen.locale != "id" {
		t.Fatalf("locale = %q, want %q", gen.locale, "id")
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestGenerateBannerRateLimited(t *testing.T) {
	h, _ := newTestRouter(t, &infra.Config{DefaultLocale: "en", RateLimitPerMin: 1})

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/generate_banner", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 429]", codes)
	}
}
