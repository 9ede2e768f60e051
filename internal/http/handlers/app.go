package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"
	"bannerserver/internal/infra"

	"github.com/rs/zerolog"
)

// BannerGenerator runs the banner pipeline.
type BannerGenerator interface {
	Generate(ctx context.Context, req banner.Request, locale string) (layout.Template, error)
}

// TemplateCatalog is the read side of the template catalog.
type TemplateCatalog interface {
	All() []layout.Template
	Get(id string) (layout.Template, bool)
	FindByResolution(resolution string) []layout.Template
	Resolutions() []string
}

type App struct {
	Config  *infra.Config
	Logger  zerolog.Logger
	Banners BannerGenerator
	Catalog TemplateCatalog
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, banners BannerGenerator, catalog TemplateCatalog) *App {
	return &App{Config: cfg, Logger: logger, Banners: banners, Catalog: catalog}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
