package handlers

import (
	"net/http"
	"strings"

	"bannerserver/internal/domain/layout"

	"github.com/go-chi/chi/v5"
)

type templateList struct {
	Items       []layout.Template `json:"items"`
	Resolutions []string          `json:"resolutions"`
}

// Templates lists catalog templates, optionally filtered by ?resolution=.
func (a *App) Templates(w http.ResponseWriter, r *http.Request) {
	items := a.Catalog.All()
	if res := strings.TrimSpace(r.URL.Query().Get("resolution")); res != "" {
		width, height, err := layout.ParseResolution(res)
		if err != nil {
			a.error(w, http.StatusBadRequest, "resolution must look like 1360x800")
			return
		}
		items = a.Catalog.FindByResolution(layout.FormatResolution(width, height))
	}
	if items == nil {
		items = []layout.Template{}
	}
	a.json(w, http.StatusOK, templateList{Items: items, Resolutions: a.Catalog.Resolutions()})
}

func (a *App) Template(w http.ResponseWriter, r *http.Request) {
	t, ok := a.Catalog.Get(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusNotFound, "template not found")
		return
	}
	a.json(w, http.StatusOK, t)
}
