package handlers

import (
	"embed"
	"net/http"
)

//go:embed web/index.html web/advanced-editor.html
var webFS embed.FS

func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	a.page(w, "web/index.html")
}

func (a *App) AdvancedEditor(w http.ResponseWriter, r *http.Request) {
	a.page(w, "web/advanced-editor.html")
}

func (a *App) page(w http.ResponseWriter, name string) {
	data, err := webFS.ReadFile(name)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "page not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
