package handlers

import "net/http"

type healthStatus struct {
	Status    string `json:"status"`
	Templates int    `json:"templates"`
}

// Health reports liveness and the size of the loaded catalog.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthStatus{Status: "ok", Templates: len(a.Catalog.All())})
}
