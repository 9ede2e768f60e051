package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/middleware"

	"github.com/rs/zerolog"
)

const maxBannerBody = 64 << 20

// GenerateBanner handles POST /generate_banner. Every failure is reported as
// 500 with an {"error": ...} body.
func (a *App) GenerateBanner(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = &a.Logger
	}
	var req banner.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBannerBody)).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("generate banner: bad request body")
		a.error(w, http.StatusInternalServerError, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	out, err := a.Banners.Generate(r.Context(), req, locale)
	if err != nil {
		log.Error().Err(err).Str("resolution", req.Resolution).Int("images", len(req.Images)).Msg("generate banner failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.json(w, http.StatusOK, out)
}
