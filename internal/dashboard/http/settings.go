package dashhttp

import (
	"errors"
	"net/http"
	"time"

	"github.com/ramirolandajo/comercio-insights/internal/platform/httpx"
	"github.com/ramirolandajo/comercio-insights/internal/settings"
)

const dayLayout = "2006-01-02"

type periodPayload struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

type presetPayload struct {
	Days int `json:"days" validate:"required,gte=1"`
}

type themePayload struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	start, end := h.periods.Snapshot()
	h.respondJSON(w, http.StatusOK, periodPayload{StartDate: start, EndDate: end})
}

// handlePutPeriod replaces both bounds at once and persists the selection so
// it survives restarts. The range is not checked for start <= end; a
// reversed selection yields an empty result set upstream.
func (h *Handler) handlePutPeriod(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Cuerpo inválido", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Período inválido", "startDate y endDate deben tener formato YYYY-MM-DD")
		return
	}
	start, _ := time.Parse(dayLayout, payload.StartDate)
	end, _ := time.Parse(dayLayout, payload.EndDate)
	h.periods.SetRange(start, end)
	h.persistPeriod(r)
	h.respondPeriod(w)
}

func (h *Handler) handlePresetPeriod(w http.ResponseWriter, r *http.Request) {
	var payload presetPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Cuerpo inválido", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Preset inválido", "days debe ser un entero >= 1")
		return
	}
	if err := h.periods.SetPresetLastDays(payload.Days); err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Preset inválido", err.Error())
		return
	}
	h.persistPeriod(r)
	h.respondPeriod(w)
}

func (h *Handler) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.prefs.Theme(r.Context())
	if err != nil {
		h.logError("load theme", err)
		theme = settings.ThemeLight
	}
	h.respondJSON(w, http.StatusOK, themePayload{Theme: theme})
}

func (h *Handler) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var payload themePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Cuerpo inválido", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.respondProblem(w, http.StatusBadRequest, "Tema inválido", "theme debe ser light o dark")
		return
	}
	if err := h.prefs.SetTheme(r.Context(), payload.Theme); err != nil {
		if errors.Is(err, settings.ErrInvalidTheme) {
			h.respondProblem(w, http.StatusBadRequest, "Tema inválido", err.Error())
			return
		}
		h.respondProblem(w, http.StatusInternalServerError, "Error interno", "")
		return
	}
	h.respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) respondPeriod(w http.ResponseWriter) {
	start, end := h.periods.Snapshot()
	h.respondJSON(w, http.StatusOK, periodPayload{StartDate: start, EndDate: end})
}

func (h *Handler) persistPeriod(r *http.Request) {
	start, end := h.periods.Snapshot()
	if err := h.prefs.SavePeriod(r.Context(), start, end); err != nil {
		h.logError("persist period", err)
	}
}
