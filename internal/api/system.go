package api

import (
	"net/http"

	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/model"
)

// SystemHandler handles branding, the dashboard and the system reset.
type SystemHandler struct {
	Engine *engine.Engine
}

type settingsResponse struct {
	model.Settings
	DisplayName string   `json:"displayName"`
	Categories  []string `json:"categories"`
}

func viewSettings(s model.Settings) settingsResponse {
	return settingsResponse{Settings: s, DisplayName: s.DisplayName(), Categories: model.Categories}
}

// Settings handles GET /api/settings.
func (h *SystemHandler) Settings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Engine.Settings(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewSettings(s))
}

// UpdateSettings handles PUT /api/settings.
func (h *SystemHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req engine.SettingsPatch
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, err)
		return
	}
	if !normalizeImage(w, req.AppLogo) || !normalizeImage(w, req.LandingBgImage) {
		return
	}
	h.updateSettings(w, r, req)
}

// UploadLogo handles PUT /api/settings/logo.
func (h *SystemHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	uri, ok := readImageUpload(w, r, "image")
	if !ok {
		return
	}
	h.updateSettings(w, r, engine.SettingsPatch{AppLogo: &uri})
}

// UploadBackground handles PUT /api/settings/background.
func (h *SystemHandler) UploadBackground(w http.ResponseWriter, r *http.Request) {
	uri, ok := readImageUpload(w, r, "image")
	if !ok {
		return
	}
	h.updateSettings(w, r, engine.SettingsPatch{LandingBgImage: &uri})
}

func (h *SystemHandler) updateSettings(w http.ResponseWriter, r *http.Request, patch engine.SettingsPatch) {
	s, err := h.Engine.UpdateSettings(r.Context(), actorFrom(r.Context()), patch)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewSettings(s))
}

// Dashboard handles GET /api/dashboard.
func (h *SystemHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Engine.Dashboard())
}

// Reset handles POST /api/system/reset.
func (h *SystemHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Reset(r.Context(), actorFrom(r.Context())); err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "system reset"})
}
