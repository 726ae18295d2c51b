package api

import (
	"net/http"

	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/imaging"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Engine *engine.Engine
}

// normalizeImage re-processes an inline image sent as JSON. It writes the
// error response and returns false on failure.
func normalizeImage(w http.ResponseWriter, image *string) bool {
	if image == nil {
		return true
	}
	normalized, err := imaging.Normalize(*image)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image: "+err.Error())
		return false
	}
	*image = normalized
	return true
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := h.Engine.Items(engine.ItemFilter{
		Search:   q.Get("q"),
		Category: q.Get("category"),
	})
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Engine.Item(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req engine.ItemInput
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, err)
		return
	}
	if !normalizeImage(w, &req.Image) {
		return
	}

	item, err := h.Engine.AddItem(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req engine.ItemPatch
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, err)
		return
	}
	if !normalizeImage(w, req.Image) {
		return
	}

	item, err := h.Engine.UpdateItem(r.Context(), actorFrom(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteItem(r.Context(), actorFrom(r.Context()), r.PathValue("id")); err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Toggle handles POST /api/items/{id}/toggle.
func (h *ItemsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	item, err := h.Engine.ToggleAvailability(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	uri, ok := readImageUpload(w, r, "image")
	if !ok {
		return
	}

	item, err := h.Engine.UpdateItem(r.Context(), actorFrom(r.Context()), r.PathValue("id"), engine.ItemPatch{Image: &uri})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}
