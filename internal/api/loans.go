package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/imaging"
)

// LoansHandler handles borrowing and returning.
type LoansHandler struct {
	Engine *engine.Engine
}

type returnRequest struct {
	Story string `json:"story"`
	// Image is an optional base64 data URI.
	Image string `json:"image"`
}

// List handles GET /api/loans.
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Engine.Loans(r.URL.Query().Get("class")))
}

// Borrow handles POST /api/loans.
func (h *LoansHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req engine.BorrowInput
	if err := decodeJSON(w, r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	loan, err := h.Engine.Borrow(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, loan)
}

// Return handles POST /api/loans/{id}/return. The body is either JSON or a
// multipart form with a "story" field and an optional "image" file.
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	var (
		story string
		image io.Reader
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+maxFormMemory)
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
			return
		}
		story = r.FormValue("story")

		file, _, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			image = file
		} else if err != http.ErrMissingFile {
			jsonError(w, http.StatusBadRequest, "invalid image upload")
			return
		}
	} else {
		var req returnRequest
		if err := decodeJSON(w, r, &req); err != nil && err != io.EOF {
			invalidBody(w, err)
			return
		}
		story = req.Story
		if req.Image != "" {
			data, err := imaging.Decode(req.Image)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid image: "+err.Error())
				return
			}
			image = bytes.NewReader(data)
		}
	}

	entry, err := h.Engine.Return(r.Context(), actorFrom(r.Context()), r.PathValue("id"), story, image)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}
