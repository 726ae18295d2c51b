package api

import (
	"errors"
	"net/http"

	"github.com/erazemk/renova/internal/imaging"
)

// maxFormMemory is the part of a multipart form kept in memory.
const maxFormMemory = 1 << 20

// readImageUpload processes the image in the named multipart field and
// returns it as a data URI. On failure it writes the error response and
// returns false.
func readImageUpload(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+maxFormMemory)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return "", false
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		jsonError(w, http.StatusBadRequest, field+" file required")
		return "", false
	}
	defer file.Close()

	uri, err := imaging.DataURI(file)
	if err != nil {
		if errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		} else {
			jsonError(w, http.StatusBadRequest, err.Error())
		}
		return "", false
	}
	return uri, true
}
