package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/renova/internal/audit"
	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/model"
)

// Archiver stores a rendered activity report somewhere durable.
type Archiver interface {
	ArchiveLogs(ctx context.Context, t time.Time, logs []model.LogEntry, layout string, loc *time.Location) (string, error)
}

// LogsHandler handles the activity log and its reports.
type LogsHandler struct {
	Engine     *engine.Engine
	DateLayout string
	Location   *time.Location
	// Archiver is nil when archiving is not configured.
	Archiver Archiver
}

// List handles GET /api/logs.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Engine.Logs())
}

// Delete handles DELETE /api/logs/{id}.
func (h *LogsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteLog(r.Context(), actorFrom(r.Context()), r.PathValue("id")); err != nil {
		writeEngineError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "log entry deleted"})
}

// ExportCSV handles GET /api/reports/activity.csv.
func (h *LogsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("renova-activity-%s.csv", time.Now().In(h.location()).Format("2006-01-02"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := audit.WriteCSV(w, h.Engine.Logs(), h.DateLayout, h.location()); err != nil {
		slog.Error("failed to write activity report", "error", err)
	}
}

// Archive handles POST /api/reports/archive.
func (h *LogsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.Archiver == nil {
		jsonError(w, http.StatusServiceUnavailable, "report archiving is not configured")
		return
	}

	key, err := h.Archiver.ArchiveLogs(r.Context(), time.Now(), h.Engine.Logs(), h.DateLayout, h.location())
	if err != nil {
		slog.Error("failed to archive activity report", "error", err)
		if errors.Is(err, context.Canceled) {
			return
		}
		jsonError(w, http.StatusBadGateway, "failed to archive report")
		return
	}

	slog.Info("activity report archived", "user", actorFrom(r.Context()).Name, "key", key)
	jsonResponse(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *LogsHandler) location() *time.Location {
	if h.Location == nil {
		return time.Local
	}
	return h.Location
}
