// Package audit derives activity log entries and renders the activity report.
package audit

import (
	"time"

	"github.com/erazemk/renova/internal/model"
)

// Guest is recorded as the user name when nobody is identified.
const Guest = "Guest"

// Event describes what happened. Empty fields are filled with defaults by
// Record.
type Event struct {
	Action   string
	ItemName string
	// UserName overrides the actor's name; borrows and returns record the
	// borrowing class here.
	UserName string
	Note     string
	ImageURL string
}

// Record builds a complete log entry for ev performed by actor at time at.
// Every field of the result is set.
func Record(id string, at time.Time, actor model.Actor, ev Event) model.LogEntry {
	entry := model.LogEntry{
		ID:       id,
		Date:     at,
		UserName: ev.UserName,
		UserRole: actor.Role,
		Action:   ev.Action,
		ItemName: ev.ItemName,
		Note:     ev.Note,
		ImageURL: ev.ImageURL,
	}
	if entry.UserName == "" {
		entry.UserName = actor.Name
	}
	if entry.UserName == "" {
		entry.UserName = Guest
	}
	if actor.IsGuest() {
		entry.UserRole = model.RoleGuest
	}
	if entry.Action == "" {
		entry.Action = model.ActionUnknown
	}
	if entry.ItemName == "" {
		entry.ItemName = "unknown"
	}
	return entry
}

// Prepend returns a new slice with entry first, followed by logs.
func Prepend(logs []model.LogEntry, entry model.LogEntry) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(logs)+1)
	out = append(out, entry)
	return append(out, logs...)
}

// Recent returns up to n of the most recent entries.
func Recent(logs []model.LogEntry, n int) []model.LogEntry {
	if n < len(logs) {
		logs = logs[:n]
	}
	out := make([]model.LogEntry, len(logs))
	copy(out, logs)
	return out
}
