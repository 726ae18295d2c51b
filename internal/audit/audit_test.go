package audit

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/renova/internal/model"
)

var at = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func TestRecordDefaults(t *testing.T) {
	entry := Record("l1", at, model.Actor{}, Event{})

	assert.Equal(t, "l1", entry.ID)
	assert.Equal(t, at, entry.Date)
	assert.Equal(t, Guest, entry.UserName)
	assert.Equal(t, model.RoleGuest, entry.UserRole)
	assert.Equal(t, model.ActionUnknown, entry.Action)
	assert.Equal(t, "unknown", entry.ItemName)
	assert.Empty(t, entry.Note)
	assert.Empty(t, entry.ImageURL)
}

func TestRecordUsesActor(t *testing.T) {
	actor := model.Actor{UserID: "u2", Name: "Volunteer", Role: model.RoleVolunteer}
	entry := Record("l1", at, actor, Event{
		Action:   model.ActionAddInventory,
		ItemName: "Wine Corks",
		Note:     "New item added",
	})

	assert.Equal(t, "Volunteer", entry.UserName)
	assert.Equal(t, model.RoleVolunteer, entry.UserRole)
	assert.Equal(t, model.ActionAddInventory, entry.Action)
	assert.Equal(t, "Wine Corks", entry.ItemName)
	assert.Equal(t, "New item added", entry.Note)
}

func TestRecordClassOverridesActorName(t *testing.T) {
	actor := model.Actor{UserID: "u1", Name: "Admin", Role: model.RoleAdmin}
	entry := Record("l1", at, actor, Event{Action: model.ActionBorrow, UserName: "5A"})

	assert.Equal(t, "5A", entry.UserName)
	assert.Equal(t, model.RoleAdmin, entry.UserRole)
}

func TestPrependIsMostRecentFirst(t *testing.T) {
	var logs []model.LogEntry
	logs = Prepend(logs, model.LogEntry{ID: "a"})
	original := logs
	logs = Prepend(logs, model.LogEntry{ID: "b"})

	require.Len(t, logs, 2)
	assert.Equal(t, "b", logs[0].ID)
	assert.Equal(t, "a", logs[1].ID)
	assert.Len(t, original, 1, "input slice must not be modified")
}

func TestRecent(t *testing.T) {
	logs := []model.LogEntry{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	assert.Len(t, Recent(logs, 5), 3)
	got := Recent(logs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
}

func TestWriteCSV(t *testing.T) {
	logs := []model.LogEntry{
		{
			Date: at, UserName: "5A", UserRole: "Class", Action: model.ActionReturn,
			ItemName: "Fabric Scraps", Note: `We made a "quilt", mostly`,
			ImageURL: "data:image/jpeg;base64,AAAA",
		},
		{
			Date: at.Add(-time.Hour), UserName: "Admin", UserRole: model.RoleAdmin,
			Action: model.ActionAddInventory, ItemName: "Fabric Scraps", Note: "New item added",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, logs, "2006-01-02 15:04", time.UTC))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, CSVHeader, lines[0])
	assert.Equal(t,
		`2024-03-15 08:30,"Admin",admin,add_inventory,"Fabric Scraps","New item added",`,
		lines[2],
	)

	// The output must be readable by a standard CSV parser.
	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, `We made a "quilt", mostly`, rows[1][5])
	assert.Equal(t, "data:image/jpeg;base64,AAAA", rows[1][6])
}

func TestWriteCSVTimeZone(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	logs := []model.LogEntry{{Date: at, UserName: "x", Action: "a", ItemName: "i"}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, logs, "15:04", loc))
	assert.Contains(t, buf.String(), "\n10:30,")
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, "", nil))
	assert.Equal(t, CSVHeader+"\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSVPropagatesErrors(t *testing.T) {
	err := WriteCSV(failingWriter{}, nil, "", time.UTC)
	assert.ErrorContains(t, err, "disk full")
}
