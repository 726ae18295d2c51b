package audit

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erazemk/renova/internal/model"
)

// CSVHeader is the first row of the activity report.
const CSVHeader = "Date,User/Class,Role,Action,Item,Note,ImageURL"

// DefaultDateLayout renders report dates when none is configured.
const DefaultDateLayout = "02/01/2006, 15:04:05"

// WriteCSV writes logs as the activity report, one row per entry in the
// order given. Dates are rendered in loc using layout. The user, item and
// note columns are always quoted; other columns only when they need to be.
func WriteCSV(w io.Writer, logs []model.LogEntry, layout string, loc *time.Location) error {
	if layout == "" {
		layout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.Local
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(CSVHeader)
	bw.WriteByte('\n')

	for _, l := range logs {
		fields := []string{
			field(l.Date.In(loc).Format(layout), false),
			field(l.UserName, true),
			field(l.UserRole, false),
			field(l.Action, false),
			field(l.ItemName, true),
			field(l.Note, true),
			field(l.ImageURL, false),
		}
		bw.WriteString(strings.Join(fields, ","))
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing activity report: %w", err)
	}
	return nil
}

func field(s string, force bool) string {
	if !force && !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
