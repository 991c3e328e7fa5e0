package ledger

import (
	"io"
	"strconv"
	"strings"
	"time"
)

const csvHeader = "id,type,amount,note,time"

// WriteCSV writes the backup format: header, then one row per entry with the
// note always quoted and its quotes doubled. Times are rendered in loc.
func WriteCSV(w io.Writer, entries []Entry, loc *time.Location) error {
	var b strings.Builder
	b.WriteString(csvHeader)
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(CSVRow(e, loc))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// CSVRow renders one entry without a trailing newline.
func CSVRow(e Entry, loc *time.Location) string {
	t := e.RecordedAt
	if loc != nil {
		t = t.In(loc)
	}
	return strconv.FormatInt(e.ID, 10) + "," +
		string(e.Kind) + "," +
		strconv.FormatInt(e.Amount, 10) + "," +
		`"` + strings.ReplaceAll(e.Note, `"`, `""`) + `",` +
		t.Format("2006-01-02 15:04")
}
