// Package export renders collection records for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// Header is the first CSV row.
var Header = []string{"Timestamp", "Farmer ID", "Farmer Name", "Quantity (L)", "Fat %", "Device ID", "Status"}

// WriteCSV writes one row per record. Fields containing commas or quotes are
// quoted; records without a resolvable timestamp get an empty first column.
func WriteCSV(w io.Writer, records []models.CollectionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		ts := ""
		if r.HasTimestamp() {
			ts = r.Timestamp.UTC().Format(time.RFC3339)
		}
		row := []string{
			ts,
			r.FarmerID,
			r.FarmerName,
			strconv.FormatFloat(r.Quantity, 'f', -1, 64),
			strconv.FormatFloat(r.FatContent, 'f', -1, 64),
			r.DeviceID,
			string(r.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename is the download name for an export taken at t.
func Filename(t time.Time) string {
	return "milk-collections-" + t.Format("2006-01-02") + ".csv"
}
