package stats

import (
	"time"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// TrendDays is the length of the chart series ending today.
const TrendDays = 7

// DayWindow returns the local calendar day containing t as [start, end).
// Boundaries are computed in t's location so DST days keep their real length.
func DayWindow(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return start, end
}

// InWindow reports whether the record happened inside [start, end).
func InWindow(r models.CollectionRecord, start, end time.Time) bool {
	if !r.HasTimestamp() {
		return false
	}
	return !r.Timestamp.Before(start) && r.Timestamp.Before(end)
}

// FilterWindow keeps the records inside [start, end), preserving order.
func FilterWindow(records []models.CollectionRecord, start, end time.Time) []models.CollectionRecord {
	out := make([]models.CollectionRecord, 0, len(records))
	for _, r := range records {
		if InWindow(r, start, end) {
			out = append(out, r)
		}
	}
	return out
}

// Today keeps the records of now's local calendar day.
func Today(records []models.CollectionRecord, now time.Time) []models.CollectionRecord {
	start, end := DayWindow(now)
	return FilterWindow(records, start, end)
}
