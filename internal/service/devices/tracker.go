// Package devices derives per-device activity for the current local day.
// Nothing is persisted: a device with no records today has no entry.
package devices

import (
	"fmt"
	"sort"
	"time"

	"github.com/mamadbah2/milktrack/internal/domain/models"
	"github.com/mamadbah2/milktrack/internal/service/stats"
)

// Track groups today's records by device.
func Track(records []models.CollectionRecord, now time.Time) []models.DeviceView {
	type group struct {
		count    int
		farmers  map[string]struct{}
		lastSeen time.Time
	}

	groups := make(map[string]*group)
	for _, r := range stats.Today(records, now) {
		g, ok := groups[r.DeviceID]
		if !ok {
			g = &group{farmers: make(map[string]struct{})}
			groups[r.DeviceID] = g
		}
		g.count++
		g.farmers[r.FarmerID] = struct{}{}
		if r.Timestamp.After(g.lastSeen) {
			g.lastSeen = r.Timestamp
		}
	}

	out := make([]models.DeviceView, 0, len(groups))
	for id, g := range groups {
		out = append(out, models.DeviceView{
			DeviceID:           id,
			CollectionsToday:   g.count,
			UniqueFarmersToday: len(g.farmers),
			LastSeen:           g.lastSeen,
			LastActivity:       TimeAgo(now, g.lastSeen),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// TimeAgo renders the age of t relative to now the way the dashboard shows it.
func TimeAgo(now, t time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 60 {
		return "Just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}
