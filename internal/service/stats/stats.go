package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// TopPerformersLimit caps the ranking returned by Compute.
const TopPerformersLimit = 3

const dayLabelLayout = "Jan 02"

// Compute runs a full statistics pass over records for the day containing
// now. It never mutates its input and returns identical output for identical
// input.
func Compute(records []models.CollectionRecord, now time.Time) models.Stats {
	start, end := DayWindow(now)
	today := FilterWindow(records, start, end)

	out := Summarize(today)
	out.WindowStart = start
	out.WindowEnd = end
	out.PeakHour = PeakHour(today, now.Location())
	out.TopPerformers = TopPerformers(today, TopPerformersLimit)
	out.Trend = TrendSeries(records, now)
	out.Quality = QualitySeries(records, now)
	return out
}

// Summarize computes the scalar aggregates over an already filtered subset.
// Optional readings are averaged only over the records that carry them.
func Summarize(records []models.CollectionRecord) models.Stats {
	out := models.Stats{
		TopPerformers: []models.Performer{},
	}
	if len(records) == 0 {
		return out
	}

	farmers := make(map[string]struct{})
	devices := make(map[string]struct{})
	fats := make([]float64, 0, len(records))
	var phs, temps []float64

	out.MaxFat = records[0].FatContent
	out.MinFat = records[0].FatContent
	for _, r := range records {
		farmers[r.FarmerID] = struct{}{}
		devices[r.DeviceID] = struct{}{}
		fats = append(fats, r.FatContent)
		if r.FatContent > out.MaxFat {
			out.MaxFat = r.FatContent
		}
		if r.FatContent < out.MinFat {
			out.MinFat = r.FatContent
		}
		if r.PHValue != nil {
			phs = append(phs, *r.PHValue)
		}
		if r.Temperature != nil {
			temps = append(temps, *r.Temperature)
		}
	}

	out.Count = len(records)
	out.TotalQuantity = SumQuantity(records)
	out.UniqueFarmers = len(farmers)
	out.UniqueDevices = len(devices)
	out.AvgPerFarmer = divide(out.TotalQuantity, len(farmers))
	out.AvgFat = mean(fats)
	out.AvgPH = mean(phs)
	out.PHSamples = len(phs)
	out.AvgTemperature = mean(temps)
	out.TemperatureSamples = len(temps)
	out.Grade = Grade(out.AvgFat)
	return out
}

// SumQuantity adds quantities exactly so totals do not depend on record order.
func SumQuantity(records []models.CollectionRecord) float64 {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Quantity))
	}
	return total.InexactFloat64()
}

// PeakHour returns the local hour with the most records. Ties go to the
// earliest hour. nil when there are no timestamped records.
func PeakHour(records []models.CollectionRecord, loc *time.Location) *int {
	var counts [24]int
	seen := false
	for _, r := range records {
		if !r.HasTimestamp() {
			continue
		}
		counts[r.Timestamp.In(loc).Hour()]++
		seen = true
	}
	if !seen {
		return nil
	}

	peak := 0
	for h := 1; h < len(counts); h++ {
		if counts[h] > counts[peak] {
			peak = h
		}
	}
	return &peak
}

// TopPerformers ranks farmers by delivered quantity, breaking ties by
// farmer id, and keeps the first limit entries.
func TopPerformers(records []models.CollectionRecord, limit int) []models.Performer {
	type tally struct {
		name     string
		quantity decimal.Decimal
		deposits int
	}

	byFarmer := make(map[string]*tally)
	for _, r := range records {
		t, ok := byFarmer[r.FarmerID]
		if !ok {
			t = &tally{name: r.FarmerName, quantity: decimal.Zero}
			byFarmer[r.FarmerID] = t
		}
		t.quantity = t.quantity.Add(decimal.NewFromFloat(r.Quantity))
		t.deposits++
	}

	out := make([]models.Performer, 0, len(byFarmer))
	for id, t := range byFarmer {
		out = append(out, models.Performer{
			FarmerID:      id,
			FarmerName:    t.name,
			TotalQuantity: t.quantity.InexactFloat64(),
			Deposits:      t.deposits,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantity != out[j].TotalQuantity {
			return out[i].TotalQuantity > out[j].TotalQuantity
		}
		return out[i].FarmerID < out[j].FarmerID
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TrendSeries returns the total quantity per day for the last TrendDays
// local days, oldest first. Days without records report 0.
func TrendSeries(records []models.CollectionRecord, now time.Time) []models.DayPoint {
	return daySeries(records, now, SumQuantity)
}

// QualitySeries returns the average fat per day for the same days as
// TrendSeries. Days without records report 0 rather than being skipped.
func QualitySeries(records []models.CollectionRecord, now time.Time) []models.DayPoint {
	return daySeries(records, now, func(day []models.CollectionRecord) float64 {
		fats := make([]float64, len(day))
		for i, r := range day {
			fats[i] = r.FatContent
		}
		return mean(fats)
	})
}

func daySeries(records []models.CollectionRecord, now time.Time, value func([]models.CollectionRecord) float64) []models.DayPoint {
	y, m, d := now.Date()
	loc := now.Location()

	points := make([]models.DayPoint, 0, TrendDays)
	for i := TrendDays - 1; i >= 0; i-- {
		start := time.Date(y, m, d-i, 0, 0, 0, 0, loc)
		end := time.Date(y, m, d-i+1, 0, 0, 0, 0, loc)
		points = append(points, models.DayPoint{
			Day:   start,
			Label: start.Format(dayLabelLayout),
			Value: value(FilterWindow(records, start, end)),
		})
	}
	return points
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
}

func divide(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromFloat(total).Div(decimal.NewFromInt(int64(n))).InexactFloat64()
}
