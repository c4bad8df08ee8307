package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

var nairobi = time.FixedZone("EAT", 3*60*60)

func ptr(v float64) *float64 { return &v }

func record(id, farmer, device string, qty, fat float64, at time.Time) models.CollectionRecord {
	return models.CollectionRecord{
		ID:         id,
		Timestamp:  at,
		FarmerID:   farmer,
		FarmerName: "Farmer " + farmer,
		Quantity:   qty,
		FatContent: fat,
		DeviceID:   device,
		Status:     models.StatusVerified,
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{avg: 9.1, want: "A+"},
		{avg: 8.0, want: "A+"},
		{avg: 7.999, want: "A"},
		{avg: 6.5, want: "A"},
		{avg: 5.5, want: "B+"},
		{avg: 5.0, want: "B"},
		{avg: 4.5, want: "B"},
		{avg: 3.5, want: "C+"},
		{avg: 2.5, want: "C"},
		{avg: 2.499, want: "F"},
		{avg: 0, want: "F"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, Grade(tc.avg), "avg %v", tc.avg)
	}
}

func TestDayWindowIncludesMidnight(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, nairobi)
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, nairobi)

	start, end := DayWindow(now)
	require.Equal(t, midnight, start)
	require.Equal(t, midnight.Add(24*time.Hour), end)

	atMidnight := record("1", "F1", "DEV001", 10, 4, midnight)
	justBefore := record("2", "F1", "DEV001", 10, 4, midnight.Add(-time.Millisecond))

	require.True(t, InWindow(atMidnight, start, end))
	require.False(t, InWindow(justBefore, start, end))

	// The same instant expressed in UTC must land in the same window.
	require.True(t, InWindow(record("3", "F1", "DEV001", 1, 4, midnight.UTC()), start, end))
}

func TestSummarizeEmpty(t *testing.T) {
	out := Compute(nil, time.Date(2026, 3, 10, 15, 0, 0, 0, nairobi))

	require.Zero(t, out.Count)
	require.Zero(t, out.TotalQuantity)
	require.Zero(t, out.UniqueFarmers)
	require.Zero(t, out.UniqueDevices)
	require.Zero(t, out.AvgFat)
	require.Zero(t, out.MaxFat)
	require.Zero(t, out.MinFat)
	require.Zero(t, out.AvgPH)
	require.Empty(t, out.Grade)
	require.Nil(t, out.PeakHour)
	require.Empty(t, out.TopPerformers)
	require.Len(t, out.Trend, TrendDays)
	require.Len(t, out.Quality, TrendDays)
}

func TestSummarizeScalarAggregates(t *testing.T) {
	at := time.Date(2026, 3, 10, 8, 0, 0, 0, nairobi)
	withPH := record("1", "F1", "DEV001", 10, 4.0, at)
	withPH.PHValue = ptr(6.5)
	withPH.Temperature = ptr(4.0)
	noOptional := record("2", "F2", "DEV002", 5, 5.0, at)
	alsoPH := record("3", "F1", "DEV001", 7, 4.5, at)
	alsoPH.PHValue = ptr(6.7)

	out := Summarize([]models.CollectionRecord{withPH, noOptional, alsoPH})

	require.Equal(t, 3, out.Count)
	require.Equal(t, 22.0, out.TotalQuantity)
	require.Equal(t, 2, out.UniqueFarmers)
	require.Equal(t, 2, out.UniqueDevices)
	require.Equal(t, 11.0, out.AvgPerFarmer)
	require.Equal(t, 4.5, out.AvgFat)
	require.Equal(t, 5.0, out.MaxFat)
	require.Equal(t, 4.0, out.MinFat)
	require.Equal(t, 2, out.PHSamples)
	assert.InDelta(t, 6.6, out.AvgPH, 1e-9)
	require.Equal(t, 1, out.TemperatureSamples)
	require.Equal(t, 4.0, out.AvgTemperature)
	require.Equal(t, "B", out.Grade)
}

func TestComputeOnlyCountsToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, nairobi)
	records := []models.CollectionRecord{
		record("3", "F1", "DEV001", 10, 4, now.Add(-time.Hour)),
		record("2", "F2", "DEV002", 20, 4, now.Add(-24*time.Hour)),
		{ID: "1", FarmerID: "F3", DeviceID: "DEV003", Quantity: 99, FatContent: 4},
	}

	out := Compute(records, now)
	require.Equal(t, 1, out.Count)
	require.Equal(t, 10.0, out.TotalQuantity)
	require.Equal(t, 1, out.UniqueFarmers)
}

func TestComputeIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, nairobi)
	records := []models.CollectionRecord{
		record("1", "F1", "DEV001", 10.5, 4.1, now.Add(-time.Hour)),
		record("2", "F2", "DEV002", 3.25, 5.3, now.Add(-2*time.Hour)),
		record("3", "F1", "DEV001", 8, 3.9, now.Add(-50*time.Hour)),
	}

	first := Compute(records, now)
	second := Compute(records, now)
	require.Equal(t, first, second)
}

func TestPeakHour(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, nairobi)

	t.Run("most frequent hour wins", func(t *testing.T) {
		records := []models.CollectionRecord{
			record("1", "F1", "D", 1, 4, day.Add(7*time.Hour)),
			record("2", "F1", "D", 1, 4, day.Add(9*time.Hour)),
			record("3", "F1", "D", 1, 4, day.Add(9*time.Hour+30*time.Minute)),
		}
		peak := PeakHour(records, nairobi)
		require.NotNil(t, peak)
		require.Equal(t, 9, *peak)
	})

	t.Run("ties go to the earliest hour", func(t *testing.T) {
		records := []models.CollectionRecord{
			record("1", "F1", "D", 1, 4, day.Add(18*time.Hour)),
			record("2", "F1", "D", 1, 4, day.Add(6*time.Hour)),
			record("3", "F1", "D", 1, 4, day.Add(18*time.Hour)),
			record("4", "F1", "D", 1, 4, day.Add(6*time.Hour)),
		}
		peak := PeakHour(records, nairobi)
		require.NotNil(t, peak)
		require.Equal(t, 6, *peak)
	})

	t.Run("hours are local", func(t *testing.T) {
		records := []models.CollectionRecord{
			record("1", "F1", "D", 1, 4, time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)),
		}
		peak := PeakHour(records, nairobi)
		require.NotNil(t, peak)
		require.Equal(t, 8, *peak)
	})
}

func TestTopPerformers(t *testing.T) {
	at := time.Date(2026, 3, 10, 8, 0, 0, 0, nairobi)
	records := []models.CollectionRecord{
		record("1", "F3", "D", 10, 4, at),
		record("2", "F1", "D", 5, 4, at),
		record("3", "F2", "D", 15, 4, at),
		record("4", "F1", "D", 5, 4, at),
		record("5", "F4", "D", 1, 4, at),
	}

	top := TopPerformers(records, 3)
	require.Len(t, top, 3)
	require.Equal(t, "F2", top[0].FarmerID)
	// F1 and F3 both delivered 10 liters; ties resolve by farmer id.
	require.Equal(t, "F1", top[1].FarmerID)
	require.Equal(t, 2, top[1].Deposits)
	require.Equal(t, "F3", top[2].FarmerID)
	require.Equal(t, 10.0, top[2].TotalQuantity)
}

func TestTrendAndQualitySeries(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, nairobi)
	records := []models.CollectionRecord{
		record("1", "F1", "D", 10, 4.0, now.Add(-time.Hour)),
		record("2", "F2", "D", 6, 5.0, now.Add(-2*time.Hour)),
		record("3", "F1", "D", 4, 3.0, now.AddDate(0, 0, -3)),
		record("4", "F1", "D", 100, 9.0, now.AddDate(0, 0, -9)),
	}

	trend := TrendSeries(records, now)
	require.Len(t, trend, TrendDays)
	require.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, nairobi), trend[0].Day)
	require.Equal(t, "Mar 10", trend[6].Label)
	require.Equal(t, []float64{0, 0, 0, 4, 0, 0, 16}, values(trend))

	quality := QualitySeries(records, now)
	require.Equal(t, []float64{0, 0, 0, 3, 0, 0, 4.5}, values(quality))
}

func TestSumQuantityIsOrderIndependent(t *testing.T) {
	at := time.Date(2026, 3, 10, 8, 0, 0, 0, nairobi)
	a := []models.CollectionRecord{
		record("1", "F1", "D", 0.1, 4, at),
		record("2", "F1", "D", 0.2, 4, at),
		record("3", "F1", "D", 0.3, 4, at),
	}
	b := []models.CollectionRecord{a[2], a[0], a[1]}

	require.Equal(t, SumQuantity(a), SumQuantity(b))
	require.Equal(t, 0.6, SumQuantity(a))
}

func values(points []models.DayPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
