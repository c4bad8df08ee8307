package models

import "time"

// DailySummary is the end-of-day digest sent to the manager and appended to
// the reporting spreadsheet.
type DailySummary struct {
	Date          time.Time
	Collections   int
	TotalQuantity float64
	Farmers       int
	Devices       int
	AvgFat        float64
	Grade         string
	PeakHour      *int
}
