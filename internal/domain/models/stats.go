package models

import "time"

// Performer is one row of the top-performers ranking.
type Performer struct {
	FarmerID      string  `json:"farmerId"`
	FarmerName    string  `json:"farmerName"`
	TotalQuantity float64 `json:"totalQuantity"`
	Deposits      int     `json:"deposits"`
}

// DayPoint is a single calendar day in a chart series.
type DayPoint struct {
	Day   time.Time `json:"day"`
	Label string    `json:"label"`
	Value float64   `json:"value"`
}

// Stats is the output of one statistics pass over the working set.
type Stats struct {
	WindowStart        time.Time   `json:"windowStart"`
	WindowEnd          time.Time   `json:"windowEnd"`
	Count              int         `json:"count"`
	TotalQuantity      float64     `json:"totalQuantity"`
	UniqueFarmers      int         `json:"uniqueFarmers"`
	UniqueDevices      int         `json:"uniqueDevices"`
	AvgPerFarmer       float64     `json:"avgPerFarmer"`
	AvgFat             float64     `json:"avgFat"`
	MaxFat             float64     `json:"maxFat"`
	MinFat             float64     `json:"minFat"`
	AvgPH              float64     `json:"avgPH"`
	PHSamples          int         `json:"phSamples"`
	AvgTemperature     float64     `json:"avgTemperature"`
	TemperatureSamples int         `json:"temperatureSamples"`
	Grade              string      `json:"grade"`
	PeakHour           *int        `json:"peakHour"`
	TopPerformers      []Performer `json:"topPerformers"`
	Trend              []DayPoint  `json:"trend"`
	Quality            []DayPoint  `json:"quality"`
}

// DashboardView is the read-only state republished after every recompute.
type DashboardView struct {
	Backend      Backend            `json:"backend"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	Stats        Stats              `json:"stats"`
	Farmers      []FarmerAggregate  `json:"farmers"`
	Devices      []DeviceView       `json:"devices"`
	DeviceStatus []DeviceStatus     `json:"deviceStatus,omitempty"`
	Feed         []CollectionRecord `json:"feed"`
	TotalRecords int                `json:"totalRecords"`
}
