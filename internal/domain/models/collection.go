package models

import (
	"strings"
	"time"
)

// Status enumerates the verification states a collection can be in.
type Status string

const (
	StatusVerified Status = "Verified"
	StatusPending  Status = "Pending"
	StatusRejected Status = "Rejected"
)

// CollectionRecord is one milk deposit. Records are never edited once created.
type CollectionRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp,omitzero"`
	FarmerID    string    `json:"farmerId"`
	FarmerName  string    `json:"farmerName"`
	Quantity    float64   `json:"quantity"`
	FatContent  float64   `json:"fatContent"`
	PHValue     *float64  `json:"phValue,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	DeviceID    string    `json:"deviceId"`
	Status      Status    `json:"status"`
}

// HasTimestamp reports whether the record carries a resolvable point in time.
// Records without one stay visible in raw feeds but never count towards
// time-windowed metrics.
func (r CollectionRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// CollectionInput is the payload accepted when a new deposit is submitted.
type CollectionInput struct {
	FarmerID      string   `json:"farmerId"`
	FingerprintID string   `json:"fingerprintId,omitempty"`
	FarmerName    string   `json:"farmerName"`
	Quantity      float64  `json:"quantity"`
	FatContent    float64  `json:"fatContent"`
	PHValue       *float64 `json:"phValue,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	DeviceID      string   `json:"deviceId"`
	Status        Status   `json:"status,omitempty"`
}

// Validate checks the required fields and reports every missing one at once.
func (in CollectionInput) Validate() error {
	var missing []string
	if in.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if strings.TrimSpace(in.DeviceID) == "" {
		missing = append(missing, "deviceId")
	}
	if strings.TrimSpace(in.FarmerID) == "" {
		missing = append(missing, "farmerId")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// EffectiveStatus defaults an unset status to Verified, the only state the
// current entry paths produce.
func (in CollectionInput) EffectiveStatus() Status {
	if in.Status == "" {
		return StatusVerified
	}
	return in.Status
}

// Record materializes the input into a record with the given identity.
func (in CollectionInput) Record(id string, at time.Time) CollectionRecord {
	return CollectionRecord{
		ID:          id,
		Timestamp:   at,
		FarmerID:    in.FarmerID,
		FarmerName:  in.FarmerName,
		Quantity:    in.Quantity,
		FatContent:  in.FatContent,
		PHValue:     in.PHValue,
		Temperature: in.Temperature,
		DeviceID:    in.DeviceID,
		Status:      in.EffectiveStatus(),
	}
}
