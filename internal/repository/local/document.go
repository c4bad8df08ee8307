package local

import (
	"encoding/json"
	"strings"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// collectionDocument is one record as found on disk. Older snapshots carry
// numeric ids and timestamps in whatever format the writer used, so both are
// decoded loosely and normalized afterwards.
type collectionDocument struct {
	ID          json.RawMessage `json:"id"`
	Timestamp   any             `json:"timestamp"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	FarmerID    string          `json:"farmerId"`
	FarmerName  string          `json:"farmerName"`
	Quantity    float64         `json:"quantity"`
	FatContent  float64         `json:"fatContent"`
	PHValue     *float64        `json:"phValue,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	DeviceID    string          `json:"deviceId"`
	Status      string          `json:"status"`
}

// toRecord normalizes the document. ok is false when no timestamp resolved;
// the record is returned anyway and stays out of time-windowed figures.
func (d collectionDocument) toRecord() (models.CollectionRecord, bool) {
	ts, ok := models.ResolveTimestamp(d.Timestamp, d.CreatedAt)
	status := models.Status(d.Status)
	if status == "" {
		status = models.StatusVerified
	}
	return models.CollectionRecord{
		ID:          rawID(d.ID),
		Timestamp:   ts,
		FarmerID:    d.FarmerID,
		FarmerName:  d.FarmerName,
		Quantity:    d.Quantity,
		FatContent:  d.FatContent,
		PHValue:     d.PHValue,
		Temperature: d.Temperature,
		DeviceID:    d.DeviceID,
		Status:      status,
	}, ok
}

// documentFromRecord is the form written back to disk.
func documentFromRecord(rec models.CollectionRecord) collectionDocument {
	id, _ := json.Marshal(rec.ID)
	var ts any
	if rec.HasTimestamp() {
		ts = rec.Timestamp
	}
	return collectionDocument{
		ID:          id,
		Timestamp:   ts,
		FarmerID:    rec.FarmerID,
		FarmerName:  rec.FarmerName,
		Quantity:    rec.Quantity,
		FatContent:  rec.FatContent,
		PHValue:     rec.PHValue,
		Temperature: rec.Temperature,
		DeviceID:    rec.DeviceID,
		Status:      string(rec.Status),
	}
}

func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
