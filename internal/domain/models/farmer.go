package models

import "time"

// Fingerprint status values stored alongside farmer profiles.
const (
	FingerprintRegistered = "Registered"
	FingerprintUnknown    = "Unknown"
	FingerprintActive     = "active"
)

// FarmerAggregate carries the running totals derived per farmer, together
// with the profile fields the remote store keeps in the same document.
type FarmerAggregate struct {
	FarmerID          string    `json:"id" bson:"_id"`
	Name              string    `json:"name" bson:"name"`
	TotalDeposits     int       `json:"totalDeposits" bson:"totalDeposits"`
	TotalQuantity     float64   `json:"totalQuantity" bson:"totalQuantity"`
	LastDeposit       time.Time `json:"lastDeposit,omitzero" bson:"lastDeposit,omitempty"`
	FingerprintID     string    `json:"fingerprintId,omitempty" bson:"fingerprintId,omitempty"`
	FingerprintStatus string    `json:"fingerprintStatus" bson:"fingerprintStatus"`
	PhoneNumber       string    `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	LastDeviceUsed    string    `json:"lastDeviceUsed,omitempty" bson:"lastDeviceUsed,omitempty"`
	RegisteredAt      time.Time `json:"registeredAt,omitzero" bson:"registeredAt,omitempty"`
	RegisteredOn      string    `json:"registeredOn,omitempty" bson:"registeredOn,omitempty"`
}

// Fingerprint binds a biometric template identifier to a farmer.
type Fingerprint struct {
	FingerprintID string    `json:"fingerprintId" bson:"fingerprintId"`
	FarmerID      string    `json:"farmerId" bson:"farmerId"`
	RegisteredAt  time.Time `json:"registeredAt" bson:"registeredAt"`
	RegisteredOn  string    `json:"registeredOn" bson:"registeredOn"`
	Status        string    `json:"status" bson:"status"`
}
