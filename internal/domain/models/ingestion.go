package models

import "time"

// AddCollectionRequest is posted by field devices after a deposit.
type AddCollectionRequest struct {
	FingerprintID string   `json:"fingerprintId"`
	FarmerID      string   `json:"farmerId"`
	FarmerName    string   `json:"farmerName"`
	Quantity      float64  `json:"quantity"`
	FatContent    float64  `json:"fatContent"`
	PHValue       *float64 `json:"phValue,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	DeviceID      string   `json:"deviceId"`
}

// AddCollectionResponse echoes the stored deposit back to the device.
type AddCollectionResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	CollectionID string    `json:"collectionId"`
	FarmerID     string    `json:"farmerId"`
	FarmerName   string    `json:"farmerName"`
	Quantity     float64   `json:"quantity"`
	FatContent   float64   `json:"fatContent"`
	Timestamp    time.Time `json:"timestamp"`
}

// RegisterFarmerRequest binds a new fingerprint to a new farmer profile.
type RegisterFarmerRequest struct {
	FingerprintID string `json:"fingerprintId"`
	FarmerName    string `json:"farmerName"`
	PhoneNumber   string `json:"phoneNumber"`
	DeviceID      string `json:"deviceId"`
}

// RegisterFarmerResponse carries the generated farmer identifier.
type RegisterFarmerResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FarmerID   string `json:"farmerId"`
	FarmerName string `json:"farmerName"`
}

// VerifyFingerprintRequest asks which farmer a fingerprint belongs to.
type VerifyFingerprintRequest struct {
	FingerprintID string `json:"fingerprintId"`
}

// FarmerProfile is the device-facing view of a farmer.
type FarmerProfile struct {
	FarmerID      string  `json:"farmerId"`
	FarmerName    string  `json:"farmerName"`
	PhoneNumber   string  `json:"phoneNumber,omitempty"`
	TotalDeposits int     `json:"totalDeposits"`
	TotalQuantity float64 `json:"totalQuantity"`
}

// HeartbeatRequest is sent periodically by every device.
type HeartbeatRequest struct {
	DeviceID string `json:"deviceId"`
	Status   string `json:"status"`
}
