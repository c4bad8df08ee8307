package models

import "time"

// DeviceStatus is the last-seen document a field device upserts.
type DeviceStatus struct {
	DeviceID     string    `json:"deviceId" bson:"_id"`
	LastActivity time.Time `json:"lastActivity,omitzero" bson:"lastActivity,omitempty"`
	Online       bool      `json:"online" bson:"online"`
	Status       string    `json:"status,omitempty" bson:"status,omitempty"`
	LastFarmerID string    `json:"lastFarmerId,omitempty" bson:"lastFarmerId,omitempty"`
}

// DeviceView summarizes what a device did during the current local day.
type DeviceView struct {
	DeviceID           string    `json:"deviceId"`
	CollectionsToday   int       `json:"collectionsToday"`
	UniqueFarmersToday int       `json:"uniqueFarmersToday"`
	LastSeen           time.Time `json:"lastSeen"`
	LastActivity       string    `json:"lastActivity"`
}
