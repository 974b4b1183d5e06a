package models

import "time"

// Device is the hardware unit a measurement belongs to, identified by its
// LoRaWAN EUI. Every sighting in a CSV overwrites the mutable fields
// (last write wins); the EUI itself never changes.
type Device struct {
	DevEUI            string    `db:"dev_eui" json:"dev_eui"`
	DeviceName        string    `db:"device_name" json:"device_name"`
	DeviceProfileName string    `db:"device_profile_name" json:"device_profile_name"`
	TenantName        string    `db:"tenant_name" json:"tenant_name"`
	ApplicationName   string    `db:"application_name" json:"application_name"`
	Description       string    `db:"description" json:"description"`
	Address           string    `db:"address" json:"address"`
	Latitude          *float64  `db:"-" json:"latitude,omitempty"`
	Longitude         *float64  `db:"-" json:"longitude,omitempty"`
	ClassEnabled      string    `db:"class_enabled" json:"class_enabled"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
