package models

import "time"

// Measurement is one uplink message from a device. Identity is the
// deduplication id when the network supplied one, otherwise the natural key
// (device EUI, measurement time, frame count).
type Measurement struct {
	ID              int64     `db:"id" json:"id"`
	DeviceEUI       string    `db:"device_eui" json:"device_eui"`
	Time            time.Time `db:"measurement_time" json:"measurement_time"`
	FCnt            *int      `db:"fcnt" json:"fcnt,omitempty"`
	FPort           *int      `db:"fport" json:"fport,omitempty"`
	DR              *int      `db:"dr" json:"dr,omitempty"`
	ADR             *bool     `db:"adr" json:"adr,omitempty"`
	Confirmed       *bool     `db:"confirmed" json:"confirmed,omitempty"`
	RawData         string    `db:"raw_data" json:"raw_data"`
	DeduplicationID *string   `db:"deduplication_id" json:"deduplication_id,omitempty"`
}
