package models

// SoundReading holds the WS302 noise levels for one measurement.
type SoundReading struct {
	LAeq    *float64 `db:"laeq" json:"laeq,omitempty"`
	LAI     *float64 `db:"lai" json:"lai,omitempty"`
	LAImax  *float64 `db:"laimax" json:"laimax,omitempty"`
	Battery *float64 `db:"battery" json:"battery,omitempty"`
	Status  *string  `db:"status" json:"status,omitempty"`
}

// AirQualityReading holds the EM500 gas and climate values for one measurement.
type AirQualityReading struct {
	CO2         *int     `db:"co2" json:"co2,omitempty"`
	Temperature *float64 `db:"temperature" json:"temperature,omitempty"`
	Humidity    *float64 `db:"humidity" json:"humidity,omitempty"`
	Pressure    *float64 `db:"pressure" json:"pressure,omitempty"`
	Battery     *float64 `db:"battery" json:"battery,omitempty"`
	Status      *string  `db:"status" json:"status,omitempty"`
}

// DistanceReading holds the EM310 buried-sensor distance for one measurement.
type DistanceReading struct {
	Distance *float64 `db:"distance" json:"distance,omitempty"`
	Position *string  `db:"position" json:"position,omitempty"`
	Battery  *float64 `db:"battery" json:"battery,omitempty"`
	Status   *string  `db:"status" json:"status,omitempty"`
}
