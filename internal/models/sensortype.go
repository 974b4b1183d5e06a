package models

import (
	"fmt"
	"strings"
)

// SensorType is the closed set of supported sensor families. An unknown type
// is a configuration error, not bad data, and is rejected before any row is
// processed.
type SensorType string

const (
	SensorSound      SensorType = "sonido"
	SensorAirQuality SensorType = "calidad_aire"
	SensorBuried     SensorType = "soterrado"
)

// profile-name aliases as they appear in exported CSVs
var sensorTypeAliases = map[string]SensorType{
	"sonido":       SensorSound,
	"sound":        SensorSound,
	"ws302":        SensorSound,
	"calidad_aire": SensorAirQuality,
	"calidad-aire": SensorAirQuality,
	"air_quality":  SensorAirQuality,
	"em500":        SensorAirQuality,
	"em500-co2":    SensorAirQuality,
	"soterrado":    SensorBuried,
	"buried":       SensorBuried,
	"distance":     SensorBuried,
	"em310":        SensorBuried,
	"em310-udl":    SensorBuried,
}

// ParseSensorType resolves a declared sensor type or a device profile name
// to a SensorType.
func ParseSensorType(s string) (SensorType, error) {
	st, ok := sensorTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown sensor type %q", s)
	}
	return st, nil
}

func (t SensorType) String() string { return string(t) }

// Valid reports whether t is one of the supported sensor families.
func (t SensorType) Valid() bool {
	switch t {
	case SensorSound, SensorAirQuality, SensorBuried:
		return true
	}
	return false
}
