package models

import "testing"

func TestParseSensorType(t *testing.T) {
	tests := []struct {
		input string
		want  SensorType
	}{
		{"sonido", SensorSound},
		{"WS302", SensorSound},
		{"calidad_aire", SensorAirQuality},
		{"EM500-CO2", SensorAirQuality},
		{"soterrado", SensorBuried},
		{"em310", SensorBuried},
		{"  Soterrado  ", SensorBuried},
	}

	for _, tc := range tests {
		got, err := ParseSensorType(tc.input)
		if err != nil {
			t.Fatalf("ParseSensorType(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSensorType(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseSensorTypeUnknown(t *testing.T) {
	for _, input := range []string{"", "thermostat", "WS999"} {
		if _, err := ParseSensorType(input); err == nil {
			t.Fatalf("ParseSensorType(%q) should fail", input)
		}
	}
}

func TestSensorTypeValid(t *testing.T) {
	if !SensorSound.Valid() {
		t.Fatal("sonido should be valid")
	}
	if SensorType("unknown").Valid() {
		t.Fatal("arbitrary type should be invalid")
	}
}
