package etl

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"sensormon/internal/extract"
	"sensormon/internal/models"
)

func soundRow() extract.Row {
	return extract.Row{
		"deviceInfo.devEui":     "A84041FFFF000001",
		"deviceInfo.deviceName": "noise-01",
		"time":                  "2024-05-17T10:30:00Z",
		"fCnt":                  "42",
		"adr":                   "true",
		"object.LAeq":           "54.2",
		"object.battery":        "87",
		"object.status":         "normal",
	}
}

func TestProcessRowCommits(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(store, zap.NewNop())

	out := pipeline.ProcessRow(context.Background(), soundRow(), models.SensorSound)

	if out.Status != RowCommitted {
		t.Fatalf("status = %s, err = %v", out.Status, out.Err)
	}
	if store.commits != 1 || store.rollbacks != 0 {
		t.Fatalf("commits=%d rollbacks=%d", store.commits, store.rollbacks)
	}

	device, ok := store.devices["A84041FFFF000001"]
	if !ok {
		t.Fatal("device not written")
	}
	if device.DeviceName != "noise-01" {
		t.Fatalf("device name = %q", device.DeviceName)
	}

	if len(store.measurementRows) != 1 {
		t.Fatalf("measurements = %d, want 1", len(store.measurementRows))
	}
	reading, ok := store.sound[1]
	if !ok {
		t.Fatal("sound reading not written for measurement 1")
	}
	if reading.LAeq == nil || *reading.LAeq != 54.2 {
		t.Fatalf("laeq = %v", reading.LAeq)
	}
}

func TestProcessRowSkipsWithoutDeviceEUI(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(store, zap.NewNop())

	row := soundRow()
	delete(row, "deviceInfo.devEui")

	out := pipeline.ProcessRow(context.Background(), row, models.SensorSound)

	if out.Status != RowSkipped {
		t.Fatalf("status = %s, want skipped", out.Status)
	}
	// a skipped row short-circuits before any write is attempted
	if store.begun != 0 {
		t.Fatalf("transactions begun = %d, want 0", store.begun)
	}
	if len(store.devices) != 0 || len(store.measurementRows) != 0 {
		t.Fatal("skipped row must not write anything")
	}
}

func TestProcessRowRollsBackOnDetailFailure(t *testing.T) {
	store := newFakeStore()
	store.failDetail = true
	pipeline := NewPipeline(store, zap.NewNop())

	out := pipeline.ProcessRow(context.Background(), soundRow(), models.SensorSound)

	if out.Status != RowErrored {
		t.Fatalf("status = %s, want errored", out.Status)
	}
	if store.rollbacks != 1 || store.commits != 0 {
		t.Fatalf("rollbacks=%d commits=%d", store.rollbacks, store.commits)
	}
	// the staged device and measurement writes must be gone too
	if len(store.devices) != 0 || len(store.measurementRows) != 0 || len(store.sound) != 0 {
		t.Fatal("rolled back row left writes behind")
	}
}

func TestProcessRowUnknownSensorTypeFailsLoudly(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(store, zap.NewNop())

	out := pipeline.ProcessRow(context.Background(), soundRow(), models.SensorType("thermostat"))

	if out.Status != RowErrored {
		t.Fatalf("status = %s, want errored", out.Status)
	}
	if store.begun != 0 {
		t.Fatal("unknown sensor type must be rejected before any write")
	}
}

func TestProcessRowTimestampFallback(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(store, zap.NewNop())

	frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	pipeline.now = func() time.Time { return frozen }

	row := soundRow()
	row["time"] = "yesterday at noon"

	out := pipeline.ProcessRow(context.Background(), row, models.SensorSound)
	if out.Status != RowCommitted {
		t.Fatalf("status = %s, err = %v", out.Status, out.Err)
	}

	m := store.measurementRows[1]
	if !m.Time.Equal(frozen) {
		t.Fatalf("measurement time = %v, want ingestion-time fallback %v", m.Time, frozen)
	}
}

func TestProcessRowAirQualityAndDistanceDispatch(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(store, zap.NewNop())

	airRow := extract.Row{
		"deviceInfo.devEui":  "A84041FFFF000002",
		"time":               "2024-05-17T10:31:00Z",
		"object.co2":         "612",
		"object.temperature": "21.4",
		"object.humidity":    "48.5",
		"object.co2_status":  "ok",
	}
	out := pipeline.ProcessRow(context.Background(), airRow, models.SensorAirQuality)
	if out.Status != RowCommitted {
		t.Fatalf("air row: %v", out.Err)
	}

	distanceRow := extract.Row{
		"deviceInfo.devEui": "A84041FFFF000003",
		"time":              "2024-05-17T10:32:00Z",
		"object.distance":   "153",
		"object.position":   "tilted",
	}
	out = pipeline.ProcessRow(context.Background(), distanceRow, models.SensorBuried)
	if out.Status != RowCommitted {
		t.Fatalf("distance row: %v", out.Err)
	}

	air := store.air[1]
	if air.CO2 == nil || *air.CO2 != 612 {
		t.Fatalf("co2 = %v", air.CO2)
	}
	if air.Status == nil || *air.Status != "ok" {
		t.Fatalf("air status = %v, want co2_status column value", air.Status)
	}

	distance := store.distance[2]
	if distance.Distance == nil || *distance.Distance != 153 {
		t.Fatalf("distance = %v", distance.Distance)
	}
	if distance.Position == nil || *distance.Position != "tilted" {
		t.Fatalf("position = %v", distance.Position)
	}
}

func TestProcessRowRedeliveryUpdatesInPlace(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(store, zap.NewNop())

	row := soundRow()
	row["deduplicationId"] = "msg-123"

	first := pipeline.ProcessRow(context.Background(), row, models.SensorSound)
	if first.Measurement != "inserted" {
		t.Fatalf("first delivery measurement outcome = %s", first.Measurement)
	}

	row["data"] = "AQIDBA=="
	second := pipeline.ProcessRow(context.Background(), row, models.SensorSound)
	if second.Status != RowCommitted {
		t.Fatalf("redelivery failed: %v", second.Err)
	}
	if second.Measurement != "updated" {
		t.Fatalf("redelivery measurement outcome = %s", second.Measurement)
	}

	if len(store.measurementRows) != 1 {
		t.Fatalf("measurements = %d, redelivery must not duplicate", len(store.measurementRows))
	}
	if store.measurementRows[1].RawData != "AQIDBA==" {
		t.Fatalf("raw data = %q, want the redelivered payload", store.measurementRows[1].RawData)
	}
}
