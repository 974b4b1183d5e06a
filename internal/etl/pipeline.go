package etl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sensormon/internal/extract"
	"sensormon/internal/models"
	"sensormon/internal/repository"
)

// RowStatus is the terminal state of one processed row.
type RowStatus string

const (
	RowCommitted RowStatus = "committed"
	RowSkipped   RowStatus = "skipped"
	RowErrored   RowStatus = "errored"
)

// RowOutcome reports what one row did so the batch counters can be tallied.
type RowOutcome struct {
	Status      RowStatus
	Device      repository.Outcome
	Measurement repository.Outcome
	Err         error
}

// Pipeline processes one CSV row inside its own transaction: device upsert,
// measurement upsert, then the sensor-type detail upsert. A failing row is
// rolled back and reported; it never aborts the batch.
type Pipeline struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewPipeline returns a row pipeline over the given store.
func NewPipeline(store repository.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProcessRow runs the full write sequence for one row. A row without a
// device EUI is skipped before any write is attempted.
func (p *Pipeline) ProcessRow(ctx context.Context, row extract.Row, sensorType models.SensorType) RowOutcome {
	devEUI, ok := extract.Raw(row, "devEui")
	if !ok {
		return RowOutcome{Status: RowSkipped}
	}

	if !sensorType.Valid() {
		return RowOutcome{Status: RowErrored, Err: fmt.Errorf("unknown sensor type %q", sensorType)}
	}

	tx, err := p.store.BeginRow(ctx)
	if err != nil {
		return RowOutcome{Status: RowErrored, Err: fmt.Errorf("begin row transaction: %w", err)}
	}

	out, err := p.writeRow(ctx, tx, row, devEUI, sensorType)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Warn("row rollback failed", zap.Error(rbErr))
		}
		return RowOutcome{Status: RowErrored, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return RowOutcome{Status: RowErrored, Err: fmt.Errorf("commit row: %w", err)}
	}
	out.Status = RowCommitted
	return out
}

func (p *Pipeline) writeRow(ctx context.Context, tx repository.RowTx, row extract.Row, devEUI string, sensorType models.SensorType) (RowOutcome, error) {
	var out RowOutcome

	deviceOutcome, err := tx.UpsertDevice(ctx, p.buildDevice(row, devEUI))
	if err != nil {
		return out, err
	}
	out.Device = deviceOutcome

	measurementID, measurementOutcome, err := tx.UpsertMeasurement(ctx, p.buildMeasurement(row, devEUI))
	if err != nil {
		return out, err
	}
	out.Measurement = measurementOutcome

	// detail rows depend on the measurement id just assigned, so this stays
	// strictly ordered inside the same transaction
	switch sensorType {
	case models.SensorSound:
		err = tx.UpsertSound(ctx, measurementID, buildSoundReading(row))
	case models.SensorAirQuality:
		err = tx.UpsertAirQuality(ctx, measurementID, buildAirQualityReading(row))
	case models.SensorBuried:
		err = tx.UpsertDistance(ctx, measurementID, buildDistanceReading(row))
	default:
		err = fmt.Errorf("unknown sensor type %q", sensorType)
	}
	if err != nil {
		return out, err
	}

	return out, nil
}

func (p *Pipeline) buildDevice(row extract.Row, devEUI string) models.Device {
	lat, lon := extract.ParseLocation(extract.String(row, "location", ""))
	return models.Device{
		DevEUI:            devEUI,
		DeviceName:        extract.String(row, "deviceName", ""),
		DeviceProfileName: extract.String(row, "deviceProfileName", ""),
		TenantName:        extract.String(row, "tenantName", ""),
		ApplicationName:   extract.String(row, "applicationName", ""),
		Description:       extract.String(row, "description", ""),
		Address:           extract.String(row, "address", ""),
		Latitude:          lat,
		Longitude:         lon,
		ClassEnabled:      extract.String(row, "classEnabled", "CLASS_A"),
	}
}

func (p *Pipeline) buildMeasurement(row extract.Row, devEUI string) models.Measurement {
	// unparsable timestamps fall back to ingestion time; the raw value is
	// still preserved in raw_data
	ts, ok := extract.Time(row, "time")
	if !ok {
		ts = p.now()
	}
	return models.Measurement{
		DeviceEUI:       devEUI,
		Time:            ts,
		FCnt:            extract.IntPtr(row, "fCnt"),
		FPort:           extract.IntPtr(row, "fPort"),
		DR:              extract.IntPtr(row, "dr"),
		ADR:             extract.BoolPtr(row, "adr"),
		Confirmed:       extract.BoolPtr(row, "confirmed"),
		RawData:         extract.String(row, "data", ""),
		DeduplicationID: extract.StringPtr(row, "deduplicationId"),
	}
}

func buildSoundReading(row extract.Row) models.SoundReading {
	return models.SoundReading{
		LAeq:    extract.FloatPtr(row, "laeq"),
		LAI:     extract.FloatPtr(row, "lai"),
		LAImax:  extract.FloatPtr(row, "laimax"),
		Battery: extract.FloatPtr(row, "battery"),
		Status:  extract.StringPtr(row, "status"),
	}
}

func buildAirQualityReading(row extract.Row) models.AirQualityReading {
	status := extract.StringPtr(row, "co2Status")
	if status == nil {
		status = extract.StringPtr(row, "status")
	}
	return models.AirQualityReading{
		CO2:         extract.IntPtr(row, "co2"),
		Temperature: extract.FloatPtr(row, "temperature"),
		Humidity:    extract.FloatPtr(row, "humidity"),
		Pressure:    extract.FloatPtr(row, "pressure"),
		Battery:     extract.FloatPtr(row, "battery"),
		Status:      status,
	}
}

func buildDistanceReading(row extract.Row) models.DistanceReading {
	return models.DistanceReading{
		Distance: extract.FloatPtr(row, "distance"),
		Position: extract.StringPtr(row, "position"),
		Battery:  extract.FloatPtr(row, "battery"),
		Status:   extract.StringPtr(row, "status"),
	}
}
