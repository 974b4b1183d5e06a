package repository

import (
	"context"
	"fmt"

	"sensormon/internal/models"
)

// ReadingRepository persists the sensor-type-specific detail tables. Each
// variant is one-to-one with its owning measurement and upserted on the
// measurement id, so redelivered rows overwrite rather than duplicate.
type ReadingRepository struct {
	db DBTX
}

// NewReadingRepository returns repository.
func NewReadingRepository(db DBTX) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// UpsertSound writes WS302 noise levels for the measurement.
func (r *ReadingRepository) UpsertSound(ctx context.Context, measurementID int64, reading models.SoundReading) error {
	const query = `
		INSERT INTO sound_measurements (measurement_id, laeq, lai, laimax, battery, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (measurement_id)
		DO UPDATE SET laeq = EXCLUDED.laeq,
		              lai = EXCLUDED.lai,
		              laimax = EXCLUDED.laimax,
		              battery = EXCLUDED.battery,
		              status = EXCLUDED.status
	`

	_, err := r.db.ExecContext(ctx, query,
		measurementID, reading.LAeq, reading.LAI, reading.LAImax, reading.Battery, reading.Status)
	if err != nil {
		return fmt.Errorf("upsert sound reading for measurement %d: %w", measurementID, err)
	}
	return nil
}

// UpsertAirQuality writes EM500 gas and climate values for the measurement.
func (r *ReadingRepository) UpsertAirQuality(ctx context.Context, measurementID int64, reading models.AirQualityReading) error {
	const query = `
		INSERT INTO air_quality_measurements (measurement_id, co2, temperature, humidity, pressure, battery, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (measurement_id)
		DO UPDATE SET co2 = EXCLUDED.co2,
		              temperature = EXCLUDED.temperature,
		              humidity = EXCLUDED.humidity,
		              pressure = EXCLUDED.pressure,
		              battery = EXCLUDED.battery,
		              status = EXCLUDED.status
	`

	_, err := r.db.ExecContext(ctx, query,
		measurementID, reading.CO2, reading.Temperature, reading.Humidity, reading.Pressure, reading.Battery, reading.Status)
	if err != nil {
		return fmt.Errorf("upsert air quality reading for measurement %d: %w", measurementID, err)
	}
	return nil
}

// UpsertDistance writes EM310 buried-sensor distance for the measurement.
func (r *ReadingRepository) UpsertDistance(ctx context.Context, measurementID int64, reading models.DistanceReading) error {
	const query = `
		INSERT INTO distance_measurements (measurement_id, distance, position, battery, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (measurement_id)
		DO UPDATE SET distance = EXCLUDED.distance,
		              position = EXCLUDED.position,
		              battery = EXCLUDED.battery,
		              status = EXCLUDED.status
	`

	_, err := r.db.ExecContext(ctx, query,
		measurementID, reading.Distance, reading.Position, reading.Battery, reading.Status)
	if err != nil {
		return fmt.Errorf("upsert distance reading for measurement %d: %w", measurementID, err)
	}
	return nil
}
