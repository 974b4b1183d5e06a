package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sensormon/internal/models"
)

// MeasurementRepository persists uplink measurements with dedup semantics.
type MeasurementRepository struct {
	db DBTX
}

// NewMeasurementRepository returns repository.
func NewMeasurementRepository(db DBTX) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Upsert inserts the measurement or updates the mutable protocol fields of
// an existing one. Identity is the deduplication id when present, otherwise
// the natural key (device EUI, time, frame count) with NULL frame counts
// comparing equal. The timestamp and device reference of an existing row are
// never overwritten. Returns the resolved row id for the detail writers.
func (r *MeasurementRepository) Upsert(ctx context.Context, m models.Measurement) (int64, Outcome, error) {
	if m.DeduplicationID != nil {
		return r.upsertByDedupKey(ctx, m)
	}
	return r.upsertByNaturalKey(ctx, m)
}

func (r *MeasurementRepository) upsertByDedupKey(ctx context.Context, m models.Measurement) (int64, Outcome, error) {
	const query = `
		INSERT INTO measurements
			(device_eui, measurement_time, fcnt, fport, dr, adr, confirmed, raw_data, deduplication_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (deduplication_id)
		DO UPDATE SET fport = EXCLUDED.fport,
		              dr = EXCLUDED.dr,
		              adr = EXCLUDED.adr,
		              confirmed = EXCLUDED.confirmed,
		              raw_data = EXCLUDED.raw_data
		RETURNING id, (xmax = 0)
	`

	var (
		id       int64
		inserted bool
	)
	err := r.db.QueryRowContext(ctx, query,
		m.DeviceEUI, m.Time, m.FCnt, m.FPort, m.DR, m.ADR, m.Confirmed, m.RawData, m.DeduplicationID,
	).Scan(&id, &inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return r.resolveByDedupKey(ctx, *m.DeduplicationID)
	}
	if err != nil {
		return 0, "", fmt.Errorf("upsert measurement %s: %w", *m.DeduplicationID, err)
	}
	return id, outcomeOf(inserted), nil
}

func (r *MeasurementRepository) upsertByNaturalKey(ctx context.Context, m models.Measurement) (int64, Outcome, error) {
	const query = `
		INSERT INTO measurements
			(device_eui, measurement_time, fcnt, fport, dr, adr, confirmed, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (device_eui, measurement_time, COALESCE(fcnt, -1)) WHERE deduplication_id IS NULL
		DO UPDATE SET fport = EXCLUDED.fport,
		              dr = EXCLUDED.dr,
		              adr = EXCLUDED.adr,
		              confirmed = EXCLUDED.confirmed,
		              raw_data = EXCLUDED.raw_data
		RETURNING id, (xmax = 0)
	`

	var (
		id       int64
		inserted bool
	)
	err := r.db.QueryRowContext(ctx, query,
		m.DeviceEUI, m.Time, m.FCnt, m.FPort, m.DR, m.ADR, m.Confirmed, m.RawData,
	).Scan(&id, &inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return r.resolveByNaturalKey(ctx, m)
	}
	if err != nil {
		return 0, "", fmt.Errorf("upsert measurement %s@%s: %w", m.DeviceEUI, m.Time, err)
	}
	return id, outcomeOf(inserted), nil
}

// The RETURNING clause makes empty results unreachable under correct
// operation; the resolve fallbacks exist so a defect surfaces as
// ErrLookupFailed instead of a silent zero id.

func (r *MeasurementRepository) resolveByDedupKey(ctx context.Context, dedupID string) (int64, Outcome, error) {
	const query = `SELECT id FROM measurements WHERE deduplication_id = $1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, dedupID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("measurement %s: %w", dedupID, ErrLookupFailed)
	}
	if err != nil {
		return 0, "", err
	}
	return id, OutcomeUpdated, nil
}

func (r *MeasurementRepository) resolveByNaturalKey(ctx context.Context, m models.Measurement) (int64, Outcome, error) {
	const query = `
		SELECT id FROM measurements
		WHERE device_eui = $1
		  AND measurement_time = $2
		  AND COALESCE(fcnt, -1) = COALESCE($3, -1)
		  AND deduplication_id IS NULL
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, m.DeviceEUI, m.Time, m.FCnt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("measurement %s@%s: %w", m.DeviceEUI, m.Time, ErrLookupFailed)
	}
	if err != nil {
		return 0, "", err
	}
	return id, OutcomeUpdated, nil
}

func outcomeOf(inserted bool) Outcome {
	if inserted {
		return OutcomeInserted
	}
	return OutcomeUpdated
}
