package repository

import (
	"context"
	"database/sql"
	"errors"

	"sensormon/internal/models"
)

// ErrLookupFailed means an upsert reported success but the row id could not
// be resolved afterwards. That signals a logic or race defect and is
// surfaced as a row-level error.
var ErrLookupFailed = errors.New("repository: row id lookup failed after upsert")

// Outcome classifies what an upsert did.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
)

// DBTX is the statement surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RowTx is the write surface of a single row-scoped transaction. All writers
// are idempotent upserts so at-least-once job delivery cannot duplicate
// rows.
type RowTx interface {
	UpsertDevice(ctx context.Context, device models.Device) (Outcome, error)
	UpsertMeasurement(ctx context.Context, m models.Measurement) (int64, Outcome, error)
	UpsertSound(ctx context.Context, measurementID int64, r models.SoundReading) error
	UpsertAirQuality(ctx context.Context, measurementID int64, r models.AirQualityReading) error
	UpsertDistance(ctx context.Context, measurementID int64, r models.DistanceReading) error
	Commit() error
	Rollback() error
}

// Store hands out row-scoped transactions.
type Store interface {
	BeginRow(ctx context.Context) (RowTx, error)
}

// SQLStore is the Postgres-backed Store.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a store over the given pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// BeginRow opens one row-scoped transaction.
func (s *SQLStore) BeginRow(ctx context.Context) (RowTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlRowTx{
		tx:           tx,
		devices:      NewDeviceRepository(tx),
		measurements: NewMeasurementRepository(tx),
		readings:     NewReadingRepository(tx),
	}, nil
}

type sqlRowTx struct {
	tx           *sql.Tx
	devices      *DeviceRepository
	measurements *MeasurementRepository
	readings     *ReadingRepository
}

func (t *sqlRowTx) UpsertDevice(ctx context.Context, device models.Device) (Outcome, error) {
	return t.devices.Upsert(ctx, device)
}

func (t *sqlRowTx) UpsertMeasurement(ctx context.Context, m models.Measurement) (int64, Outcome, error) {
	return t.measurements.Upsert(ctx, m)
}

func (t *sqlRowTx) UpsertSound(ctx context.Context, measurementID int64, r models.SoundReading) error {
	return t.readings.UpsertSound(ctx, measurementID, r)
}

func (t *sqlRowTx) UpsertAirQuality(ctx context.Context, measurementID int64, r models.AirQualityReading) error {
	return t.readings.UpsertAirQuality(ctx, measurementID, r)
}

func (t *sqlRowTx) UpsertDistance(ctx context.Context, measurementID int64, r models.DistanceReading) error {
	return t.readings.UpsertDistance(ctx, measurementID, r)
}

func (t *sqlRowTx) Commit() error   { return t.tx.Commit() }
func (t *sqlRowTx) Rollback() error { return t.tx.Rollback() }
