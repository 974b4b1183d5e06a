package etl

import (
	"context"
	"errors"
	"fmt"

	"sensormon/internal/models"
	"sensormon/internal/repository"
)

// fakeStore is an in-memory stand-in for the Postgres store. It mirrors the
// real upsert semantics (insert if the key is new, overwrite otherwise) and
// stages writes per transaction so a rollback leaves no trace.
type fakeStore struct {
	devices         map[string]models.Device
	measurements    map[string]int64
	measurementRows map[int64]models.Measurement
	sound           map[int64]models.SoundReading
	air             map[int64]models.AirQualityReading
	distance        map[int64]models.DistanceReading

	nextID int64

	// error injection
	beginErr       error
	failDeviceEUI  string
	failMeasureEUI string
	failDetail     bool

	begun     int
	commits   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		devices:         map[string]models.Device{},
		measurements:    map[string]int64{},
		measurementRows: map[int64]models.Measurement{},
		sound:           map[int64]models.SoundReading{},
		air:             map[int64]models.AirQualityReading{},
		distance:        map[int64]models.DistanceReading{},
	}
}

func (s *fakeStore) BeginRow(ctx context.Context) (repository.RowTx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begun++
	return &fakeRowTx{store: s}, nil
}

func measurementKey(m models.Measurement) string {
	if m.DeduplicationID != nil {
		return "dedup:" + *m.DeduplicationID
	}
	fcnt := -1
	if m.FCnt != nil {
		fcnt = *m.FCnt
	}
	return fmt.Sprintf("natural:%s|%s|%d", m.DeviceEUI, m.Time.UTC(), fcnt)
}

type fakeRowTx struct {
	store *fakeStore
	ops   []func(*fakeStore)
	done  bool
}

func (t *fakeRowTx) UpsertDevice(ctx context.Context, device models.Device) (repository.Outcome, error) {
	if t.store.failDeviceEUI != "" && device.DevEUI == t.store.failDeviceEUI {
		return "", errors.New("injected device failure")
	}

	_, exists := t.store.devices[device.DevEUI]
	t.ops = append(t.ops, func(s *fakeStore) { s.devices[device.DevEUI] = device })
	if exists {
		return repository.OutcomeUpdated, nil
	}
	return repository.OutcomeInserted, nil
}

func (t *fakeRowTx) UpsertMeasurement(ctx context.Context, m models.Measurement) (int64, repository.Outcome, error) {
	if t.store.failMeasureEUI != "" && m.DeviceEUI == t.store.failMeasureEUI {
		return 0, "", errors.New("injected measurement failure")
	}

	key := measurementKey(m)
	if id, exists := t.store.measurements[key]; exists {
		existing := t.store.measurementRows[id]
		// protocol fields are mutable, identity fields are not
		updated := existing
		updated.FPort, updated.DR, updated.ADR = m.FPort, m.DR, m.ADR
		updated.Confirmed, updated.RawData = m.Confirmed, m.RawData
		t.ops = append(t.ops, func(s *fakeStore) { s.measurementRows[id] = updated })
		return id, repository.OutcomeUpdated, nil
	}

	// ids are reserved even when the row is rolled back, like a sequence
	t.store.nextID++
	id := t.store.nextID
	m.ID = id
	t.ops = append(t.ops, func(s *fakeStore) {
		s.measurements[key] = id
		s.measurementRows[id] = m
	})
	return id, repository.OutcomeInserted, nil
}

func (t *fakeRowTx) UpsertSound(ctx context.Context, measurementID int64, r models.SoundReading) error {
	if t.store.failDetail {
		return errors.New("injected detail failure")
	}
	t.ops = append(t.ops, func(s *fakeStore) { s.sound[measurementID] = r })
	return nil
}

func (t *fakeRowTx) UpsertAirQuality(ctx context.Context, measurementID int64, r models.AirQualityReading) error {
	if t.store.failDetail {
		return errors.New("injected detail failure")
	}
	t.ops = append(t.ops, func(s *fakeStore) { s.air[measurementID] = r })
	return nil
}

func (t *fakeRowTx) UpsertDistance(ctx context.Context, measurementID int64, r models.DistanceReading) error {
	if t.store.failDetail {
		return errors.New("injected detail failure")
	}
	t.ops = append(t.ops, func(s *fakeStore) { s.distance[measurementID] = r })
	return nil
}

func (t *fakeRowTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	for _, op := range t.ops {
		op(t.store)
	}
	t.store.commits++
	return nil
}

func (t *fakeRowTx) Rollback() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	t.store.rollbacks++
	return nil
}
