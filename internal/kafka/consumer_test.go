package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"sensormon/internal/etl"
	"sensormon/internal/models"
	"sensormon/internal/repository"
)

// minimal store: enough to drive the row pipeline, with an optional
// injected measurement failure
type memStore struct {
	measureErr error

	devices  int
	sound    int
	commits  int
	rollback int
}

type memTx struct{ store *memStore }

func (s *memStore) BeginRow(ctx context.Context) (repository.RowTx, error) {
	return &memTx{store: s}, nil
}

func (t *memTx) UpsertDevice(ctx context.Context, device models.Device) (repository.Outcome, error) {
	t.store.devices++
	return repository.OutcomeInserted, nil
}

func (t *memTx) UpsertMeasurement(ctx context.Context, m models.Measurement) (int64, repository.Outcome, error) {
	if t.store.measureErr != nil {
		return 0, "", t.store.measureErr
	}
	return 1, repository.OutcomeInserted, nil
}

func (t *memTx) UpsertSound(ctx context.Context, id int64, r models.SoundReading) error {
	t.store.sound++
	return nil
}

func (t *memTx) UpsertAirQuality(ctx context.Context, id int64, r models.AirQualityReading) error {
	return nil
}

func (t *memTx) UpsertDistance(ctx context.Context, id int64, r models.DistanceReading) error {
	return nil
}

func (t *memTx) Commit() error {
	t.store.commits++
	return nil
}

func (t *memTx) Rollback() error {
	t.store.rollback++
	return nil
}

func newTestConsumer(store *memStore) *Consumer {
	return &Consumer{
		pipeline: etl.NewPipeline(store, zap.NewNop()),
		logger:   zap.NewNop(),
	}
}

func message(t *testing.T, record Record) kafkago.Message {
	t.Helper()
	value, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	return kafkago.Message{Value: value}
}

func TestHandleMessageCommitsAfterRow(t *testing.T) {
	store := &memStore{}
	c := newTestConsumer(store)

	msg := message(t, Record{
		SensorType: "sonido",
		Row: map[string]string{
			"deviceInfo.devEui": "A84041FFFF000001",
			"time":              "2024-05-17T10:30:00Z",
			"object.LAeq":       "54.2",
		},
	})

	if !c.handleMessage(context.Background(), msg) {
		t.Fatal("successful row must commit the offset")
	}
	if store.commits != 1 || store.sound != 1 {
		t.Fatalf("commits=%d sound=%d, want 1/1", store.commits, store.sound)
	}
}

func TestHandleMessagePoisonIsCommittedAway(t *testing.T) {
	store := &memStore{}
	c := newTestConsumer(store)

	if !c.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}) {
		t.Fatal("poison record must be committed away")
	}
	if !c.handleMessage(context.Background(), message(t, Record{SensorType: "thermostat"})) {
		t.Fatal("unknown sensor type must be committed away")
	}
	if store.commits != 0 {
		t.Fatalf("commits = %d, want 0", store.commits)
	}
}

func TestHandleMessageLeavesFailedRowUncommitted(t *testing.T) {
	store := &memStore{measureErr: errors.New("connection reset")}
	c := newTestConsumer(store)

	msg := message(t, Record{
		SensorType: "sonido",
		Row: map[string]string{
			"deviceInfo.devEui": "A84041FFFF000001",
			"time":              "2024-05-17T10:30:00Z",
		},
	})

	if c.handleMessage(context.Background(), msg) {
		t.Fatal("failed row must leave the offset uncommitted")
	}
	if store.rollback != 1 {
		t.Fatalf("rollbacks = %d, want 1", store.rollback)
	}
}

func TestHandleMessageSkipsRowWithoutDevice(t *testing.T) {
	store := &memStore{}
	c := newTestConsumer(store)

	msg := message(t, Record{
		SensorType: "sonido",
		Row:        map[string]string{"object.LAeq": "54.2"},
	})

	if !c.handleMessage(context.Background(), msg) {
		t.Fatal("skipped row must still commit the offset")
	}
	if store.devices != 0 {
		t.Fatal("skipped row must not touch the store")
	}
}
