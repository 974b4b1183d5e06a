package queue

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacks++
	a.requeue = requeue
	return nil
}

type recordingHandler struct {
	jobs []Job
}

func (h *recordingHandler) HandleJob(ctx context.Context, job Job) {
	h.jobs = append(h.jobs, job)
}

func delivery(ack amqp.Acknowledger, body []byte) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestHandleDeliveryAcksAfterHandler(t *testing.T) {
	handler := &recordingHandler{}
	c := &Consumer{handler: handler, logger: zap.NewNop()}

	body, _ := json.Marshal(Job{JobID: "job-1", CSVPath: "/data/sound.csv", SensorType: "sonido"})
	ack := &fakeAcknowledger{}

	c.handleDelivery(context.Background(), delivery(ack, body))

	if len(handler.jobs) != 1 {
		t.Fatalf("handled jobs = %d, want 1", len(handler.jobs))
	}
	if handler.jobs[0].JobID != "job-1" || handler.jobs[0].CSVPath != "/data/sound.csv" {
		t.Fatalf("job = %+v", handler.jobs[0])
	}
	if ack.acks != 1 || ack.nacks != 0 {
		t.Fatalf("acks=%d nacks=%d, want 1/0", ack.acks, ack.nacks)
	}
}

func TestHandleDeliveryRequeuesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := &recordingHandler{}
	c := &Consumer{handler: handler, logger: zap.NewNop()}
	ack := &fakeAcknowledger{}

	body, _ := json.Marshal(Job{JobID: "job-2", CSVPath: "/data/sound.csv", SensorType: "sonido"})
	c.handleDelivery(ctx, delivery(ack, body))

	if ack.acks != 0 {
		t.Fatal("a job interrupted by shutdown must not be acked")
	}
	if ack.nacks != 1 || !ack.requeue {
		t.Fatalf("nacks=%d requeue=%v, want a requeueing nack", ack.nacks, ack.requeue)
	}
}

func TestHandleDeliveryDropsPoisonMessage(t *testing.T) {
	handler := &recordingHandler{}
	c := &Consumer{handler: handler, logger: zap.NewNop()}
	ack := &fakeAcknowledger{}

	c.handleDelivery(context.Background(), delivery(ack, []byte("not json")))

	if len(handler.jobs) != 0 {
		t.Fatal("poison message must not reach the handler")
	}
	if ack.nacks != 1 {
		t.Fatalf("nacks = %d, want 1", ack.nacks)
	}
	if ack.requeue {
		t.Fatal("poison message must not be requeued")
	}
}

func TestHandleDeliveryAssignsJobID(t *testing.T) {
	handler := &recordingHandler{}
	c := &Consumer{handler: handler, logger: zap.NewNop()}
	ack := &fakeAcknowledger{}

	c.handleDelivery(context.Background(), delivery(ack, []byte(`{"csv_path":"/data/x.csv"}`)))

	if len(handler.jobs) != 1 {
		t.Fatalf("handled jobs = %d, want 1", len(handler.jobs))
	}
	if handler.jobs[0].JobID == "" {
		t.Fatal("missing job id must be generated")
	}
}
