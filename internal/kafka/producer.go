package kafka

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"sensormon/internal/extract"
	"sensormon/internal/models"
)

// Producer publishes CSV rows to the telemetry topic, one JSON record per
// row, keyed by device EUI so a device's messages stay ordered within a
// partition.
type Producer struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewProducer returns a producer for the topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	return &Producer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
		},
		logger: logger,
	}
}

// PublishFile streams every row of the CSV onto the topic. Returns the
// number of rows published.
func (p *Producer) PublishFile(ctx context.Context, path string, sensorType models.SensorType) (int, error) {
	if !sensorType.Valid() {
		return 0, fmt.Errorf("kafka: unknown sensor type %q", sensorType)
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("kafka: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("kafka: read header of %s: %w", path, err)
	}

	published := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return published, fmt.Errorf("kafka: read %s: %w", path, err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}

		body, err := json.Marshal(Record{SensorType: sensorType.String(), Row: row})
		if err != nil {
			return published, err
		}

		key, _ := extract.Raw(row, "devEui")
		err = p.writer.WriteMessages(ctx, kafkago.Message{
			Key:   []byte(key),
			Value: body,
		})
		if err != nil {
			return published, fmt.Errorf("kafka: publish row: %w", err)
		}
		published++
	}

	p.logger.Info("file published",
		zap.String("file", path),
		zap.String("sensor_type", sensorType.String()),
		zap.Int("rows", published))

	return published, nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
