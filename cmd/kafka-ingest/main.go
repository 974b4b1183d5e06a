package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sensormon/internal/config"
	"sensormon/internal/db"
	"sensormon/internal/kafka"
	"sensormon/internal/logging"
	"sensormon/internal/models"
	"sensormon/internal/repository"
)

// kafka-ingest is the streaming variant: without flags it consumes row
// records from the telemetry topic into the database; with -produce it
// publishes a CSV onto the topic instead.
func main() {
	var (
		produce = flag.String("produce", "", "publish this CSV to the topic instead of consuming")
		sensor  = flag.String("sensor", "", "sensor type for -produce (sonido, calidad_aire, soterrado)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	brokers := cfg.KafkaBrokers()
	if len(brokers) == 0 {
		logger.Fatal("kafka brokers not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *produce != "" {
		runProducer(ctx, cfg, brokers, *produce, *sensor, logger)
		return
	}

	runConsumer(ctx, cfg, brokers, logger)
}

func runProducer(ctx context.Context, cfg *config.Config, brokers []string, file, sensor string, logger *zap.Logger) {
	sensorType, err := models.ParseSensorType(sensor)
	if err != nil {
		logger.Fatal("invalid -sensor", zap.Error(err))
	}

	producer := kafka.NewProducer(brokers, cfg.Kafka.Topic, logger)
	defer producer.Close()

	if _, err := producer.PublishFile(ctx, file, sensorType); err != nil {
		logger.Fatal("publish failed", zap.String("file", file), zap.Error(err))
	}
}

func runConsumer(ctx context.Context, cfg *config.Config, brokers []string, logger *zap.Logger) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	consumer := kafka.NewConsumer(brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, repository.NewSQLStore(sqlDB), logger)
	defer consumer.Close()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("consumer stopped with error", zap.Error(err))
	}
}
