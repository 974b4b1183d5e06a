package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sensormon/internal/config"
	"sensormon/internal/logging"
	"sensormon/internal/queue"
	redisconn "sensormon/internal/redis"
)

const pollInterval = 500 * time.Millisecond

// etl-enqueue submits one ingestion job to the work queue and optionally
// waits for its result, the way the upload API does it.
func main() {
	var (
		file   = flag.String("file", "", "path to the CSV file, as visible to the worker")
		sensor = flag.String("sensor", "auto", "sensor type (sonido, calidad_aire, soterrado or auto)")
		wait   = flag.Duration("wait", 0, "poll the job result for up to this long (0 = do not wait)")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: etl-enqueue -file <csv> [-sensor <type>] [-wait <duration>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publisher, err := queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Name)
	if err != nil {
		logger.Fatal("failed to connect to queue", zap.Error(err))
	}
	defer publisher.Close()

	job := queue.Job{
		JobID:      uuid.NewString(),
		CSVPath:    *file,
		SensorType: *sensor,
	}
	if err := publisher.Publish(ctx, job); err != nil {
		logger.Fatal("failed to publish job", zap.Error(err))
	}

	fmt.Println(job.JobID)

	if *wait <= 0 {
		return
	}

	result, err := waitForResult(cfg, job.JobID, *wait)
	if err != nil {
		logger.Fatal("failed to fetch result", zap.String("job_id", job.JobID), zap.Error(err))
	}
	fmt.Println(string(result))
}

func waitForResult(cfg *config.Config, jobID string, timeout time.Duration) ([]byte, error) {
	client, err := redisconn.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	results := queue.NewResultStore(client, cfg.Redis.ResultTTL)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		data, err := results.Fetch(ctx, jobID)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, goredis.Nil) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("no result after %s", timeout)
		case <-time.After(pollInterval):
		}
	}
}
