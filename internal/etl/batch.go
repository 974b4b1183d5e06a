package etl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"sensormon/internal/extract"
	"sensormon/internal/models"
	"sensormon/internal/repository"
)

var (
	// ErrSourceNotFound means the input file is missing; the invocation
	// fails with no partial result.
	ErrSourceNotFound = errors.New("etl: source file not found")
	// ErrMalformedSource means the file cannot be parsed as delimited rows
	// at all, as opposed to per-row bad data which is isolated by the row
	// pipeline.
	ErrMalformedSource = errors.New("etl: malformed source file")
)

// sensorTypeAuto marks summaries produced by the per-row detecting entry point.
const sensorTypeAuto = "auto"

// Coordinator opens a CSV, drives the row pipeline over every row and
// aggregates the outcome into a Summary. Correctness lives in the per-row
// transactions; the coordinator only streams, tallies and reports.
type Coordinator struct {
	pipeline *Pipeline
	logger   *zap.Logger
}

// NewCoordinator returns a batch coordinator over the given store.
func NewCoordinator(store repository.Store, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		pipeline: NewPipeline(store, logger),
		logger:   logger,
	}
}

// ProcessFile ingests every row of the file as the declared sensor type.
func (c *Coordinator) ProcessFile(ctx context.Context, path string, sensorType models.SensorType) (*Summary, error) {
	if !sensorType.Valid() {
		return nil, fmt.Errorf("etl: unknown sensor type %q", sensorType)
	}
	return c.processFile(ctx, path, sensorType, false)
}

// ProcessFileDetect ingests the file reading each row's sensor type from its
// own columns (sensor-type column first, device profile name as fallback).
func (c *Coordinator) ProcessFileDetect(ctx context.Context, path string) (*Summary, error) {
	return c.processFile(ctx, path, "", true)
}

func (c *Coordinator) processFile(ctx context.Context, path string, sensorType models.SensorType, detect bool) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("etl: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
	}

	summary := &Summary{
		File:       filepath.Base(path),
		SensorType: sensorType.String(),
		OK:         true,
	}
	if detect {
		summary.SensorType = sensorTypeAuto
	}

	c.logger.Info("processing file",
		zap.String("file", summary.File),
		zap.String("sensor_type", summary.SensorType))

	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				summary.Processed++
				summary.addError(fmt.Sprintf("row %d: %v", rowNum, err))
				continue
			}
			// unreadable past this point, e.g. a broken quote; report what
			// was ingested so far
			summary.OK = summary.Processed > 0
			summary.addError(fmt.Sprintf("row %d: %v", rowNum, err))
			if summary.Processed == 0 {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
			}
			break
		}

		row := rowFromRecord(header, record)

		rowType := sensorType
		if detect {
			rowType, err = detectSensorType(row)
			if err != nil {
				summary.Processed++
				summary.addError(fmt.Sprintf("row %d: %v", rowNum, err))
				continue
			}
		}

		out := c.pipeline.ProcessRow(ctx, row, rowType)
		if out.Status == RowErrored {
			out.Err = fmt.Errorf("row %d: %w", rowNum, out.Err)
			c.logger.Warn("row failed", zap.String("file", summary.File), zap.Error(out.Err))
		}
		summary.tally(out)
	}

	summary.CompletedAt = time.Now().UTC()

	c.logger.Info("file processed",
		zap.String("file", summary.File),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors))

	return summary, nil
}

func rowFromRecord(header, record []string) extract.Row {
	row := make(extract.Row, len(header))
	for i, name := range header {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	return row
}

func detectSensorType(row extract.Row) (models.SensorType, error) {
	if v, ok := extract.Raw(row, "sensorType"); ok {
		return models.ParseSensorType(v)
	}
	if v, ok := extract.Raw(row, "deviceProfileName"); ok {
		return models.ParseSensorType(v)
	}
	return "", errors.New("no sensor type column")
}
