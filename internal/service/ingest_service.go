package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sensormon/internal/etl"
	"sensormon/internal/models"
	"sensormon/internal/queue"
)

const notifyTimeout = 10 * time.Second

// BatchProcessor runs one file through the ingestion core.
type BatchProcessor interface {
	ProcessFile(ctx context.Context, path string, sensorType models.SensorType) (*etl.Summary, error)
	ProcessFileDetect(ctx context.Context, path string) (*etl.Summary, error)
}

// AuditStore appends a summary to the append-only audit collection.
type AuditStore interface {
	Append(ctx context.Context, summary *etl.Summary) error
}

// ResultStore publishes the job result for polling by job id.
type ResultStore interface {
	SaveSummary(ctx context.Context, jobID string, summary *etl.Summary) error
	SaveFailure(ctx context.Context, jobID, message string) error
}

// Notifier informs the backend that a batch completed.
type Notifier interface {
	BatchCompleted(ctx context.Context, summary *etl.Summary) error
}

// IngestService executes ingestion jobs: it runs the batch coordinator and
// then the best-effort post-processing (audit log, result publication,
// backend notification). Only the batch itself decides the job outcome;
// audit and notify failures are logged and swallowed.
type IngestService struct {
	processor BatchProcessor
	audit     AuditStore
	results   ResultStore
	notifier  Notifier
	logger    *zap.Logger

	wg sync.WaitGroup
}

// NewIngestService wires the service. audit, results and notifier may be nil
// when the corresponding collaborator is not configured.
func NewIngestService(processor BatchProcessor, audit AuditStore, results ResultStore, notifier Notifier, logger *zap.Logger) *IngestService {
	return &IngestService{
		processor: processor,
		audit:     audit,
		results:   results,
		notifier:  notifier,
		logger:    logger,
	}
}

// HandleJob implements queue.Handler.
func (s *IngestService) HandleJob(ctx context.Context, job queue.Job) {
	summary, err := s.runBatch(ctx, job)
	if err != nil {
		s.logger.Error("job failed",
			zap.String("job_id", job.JobID),
			zap.String("csv_path", job.CSVPath),
			zap.Error(err))
		s.saveFailure(ctx, job.JobID, err.Error())
		return
	}

	s.logAudit(ctx, summary)
	s.saveSummary(ctx, job.JobID, summary)
	s.notifyAsync(summary)
}

func (s *IngestService) runBatch(ctx context.Context, job queue.Job) (*etl.Summary, error) {
	declared := strings.TrimSpace(job.SensorType)
	if declared == "" || strings.EqualFold(declared, "auto") {
		return s.processor.ProcessFileDetect(ctx, job.CSVPath)
	}

	sensorType, err := models.ParseSensorType(declared)
	if err != nil {
		return nil, err
	}
	return s.processor.ProcessFile(ctx, job.CSVPath, sensorType)
}

func (s *IngestService) logAudit(ctx context.Context, summary *etl.Summary) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, summary); err != nil {
		s.logger.Warn("audit write failed", zap.String("file", summary.File), zap.Error(err))
		return
	}
	summary.LoggedInAuditStore = true
}

func (s *IngestService) saveSummary(ctx context.Context, jobID string, summary *etl.Summary) {
	if s.results == nil {
		return
	}
	if err := s.results.SaveSummary(ctx, jobID, summary); err != nil {
		s.logger.Warn("result publication failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *IngestService) saveFailure(ctx context.Context, jobID, message string) {
	if s.results == nil {
		return
	}
	if err := s.results.SaveFailure(ctx, jobID, message); err != nil {
		s.logger.Warn("result publication failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

// notifyAsync fires the backend notification without blocking or failing
// the job.
func (s *IngestService) notifyAsync(summary *etl.Summary) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.BatchCompleted(ctx, summary); err != nil {
			s.logger.Warn("backend notification failed", zap.String("file", summary.File), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight notifications finish; used on shutdown.
func (s *IngestService) Wait() {
	s.wg.Wait()
}
