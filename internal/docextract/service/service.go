package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sei/sei-backend/internal/docextract/domain"
	"github.com/sei/sei-backend/internal/docextract/events"
	"github.com/sei/sei-backend/internal/docextract/fields"
	"github.com/sei/sei-backend/internal/docextract/storage"
	"github.com/sei/sei-backend/internal/docextract/textextract"
	"github.com/sei/sei-backend/pkg/config"
	apperrors "github.com/sei/sei-backend/pkg/errors"
	"github.com/sei/sei-backend/pkg/logger"
	"github.com/sei/sei-backend/pkg/messaging"
)

// Service orchestrates extraction: resolve format → text → fields → cleanup
type Service struct {
	registry     *textextract.Registry
	table        *fields.Table
	jobs         *storage.JobStore
	audit        *events.Auditor
	pool         *semaphore.Weighted
	parseTimeout time.Duration
	log          *logger.Logger

	// workers still parsing after their caller gave up; each holds a slot
	abandoned atomic.Int64
}

// NewService creates a new extraction service. Text extraction runs on at
// most cfg.Workers goroutines at a time.
func NewService(registry *textextract.Registry, table *fields.Table, jobs *storage.JobStore, audit *events.Auditor, cfg config.ExtractionConfig, log *logger.Logger) *Service {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Service{
		registry:     registry,
		table:        table,
		jobs:         jobs,
		audit:        audit,
		pool:         semaphore.NewWeighted(int64(workers)),
		parseTimeout: cfg.ParseTimeout,
		log:          log.WithComponent("docextract"),
	}
}

// Extract processes a document synchronously. The document bytes are zeroed
// before Extract returns or, on timeout, as soon as the parser lets go of them.
// Errors are always *apperrors.AppError.
func (s *Service) Extract(ctx context.Context, doc *domain.UploadedDocument) (*domain.Extraction, error) {
	return s.extract(ctx, "", doc)
}

func (s *Service) extract(ctx context.Context, jobID string, doc *domain.UploadedDocument) (*domain.Extraction, error) {
	start := time.Now()
	log := s.log
	if requestID := messaging.CorrelationID(ctx); requestID != "" {
		log = log.WithRequestID(requestID)
	}
	if jobID != "" {
		log = log.WithJobID(jobID)
	}

	extractor := s.registry.Resolve(doc.MediaType, doc.Data)
	format := extractor.Format()
	size := doc.Size()

	text, err := s.runExtractor(ctx, extractor, doc.Data)
	if err != nil {
		appErr := s.toAppError(err)
		duration := time.Since(start)

		log.Warn().
			Err(err).
			Str("format", format).
			Int("size", size).
			Str("code", appErr.Code).
			Dur("duration", duration).
			Msg("document extraction failed")

		s.audit.Failed(ctx, jobID, doc, format, duration, appErr.Code)
		return nil, appErr
	}

	result := s.table.Extract(text.Content)
	ext := &domain.Extraction{
		Fields:           result,
		Format:           format,
		PageCount:        text.PageCount,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	log.Info().
		Str("format", format).
		Int("size", size).
		Int("pages", text.PageCount).
		Bool("truncated", text.Truncated).
		Strs("fields_extracted", result.NonEmpty()).
		Int64("duration_ms", ext.ProcessingTimeMs).
		Msg("document extraction completed")

	s.audit.Completed(ctx, jobID, doc, ext)
	return ext, nil
}

type outcome struct {
	text *textextract.Text
	err  error
}

const (
	workerRunning int32 = iota
	workerFinished
	workerAbandoned
)

// AbandonedWorkers returns how many extractors outlived their parse timeout
// and still occupy a pool slot.
func (s *Service) AbandonedWorkers() int64 {
	return s.abandoned.Load()
}

// runExtractor runs e on the worker pool under the parse timeout.
// It takes ownership of data and zeroes it once the extractor is done.
func (s *Service) runExtractor(ctx context.Context, e textextract.Extractor, data []byte) (*textextract.Text, error) {
	ctx, cancel := context.WithTimeout(ctx, s.parseTimeout)
	defer cancel()

	if err := s.pool.Acquire(ctx, 1); err != nil {
		storage.ZeroBytes(data)
		return nil, err
	}

	var state atomic.Int32
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() { done <- o }()
		defer func() {
			if !state.CompareAndSwap(workerRunning, workerFinished) {
				s.abandoned.Add(-1)
				s.log.Info().Str("format", e.Format()).Msg("abandoned extractor finished")
			}
		}()
		defer s.pool.Release(1)
		defer storage.ZeroBytes(data)
		defer func() {
			if r := recover(); r != nil {
				o = outcome{err: fmt.Errorf("extractor panicked: %v", r)}
			}
		}()

		o.text, o.err = e.Extract(ctx, data)
	}()

	// A late result after the deadline is dropped; done is buffered so the
	// worker never blocks on it. The slot stays taken until the extractor
	// returns, which keeps the number of parsing goroutines bounded.
	select {
	case o := <-done:
		return o.text, o.err
	case <-ctx.Done():
		if state.CompareAndSwap(workerRunning, workerAbandoned) {
			n := s.abandoned.Add(1)
			s.log.Warn().
				Str("format", e.Format()).
				Int64("abandoned_workers", n).
				Msg("extractor still running after timeout, slot held until it returns")
		}
		return nil, ctx.Err()
	}
}

func (s *Service) toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var parseErr *textextract.ParseError
	switch {
	case errors.As(err, &parseErr):
		if parseErr.Panic != nil {
			s.log.Error().
				Interface("panic", parseErr.Panic).
				Str("format", parseErr.Format).
				Msg("parser panic recovered")
		}
		return apperrors.DocumentParse(parseErr)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ParseTimeout(s.parseTimeout)
	default:
		return apperrors.Internal(err)
	}
}

// StartExtraction creates a job and processes the document in the background.
// Returns the job immediately so the caller can poll for results.
func (s *Service) StartExtraction(ctx context.Context, doc *domain.UploadedDocument) *domain.ExtractionJob {
	now := time.Now()
	job := &domain.ExtractionJob{
		JobID:     storage.GenerateJobID(),
		Status:    domain.StatusProcessing,
		Filename:  doc.Filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs.StoreJob(job)
	snapshot := job.Clone()

	// Detached so that the request returning does not cancel processing
	go s.processAsync(context.WithoutCancel(ctx), job.JobID, doc)

	return snapshot
}

// processAsync runs extraction in a background goroutine
func (s *Service) processAsync(ctx context.Context, jobID string, doc *domain.UploadedDocument) {
	ext, err := s.extract(ctx, jobID, doc)
	if err != nil {
		var appErr *apperrors.AppError
		errors.As(err, &appErr)

		s.jobs.UpdateJob(jobID, func(j *domain.ExtractionJob) {
			j.Status = domain.StatusFailed
			j.Error = appErr.Message
			j.ErrorCode = appErr.Code
			j.Details = appErr.Details
		})
		return
	}

	s.jobs.UpdateJob(jobID, func(j *domain.ExtractionJob) {
		j.Status = domain.StatusCompleted
		j.Result = ext.Fields
	})
}

// GetJob retrieves an extraction job by ID
func (s *Service) GetJob(jobID string) (*domain.ExtractionJob, error) {
	job := s.jobs.GetJob(jobID)
	if job == nil {
		return nil, apperrors.NotFound("job")
	}
	return job, nil
}

// Formats lists the document formats the service accepts
func (s *Service) Formats() []string {
	return s.registry.Formats()
}
