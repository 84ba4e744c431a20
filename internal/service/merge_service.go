package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loanops/quarantine-api/internal/models"
	"github.com/loanops/quarantine-api/pkg/jobs"
)

type quarantineWriter interface {
	UpdateFields(ctx context.Context, id int64, date, status string, update models.QuarantineRecordUpdate) error
	CopyToClean(ctx context.Context, id int64, date, status string) error
	Delete(ctx context.Context, id int64, date, status string) error
}

type auditWriter interface {
	Insert(ctx context.Context, entry *models.AuditTrailEntry) error
}

type updateValidator interface {
	Validate(ctx context.Context, updates []models.QuarantineRecordUpdate) []models.ValidationResult
}

type pipelineTrigger interface {
	Trigger(ctx context.Context) (bool, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type mergeObserver interface {
	ObserveMergeBatch(merged, failed int, pipelineTriggered bool)
	RecordInvalidUpdates(count int)
}

// JobTypeMerge tags background merge jobs on the queue.
const JobTypeMerge = "quarantine_merge"

// mergePayload travels with a background merge job.
type mergePayload struct {
	Updates   []models.QuarantineRecordUpdate
	UserEmail string
}

// MergeService reconciles corrected quarantine records into the clean table.
//
// The merge for each record is the update -> copy -> delete triple against the
// warehouse plus an audit entry, processed sequentially and independently:
// one record's storage failure never rolls back or blocks its siblings, and
// the triple itself is deliberately not transactional (a crash between copy
// and delete can leave the row in both tables). Concurrent merges of the same
// composite key are not coordinated; last writer wins.
type MergeService struct {
	store     quarantineWriter
	audit     auditWriter
	validator updateValidator
	pipeline  pipelineTrigger
	queue     jobDispatcher
	metrics   mergeObserver
	logger    *zap.Logger
	now       func() time.Time
}

// NewMergeService constructs a MergeService. The queue and metrics
// collaborators are optional; without a queue MergeAsync degrades to an error.
func NewMergeService(store quarantineWriter, audit auditWriter, validator updateValidator, pipeline pipelineTrigger, queue jobDispatcher, metrics mergeObserver, logger *zap.Logger) *MergeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergeService{
		store:     store,
		audit:     audit,
		validator: validator,
		pipeline:  pipeline,
		queue:     queue,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Merge validates the batch, merges the valid updates one by one, and
// triggers the pipeline once if anything merged. It is total: every failure
// path, including a panic wrapping the whole operation, is folded into the
// returned MergeResult rather than surfaced as an error.
func (s *MergeService) Merge(ctx context.Context, updates []models.QuarantineRecordUpdate, userEmail string) (result *models.MergeResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("merge operation panicked", zap.Any("panic", r))
			result = &models.MergeResult{
				TotalRecords:  len(updates),
				MergedRecords: 0,
				FailedRecords: len(updates),
				Errors:        []string{fmt.Sprintf("Merge operation failed: %v", r)},
			}
		}
	}()

	validationResults := s.validator.Validate(ctx, updates)
	valid := make([]models.QuarantineRecordUpdate, 0, len(updates))
	for i, res := range validationResults {
		if res.IsValid {
			valid = append(valid, updates[i])
		}
	}

	if s.metrics != nil {
		s.metrics.RecordInvalidUpdates(len(updates) - len(valid))
	}

	if len(valid) == 0 {
		return &models.MergeResult{
			TotalRecords:  len(updates),
			MergedRecords: 0,
			FailedRecords: len(updates),
			Errors:        []string{"No valid records to merge"},
		}
	}

	// One session id for the whole batch, so every record merged together
	// shares it and the trail can be grouped per operator action.
	sessionID := "merge_" + s.now().UTC().Format(time.RFC3339)
	merged := 0
	// Validation-rejected items count as failed but are not listed in the
	// error slice; per-record detail for them lives in the validation results.
	failed := len(updates) - len(valid)
	var errs []string

	for _, update := range valid {
		if err := s.mergeOne(ctx, update, userEmail, sessionID); err != nil {
			s.logger.Error("failed to merge record",
				zap.String("composite_key", update.CompositeKey),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("Failed to merge %s: %v", update.CompositeKey, err))
			failed++
			continue
		}
		merged++
	}

	pipelineTriggered := false
	if merged > 0 {
		triggered, err := s.pipeline.Trigger(ctx)
		if err != nil {
			s.logger.Error("failed to trigger pipeline", zap.Error(err))
			errs = append(errs, fmt.Sprintf("Pipeline trigger failed: %v", err))
		}
		pipelineTriggered = triggered
	}

	if s.metrics != nil {
		s.metrics.ObserveMergeBatch(merged, failed, pipelineTriggered)
	}

	return &models.MergeResult{
		TotalRecords:      len(updates),
		MergedRecords:     merged,
		FailedRecords:     failed,
		PipelineTriggered: pipelineTriggered,
		Errors:            errs,
	}
}

// mergeOne runs the audit + update/copy/delete sequence for a single record.
// Steps already completed are not undone on a later failure.
func (s *MergeService) mergeOne(ctx context.Context, update models.QuarantineRecordUpdate, userEmail, sessionID string) error {
	id, date, status, err := models.SplitCompositeKey(update.CompositeKey)
	if err != nil {
		return err
	}

	// The pre-edit row is not re-fetched before overwriting, so old_values is
	// always empty. Known audit-fidelity gap, kept as documented behaviour.
	newValues, err := json.Marshal(update.ChangedFields())
	if err != nil {
		return fmt.Errorf("encode audit values: %w", err)
	}
	entry := &models.AuditTrailEntry{
		RecordID:       id,
		RecordDate:     date,
		UserEmail:      userEmail,
		Action:         models.AuditActionMerge,
		OldValues:      []byte("{}"),
		NewValues:      newValues,
		ViolationTypes: []byte("[]"),
		SessionID:      sessionID,
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		return fmt.Errorf("audit merge: %w", err)
	}

	if err := s.store.UpdateFields(ctx, id, date, status, update); err != nil {
		return err
	}
	if err := s.store.CopyToClean(ctx, id, date, status); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id, date, status); err != nil {
		return err
	}
	return nil
}

// MergeAsync hands the batch to the background queue and returns a task id
// immediately. There is no cancellation once the job starts, and no progress
// reporting beyond the worker's logged MergeResult.
func (s *MergeService) MergeAsync(ctx context.Context, updates []models.QuarantineRecordUpdate, userEmail string) (string, error) {
	if s.queue == nil {
		return "", fmt.Errorf("background merge queue not configured")
	}
	taskID := uuid.New().String()
	err := s.queue.Enqueue(jobs.Job{
		ID:      taskID,
		Type:    JobTypeMerge,
		Payload: mergePayload{Updates: updates, UserEmail: userEmail},
	})
	if err != nil {
		return "", fmt.Errorf("enqueue merge job: %w", err)
	}
	return taskID, nil
}

// HandleMergeJob is the queue handler for background merges.
func (s *MergeService) HandleMergeJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(mergePayload)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}
	result := s.Merge(ctx, payload.Updates, payload.UserEmail)
	s.logger.Info("background merge finished",
		zap.String("task_id", job.ID),
		zap.Int("total", result.TotalRecords),
		zap.Int("merged", result.MergedRecords),
		zap.Int("failed", result.FailedRecords),
		zap.Bool("pipeline_triggered", result.PipelineTriggered))
	return nil
}
