package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"academymsg/internal/models"
	"academymsg/internal/repository"
)

// JobPublisher hands prepared dispatch jobs to the queue consumed by
// the worker process
type JobPublisher interface {
	PublishDispatchJob(logID int64) error
}

// BatchItem is the per-member outcome of a batch enqueue
type BatchItem struct {
	Seq   int                `json:"seq"`
	Log   *models.MessageLog `json:"log,omitempty"`
	Error *string            `json:"error,omitempty"`
}

// Batch groups the outcomes of one enqueue call under a shared ID.
// A batch is a unit of grouping and correlation, not of atomicity:
// each member independently succeeds or fails.
type Batch struct {
	ID    string      `json:"batch_id"`
	Items []BatchItem `json:"items"`
}

// BatchService groups dispatch requests under a shared batch ID with
// per-member sequence numbers, and supports immediate, batched or
// time-scheduled delivery.
type BatchService struct {
	dispatch    *DispatchService
	purposes    *PurposeService
	logRepo     repository.MessageLogRepository
	publisher   JobPublisher
	workerCount int
}

// NewBatchService creates a new batch service.
// workerCount bounds concurrent fan-out to respect the provider's rate
// limits.
func NewBatchService(
	dispatch *DispatchService,
	purposes *PurposeService,
	logRepo repository.MessageLogRepository,
	publisher JobPublisher,
	workerCount int,
) *BatchService {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &BatchService{
		dispatch:    dispatch,
		purposes:    purposes,
		logRepo:     logRepo,
		publisher:   publisher,
		workerCount: workerCount,
	}
}

// Enqueue groups the requests under one batch ID and dispatches them
// according to sendType. Sequence numbers start at 0 and follow the
// caller's submission order; completion order across concurrent workers
// is not guaranteed to match.
func (s *BatchService) Enqueue(ctx context.Context, requests []*models.DispatchRequest, sendType models.SendType, scheduledAt *time.Time) (*Batch, error) {
	if len(requests) == 0 {
		return nil, &ValidationError{Message: "batch requires at least one request"}
	}
	if !sendType.IsValid() {
		return nil, &ValidationError{Message: "invalid send type"}
	}

	if err := s.validateMembers(ctx, requests, sendType, scheduledAt); err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	for i, req := range requests {
		seq := i
		req.BatchID = &batchID
		req.BatchSeq = &seq
		req.SendType = sendType
		if sendType == models.SendTypeScheduled && req.ScheduledAt == nil {
			req.ScheduledAt = scheduledAt
		}
	}

	log.Printf("Batch %s enqueued: %d members, sendType=%s", batchID, len(requests), sendType)

	batch := &Batch{ID: batchID, Items: make([]BatchItem, len(requests))}
	for i := range batch.Items {
		batch.Items[i].Seq = i
	}

	switch sendType {
	case models.SendTypeImmediate:
		s.runImmediate(ctx, requests, batch)
	default:
		s.prepareDeferred(ctx, requests, batch, sendType)
	}

	return batch, nil
}

// validateMembers checks batch availability per purpose and schedule
// consistency before any member is dispatched
func (s *BatchService) validateMembers(ctx context.Context, requests []*models.DispatchRequest, sendType models.SendType, scheduledAt *time.Time) error {
	// Purposes may repeat across members; resolve each code once
	batchable := map[string]bool{}

	for i, req := range requests {
		if req.PurposeCode == "" {
			return &ValidationError{Message: fmt.Sprintf("member %d: purpose code is required", i)}
		}

		allowed, seen := batchable[req.PurposeCode]
		if !seen {
			purpose, err := s.purposes.ResolveActive(ctx, req.PurposeCode)
			if err != nil {
				return err
			}
			allowed = purpose.IsBatchAvailable
			batchable[req.PurposeCode] = allowed
		}
		if !allowed {
			return &BusinessLogicError{Message: fmt.Sprintf("purpose %q is not available for batch sending", req.PurposeCode)}
		}

		if sendType == models.SendTypeScheduled {
			if scheduledAt == nil && req.ScheduledAt == nil {
				return &ValidationError{Message: fmt.Sprintf("member %d: scheduled batch requires a scheduled time", i)}
			}
			if scheduledAt != nil && req.ScheduledAt != nil && !req.ScheduledAt.Equal(*scheduledAt) {
				return &BusinessLogicError{Message: fmt.Sprintf("member %d: scheduled time differs from the batch schedule", i)}
			}
		}
	}

	return nil
}

// runImmediate fans the members out to the dispatch coordinator under a
// bounded worker pool
func (s *BatchService) runImmediate(ctx context.Context, requests []*models.DispatchRequest, batch *Batch) {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			logRow, err := s.dispatch.Send(gctx, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				msg := err.Error()
				batch.Items[i].Error = &msg
				return nil // member failures do not abort the batch
			}
			batch.Items[i].Log = logRow
			return nil
		})
	}

	_ = g.Wait()
}

// prepareDeferred persists PENDING logs for every member; BATCH members
// are handed to the queue worker, SCHEDULED members wait for the poller
func (s *BatchService) prepareDeferred(ctx context.Context, requests []*models.DispatchRequest, batch *Batch, sendType models.SendType) {
	for i, req := range requests {
		logRow, _, err := s.dispatch.Prepare(ctx, req)
		if err != nil {
			msg := err.Error()
			batch.Items[i].Error = &msg
			continue
		}
		batch.Items[i].Log = logRow

		if sendType == models.SendTypeBatch {
			if err := s.publisher.PublishDispatchJob(logRow.ID); err != nil {
				// The PENDING row stays; the scheduled poller will not
				// pick it up, so surface the publish failure on the item.
				log.Printf("ERROR: failed to publish dispatch job for log %d: %v", logRow.ID, err)
				msg := fmt.Sprintf("failed to enqueue: %v", err)
				batch.Items[i].Error = &msg
			}
		}
	}
}

// CancelScheduled removes a scheduled send from the pending set.
// Once transmission has started the send runs to completion.
func (s *BatchService) CancelScheduled(ctx context.Context, logID int64) error {
	_, err := s.logRepo.GetByID(ctx, logID)
	if err == sql.ErrNoRows {
		return &NotFoundError{Resource: "message log", ID: logID}
	}
	if err != nil {
		return err
	}

	if err := s.logRepo.Cancel(ctx, logID); err != nil {
		if err == repository.ErrNotPending {
			return &BusinessLogicError{Message: fmt.Sprintf("message log %d is not a pending scheduled send", logID)}
		}
		return err
	}

	log.Printf("Scheduled send canceled: log=%d", logID)
	return nil
}

// RunDueScheduled transmits every scheduled send whose time has elapsed,
// bounded by the worker pool. Returns the number of due rows picked up.
func (s *BatchService) RunDueScheduled(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.logRepo.FindDueScheduled(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	log.Printf("Scheduled dispatch: %d due messages", len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)

	for _, logRow := range due {
		logRow := logRow
		g.Go(func() error {
			if err := s.dispatch.TransmitPending(gctx, logRow); err != nil {
				log.Printf("ERROR: scheduled transmit failed for log %d: %v", logRow.ID, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return len(due), nil
}
