package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/modules/access/domain/decision"
	"github.com/govkit/records-sdk/pkg/configuration"
)

// AuditService buffers decisions and flushes them asynchronously. The
// decision path never waits on the audit store; delivery is at-least-once
// (duplicates acceptable, losses not), so a failed batch is retried rather
// than dropped.
type AuditService struct {
	repo   decision.Repository
	opts   configuration.AuditOptions
	logger *logrus.Entry

	ch       chan *decision.AccessDecision
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// baseCtx is captured by Start so post-shutdown writes still reach
	// the pool.
	baseCtx context.Context
}

func NewAuditService(repo decision.Repository, opts configuration.AuditOptions, logger *logrus.Logger) *AuditService {
	var entry *logrus.Entry
	if logger != nil {
		entry = logger.WithField("component", "audit_sink")
	} else {
		entry = logrus.WithField("component", "audit_sink")
	}
	return &AuditService{
		repo:   repo,
		opts:   opts,
		logger: entry,
		ch:     make(chan *decision.AccessDecision, opts.BufferSize),
		done:   make(chan struct{}),
	}
}

// Start launches the flush worker. baseCtx must carry the database pool and
// outlive the service; request contexts are deliberately not used for audit
// writes.
func (s *AuditService) Start(baseCtx context.Context) {
	s.baseCtx = baseCtx
	s.wg.Add(1)
	go s.run(baseCtx)
}

// Record enqueues one decision. It never returns an error: when the buffer
// is full the send blocks, trading latency for the at-least-once guarantee.
func (s *AuditService) Record(d *decision.AccessDecision) {
	select {
	case <-s.done:
		// Late decision after shutdown: the worker is gone, so write
		// synchronously. Losing the record is not an option.
		s.logger.WithField("decision_id", d.ID.String()).Warn("audit record after shutdown, writing inline")
		batch := []*decision.AccessDecision{d}
		s.flush(s.writeCtx(), &batch)
		return
	default:
	}
	s.ch <- d
	auditBufferedDecisions.Set(float64(len(s.ch)))
}

// Close flushes the remaining buffer and stops the worker.
func (s *AuditService) Close() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()

	// A sender that passed the done check concurrently with Close can land
	// in the buffer after the worker's drain. Sweep the channel once more.
	batch := make([]*decision.AccessDecision, 0, s.opts.FlushBatch)
	for {
		select {
		case d := <-s.ch:
			batch = append(batch, d)
		default:
			s.flush(s.writeCtx(), &batch)
			return
		}
	}
}

func (s *AuditService) writeCtx() context.Context {
	if s.baseCtx != nil {
		return s.baseCtx
	}
	return context.Background()
}

// Query returns audit records matching the filters, newest first.
func (s *AuditService) Query(ctx context.Context, params *decision.FindParams) ([]*decision.AccessDecision, int64, error) {
	if params == nil {
		params = &decision.FindParams{}
	}
	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return records, count, nil
}

func (s *AuditService) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]*decision.AccessDecision, 0, s.opts.FlushBatch)
	for {
		select {
		case d := <-s.ch:
			batch = append(batch, d)
			auditBufferedDecisions.Set(float64(len(s.ch)))
			if len(batch) >= s.opts.FlushBatch {
				s.flush(ctx, &batch)
			}
		case <-ticker.C:
			s.flush(ctx, &batch)
		case <-s.done:
			// Drain whatever is still buffered before exiting.
			for {
				select {
				case d := <-s.ch:
					batch = append(batch, d)
				default:
					s.flush(ctx, &batch)
					return
				}
			}
		}
	}
}

// flush writes the batch, retrying with backoff until it lands or the base
// context dies. Audit failures never propagate to callers.
func (s *AuditService) flush(ctx context.Context, batch *[]*decision.AccessDecision) {
	if len(*batch) == 0 {
		return
	}
	for {
		err := s.repo.CreateBatch(ctx, *batch)
		if err == nil {
			auditFlushTotal.WithLabelValues("ok").Inc()
			*batch = (*batch)[:0]
			return
		}
		auditFlushTotal.WithLabelValues("error").Inc()
		s.logger.WithError(&AuditWriteFailure{Err: err}).
			WithField("batch_size", len(*batch)).
			Error("audit flush failed, retrying")

		select {
		case <-ctx.Done():
			s.logger.WithField("batch_size", len(*batch)).
				Error("audit flush abandoned: base context closed")
			return
		case <-time.After(s.opts.RetryBackoff):
		}
	}
}
