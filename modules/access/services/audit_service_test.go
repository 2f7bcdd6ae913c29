package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/modules/access/domain/decision"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/pkg/configuration"
)

type mockAuditRepo struct {
	mu       sync.Mutex
	stored   []*decision.AccessDecision
	failures int
}

func (m *mockAuditRepo) CreateBatch(ctx context.Context, decisions []*decision.AccessDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("store unavailable")
	}
	m.stored = append(m.stored, decisions...)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, params *decision.FindParams) ([]*decision.AccessDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*decision.AccessDecision, len(m.stored))
	copy(out, m.stored)
	return out, nil
}

func (m *mockAuditRepo) Count(ctx context.Context, params *decision.FindParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.stored)), nil
}

func (m *mockAuditRepo) storedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

func testAuditOptions() configuration.AuditOptions {
	return configuration.AuditOptions{
		BufferSize:    64,
		FlushInterval: 20 * time.Millisecond,
		FlushBatch:    8,
		RetryBackoff:  5 * time.Millisecond,
	}
}

func testDecision() *decision.AccessDecision {
	return &decision.AccessDecision{
		ID:           uuid.New(),
		TenantID:     testTenantID,
		SubjectID:    uuid.New(),
		ResourceType: policy.ResourceContract,
		ResourceID:   uuid.New(),
		Action:       policy.ActionView,
		Allowed:      true,
		Reason:       decision.ReasonOrgGrant,
		EvaluatedAt:  time.Now(),
	}
}

func TestAuditService_FlushesBufferedDecisions(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, testAuditOptions(), nil)
	svc.Start(context.Background())

	for i := 0; i < 20; i++ {
		svc.Record(testDecision())
	}
	svc.Close()

	require.Equal(t, 20, repo.storedCount())
}

func TestAuditService_RetriesFailedFlush(t *testing.T) {
	repo := &mockAuditRepo{failures: 3}
	svc := NewAuditService(repo, testAuditOptions(), nil)
	svc.Start(context.Background())

	for i := 0; i < 5; i++ {
		svc.Record(testDecision())
	}
	svc.Close()

	// Every record survives the transient failures.
	require.Equal(t, 5, repo.storedCount())
}

func TestAuditService_CloseDrainsBuffer(t *testing.T) {
	repo := &mockAuditRepo{}
	opts := testAuditOptions()
	opts.FlushInterval = time.Hour // force the drain path, not the ticker
	svc := NewAuditService(repo, opts, nil)
	svc.Start(context.Background())

	for i := 0; i < 30; i++ {
		svc.Record(testDecision())
	}
	svc.Close()

	require.Equal(t, 30, repo.storedCount())
}

func TestAuditService_RecordAfterCloseWritesInline(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, testAuditOptions(), nil)
	svc.Start(context.Background())
	svc.Close()

	svc.Record(testDecision())

	require.Equal(t, 1, repo.storedCount())
}

func TestAuditService_CloseSweepsLateArrivals(t *testing.T) {
	repo := &mockAuditRepo{}
	opts := testAuditOptions()
	opts.FlushInterval = time.Hour
	svc := NewAuditService(repo, opts, nil)
	svc.Start(context.Background())
	svc.Close()

	// A sender that won the race against done and landed in the buffer
	// after the worker's drain.
	svc.ch <- testDecision()
	svc.Close()

	require.Equal(t, 1, repo.storedCount())
}

func TestAuditService_Query(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, testAuditOptions(), nil)
	svc.Start(context.Background())

	svc.Record(testDecision())
	svc.Record(testDecision())
	svc.Close()

	records, total, err := svc.Query(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, records, 2)
}
