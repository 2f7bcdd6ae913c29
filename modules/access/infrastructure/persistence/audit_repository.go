package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/govkit/records-sdk/modules/access/domain/decision"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence/models"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/repo"
)

const auditColumns = `
	id, tenant_id, subject_id, resource_type, resource_id, action, allowed, reason, evaluated_at`

type AuditRepository struct{}

func NewAuditRepository() decision.Repository {
	return &AuditRepository{}
}

// CreateBatch inserts the whole batch in one statement via unnest so a
// retried flush is all-or-nothing.
func (r *AuditRepository) CreateBatch(ctx context.Context, decisions []*decision.AccessDecision) error {
	if len(decisions) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	n := len(decisions)
	ids := make([]uuid.UUID, 0, n)
	tenantIDs := make([]uuid.UUID, 0, n)
	subjectIDs := make([]uuid.UUID, 0, n)
	resourceTypes := make([]string, 0, n)
	resourceIDs := make([]uuid.UUID, 0, n)
	actions := make([]string, 0, n)
	allowed := make([]bool, 0, n)
	reasons := make([]string, 0, n)
	evaluatedAts := make([]time.Time, 0, n)
	for _, d := range decisions {
		ids = append(ids, d.ID)
		tenantIDs = append(tenantIDs, d.TenantID)
		subjectIDs = append(subjectIDs, d.SubjectID)
		resourceTypes = append(resourceTypes, string(d.ResourceType))
		resourceIDs = append(resourceIDs, d.ResourceID)
		actions = append(actions, string(d.Action))
		allowed = append(allowed, d.Allowed)
		reasons = append(reasons, d.Reason)
		evaluatedAts = append(evaluatedAts, d.EvaluatedAt)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO access_audit_log (
			id, tenant_id, subject_id, resource_type, resource_id, action, allowed, reason, evaluated_at
		)
		SELECT * FROM unnest(
			$1::uuid[], $2::uuid[], $3::uuid[], $4::text[], $5::uuid[],
			$6::text[], $7::boolean[], $8::text[], $9::timestamptz[]
		)
		ON CONFLICT (id) DO NOTHING
	`, ids, tenantIDs, subjectIDs, resourceTypes, resourceIDs, actions, allowed, reasons, evaluatedAts)
	return err
}

func (r *AuditRepository) List(ctx context.Context, params *decision.FindParams) ([]*decision.AccessDecision, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := r.buildFilters(ctx, params)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + auditColumns + `
		FROM access_audit_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY evaluated_at DESC
	` + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*decision.AccessDecision
	for rows.Next() {
		var row models.AccessDecision
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.SubjectID,
			&row.ResourceType,
			&row.ResourceID,
			&row.Action,
			&row.Allowed,
			&row.Reason,
			&row.EvaluatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainDecision(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *AuditRepository) Count(ctx context.Context, params *decision.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := r.buildFilters(ctx, params)
	if err != nil {
		return 0, err
	}

	var count int64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM access_audit_log
		WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AuditRepository) buildFilters(ctx context.Context, params *decision.FindParams) ([]string, []interface{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, nil, err
	}

	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argPos := 2

	if params.SubjectID != nil {
		where = append(where, fmt.Sprintf("subject_id = $%d", argPos))
		args = append(args, *params.SubjectID)
		argPos++
	}
	if params.ResourceType != nil {
		where = append(where, fmt.Sprintf("resource_type = $%d", argPos))
		args = append(args, string(*params.ResourceType))
		argPos++
	}
	if params.ResourceID != nil {
		where = append(where, fmt.Sprintf("resource_id = $%d", argPos))
		args = append(args, *params.ResourceID)
		argPos++
	}
	if params.Allowed != nil {
		where = append(where, fmt.Sprintf("allowed = $%d", argPos))
		args = append(args, *params.Allowed)
		argPos++
	}
	if params.From != nil {
		where = append(where, fmt.Sprintf("evaluated_at >= $%d", argPos))
		args = append(args, *params.From)
		argPos++
	}
	if params.To != nil {
		where = append(where, fmt.Sprintf("evaluated_at < $%d", argPos))
		args = append(args, *params.To)
		argPos++
	}
	return where, args, nil
}
