package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/govkit/records-sdk/modules/access/domain/delegation"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence/models"
	"github.com/govkit/records-sdk/pkg/composables"
)

const delegationColumns = `
	id, tenant_id, delegator_id, delegatee_id, org_unit_id, permissions,
	valid_from, valid_until, revoked_at, revoked_by, created_at`

type DelegationRepository struct{}

func NewDelegationRepository() delegation.Repository {
	return &DelegationRepository{}
}

func (r *DelegationRepository) GetByID(ctx context.Context, id uuid.UUID) (*delegation.Delegation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+delegationColumns+`
		FROM delegations
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanDelegations(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *DelegationRepository) ActiveForDelegatee(ctx context.Context, delegateeID uuid.UUID, now time.Time) ([]*delegation.Delegation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+delegationColumns+`
		FROM delegations
		WHERE tenant_id = $1 AND delegatee_id = $2
		  AND revoked_at IS NULL
		  AND valid_from <= $3 AND valid_until > $3
	`, tenantID, delegateeID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDelegations(rows)
}

func (r *DelegationRepository) Create(ctx context.Context, d *delegation.Delegation) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	perms := make([]string, 0, len(d.Permissions))
	for _, p := range d.Permissions {
		perms = append(perms, string(p))
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO delegations (
			id, tenant_id, delegator_id, delegatee_id, org_unit_id, permissions,
			valid_from, valid_until, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		d.ID,
		d.TenantID,
		d.DelegatorID,
		d.DelegateeID,
		pgUUIDPtr(d.OrgUnitID),
		perms,
		d.ValidFrom,
		d.ValidUntil,
		d.CreatedAt,
	)
	return err
}

func (r *DelegationRepository) Revoke(ctx context.Context, id, revokedBy uuid.UUID, at time.Time) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE delegations
		SET revoked_at = $3, revoked_by = $4
		WHERE tenant_id = $1 AND id = $2 AND revoked_at IS NULL
	`, tenantID, id, at, revokedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanDelegations(rows pgx.Rows) ([]*delegation.Delegation, error) {
	var results []*delegation.Delegation
	for rows.Next() {
		var m models.Delegation
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.DelegatorID,
			&m.DelegateeID,
			&m.OrgUnitID,
			&m.Permissions,
			&m.ValidFrom,
			&m.ValidUntil,
			&m.RevokedAt,
			&m.RevokedBy,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainDelegation(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
