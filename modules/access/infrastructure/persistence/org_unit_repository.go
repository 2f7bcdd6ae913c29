package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence/models"
	"github.com/govkit/records-sdk/pkg/composables"
	"github.com/govkit/records-sdk/pkg/repo"
)

const orgUnitColumns = "id, tenant_id, parent_id, level, name, short_name, created_at, updated_at"

type OrgUnitRepository struct{}

func NewOrgUnitRepository() orgunit.Repository {
	return &OrgUnitRepository{}
}

func (r *OrgUnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row models.OrgUnit
	err = tx.QueryRow(ctx, `
		SELECT `+orgUnitColumns+`
		FROM org_units
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(
		&row.ID,
		&row.TenantID,
		&row.ParentID,
		&row.Level,
		&row.Name,
		&row.ShortName,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainOrgUnit(&row), nil
}

func (r *OrgUnitRepository) List(ctx context.Context, params *orgunit.FindParams) ([]*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argPos := 2
	if params != nil {
		if params.ParentID != nil {
			where = append(where, fmt.Sprintf("parent_id = $%d", argPos))
			args = append(args, *params.ParentID)
			argPos++
		}
		if params.Level != nil {
			where = append(where, fmt.Sprintf("level = $%d", argPos))
			args = append(args, params.Level.String())
		}
	}

	query := `
		SELECT ` + orgUnitColumns + `
		FROM org_units
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY name ASC
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrgUnits(rows)
}

func (r *OrgUnitRepository) ListAll(ctx context.Context) ([]*orgunit.OrgUnit, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+orgUnitColumns+`
		FROM org_units
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrgUnits(rows)
}

func (r *OrgUnitRepository) Create(ctx context.Context, unit *orgunit.OrgUnit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO org_units (id, tenant_id, parent_id, level, name, short_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`,
		unit.ID,
		unit.TenantID,
		pgUUIDPtr(unit.ParentID),
		unit.Level.String(),
		unit.Name,
		unit.ShortName,
		now,
	)
	return err
}

func (r *OrgUnitRepository) Update(ctx context.Context, unit *orgunit.OrgUnit) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE org_units
		SET parent_id = $3, level = $4, name = $5, short_name = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2
	`,
		tenantID,
		unit.ID,
		pgUUIDPtr(unit.ParentID),
		unit.Level.String(),
		unit.Name,
		unit.ShortName,
		time.Now(),
	)
	return err
}

func (r *OrgUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM org_units WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return err
}

func scanOrgUnits(rows pgx.Rows) ([]*orgunit.OrgUnit, error) {
	var results []*orgunit.OrgUnit
	for rows.Next() {
		var row models.OrgUnit
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.ParentID,
			&row.Level,
			&row.Name,
			&row.ShortName,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainOrgUnit(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
