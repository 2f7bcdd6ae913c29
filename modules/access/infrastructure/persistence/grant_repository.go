package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/govkit/records-sdk/modules/access/domain/grants"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence/models"
	"github.com/govkit/records-sdk/pkg/composables"
)

type GrantRepository struct{}

func NewGrantRepository() grants.Repository {
	return &GrantRepository{}
}

func (r *GrantRepository) VisibilityFor(ctx context.Context, resourceType policy.ResourceType, resourceID uuid.UUID) (*grants.VisibilityRecord, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row models.VisibilityRecord
	err = tx.QueryRow(ctx, `
		SELECT id, tenant_id, resource_type, resource_id, owner_id, owner_org_unit_id, container_id,
		       security_level, confidentiality, shared_with_orgs, shared_with_users, is_public, attributes,
		       created_at, updated_at
		FROM visibility_records
		WHERE tenant_id = $1 AND resource_type = $2 AND resource_id = $3
	`, tenantID, string(resourceType), resourceID).Scan(
		&row.ID,
		&row.TenantID,
		&row.ResourceType,
		&row.ResourceID,
		&row.OwnerID,
		&row.OwnerOrgUnitID,
		&row.ContainerID,
		&row.SecurityLevel,
		&row.Confidentiality,
		&row.SharedWithOrgs,
		&row.SharedWithUsers,
		&row.IsPublic,
		&row.Attributes,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainVisibility(&row), nil
}

func (r *GrantRepository) UpsertVisibility(ctx context.Context, record *grants.VisibilityRecord) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	var attrs []byte
	if len(record.Attributes) > 0 {
		attrs, err = json.Marshal(record.Attributes)
		if err != nil {
			return err
		}
	}
	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO visibility_records (
			id, tenant_id, resource_type, resource_id, owner_id, owner_org_unit_id, container_id,
			security_level, confidentiality, shared_with_orgs, shared_with_users, is_public, attributes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (tenant_id, resource_type, resource_id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			owner_org_unit_id = EXCLUDED.owner_org_unit_id,
			container_id = EXCLUDED.container_id,
			security_level = EXCLUDED.security_level,
			confidentiality = EXCLUDED.confidentiality,
			shared_with_orgs = EXCLUDED.shared_with_orgs,
			shared_with_users = EXCLUDED.shared_with_users,
			is_public = EXCLUDED.is_public,
			attributes = EXCLUDED.attributes,
			updated_at = EXCLUDED.updated_at
	`,
		record.ID,
		record.TenantID,
		string(record.ResourceType),
		record.ResourceID,
		record.OwnerID,
		pgUUIDPtr(record.OwnerOrgUnitID),
		pgUUIDPtr(record.ContainerID),
		record.Level.String(),
		record.Confidentiality,
		uuidStrings(record.SharedWithOrgs),
		uuidStrings(record.SharedWithUsers),
		record.Public,
		attrs,
		now,
	)
	return err
}

func (r *GrantRepository) OrgGrantsFor(ctx context.Context, resourceType policy.ResourceType, resourceID uuid.UUID) ([]*grants.OrgAccessGrant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, tenant_id, resource_type, resource_id, org_unit_id,
		       can_view, can_create, can_edit, can_delete, can_approve, can_share, can_manage,
		       inherit_to_children, granted_by, granted_at
		FROM org_access_grants
		WHERE tenant_id = $1 AND resource_type = $2 AND resource_id = $3
	`, tenantID, string(resourceType), resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*grants.OrgAccessGrant
	for rows.Next() {
		var row models.OrgAccessGrant
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.ResourceType,
			&row.ResourceID,
			&row.OrgUnitID,
			&row.CanView,
			&row.CanCreate,
			&row.CanEdit,
			&row.CanDelete,
			&row.CanApprove,
			&row.CanShare,
			&row.CanManage,
			&row.InheritToChildren,
			&row.GrantedBy,
			&row.GrantedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainOrgGrant(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *GrantRepository) UserGrantsFor(ctx context.Context, resourceType policy.ResourceType, resourceID uuid.UUID) ([]*grants.UserAccessGrant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, tenant_id, resource_type, resource_id, user_id,
		       can_view, can_create, can_edit, can_delete, can_approve, can_share, can_manage,
		       granted_by, granted_at
		FROM user_access_grants
		WHERE tenant_id = $1 AND resource_type = $2 AND resource_id = $3
	`, tenantID, string(resourceType), resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*grants.UserAccessGrant
	for rows.Next() {
		var row models.UserAccessGrant
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.ResourceType,
			&row.ResourceID,
			&row.UserID,
			&row.CanView,
			&row.CanCreate,
			&row.CanEdit,
			&row.CanDelete,
			&row.CanApprove,
			&row.CanShare,
			&row.CanManage,
			&row.GrantedBy,
			&row.GrantedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainUserGrant(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *GrantRepository) CreateOrgGrant(ctx context.Context, grant *grants.OrgAccessGrant) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO org_access_grants (
			id, tenant_id, resource_type, resource_id, org_unit_id,
			can_view, can_create, can_edit, can_delete, can_approve, can_share, can_manage,
			inherit_to_children, granted_by, granted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		grant.ID,
		grant.TenantID,
		string(grant.ResourceType),
		grant.ResourceID,
		grant.OrgUnitID,
		grant.Capabilities.View,
		grant.Capabilities.Create,
		grant.Capabilities.Edit,
		grant.Capabilities.Delete,
		grant.Capabilities.Approve,
		grant.Capabilities.Share,
		grant.Capabilities.Manage,
		grant.InheritToChildren,
		grant.GrantedBy,
		grant.GrantedAt,
	)
	return err
}

func (r *GrantRepository) CreateUserGrant(ctx context.Context, grant *grants.UserAccessGrant) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO user_access_grants (
			id, tenant_id, resource_type, resource_id, user_id,
			can_view, can_create, can_edit, can_delete, can_approve, can_share, can_manage,
			granted_by, granted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		grant.ID,
		grant.TenantID,
		string(grant.ResourceType),
		grant.ResourceID,
		grant.UserID,
		grant.Capabilities.View,
		grant.Capabilities.Create,
		grant.Capabilities.Edit,
		grant.Capabilities.Delete,
		grant.Capabilities.Approve,
		grant.Capabilities.Share,
		grant.Capabilities.Manage,
		grant.GrantedBy,
		grant.GrantedAt,
	)
	return err
}

func (r *GrantRepository) RevokeOrgGrant(ctx context.Context, resourceID, orgUnitID uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `
		DELETE FROM org_access_grants
		WHERE tenant_id = $1 AND resource_id = $2 AND org_unit_id = $3
	`, tenantID, resourceID, orgUnitID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *GrantRepository) RevokeUserGrant(ctx context.Context, resourceID, userID uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `
		DELETE FROM user_access_grants
		WHERE tenant_id = $1 AND resource_id = $2 AND user_id = $3
	`, tenantID, resourceID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
