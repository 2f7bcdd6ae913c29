package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence/models"
	"github.com/govkit/records-sdk/pkg/composables"
)

type SubjectRepository struct{}

func NewSubjectRepository() subject.Repository {
	return &SubjectRepository{}
}

func (r *SubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*subject.Subject, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var row models.Subject
	err = tx.QueryRow(ctx, `
		SELECT id, tenant_id, org_unit_id, position_id, security_clearance, is_superuser
		FROM subjects
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(
		&row.ID,
		&row.TenantID,
		&row.OrgUnitID,
		&row.PositionID,
		&row.Clearance,
		&row.Superuser,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainSubject(&row), nil
}

func (r *SubjectRepository) Create(ctx context.Context, s *subject.Subject) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO subjects (id, tenant_id, org_unit_id, position_id, security_clearance, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		s.ID,
		s.TenantID,
		pgUUIDPtr(s.OrgUnitID),
		pgUUIDPtr(s.PositionID),
		s.Clearance.String(),
		s.Superuser,
	)
	return err
}

func (r *SubjectRepository) Update(ctx context.Context, s *subject.Subject) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE subjects
		SET org_unit_id = $3, position_id = $4, security_clearance = $5, is_superuser = $6
		WHERE tenant_id = $1 AND id = $2
	`,
		tenantID,
		s.ID,
		pgUUIDPtr(s.OrgUnitID),
		pgUUIDPtr(s.PositionID),
		s.Clearance.String(),
		s.Superuser,
	)
	return err
}

func (r *SubjectRepository) CountByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM subjects WHERE tenant_id = $1 AND org_unit_id = $2
	`, tenantID, orgUnitID).Scan(&count)
	return count, err
}

type PolicyRepository struct{}

func NewPolicyRepository() policy.Repository {
	return &PolicyRepository{}
}

// RolesForSubject returns the subject's roles with their access policies
// attached.
func (r *PolicyRepository) RolesForSubject(ctx context.Context, subjectID uuid.UUID) ([]*policy.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT r.id, r.tenant_id, r.name
		FROM roles r
		JOIN subject_roles sr ON sr.role_id = r.id AND sr.tenant_id = r.tenant_id
		WHERE r.tenant_id = $1 AND sr.subject_id = $2
	`, tenantID, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*policy.Role
	roleIDs := make([]uuid.UUID, 0, 4)
	for rows.Next() {
		var row models.Role
		if err := rows.Scan(&row.ID, &row.TenantID, &row.Name); err != nil {
			return nil, err
		}
		roles = append(roles, &policy.Role{ID: row.ID, TenantID: row.TenantID, Name: row.Name})
		roleIDs = append(roleIDs, row.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return roles, nil
	}

	policyRows, err := tx.Query(ctx, `
		SELECT id, tenant_id, role_id, resource_type, resource_id,
		       can_view, can_create, can_edit, can_delete, can_approve, can_share, can_manage,
		       scope, conditions, valid_from, valid_until, is_active
		FROM access_policies
		WHERE tenant_id = $1 AND role_id = ANY($2)
	`, tenantID, roleIDs)
	if err != nil {
		return nil, err
	}
	defer policyRows.Close()

	byRole := make(map[uuid.UUID]*policy.Role, len(roles))
	for _, role := range roles {
		byRole[role.ID] = role
	}
	for policyRows.Next() {
		var row models.AccessPolicy
		if err := policyRows.Scan(
			&row.ID,
			&row.TenantID,
			&row.RoleID,
			&row.ResourceType,
			&row.ResourceID,
			&row.CanView,
			&row.CanCreate,
			&row.CanEdit,
			&row.CanDelete,
			&row.CanApprove,
			&row.CanShare,
			&row.CanManage,
			&row.Scope,
			&row.Conditions,
			&row.ValidFrom,
			&row.ValidUntil,
			&row.IsActive,
		); err != nil {
			return nil, err
		}
		if role, ok := byRole[row.RoleID]; ok {
			role.Policies = append(role.Policies, toDomainPolicy(&row))
		}
	}
	if err := policyRows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *PolicyRepository) CreateRole(ctx context.Context, role *policy.Role) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO roles (id, tenant_id, name) VALUES ($1, $2, $3)`,
		role.ID, role.TenantID, role.Name,
	)
	return err
}

func (r *PolicyRepository) CreatePolicy(ctx context.Context, p *policy.AccessPolicy) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	conditions, err := marshalConditions(p.Conditions)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO access_policies (
			id, tenant_id, role_id, resource_type, resource_id,
			can_view, can_create, can_edit, can_delete, can_approve, can_share, can_manage,
			scope, conditions, valid_from, valid_until, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		p.ID,
		p.TenantID,
		p.RoleID,
		string(p.ResourceType),
		pgUUIDPtr(p.ResourceID),
		p.Capabilities.View,
		p.Capabilities.Create,
		p.Capabilities.Edit,
		p.Capabilities.Delete,
		p.Capabilities.Approve,
		p.Capabilities.Share,
		p.Capabilities.Manage,
		string(p.Scope),
		conditions,
		p.ValidFrom,
		p.ValidUntil,
		p.IsActive,
	)
	return err
}

func (r *PolicyRepository) DeactivatePolicy(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE access_policies SET is_active = false WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	return err
}
