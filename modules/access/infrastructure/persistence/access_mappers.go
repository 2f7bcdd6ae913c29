package persistence

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/modules/access/domain/decision"
	"github.com/govkit/records-sdk/modules/access/domain/delegation"
	"github.com/govkit/records-sdk/modules/access/domain/grants"
	"github.com/govkit/records-sdk/modules/access/domain/orgunit"
	"github.com/govkit/records-sdk/modules/access/domain/policy"
	"github.com/govkit/records-sdk/modules/access/domain/securitylevel"
	"github.com/govkit/records-sdk/modules/access/domain/subject"
	"github.com/govkit/records-sdk/modules/access/infrastructure/persistence/models"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func uuidPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func parseUUIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func marshalConditions(conds []policy.Condition) ([]byte, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	return json.Marshal(conds)
}

func toDomainOrgUnit(row *models.OrgUnit) *orgunit.OrgUnit {
	level, _ := orgunit.ParseUnitLevel(row.Level)
	return &orgunit.OrgUnit{
		ID:        row.ID,
		TenantID:  row.TenantID,
		ParentID:  uuidPtr(row.ParentID),
		Level:     level,
		Name:      row.Name,
		ShortName: row.ShortName,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toDomainSubject(row *models.Subject) *subject.Subject {
	clearance, ok := securitylevel.Parse(row.Clearance)
	if !ok {
		// Parse's stricter fallback fits resource labels, not clearances:
		// a clearance we cannot read must not widen what the subject reads.
		clearance = securitylevel.Public
		logrus.WithFields(logrus.Fields{
			"component":  "persistence",
			"subject_id": row.ID.String(),
			"clearance":  row.Clearance,
		}).Warn("subject carries unknown clearance label, treating as public")
	}
	return &subject.Subject{
		ID:         row.ID,
		TenantID:   row.TenantID,
		OrgUnitID:  uuidPtr(row.OrgUnitID),
		PositionID: uuidPtr(row.PositionID),
		Clearance:  clearance,
		Superuser:  row.Superuser,
	}
}

func capabilitiesFromFlags(view, create, edit, del, approve, share, manage bool) policy.Capabilities {
	return policy.Capabilities{
		View:    view,
		Create:  create,
		Edit:    edit,
		Delete:  del,
		Approve: approve,
		Share:   share,
		Manage:  manage,
	}
}

func toDomainPolicy(row *models.AccessPolicy) *policy.AccessPolicy {
	p := &policy.AccessPolicy{
		ID:           row.ID,
		TenantID:     row.TenantID,
		RoleID:       row.RoleID,
		ResourceType: policy.ResourceType(row.ResourceType),
		ResourceID:   uuidPtr(row.ResourceID),
		Capabilities: capabilitiesFromFlags(row.CanView, row.CanCreate, row.CanEdit, row.CanDelete, row.CanApprove, row.CanShare, row.CanManage),
		Scope:        policy.Scope(row.Scope),
		IsActive:     row.IsActive,
	}
	if row.ValidFrom.Valid {
		t := row.ValidFrom.Time
		p.ValidFrom = &t
	}
	if row.ValidUntil.Valid {
		t := row.ValidUntil.Time
		p.ValidUntil = &t
	}
	if len(row.Conditions) > 0 {
		// Unparseable conditions are dropped silently here; the engine
		// treats a policy with missing condition data as a non-match.
		_ = json.Unmarshal(row.Conditions, &p.Conditions)
	}
	return p
}

func toDomainOrgGrant(row *models.OrgAccessGrant) *grants.OrgAccessGrant {
	return &grants.OrgAccessGrant{
		ID:                row.ID,
		TenantID:          row.TenantID,
		ResourceType:      policy.ResourceType(row.ResourceType),
		ResourceID:        row.ResourceID,
		OrgUnitID:         row.OrgUnitID,
		Capabilities:      capabilitiesFromFlags(row.CanView, row.CanCreate, row.CanEdit, row.CanDelete, row.CanApprove, row.CanShare, row.CanManage),
		InheritToChildren: row.InheritToChildren,
		GrantedBy:         row.GrantedBy,
		GrantedAt:         row.GrantedAt,
	}
}

func toDomainUserGrant(row *models.UserAccessGrant) *grants.UserAccessGrant {
	return &grants.UserAccessGrant{
		ID:           row.ID,
		TenantID:     row.TenantID,
		ResourceType: policy.ResourceType(row.ResourceType),
		ResourceID:   row.ResourceID,
		UserID:       row.UserID,
		Capabilities: capabilitiesFromFlags(row.CanView, row.CanCreate, row.CanEdit, row.CanDelete, row.CanApprove, row.CanShare, row.CanManage),
		GrantedBy:    row.GrantedBy,
		GrantedAt:    row.GrantedAt,
	}
}

func toDomainVisibility(row *models.VisibilityRecord) *grants.VisibilityRecord {
	level, _ := securitylevel.Parse(row.SecurityLevel)
	v := &grants.VisibilityRecord{
		ID:              row.ID,
		TenantID:        row.TenantID,
		ResourceType:    policy.ResourceType(row.ResourceType),
		ResourceID:      row.ResourceID,
		OwnerID:         row.OwnerID,
		OwnerOrgUnitID:  uuidPtr(row.OwnerOrgUnitID),
		ContainerID:     uuidPtr(row.ContainerID),
		Level:           level,
		Confidentiality: row.Confidentiality,
		SharedWithOrgs:  parseUUIDs(row.SharedWithOrgs),
		SharedWithUsers: parseUUIDs(row.SharedWithUsers),
		Public:          row.IsPublic,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if len(row.Attributes) > 0 {
		_ = json.Unmarshal(row.Attributes, &v.Attributes)
	}
	return v
}

func toDomainDecision(row *models.AccessDecision) *decision.AccessDecision {
	return &decision.AccessDecision{
		ID:           row.ID,
		TenantID:     row.TenantID,
		SubjectID:    row.SubjectID,
		ResourceType: policy.ResourceType(row.ResourceType),
		ResourceID:   row.ResourceID,
		Action:       policy.Action(row.Action),
		Allowed:      row.Allowed,
		Reason:       row.Reason,
		EvaluatedAt:  row.EvaluatedAt,
	}
}

func toDomainDelegation(row *models.Delegation) *delegation.Delegation {
	d := &delegation.Delegation{
		ID:          row.ID,
		TenantID:    row.TenantID,
		DelegatorID: row.DelegatorID,
		DelegateeID: row.DelegateeID,
		OrgUnitID:   uuidPtr(row.OrgUnitID),
		ValidFrom:   row.ValidFrom,
		ValidUntil:  row.ValidUntil,
		RevokedBy:   uuidPtr(row.RevokedBy),
		CreatedAt:   row.CreatedAt,
	}
	if row.RevokedAt.Valid {
		t := row.RevokedAt.Time
		d.RevokedAt = &t
	}
	d.Permissions = make([]policy.Action, 0, len(row.Permissions))
	for _, p := range row.Permissions {
		d.Permissions = append(d.Permissions, policy.Action(p))
	}
	return d
}

func delegationPermissions(d *delegation.Delegation) []string {
	out := make([]string, 0, len(d.Permissions))
	for _, p := range d.Permissions {
		out = append(out, string(p))
	}
	return out
}
